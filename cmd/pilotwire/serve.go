package main

import (
	"context"

	cli "github.com/urfave/cli/v3"

	"github.com/pilotwire/pilotwire/pkg/log"
	"github.com/pilotwire/pilotwire/pkg/web"
)

const defaultPort = 9092

func ServeCommand() *cli.Command {
	flags := append(sessionFlags(),
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the monitoring gateway on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
	)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the monitoring gateway",
		Flags:   flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("gateway")

			logger.InfoContext(ctx, "Initializing Pilotwire gateway")

			deps, err := buildSession(ctx, command, logger)
			if err != nil {
				return err
			}
			defer deps.close(ctx, logger)

			api := web.NewAPI(deps.controller)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start gateway", "error", err)
			}

			return nil
		},
	}
}

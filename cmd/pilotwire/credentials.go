package main

import (
	"context"
	"encoding/json"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/pilotwire/pilotwire/pkg/cmd"
	"github.com/pilotwire/pilotwire/pkg/log"
)

func CredentialsCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "credentials-url",
			Usage:   "Credential store URL (file path, postgres:// or redis://)",
			Value:   "./data",
			Sources: cli.EnvVars("CREDENTIALS_URL"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}

	return &cli.Command{
		Name:    "credentials",
		Aliases: []string{"c"},
		Usage:   "Inspect and manage stored workflow credentials",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print the stored storage-state blob for a workflow",
				ArgsUsage: "<workflow-id>",
				Flags:     flags,
				Action: func(ctx context.Context, command *cli.Command) error {
					workflowID := command.Args().First()
					if workflowID == "" {
						return fmt.Errorf("workflow id argument is required")
					}

					log.Setup(command.String("log-level"))

					store, err := cmd.NewCredentialStore(ctx, log.WithModule("credentials"), command.String("credentials-url"))
					if err != nil {
						return err
					}

					defer func() {
						_ = store.Close(ctx)
					}()

					state, err := store.Get(ctx, workflowID)
					if err != nil {
						return err
					}

					encoded, err := json.MarshalIndent(state, "", "  ")
					if err != nil {
						return err
					}

					fmt.Println(string(encoded))

					return nil
				},
			},
			{
				Name:      "remove",
				Usage:     "Delete the stored storage-state blob for a workflow",
				ArgsUsage: "<workflow-id>",
				Flags:     flags,
				Action: func(ctx context.Context, command *cli.Command) error {
					workflowID := command.Args().First()
					if workflowID == "" {
						return fmt.Errorf("workflow id argument is required")
					}

					log.Setup(command.String("log-level"))

					store, err := cmd.NewCredentialStore(ctx, log.WithModule("credentials"), command.String("credentials-url"))
					if err != nil {
						return err
					}

					defer func() {
						_ = store.Close(ctx)
					}()

					err = store.Remove(ctx, workflowID)
					if err != nil {
						return err
					}

					fmt.Printf("Removed credentials for workflow %s\n", workflowID)

					return nil
				},
			},
		},
	}
}

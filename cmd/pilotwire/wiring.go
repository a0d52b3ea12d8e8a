package main

import (
	"context"
	"log/slog"

	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/pilotwire/pilotwire/pkg/cmd"
	"github.com/pilotwire/pilotwire/pkg/connection"
	"github.com/pilotwire/pilotwire/pkg/controller"
	"github.com/pilotwire/pilotwire/pkg/credentials"
	"github.com/pilotwire/pilotwire/pkg/engine"
	"github.com/pilotwire/pilotwire/pkg/eventbus"
	"github.com/pilotwire/pilotwire/pkg/otelhelper"
)

// sessionFlags are the flags shared by every command that drives a session.
func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "engine-url",
			Usage:    "Base URL of the execution engine HTTP API",
			Required: true,
			Sources:  cli.EnvVars("ENGINE_URL"),
		},
		&cli.StringFlag{
			Name:     "channel-url",
			Usage:    "WebSocket base URL for execution session channels",
			Required: true,
			Sources:  cli.EnvVars("CHANNEL_URL"),
		},
		&cli.StringFlag{
			Name:    "credentials-url",
			Usage:   "Credential store URL (file path, postgres:// or redis://)",
			Value:   "./data",
			Sources: cli.EnvVars("CREDENTIALS_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export OpenTelemetry traces for session operations",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
	}
}

type sessionDeps struct {
	controller *controller.Controller
	eventBus   eventbus.EventBus
	store      credentials.Store
}

func buildSession(ctx context.Context, command *cli.Command, logger *slog.Logger) (*sessionDeps, error) {
	eventBus := cmd.NewEventBus(command.String("event-bus"), logger)

	store, err := cmd.NewCredentialStore(ctx, logger, command.String("credentials-url"))
	if err != nil {
		return nil, err
	}

	var tracer trace.Tracer

	if command.Bool("tracing") {
		tracer, err = otelhelper.NewTracer(ctx, "pilotwire")
		if err != nil {
			return nil, err
		}
	}

	channel := connection.NewManager(connection.Config{
		Endpoint: command.String("channel-url"),
		Logger:   logger,
	})

	ctrl := controller.New(controller.Config{
		Channel:     channel,
		Engine:      engine.NewClient(command.String("engine-url"), logger),
		Credentials: store,
		Publisher:   eventBus,
		Logger:      logger,
		Tracer:      tracer,
	})

	return &sessionDeps{
		controller: ctrl,
		eventBus:   eventBus,
		store:      store,
	}, nil
}

func (d *sessionDeps) close(ctx context.Context, logger *slog.Logger) {
	err := d.eventBus.Close()
	if err != nil {
		logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
	}

	err = d.store.Close(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to close credential store", "error", err)
	}
}

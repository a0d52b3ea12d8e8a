package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/pilotwire/pilotwire/pkg/events"
	"github.com/pilotwire/pilotwire/pkg/log"
	"github.com/pilotwire/pilotwire/pkg/models"
)

func RunCommand() *cli.Command {
	flags := append(sessionFlags(),
		&cli.StringFlag{
			Name:     "workflow-id",
			Aliases:  []string{"w"},
			Usage:    "ID of the workflow to execute",
			Required: true,
			Sources:  cli.EnvVars("WORKFLOW_ID"),
		},
		&cli.StringFlag{
			Name:    "mode",
			Usage:   "Execution mode (headless, headful)",
			Value:   string(models.ExecutionModeHeadless),
			Sources: cli.EnvVars("EXECUTION_MODE"),
		},
		&cli.StringFlag{
			Name:    "schedule",
			Usage:   "Cron expression to run the workflow repeatedly instead of once",
			Sources: cli.EnvVars("SCHEDULE"),
		},
	)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Execute a workflow and stream its session until it finishes",
		Flags:   flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("run")

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := buildSession(ctx, command, logger)
			if err != nil {
				return err
			}
			defer deps.close(ctx, logger)

			done := make(chan string, 1)

			err = streamSession(deps, logger, done)
			if err != nil {
				return err
			}

			err = deps.eventBus.Subscribe(ctx)
			if err != nil {
				return err
			}

			workflowID := command.String("workflow-id")
			mode := models.ExecutionMode(command.String("mode"))

			runOnce := func() error {
				executionID, err := deps.controller.Start(ctx, workflowID, mode)
				if err != nil {
					return err
				}

				logger.InfoContext(ctx, "Execution started",
					"workflow_id", workflowID,
					"execution_id", executionID,
				)

				select {
				case status := <-done:
					if status != "completed" {
						return fmt.Errorf("execution %s ended with status %s", executionID, status)
					}

					return nil
				case <-ctx.Done():
					deps.controller.Reset()

					return ctx.Err()
				}
			}

			schedule := command.String("schedule")
			if schedule == "" {
				return runOnce()
			}

			scheduler := cron.New()

			_, err = scheduler.AddFunc(schedule, func() {
				if err := runOnce(); err != nil {
					logger.ErrorContext(ctx, "Scheduled execution failed", "error", err)
				}
			})
			if err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}

			logger.InfoContext(ctx, "Scheduler started", "schedule", schedule)
			scheduler.Start()

			<-ctx.Done()

			<-scheduler.Stop().Done()

			return nil
		},
	}
}

// streamSession wires the bus handlers that narrate session progress and
// report the terminal status on done.
func streamSession(deps *sessionDeps, logger *slog.Logger, done chan<- string) error {
	err := deps.eventBus.Handle(events.SessionUpdatedEvent, func(ctx context.Context, event any) error {
		updated, ok := event.(*events.SessionUpdated)
		if !ok {
			return nil
		}

		sess := updated.Session

		if sess.CurrentNodeID != "" {
			logger.InfoContext(ctx, "Node running",
				"execution_id", sess.ExecutionID,
				"node_id", sess.CurrentNodeID,
			)
		}

		if sess.PendingInput != nil {
			logger.WarnContext(ctx, "Execution is waiting for operator input",
				"execution_id", sess.ExecutionID,
				"kind", sess.PendingInput.Kind,
				"node_id", sess.PendingInput.NodeID,
			)
		}

		return nil
	})
	if err != nil {
		return err
	}

	err = deps.eventBus.Handle(events.SessionFinishedEvent, func(ctx context.Context, event any) error {
		finished, ok := event.(*events.SessionFinished)
		if !ok {
			return nil
		}

		logger.InfoContext(ctx, "Execution finished",
			"execution_id", finished.ExecutionID,
			"status", finished.Status,
			"nodes_executed", finished.NodesExecuted,
		)

		done <- finished.Status

		return nil
	})
	if err != nil {
		return err
	}

	return deps.eventBus.Handle(events.SessionFailedEvent, func(ctx context.Context, event any) error {
		failed, ok := event.(*events.SessionFailed)
		if !ok {
			return nil
		}

		logger.ErrorContext(ctx, "Execution failed",
			"execution_id", failed.ExecutionID,
			"error", failed.Error,
		)

		done <- "failed"

		return nil
	})
}

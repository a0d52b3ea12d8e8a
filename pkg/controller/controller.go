// Package controller orchestrates one execution session: it owns the session
// record, feeds decoded protocol events into it, issues commands to the
// engine, consults the credential store around run boundaries, and publishes
// an immutable snapshot after every transition. It is the only writer of
// session state; everything else reads snapshots.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/pilotwire/pilotwire/pkg/credentials"
	"github.com/pilotwire/pilotwire/pkg/eventbus"
	"github.com/pilotwire/pilotwire/pkg/events"
	"github.com/pilotwire/pilotwire/pkg/models"
	"github.com/pilotwire/pilotwire/pkg/otelhelper"
	"github.com/pilotwire/pilotwire/pkg/protocol"
	"github.com/pilotwire/pilotwire/pkg/session"
)

const storeTimeout = 10 * time.Second

// Channel is the transport the controller drives. *connection.Manager is the
// production implementation.
type Channel interface {
	OnOpen(handler func(executionID string))
	OnClose(handler func(executionID string))
	OnMessage(handler func(data []byte))
	Open(ctx context.Context, executionID string) error
	ScheduleReconnect(executionID string)
	Send(payload []byte) bool
	Close()
}

// EngineAPI covers the engine's out-of-band HTTP endpoints.
type EngineAPI interface {
	Execute(ctx context.Context, workflowID string, mode models.ExecutionMode) (string, error)
	Stop(ctx context.Context, executionID string) error
}

// Config holds the collaborators for a Controller.
type Config struct {
	Channel     Channel
	Engine      EngineAPI
	Credentials credentials.Store
	Publisher   eventbus.EventPublisher
	Logger      *slog.Logger
	Tracer      trace.Tracer
}

// Controller is the session controller. One controller drives at most one
// execution at a time; starting a new run replaces the previous session.
type Controller struct {
	channel     Channel
	engine      EngineAPI
	credentials credentials.Store
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer

	mu           sync.Mutex
	sess         models.Session
	mode         models.ExecutionMode
	startPayload []byte
	startSent    bool
}

// New creates a controller and registers itself on the channel's callbacks.
func New(config Config) *Controller {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	if config.Tracer == nil {
		config.Tracer = noop.NewTracerProvider().Tracer("controller")
	}

	c := &Controller{
		channel:     config.Channel,
		engine:      config.Engine,
		credentials: config.Credentials,
		publisher:   config.Publisher,
		logger:      config.Logger.With("module", "controller"),
		tracer:      config.Tracer,
		sess:        session.Initial(),
	}

	c.channel.OnOpen(c.handleOpen)
	c.channel.OnClose(c.handleClose)
	c.channel.OnMessage(c.handleMessage)

	return c
}

// Start asks the engine to accept a run, looks up the stored credential blob
// for the workflow (absence is a normal state), resets the session, opens the
// channel, and arranges for the start_execution command to go out once the
// channel is open. Returns the accepted execution id.
func (c *Controller) Start(ctx context.Context, workflowID string, mode models.ExecutionMode) (string, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "session.start",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	if !models.ValidExecutionMode(mode) {
		mode = models.ExecutionModeHeadless
	}

	executionID, err := c.engine.Execute(ctx, workflowID, mode)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", fmt.Errorf("engine did not accept workflow %s: %w", workflowID, err)
	}

	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, executionID))

	blob, err := c.credentials.Get(ctx, workflowID)
	if err != nil {
		if !credentials.IsNotFound(err) {
			// A broken store must not block the run; start unauthenticated.
			c.logger.WarnContext(ctx, "Credential lookup failed, starting without storage state",
				"workflow_id", workflowID,
				"error", err,
			)
		}

		blob = nil
	}

	startPayload, err := protocol.Encode(protocol.StartExecution{
		WorkflowID:           workflowID,
		Mode:                 mode,
		InjectedStorageState: blob,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return "", err
	}

	c.mu.Lock()
	c.sess = session.Initial()
	c.sess.WorkflowID = workflowID
	c.sess.ExecutionID = executionID
	c.sess.Running = true
	c.mode = mode
	c.startPayload = startPayload
	c.startSent = false
	snapshot := c.sess.Clone()
	c.mu.Unlock()

	c.publishUpdated(snapshot)

	c.logger.InfoContext(ctx, "Execution accepted",
		"workflow_id", workflowID,
		"execution_id", executionID,
		"mode", mode,
		"has_storage_state", blob != nil,
	)

	err = c.channel.Open(ctx, executionID)
	if err != nil {
		// The engine holds the run server-side; keep trying to attach.
		c.logger.WarnContext(ctx, "Channel open failed, scheduling reconnect",
			"execution_id", executionID,
			"error", err,
		)
		c.channel.ScheduleReconnect(executionID)
	}

	return executionID, nil
}

// Stop sends stop_execution over the channel and notifies the engine's
// synchronous stop endpoint as a fallback in case the channel command is
// lost. It does not flip the session to idle: that happens only when the
// engine confirms with a terminal event, or on an explicit local Reset.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	executionID := c.sess.ExecutionID
	workflowID := c.sess.WorkflowID
	c.mu.Unlock()

	if executionID == "" {
		return fmt.Errorf("no execution to stop")
	}

	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "session.stop",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.ExecutionIDKey, executionID),
	)
	defer span.End()

	payload, err := protocol.Encode(protocol.StopExecution{})
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	sent := c.channel.Send(payload)

	err = c.engine.Stop(ctx, executionID)
	if err != nil {
		c.logger.WarnContext(ctx, "Out-of-band stop failed",
			"execution_id", executionID,
			"sent_on_channel", sent,
			"error", err,
		)

		if !sent {
			otelhelper.SetError(span, err)

			return fmt.Errorf("stop did not reach the engine: %w", err)
		}
	}

	return nil
}

// RespondToInput answers the outstanding interactive prompt and clears it
// locally without waiting for engine acknowledgement. If the engine re-sends
// the same prompt before processing the response, the prompt reappears; this
// optimistic clearing is a known trade-off kept on purpose.
func (c *Controller) RespondToInput(nodeID, action string) error {
	payload, err := protocol.Encode(protocol.UserInputResponse{
		NodeID: nodeID,
		Action: action,
	})
	if err != nil {
		return err
	}

	c.channel.Send(payload)

	c.mu.Lock()
	c.sess.PendingInput = nil
	snapshot := c.sess.Clone()
	c.mu.Unlock()

	c.publishUpdated(snapshot)

	return nil
}

// ConfirmLogin tells the engine the operator finished a manual login. Session
// state is untouched until the engine emits a follow-up event.
func (c *Controller) ConfirmLogin(executionID string) error {
	payload, err := protocol.Encode(protocol.LoginConfirmed{ExecutionID: executionID})
	if err != nil {
		return err
	}

	c.channel.Send(payload)

	return nil
}

// Reset forces the session back to idle regardless of sub-state: it marks
// the run not running (so the closing channel cannot schedule a reconnect),
// closes the channel, and replaces the session with an empty one.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.sess.Running = false
	c.startPayload = nil
	c.startSent = false
	c.mu.Unlock()

	c.channel.Close()

	c.mu.Lock()
	c.sess = session.Initial()
	snapshot := c.sess.Clone()
	c.mu.Unlock()

	c.publishUpdated(snapshot)
}

// Snapshot returns an independent copy of the current session.
func (c *Controller) Snapshot() models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sess.Clone()
}

// Running reports whether the session is currently marked running.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sess.Running
}

func (c *Controller) handleOpen(executionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.ExecutionID != executionID {
		return
	}

	// The start command goes out exactly once per session; a reconnect
	// resumes delivery on the live run instead of starting it again.
	if !c.startSent && c.startPayload != nil {
		if c.channel.Send(c.startPayload) {
			c.startSent = true
		}
	}
}

func (c *Controller) handleClose(executionID string) {
	c.mu.Lock()
	reconnect := c.sess.Running && c.sess.ExecutionID == executionID
	c.mu.Unlock()

	if !reconnect {
		c.logger.Debug("Channel closed for finished session", "execution_id", executionID)

		return
	}

	c.channel.ScheduleReconnect(executionID)
}

func (c *Controller) handleMessage(raw []byte) {
	event, err := protocol.Decode(raw)
	if err != nil {
		c.logger.Warn("Discarding undecodable message", "error", err)

		return
	}

	// Storage-state refreshes go to the credential store, never into the
	// session record.
	if update, ok := event.(*protocol.StorageStateUpdate); ok {
		c.persistStorageState(update)

		return
	}

	c.mu.Lock()
	c.sess = session.Apply(c.sess, event)
	snapshot := c.sess.Clone()
	c.mu.Unlock()

	c.publishUpdated(snapshot)

	switch ev := event.(type) {
	case *protocol.ExecutionComplete:
		c.publishFinished(snapshot, ev.Status)
	case *protocol.ErrorEvent:
		c.publishFailed(snapshot, ev.Message)
	}
}

func (c *Controller) persistStorageState(update *protocol.StorageStateUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	workflowID := update.WorkflowID
	if workflowID == "" {
		c.mu.Lock()
		workflowID = c.sess.WorkflowID
		c.mu.Unlock()
	}

	state := update.StorageState

	err := c.credentials.Save(ctx, workflowID, &state)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to persist storage state update",
			"workflow_id", workflowID,
			"error", err,
		)

		return
	}

	c.logger.InfoContext(ctx, "Storage state updated", "workflow_id", workflowID)
}

func (c *Controller) publishUpdated(snapshot models.Session) {
	c.publish(events.SessionUpdated{
		BaseEvent: events.NewBaseEvent(events.SessionUpdatedEvent, snapshot.WorkflowID, snapshot.ExecutionID),
		Session:   snapshot,
	})
}

func (c *Controller) publishFinished(snapshot models.Session, status string) {
	executed := 0

	for _, nodeStatus := range snapshot.NodeStatuses {
		if nodeStatus.IsTerminal() {
			executed++
		}
	}

	c.publish(events.SessionFinished{
		BaseEvent:     events.NewBaseEvent(events.SessionFinishedEvent, snapshot.WorkflowID, snapshot.ExecutionID),
		Status:        status,
		NodesExecuted: executed,
	})
}

func (c *Controller) publishFailed(snapshot models.Session, message string) {
	c.publish(events.SessionFailed{
		BaseEvent: events.NewBaseEvent(events.SessionFailedEvent, snapshot.WorkflowID, snapshot.ExecutionID),
		Error:     message,
	})
}

func (c *Controller) publish(event eventbus.Event) {
	if c.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	c.mu.Lock()
	key := c.sess.ExecutionID
	c.mu.Unlock()

	err := c.publisher.Publish(ctx, key, event)
	if err != nil {
		c.logger.Warn("Failed to publish session event",
			"event_type", event.GetType(),
			"error", err,
		)
	}
}

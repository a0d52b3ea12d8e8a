// Package connection owns the physical WebSocket channel to the execution
// engine for one execution at a time. It detects closure and re-dials on a
// fixed interval when asked to, but it never decides whether reconnecting is
// appropriate — that call belongs to the session controller, which knows
// whether the run is still live.
package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultReconnectDelay is the fixed interval between reconnection attempts.
// There is no backoff and no attempt cap: a monitored run is interactive and
// bounded, so a constant retry cadence is acceptable.
const DefaultReconnectDelay = 3 * time.Second

// State describes the channel lifecycle.
type State string

const (
	StateClosed     State = "closed"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
)

// Config holds the settings for a Manager.
type Config struct {
	// Endpoint is the WebSocket base URL for execution channels; the
	// execution id is appended as the final path segment.
	Endpoint string

	// ReconnectDelay overrides DefaultReconnectDelay when positive.
	ReconnectDelay time.Duration

	Logger *slog.Logger
}

// Manager is the lifecycle owner of the transport channel. There is exactly
// one Manager per controller and never more than one live channel per
// Manager; opening a channel for a new execution id closes the previous one.
type Manager struct {
	endpoint       string
	reconnectDelay time.Duration
	logger         *slog.Logger

	mu          sync.Mutex
	conn        *websocket.Conn
	state       State
	executionID string
	retryCount  int
	retryTimer  *time.Timer

	onOpen    func(executionID string)
	onClose   func(executionID string)
	onMessage func(data []byte)
}

// NewManager creates a Manager in the closed state.
func NewManager(config Config) *Manager {
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = DefaultReconnectDelay
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Manager{
		endpoint:       config.Endpoint,
		reconnectDelay: config.ReconnectDelay,
		logger:         config.Logger.With("module", "connection"),
		state:          StateClosed,
	}
}

// OnOpen registers the callback fired after the channel opens. Register
// handlers before the first Open call.
func (m *Manager) OnOpen(handler func(executionID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOpen = handler
}

// OnClose registers the callback fired whenever the active channel closes,
// whether by network failure, explicit close, or remote termination. The
// Manager does not know the reason; the caller decides whether to reconnect.
func (m *Manager) OnClose(handler func(executionID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClose = handler
}

// OnMessage registers the callback for inbound payloads. Messages are
// delivered in channel order from a single goroutine.
func (m *Manager) OnMessage(handler func(data []byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMessage = handler
}

// Open dials the channel for the given execution id. Any prior channel for a
// different execution id is closed first; an already-open channel for the
// same id makes Open a no-op. On success the retry counter resets and the
// OnOpen callback fires.
func (m *Manager) Open(ctx context.Context, executionID string) error {
	m.mu.Lock()

	if m.conn != nil {
		if m.executionID == executionID && m.state == StateOpen {
			m.mu.Unlock()

			return nil
		}

		stale := m.conn
		m.conn = nil

		_ = stale.Close()
	}

	m.executionID = executionID
	m.state = StateConnecting
	m.mu.Unlock()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, m.endpoint+"/"+executionID, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}

		m.mu.Lock()
		if m.executionID == executionID {
			m.state = StateClosed
		}
		m.mu.Unlock()

		return fmt.Errorf("failed to open channel for execution %s: %w", executionID, err)
	}

	m.mu.Lock()

	if m.executionID != executionID {
		// Open raced with a newer Open for a different execution.
		m.mu.Unlock()

		_ = conn.Close()

		return nil
	}

	m.conn = conn
	m.state = StateOpen
	m.retryCount = 0
	opened := m.onOpen
	m.mu.Unlock()

	go m.readPump(conn, executionID)

	m.logger.Info("Channel open", "execution_id", executionID)

	if opened != nil {
		opened(executionID)
	}

	return nil
}

// readPump delivers inbound messages in order until the connection dies.
func (m *Manager) readPump(conn *websocket.Conn, executionID string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		m.mu.Lock()
		handler := m.onMessage
		m.mu.Unlock()

		if handler != nil {
			handler(data)
		}
	}

	_ = conn.Close()

	m.mu.Lock()

	if m.conn != conn {
		// Already replaced or explicitly closed; the closure was reported
		// (or deliberately suppressed) elsewhere.
		m.mu.Unlock()

		return
	}

	m.conn = nil
	m.state = StateClosed
	closed := m.onClose
	m.mu.Unlock()

	m.logger.Info("Channel closed", "execution_id", executionID)

	if closed != nil {
		closed(executionID)
	}
}

// ScheduleReconnect arms a one-shot timer that re-dials the channel after
// the fixed delay. Arming again cancels any previously armed timer, so two
// closures in a row cannot stack two attempts. A failed re-dial fires the
// OnClose callback so the caller can decide whether to keep trying.
func (m *Manager) ScheduleReconnect(executionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.retryTimer != nil {
		m.retryTimer.Stop()
	}

	m.retryCount++
	attempt := m.retryCount

	m.logger.Info("Scheduling reconnect",
		"execution_id", executionID,
		"attempt", attempt,
		"delay", m.reconnectDelay,
	)

	m.retryTimer = time.AfterFunc(m.reconnectDelay, func() {
		m.mu.Lock()
		m.retryTimer = nil
		m.mu.Unlock()

		err := m.Open(context.Background(), executionID)
		if err != nil {
			m.logger.Warn("Reconnect attempt failed",
				"execution_id", executionID,
				"attempt", attempt,
				"error", err,
			)

			m.mu.Lock()
			closed := m.onClose
			m.mu.Unlock()

			if closed != nil {
				closed(executionID)
			}
		}
	})
}

// Send writes an encoded command to the channel. Commands issued while the
// channel is not open are silently dropped, never queued; the return value
// reports whether the write happened.
func (m *Manager) Send(payload []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateOpen || m.conn == nil {
		m.logger.Debug("Command dropped, channel not open", "state", m.state)

		return false
	}

	err := m.conn.WriteMessage(websocket.TextMessage, payload)
	if err != nil {
		m.logger.Warn("Failed to write command", "error", err)

		return false
	}

	return true
}

// Close cancels any pending reconnect, closes the channel, and marks the
// Manager closed. This is the only path that permanently stops retries. The
// OnClose callback still fires for an explicit close.
func (m *Manager) Close() {
	m.mu.Lock()

	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}

	conn := m.conn
	m.conn = nil
	m.state = StateClosed
	executionID := m.executionID
	closed := m.onClose
	m.mu.Unlock()

	if conn == nil {
		return
	}

	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
		deadline,
	)
	_ = conn.Close()

	if closed != nil {
		closed(executionID)
	}
}

// State returns the current channel state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// RetryCount returns the number of reconnect attempts since the last
// successful open.
func (m *Manager) RetryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.retryCount
}

// ReconnectPending reports whether a reconnect timer is currently armed.
func (m *Manager) ReconnectPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.retryTimer != nil
}

// Package engine is the HTTP client for the execution engine's synchronous
// endpoints. The engine accepts a run over plain HTTP before the session
// channel is opened, and offers a stop endpoint used as a fallback when the
// channel command may have been lost.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pilotwire/pilotwire/pkg/models"
)

const defaultRequestTimeout = 30 * time.Second

// Client talks to the engine API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the engine at baseURL (no trailing slash).
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		logger: logger.With("module", "engine_client"),
	}
}

type executeRequest struct {
	Mode models.ExecutionMode `json:"mode"`
}

type executeResponse struct {
	ExecutionID string `json:"execution_id"`
}

// Execute asks the engine to accept a run of the given workflow. The
// returned execution id identifies the session channel to open; the run does
// not start until the start_execution command arrives on that channel.
func (c *Client) Execute(ctx context.Context, workflowID string, mode models.ExecutionMode) (string, error) {
	body, err := json.Marshal(executeRequest{Mode: mode})
	if err != nil {
		return "", fmt.Errorf("failed to marshal execute request: %w", err)
	}

	url := fmt.Sprintf("%s/workflows/%s/execute", c.baseURL, workflowID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create execute request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return "", fmt.Errorf("execute request for workflow %s returned %d: %s",
			workflowID, resp.StatusCode, string(payload))
	}

	var accepted executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		return "", fmt.Errorf("failed to decode execute response: %w", err)
	}

	if accepted.ExecutionID == "" {
		return "", fmt.Errorf("engine accepted workflow %s without an execution id", workflowID)
	}

	return accepted.ExecutionID, nil
}

// Stop asks the engine to cancel a run over HTTP. Best-effort: callers treat
// a failure as non-fatal because the channel command usually lands first.
func (c *Client) Stop(ctx context.Context, executionID string) error {
	url := fmt.Sprintf("%s/executions/%s/stop", c.baseURL, executionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create stop request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stop request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("stop request for execution %s returned %d", executionID, resp.StatusCode)
	}

	return nil
}

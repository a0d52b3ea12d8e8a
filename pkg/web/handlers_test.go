package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilotwire/pilotwire/pkg/models"
)

type stubService struct {
	snapshot    models.Session
	running     bool
	startErr    error
	stopErr     error
	respondErr  error
	confirmErr  error
	startedWith []string
	responded   [][2]string
	confirmed   []string
	resets      int
}

func (s *stubService) Start(_ context.Context, workflowID string, _ models.ExecutionMode) (string, error) {
	if s.startErr != nil {
		return "", s.startErr
	}

	s.startedWith = append(s.startedWith, workflowID)

	return "exec-1", nil
}

func (s *stubService) Stop(_ context.Context) error { return s.stopErr }

func (s *stubService) RespondToInput(nodeID, action string) error {
	if s.respondErr != nil {
		return s.respondErr
	}

	s.responded = append(s.responded, [2]string{nodeID, action})

	return nil
}

func (s *stubService) ConfirmLogin(executionID string) error {
	if s.confirmErr != nil {
		return s.confirmErr
	}

	s.confirmed = append(s.confirmed, executionID)

	return nil
}

func (s *stubService) Reset()                   { s.resets++ }
func (s *stubService) Snapshot() models.Session { return s.snapshot }
func (s *stubService) Running() bool            { return s.running }

func setupTestApp(service *stubService) *fiber.App {
	return NewAPI(service).App()
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = resp.Body.Close()
	})

	return resp
}

func TestGetSession(t *testing.T) {
	service := &stubService{
		snapshot: models.Session{
			ExecutionID:  "exec-1",
			WorkflowID:   "wf-1",
			Running:      true,
			NodeStatuses: map[string]models.NodeStatus{"n1": models.NodeStatusRunning},
		},
	}
	app := setupTestApp(service)

	resp := doJSON(t, app, http.MethodGet, "/session", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "exec-1", got.ExecutionID)
	assert.True(t, got.Running)
	assert.Equal(t, models.NodeStatusRunning, got.NodeStatuses["n1"])
}

func TestGetNodeRecords(t *testing.T) {
	service := &stubService{
		snapshot: models.Session{
			ExecutionID: "exec-1",
			NodeRecords: []models.NodeRecord{{NodeID: "n1", Status: models.NodeStatusCompleted}},
		},
	}
	app := setupTestApp(service)

	resp := doJSON(t, app, http.MethodGet, "/session/nodes", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		ExecutionID string              `json:"execution_id"`
		NodeRecords []models.NodeRecord `json:"node_records"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "exec-1", got.ExecutionID)
	require.Len(t, got.NodeRecords, 1)
	assert.Equal(t, "n1", got.NodeRecords[0].NodeID)
}

func TestStartExecution(t *testing.T) {
	service := &stubService{}
	app := setupTestApp(service)

	resp := doJSON(t, app, http.MethodPost, "/session/start", `{"workflow_id":"wf-1","mode":"headless"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var got StartExecutionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "exec-1", got.ExecutionID)

	assert.Equal(t, []string{"wf-1"}, service.startedWith)
}

func TestStartExecution_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing workflow id", `{"mode":"headless"}`},
		{"invalid mode", `{"workflow_id":"wf-1","mode":"invisible"}`},
		{"malformed body", `{"workflow_id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp(&stubService{})

			resp := doJSON(t, app, http.MethodPost, "/session/start", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestStartExecution_ConflictWhileRunning(t *testing.T) {
	app := setupTestApp(&stubService{running: true})

	resp := doJSON(t, app, http.MethodPost, "/session/start", `{"workflow_id":"wf-1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStartExecution_EngineFailure(t *testing.T) {
	app := setupTestApp(&stubService{startErr: errors.New("engine unavailable")})

	resp := doJSON(t, app, http.MethodPost, "/session/start", `{"workflow_id":"wf-1"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestStopExecution(t *testing.T) {
	app := setupTestApp(&stubService{})

	resp := doJSON(t, app, http.MethodPost, "/session/stop", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestStopExecution_Failure(t *testing.T) {
	app := setupTestApp(&stubService{stopErr: errors.New("nothing to stop")})

	resp := doJSON(t, app, http.MethodPost, "/session/stop", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestRespondInput(t *testing.T) {
	service := &stubService{}
	app := setupTestApp(service)

	resp := doJSON(t, app, http.MethodPost, "/session/input", `{"node_id":"n2","action":"continue"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Len(t, service.responded, 1)
	assert.Equal(t, [2]string{"n2", "continue"}, service.responded[0])
}

func TestRespondInput_RequiresFields(t *testing.T) {
	app := setupTestApp(&stubService{})

	resp := doJSON(t, app, http.MethodPost, "/session/input", `{"node_id":"n2"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConfirmLogin(t *testing.T) {
	service := &stubService{}
	app := setupTestApp(service)

	resp := doJSON(t, app, http.MethodPost, "/session/confirm-login", `{"execution_id":"exec-1"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	assert.Equal(t, []string{"exec-1"}, service.confirmed)
}

func TestResetSession(t *testing.T) {
	service := &stubService{}
	app := setupTestApp(service)

	resp := doJSON(t, app, http.MethodPost, "/session/reset", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, service.resets)
}

func TestRootEndpoint(t *testing.T) {
	app := setupTestApp(&stubService{})

	resp := doJSON(t, app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Pilotwire Gateway", string(body))
}

func TestHealthEndpoints(t *testing.T) {
	app := setupTestApp(&stubService{})

	for _, path := range []string{"/livez", "/readyz"} {
		resp := doJSON(t, app, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

package api

import (
	"context"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/synapse-hq/synapse/pkg/models"
)

// startExecutionHandler handles POST /api/v1/executions/workflows/:workflow_id/execute.
// It creates the pending execution record, launches the engine on a
// background goroutine, and returns 201 immediately so the client can
// connect to the WebSocket stream.
func (s *Server) startExecutionHandler(c *echo.Context) error {
	workflowID := c.Param("workflow_id")
	if workflowID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "workflow id is required")
	}

	var req StartExecutionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TriggerInput == nil {
		req.TriggerInput = map[string]any{}
	}

	workflow, err := s.workflowService.Get(c.Request().Context(), workflowID)
	if err != nil {
		return mapServiceError(err)
	}

	// Env-configured keys fill in providers the caller didn't supply.
	apiKeys := s.settings.MergeAPIKeys(req.APIKeys)

	execution, err := s.executionService.CreateExecution(c.Request().Context(), workflow.ID, req.TriggerInput)
	if err != nil {
		return mapServiceError(err)
	}

	// The run outlives this request, so it gets a fresh root context.
	go s.runExecution(workflow, execution, apiKeys)

	return c.JSON(http.StatusCreated, execution)
}

// runExecution is the background task that owns a run.
func (s *Server) runExecution(workflow *models.Workflow, execution *models.WorkflowExecution, apiKeys map[string]string) {
	ctx := context.Background()
	if err := s.engine.Run(ctx, workflow, execution, apiKeys); err != nil {
		slog.Error("Background execution failed", "execution_id", execution.ID, "error", err)
	}
}

// getExecutionHandler handles GET /api/v1/executions/:execution_id.
func (s *Server) getExecutionHandler(c *echo.Context) error {
	executionID := c.Param("execution_id")
	if executionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "execution id is required")
	}

	execution, err := s.executionService.GetExecution(c.Request().Context(), executionID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, execution)
}

// cancelExecutionHandler handles POST /api/v1/executions/:execution_id/cancel.
// Always returns 200: flagging an unknown or already-terminal run is a no-op
// the engine resolves on its own.
func (s *Server) cancelExecutionHandler(c *echo.Context) error {
	executionID := c.Param("execution_id")
	if executionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "execution id is required")
	}

	s.cancels.Request(executionID)
	slog.Info("Execution cancellation requested", "execution_id", executionID)

	return c.JSON(http.StatusOK, &CancelExecutionResponse{
		Status:      "cancellation_requested",
		ExecutionID: executionID,
	})
}

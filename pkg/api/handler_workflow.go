package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/synapse-hq/synapse/pkg/services"
)

// createWorkflowHandler handles POST /api/v1/workflows.
func (s *Server) createWorkflowHandler(c *echo.Context) error {
	var req CreateWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	workflow, err := s.workflowService.Create(c.Request().Context(), services.CreateWorkflowInput{
		Name:        req.Name,
		Description: req.Description,
		CanvasData:  req.CanvasData,
		IsTemplate:  req.IsTemplate,
	})
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, workflow)
}

// listWorkflowsHandler handles GET /api/v1/workflows.
func (s *Server) listWorkflowsHandler(c *echo.Context) error {
	templatesOnly := c.QueryParam("templates_only") == "true"

	workflows, total, err := s.workflowService.List(c.Request().Context(), templatesOnly)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, &WorkflowListResponse{Workflows: workflows, Total: total})
}

// listTemplatesHandler handles GET /api/v1/workflows/templates.
func (s *Server) listTemplatesHandler(c *echo.Context) error {
	workflows, total, err := s.workflowService.List(c.Request().Context(), true)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, &WorkflowListResponse{Workflows: workflows, Total: total})
}

// getWorkflowHandler handles GET /api/v1/workflows/:id.
func (s *Server) getWorkflowHandler(c *echo.Context) error {
	workflowID := c.Param("id")
	if workflowID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "workflow id is required")
	}

	workflow, err := s.workflowService.Get(c.Request().Context(), workflowID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, workflow)
}

// updateWorkflowHandler handles PUT /api/v1/workflows/:id.
func (s *Server) updateWorkflowHandler(c *echo.Context) error {
	workflowID := c.Param("id")
	if workflowID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "workflow id is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	workflow, err := s.workflowService.Update(c.Request().Context(), workflowID, services.UpdateWorkflowInput{
		Name:        req.Name,
		Description: req.Description,
		CanvasData:  req.CanvasData,
		IsTemplate:  req.IsTemplate,
	})
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, workflow)
}

// deleteWorkflowHandler handles DELETE /api/v1/workflows/:id.
func (s *Server) deleteWorkflowHandler(c *echo.Context) error {
	workflowID := c.Param("id")
	if workflowID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "workflow id is required")
	}

	if err := s.workflowService.Delete(c.Request().Context(), workflowID); err != nil {
		return mapServiceError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

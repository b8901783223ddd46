// Package api exposes the HTTP surface: workflow CRUD, execution control,
// provider discovery, health, and the WebSocket streaming endpoint.
package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/synapse-hq/synapse/pkg/config"
	"github.com/synapse-hq/synapse/pkg/database"
	"github.com/synapse-hq/synapse/pkg/engine"
	"github.com/synapse-hq/synapse/pkg/events"
	"github.com/synapse-hq/synapse/pkg/providers"
	"github.com/synapse-hq/synapse/pkg/services"
)

// Server wires the HTTP handlers to the services and the engine.
type Server struct {
	settings         *config.Settings
	dbClient         *database.Client
	workflowService  *services.WorkflowService
	executionService *services.ExecutionService
	engine           *engine.Engine
	registry         *providers.Registry
	bus              events.Bus
	cancels          *engine.CancelRegistry

	echo       *echo.Echo
	httpServer *http.Server
}

// NewServer creates the API server and registers all routes.
func NewServer(
	settings *config.Settings,
	dbClient *database.Client,
	workflowService *services.WorkflowService,
	executionService *services.ExecutionService,
	eng *engine.Engine,
	registry *providers.Registry,
	bus events.Bus,
	cancels *engine.CancelRegistry,
) *Server {
	s := &Server{
		settings:         settings,
		dbClient:         dbClient,
		workflowService:  workflowService,
		executionService: executionService,
		engine:           eng,
		registry:         registry,
		bus:              bus,
		cancels:          cancels,
	}
	s.echo = s.buildEcho()
	return s
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()

	e.Use(securityHeaders())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     s.settings.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))

	e.GET("/api/health", s.healthHandler)

	v1 := e.Group("/api/v1")

	v1.POST("/workflows", s.createWorkflowHandler)
	v1.GET("/workflows", s.listWorkflowsHandler)
	v1.GET("/workflows/templates", s.listTemplatesHandler)
	v1.GET("/workflows/:id", s.getWorkflowHandler)
	v1.PUT("/workflows/:id", s.updateWorkflowHandler)
	v1.DELETE("/workflows/:id", s.deleteWorkflowHandler)

	v1.POST("/executions/workflows/:workflow_id/execute", s.startExecutionHandler)
	v1.GET("/executions/:execution_id", s.getExecutionHandler)
	v1.POST("/executions/:execution_id/cancel", s.cancelExecutionHandler)

	v1.GET("/providers", s.listProvidersHandler)
	v1.POST("/providers/validate_key", s.validateKeyHandler)

	e.GET("/ws/executions/:execution_id", s.executionWSHandler)

	return e
}

// Start begins serving on addr. Blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routing tree, for tests that serve through httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

package api

import (
	"github.com/synapse-hq/synapse/pkg/database"
	"github.com/synapse-hq/synapse/pkg/models"
)

// WorkflowListResponse is the body of GET /api/v1/workflows.
type WorkflowListResponse struct {
	Workflows []*models.Workflow `json:"workflows"`
	Total     int                `json:"total"`
}

// CancelExecutionResponse is the body of POST /api/v1/executions/:execution_id/cancel.
type CancelExecutionResponse struct {
	Status      string `json:"status"`
	ExecutionID string `json:"execution_id"`
}

// ProvidersResponse is the body of GET /api/v1/providers.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

// ValidateKeyResponse is the body of POST /api/v1/providers/validate_key.
type ValidateKeyResponse struct {
	Provider string `json:"provider"`
	Valid    bool   `json:"valid"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status   string                 `json:"status"`
	App      string                 `json:"app"`
	Version  string                 `json:"version"`
	Database *database.HealthStatus `json:"database,omitempty"`
}

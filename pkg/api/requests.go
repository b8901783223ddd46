package api

import "encoding/json"

// CreateWorkflowRequest is the body of POST /api/v1/workflows.
type CreateWorkflowRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CanvasData  json.RawMessage `json:"canvas_data"`
	IsTemplate  bool            `json:"is_template"`
}

// UpdateWorkflowRequest is the body of PUT /api/v1/workflows/:id.
// Nil fields are left unchanged.
type UpdateWorkflowRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	CanvasData  json.RawMessage `json:"canvas_data"`
	IsTemplate  *bool           `json:"is_template"`
}

// StartExecutionRequest is the body of
// POST /api/v1/executions/workflows/:workflow_id/execute.
type StartExecutionRequest struct {
	TriggerInput map[string]any    `json:"trigger_input"`
	APIKeys      map[string]string `json:"api_keys"`
}

// ValidateKeyRequest is the body of POST /api/v1/providers/validate_key.
type ValidateKeyRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

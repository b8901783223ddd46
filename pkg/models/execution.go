package models

import "time"

// ExecutionStatus is the lifecycle state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// IsTerminal reports whether the execution allows no further transitions.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	default:
		return false
	}
}

// AgentStatus is the lifecycle state of a single node within a run.
type AgentStatus string

const (
	AgentStatusIdle      AgentStatus = "idle"
	AgentStatusWaiting   AgentStatus = "waiting"
	AgentStatusRunning   AgentStatus = "running"
	AgentStatusCompleted AgentStatus = "completed"
	AgentStatusFailed    AgentStatus = "failed"
	AgentStatusSkipped   AgentStatus = "skipped"
)

// IsTerminal reports whether the agent run allows no further transitions.
func (s AgentStatus) IsTerminal() bool {
	switch s {
	case AgentStatusCompleted, AgentStatusFailed, AgentStatusSkipped:
		return true
	default:
		return false
	}
}

// WorkflowExecution is one run of a workflow.
type WorkflowExecution struct {
	ID           string          `json:"id"`
	WorkflowID   string          `json:"workflow_id"`
	Status       ExecutionStatus `json:"status"`
	TriggerInput map[string]any  `json:"trigger_input"`
	StartedAt    *time.Time      `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
	Error        *string         `json:"error"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AgentExecution is the per-node record within a run. One row exists for
// every node in the workflow, created up front in the idle state.
type AgentExecution struct {
	ID                  string         `json:"id"`
	WorkflowExecutionID string         `json:"workflow_execution_id"`
	AgentNodeID         string         `json:"agent_node_id"`
	Status              AgentStatus    `json:"status"`
	InputData           map[string]any `json:"input_data"`
	OutputData          map[string]any `json:"output_data"`
	TokensUsed          int            `json:"tokens_used"`
	LatencyMS           int            `json:"latency_ms"`
	StartedAt           *time.Time     `json:"started_at"`
	CompletedAt         *time.Time     `json:"completed_at"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

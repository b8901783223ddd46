package events

// Event types carried on execution channels. The set is closed: streaming
// clients key their rendering off the type field and disconnect on
// workflow_completed.
const (
	EventTypeWorkflowStatus    = "workflow_status"
	EventTypeAgentStatus       = "agent_status"
	EventTypeAgentOutputChunk  = "agent_output_chunk"
	EventTypeAgentCompleted    = "agent_completed"
	EventTypeWorkflowCompleted = "workflow_completed"
	EventTypeError             = "error"
)

// ErrorCodeExecution is the code field of every error event.
const ErrorCodeExecution = "EXECUTION_ERROR"

// WorkflowStatusPayload is the payload for workflow_status events.
// Published when the run leaves pending.
type WorkflowStatusPayload struct {
	Type      string `json:"type"`      // always EventTypeWorkflowStatus
	Status    string `json:"status"`    // currently only "running"
	Timestamp string `json:"timestamp"` // RFC3339Nano, UTC
}

// AgentStatusPayload is the payload for agent_status events.
// Published when a node starts, fails, or is skipped. Completion has its
// own richer event.
type AgentStatusPayload struct {
	Type      string `json:"type"`      // always EventTypeAgentStatus
	AgentID   string `json:"agent_id"`  // canvas node ID
	Status    string `json:"status"`    // running, failed, skipped
	Timestamp string `json:"timestamp"` // RFC3339Nano, UTC
}

// AgentOutputChunkPayload is the payload for agent_output_chunk events.
// Published for each streamed LLM fragment — high frequency, ephemeral.
type AgentOutputChunkPayload struct {
	Type      string `json:"type"`      // always EventTypeAgentOutputChunk
	AgentID   string `json:"agent_id"`  // canvas node ID
	Chunk     string `json:"chunk"`     // incremental text fragment
	Timestamp string `json:"timestamp"` // RFC3339Nano, UTC
}

// AgentCompletedPayload is the payload for agent_completed events.
type AgentCompletedPayload struct {
	Type       string `json:"type"`        // always EventTypeAgentCompleted
	AgentID    string `json:"agent_id"`    // canvas node ID
	Output     string `json:"output"`      // first 500 characters of the full output
	TokensUsed int    `json:"tokens_used"` // vendor-reported total for this call
	LatencyMS  int    `json:"latency_ms"`  // wall time of the provider call
	Timestamp  string `json:"timestamp"`   // RFC3339Nano, UTC
}

// ErrorPayload is the payload for error events.
type ErrorPayload struct {
	Type      string  `json:"type"`      // always EventTypeError
	AgentID   *string `json:"agent_id"`  // failing node, null for run-level failures
	Message   string  `json:"message"`   // human-readable description
	Code      string  `json:"code"`      // always ErrorCodeExecution
	Timestamp string  `json:"timestamp"` // RFC3339Nano, UTC
}

// WorkflowCompletedPayload is the payload for workflow_completed events,
// the terminal event of every run regardless of outcome.
type WorkflowCompletedPayload struct {
	Type        string `json:"type"`                   // always EventTypeWorkflowCompleted
	ExecutionID string `json:"execution_id"`           // run UUID
	Status      string `json:"status"`                 // completed, failed, cancelled
	TotalTokens *int   `json:"total_tokens,omitempty"` // only present on completed runs
	Timestamp   string `json:"timestamp"`              // RFC3339Nano, UTC
}

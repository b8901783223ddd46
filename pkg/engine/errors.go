package engine

// ExecutionError is the fatal error of a run. When a specific node caused
// the failure, AgentID names it; run-level failures (empty canvas, graph
// cycles) leave it empty.
type ExecutionError struct {
	AgentID string
	Message string
	Err     error
}

func (e *ExecutionError) Error() string {
	return e.Message
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// newAgentError wraps a per-agent failure so the outer loop can attribute
// the run failure to the node.
func newAgentError(agentID string, err error) *ExecutionError {
	return &ExecutionError{AgentID: agentID, Message: err.Error(), Err: err}
}

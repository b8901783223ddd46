package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/synapse-hq/synapse/pkg/models"
)

// Publisher publishes execution lifecycle events to the bus.
//
// Each public method builds one specific typed payload — see payloads.go —
// and stamps the timestamp at publish time. Delivery is best-effort: bus
// failures are logged and swallowed so a dead bus can never fail a running
// workflow.
type Publisher struct {
	bus Bus
}

// NewPublisher creates a Publisher on top of bus.
func NewPublisher(bus Bus) *Publisher {
	return &Publisher{bus: bus}
}

// PublishWorkflowStatus broadcasts a workflow_status event.
func (p *Publisher) PublishWorkflowStatus(ctx context.Context, executionID string, status models.ExecutionStatus) {
	p.publish(ctx, executionID, EventTypeWorkflowStatus, WorkflowStatusPayload{
		Type:      EventTypeWorkflowStatus,
		Status:    string(status),
		Timestamp: eventTimestamp(),
	})
}

// PublishAgentStatus broadcasts an agent_status event for a node entering
// running, failed, or skipped.
func (p *Publisher) PublishAgentStatus(ctx context.Context, executionID, agentID string, status models.AgentStatus) {
	p.publish(ctx, executionID, EventTypeAgentStatus, AgentStatusPayload{
		Type:      EventTypeAgentStatus,
		AgentID:   agentID,
		Status:    string(status),
		Timestamp: eventTimestamp(),
	})
}

// PublishAgentOutputChunk broadcasts one streamed output fragment.
func (p *Publisher) PublishAgentOutputChunk(ctx context.Context, executionID, agentID, chunk string) {
	p.publish(ctx, executionID, EventTypeAgentOutputChunk, AgentOutputChunkPayload{
		Type:      EventTypeAgentOutputChunk,
		AgentID:   agentID,
		Chunk:     chunk,
		Timestamp: eventTimestamp(),
	})
}

// PublishAgentCompleted broadcasts an agent_completed event. Output is
// truncated to its first 500 characters; the full text lives in the agent
// execution record.
func (p *Publisher) PublishAgentCompleted(ctx context.Context, executionID, agentID, output string, tokensUsed, latencyMS int) {
	p.publish(ctx, executionID, EventTypeAgentCompleted, AgentCompletedPayload{
		Type:       EventTypeAgentCompleted,
		AgentID:    agentID,
		Output:     truncateRunes(output, 500),
		TokensUsed: tokensUsed,
		LatencyMS:  latencyMS,
		Timestamp:  eventTimestamp(),
	})
}

// PublishError broadcasts an error event. agentID is nil for run-level
// failures that no single node caused.
func (p *Publisher) PublishError(ctx context.Context, executionID string, agentID *string, message string) {
	p.publish(ctx, executionID, EventTypeError, ErrorPayload{
		Type:      EventTypeError,
		AgentID:   agentID,
		Message:   message,
		Code:      ErrorCodeExecution,
		Timestamp: eventTimestamp(),
	})
}

// PublishWorkflowCompleted broadcasts the terminal event of a run.
// totalTokens is only attached to completed runs.
func (p *Publisher) PublishWorkflowCompleted(ctx context.Context, executionID string, status models.ExecutionStatus, totalTokens *int) {
	p.publish(ctx, executionID, EventTypeWorkflowCompleted, WorkflowCompletedPayload{
		Type:        EventTypeWorkflowCompleted,
		ExecutionID: executionID,
		Status:      string(status),
		TotalTokens: totalTokens,
		Timestamp:   eventTimestamp(),
	})
}

func (p *Publisher) publish(ctx context.Context, executionID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal event payload",
			"event_type", eventType, "execution_id", executionID, "error", err)
		return
	}
	if err := p.bus.Publish(ctx, ExecutionChannel(executionID), data); err != nil {
		slog.Warn("Failed to publish event",
			"event_type", eventType, "execution_id", executionID, "error", err)
	}
}

// eventTimestamp is the publish-time stamp applied to every payload.
func eventTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// truncateRunes shortens s to at most n runes, never splitting a multi-byte
// character.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

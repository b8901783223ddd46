// Package engine runs workflows: it orders the canvas nodes, streams each
// agent node through its LLM provider, persists every state transition, and
// broadcasts progress on the event bus.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/synapse-hq/synapse/pkg/dag"
	"github.com/synapse-hq/synapse/pkg/events"
	"github.com/synapse-hq/synapse/pkg/models"
	"github.com/synapse-hq/synapse/pkg/providers"
)

// outputSeparator joins parent outputs when a node has several upstream
// dependencies.
const outputSeparator = "\n\n---\n\n"

// Store is the persistence surface the engine writes through. Satisfied by
// services.ExecutionService; tests use an in-memory fake.
type Store interface {
	SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error
	CreateAgentRuns(ctx context.Context, executionID string, nodeIDs []string) (map[string]*models.AgentExecution, error)
	SaveAgentRun(ctx context.Context, run *models.AgentExecution) error
}

// Engine executes workflows serially in dependency order.
type Engine struct {
	store     Store
	publisher *events.Publisher
	registry  *providers.Registry
	cancels   *CancelRegistry
}

// New creates an Engine.
func New(store Store, publisher *events.Publisher, registry *providers.Registry, cancels *CancelRegistry) *Engine {
	return &Engine{
		store:     store,
		publisher: publisher,
		registry:  registry,
		cancels:   cancels,
	}
}

// Run executes a workflow end-to-end. The execution record must already be
// persisted in the pending state. Run owns the record from here: it drives
// both state machines, persists every transition, and always publishes a
// terminal workflow_completed event. The returned error reflects a failed
// run and is for logging only — the outcome is already persisted.
//
// Run is expected to be called on a background goroutine with a context that
// outlives the originating HTTP request.
func (e *Engine) Run(ctx context.Context, workflow *models.Workflow, execution *models.WorkflowExecution, apiKeys map[string]string) error {
	executionID := execution.ID
	defer e.cancels.Clear(executionID)

	err := e.run(ctx, workflow, execution, apiKeys)
	if err == nil {
		return nil
	}

	// Any failure from inside the loop fails the run.
	now := time.Now().UTC()
	message := err.Error()
	execution.Status = models.ExecutionStatusFailed
	execution.Error = &message
	execution.CompletedAt = &now
	if saveErr := e.store.SaveExecution(ctx, execution); saveErr != nil {
		slog.Error("Failed to persist failed execution", "execution_id", executionID, "error", saveErr)
	}

	var agentID *string
	var execErr *ExecutionError
	if errors.As(err, &execErr) && execErr.AgentID != "" {
		agentID = &execErr.AgentID
	}
	e.publisher.PublishError(ctx, executionID, agentID, message)
	e.publisher.PublishWorkflowCompleted(ctx, executionID, models.ExecutionStatusFailed, nil)

	slog.Error("Workflow execution failed", "execution_id", executionID, "error", message)
	return err
}

func (e *Engine) run(ctx context.Context, workflow *models.Workflow, execution *models.WorkflowExecution, apiKeys map[string]string) error {
	executionID := execution.ID

	// Transition: pending → running.
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusRunning
	execution.StartedAt = &now
	if err := e.store.SaveExecution(ctx, execution); err != nil {
		return err
	}
	e.publisher.PublishWorkflowStatus(ctx, executionID, models.ExecutionStatusRunning)

	slog.Info("Workflow execution started", "execution_id", executionID, "workflow_id", workflow.ID)

	canvas, err := workflow.ParseCanvas()
	if err != nil {
		return err
	}
	if len(canvas.Nodes) == 0 {
		return &ExecutionError{Message: "Workflow has no nodes to execute"}
	}

	executionOrder, err := dag.TopologicalOrder(canvas.Nodes, canvas.Edges)
	if err != nil {
		return err
	}

	nodesByID := make(map[string]models.Node, len(canvas.Nodes))
	for _, node := range canvas.Nodes {
		nodesByID[node.ID] = node
	}

	agentRuns, err := e.store.CreateAgentRuns(ctx, executionID, executionOrder)
	if err != nil {
		return err
	}

	// Outputs flow from parents to children through this map; it lives only
	// for the duration of the run.
	outputs := make(map[string]string, len(executionOrder))

	totalTokens := 0
	for _, nodeID := range executionOrder {
		if e.cancels.IsRequested(executionID) {
			execution.Status = models.ExecutionStatusCancelled
			if err := e.store.SaveExecution(ctx, execution); err != nil {
				return err
			}
			e.publisher.PublishWorkflowCompleted(ctx, executionID, models.ExecutionStatusCancelled, nil)
			slog.Info("Workflow execution cancelled", "execution_id", executionID)
			break
		}

		node := nodesByID[nodeID]
		run := agentRuns[nodeID]

		// Non-agent nodes (input nodes) pass the trigger input downstream.
		if node.Type != models.NodeTypeAgent {
			run.Status = models.AgentStatusSkipped
			if err := e.store.SaveAgentRun(ctx, run); err != nil {
				return err
			}
			outputs[nodeID] = triggerText(execution.TriggerInput)
			e.publisher.PublishAgentStatus(ctx, executionID, nodeID, models.AgentStatusSkipped)
			continue
		}

		tokens, err := e.runAgent(ctx, executionID, node, run, canvas.Edges, outputs, apiKeys)
		if err != nil {
			return err
		}
		totalTokens += tokens
	}

	if execution.Status != models.ExecutionStatusCancelled {
		now := time.Now().UTC()
		execution.Status = models.ExecutionStatusCompleted
		execution.CompletedAt = &now
		if err := e.store.SaveExecution(ctx, execution); err != nil {
			return err
		}
		e.publisher.PublishWorkflowCompleted(ctx, executionID, models.ExecutionStatusCompleted, &totalTokens)
		slog.Info("Workflow execution completed", "execution_id", executionID, "total_tokens", totalTokens)
	}
	return nil
}

// runAgent executes one agent node: builds the prompt from parent outputs,
// streams the provider response, and records the result. Any failure marks
// the agent failed and returns an *ExecutionError naming the node, which
// fails the whole run — there are no retries.
func (e *Engine) runAgent(
	ctx context.Context,
	executionID string,
	node models.Node,
	run *models.AgentExecution,
	edges []models.Edge,
	outputs map[string]string,
	apiKeys map[string]string,
) (int, error) {
	// Transition: idle → running.
	now := time.Now().UTC()
	run.Status = models.AgentStatusRunning
	run.StartedAt = &now
	if err := e.store.SaveAgentRun(ctx, run); err != nil {
		return 0, e.failAgent(ctx, executionID, node.ID, run, err)
	}
	e.publisher.PublishAgentStatus(ctx, executionID, node.ID, models.AgentStatusRunning)

	start := time.Now()

	// Input context from parent outputs, in edge insertion order.
	var parentOutputs []string
	for _, parentID := range dag.ParentsOf(node.ID, edges) {
		if output, ok := outputs[parentID]; ok {
			parentOutputs = append(parentOutputs, output)
		}
	}
	inputContext := strings.Join(parentOutputs, outputSeparator)

	providerType := node.Data.Provider
	if providerType == "" {
		providerType = models.DefaultProvider
	}
	provider, err := e.registry.Get(providerType, apiKeys[providerType], "")
	if err != nil {
		return 0, e.failAgent(ctx, executionID, node.ID, run, err)
	}

	config := providers.Config{
		Model:       models.DefaultModel,
		Temperature: models.DefaultTemperature,
		MaxTokens:   models.DefaultMaxTokens,
	}
	if node.Data.Model != "" {
		config.Model = node.Data.Model
	}
	if node.Data.Temperature != nil {
		config.Temperature = *node.Data.Temperature
	}
	if node.Data.MaxTokens != nil {
		config.MaxTokens = *node.Data.MaxTokens
	}

	var messages []providers.Message
	if node.Data.SystemPrompt != "" {
		messages = append(messages, providers.Message{Role: providers.RoleSystem, Content: node.Data.SystemPrompt})
	}
	userContent := inputContext
	if userContent == "" {
		userContent = "No input provided."
	}
	messages = append(messages, providers.Message{Role: providers.RoleUser, Content: userContent})

	run.InputData = map[string]any{"context": inputContext, "system_prompt": node.Data.SystemPrompt}

	chunks, err := provider.Stream(ctx, messages, config)
	if err != nil {
		return 0, e.failAgent(ctx, executionID, node.ID, run, err)
	}

	var content strings.Builder
	tokensUsed := 0
	for chunk := range chunks {
		if chunk.Err != nil {
			return 0, e.failAgent(ctx, executionID, node.ID, run, chunk.Err)
		}
		if chunk.Final {
			tokensUsed = chunk.TokensUsed
			break
		}
		content.WriteString(chunk.Content)
		e.publisher.PublishAgentOutputChunk(ctx, executionID, node.ID, chunk.Content)
	}

	latencyMS := int(time.Since(start).Milliseconds())
	fullContent := content.String()
	outputs[node.ID] = fullContent

	// Transition: running → completed.
	completedAt := time.Now().UTC()
	run.Status = models.AgentStatusCompleted
	run.OutputData = map[string]any{"content": fullContent}
	run.TokensUsed = tokensUsed
	run.LatencyMS = latencyMS
	run.CompletedAt = &completedAt
	if err := e.store.SaveAgentRun(ctx, run); err != nil {
		return 0, e.failAgent(ctx, executionID, node.ID, run, err)
	}
	e.publisher.PublishAgentCompleted(ctx, executionID, node.ID, fullContent, tokensUsed, latencyMS)

	slog.Info("Agent completed",
		"execution_id", executionID, "agent_id", node.ID,
		"tokens", tokensUsed, "latency_ms", latencyMS)
	return tokensUsed, nil
}

// failAgent records a per-agent failure and wraps it for the outer loop.
func (e *Engine) failAgent(ctx context.Context, executionID, nodeID string, run *models.AgentExecution, cause error) error {
	now := time.Now().UTC()
	run.Status = models.AgentStatusFailed
	run.CompletedAt = &now
	if err := e.store.SaveAgentRun(ctx, run); err != nil {
		slog.Error("Failed to persist failed agent run",
			"execution_id", executionID, "agent_id", nodeID, "error", err)
	}
	e.publisher.PublishAgentStatus(ctx, executionID, nodeID, models.AgentStatusFailed)
	return newAgentError(nodeID, cause)
}

// triggerText extracts the input string non-agent nodes pass downstream.
func triggerText(triggerInput map[string]any) string {
	if text, ok := triggerInput["input"].(string); ok {
		return text
	}
	return ""
}

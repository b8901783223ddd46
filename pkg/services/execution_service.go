package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/synapse-hq/synapse/pkg/models"
)

// ExecutionService persists workflow execution records and their per-node
// agent execution children. The engine writes through it at every state
// transition so a crash leaves an accurate audit trail.
type ExecutionService struct {
	db *sql.DB
}

// NewExecutionService creates a new ExecutionService.
func NewExecutionService(db *sql.DB) *ExecutionService {
	return &ExecutionService{db: db}
}

// CreateExecution stores a new run in the pending state and returns it.
func (s *ExecutionService) CreateExecution(ctx context.Context, workflowID string, triggerInput map[string]any) (*models.WorkflowExecution, error) {
	execution := &models.WorkflowExecution{
		ID:           uuid.NewString(),
		WorkflowID:   workflowID,
		Status:       models.ExecutionStatusPending,
		TriggerInput: triggerInput,
	}

	triggerJSON, err := marshalJSONColumn(triggerInput)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trigger input: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO workflow_executions (id, workflow_id, status, trigger_input)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		execution.ID, execution.WorkflowID, execution.Status, triggerJSON,
	).Scan(&execution.CreatedAt, &execution.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	return execution, nil
}

// GetExecution returns a run by ID, or ErrNotFound.
func (s *ExecutionService) GetExecution(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	var execution models.WorkflowExecution
	var triggerJSON []byte

	err := s.db.QueryRowContext(ctx,
		`SELECT id, workflow_id, status, trigger_input, started_at, completed_at, error, created_at, updated_at
		 FROM workflow_executions WHERE id = $1`, id,
	).Scan(&execution.ID, &execution.WorkflowID, &execution.Status, &triggerJSON,
		&execution.StartedAt, &execution.CompletedAt, &execution.Error,
		&execution.CreatedAt, &execution.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("execution %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	if err := unmarshalJSONColumn(triggerJSON, &execution.TriggerInput); err != nil {
		return nil, fmt.Errorf("failed to decode trigger input: %w", err)
	}
	return &execution, nil
}

// SaveExecution writes the run's mutable fields back to the database.
func (s *ExecutionService) SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	err := s.db.QueryRowContext(ctx,
		`UPDATE workflow_executions SET
			status = $2, started_at = $3, completed_at = $4, error = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		execution.ID, execution.Status, execution.StartedAt, execution.CompletedAt, execution.Error,
	).Scan(&execution.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("execution %s: %w", execution.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to save execution: %w", err)
	}
	return nil
}

// CreateAgentRuns bulk-creates one idle agent execution per node and returns
// them keyed by node ID.
func (s *ExecutionService) CreateAgentRuns(ctx context.Context, executionID string, nodeIDs []string) (map[string]*models.AgentExecution, error) {
	runs := make(map[string]*models.AgentExecution, len(nodeIDs))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, nodeID := range nodeIDs {
		run := &models.AgentExecution{
			ID:                  uuid.NewString(),
			WorkflowExecutionID: executionID,
			AgentNodeID:         nodeID,
			Status:              models.AgentStatusIdle,
		}
		err := tx.QueryRowContext(ctx,
			`INSERT INTO agent_executions (id, workflow_execution_id, agent_node_id, status)
			 VALUES ($1, $2, $3, $4)
			 RETURNING created_at, updated_at`,
			run.ID, run.WorkflowExecutionID, run.AgentNodeID, run.Status,
		).Scan(&run.CreatedAt, &run.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create agent run for node %s: %w", nodeID, err)
		}
		runs[nodeID] = run
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit agent runs: %w", err)
	}
	return runs, nil
}

// SaveAgentRun writes an agent execution's mutable fields back to the database.
func (s *ExecutionService) SaveAgentRun(ctx context.Context, run *models.AgentExecution) error {
	inputJSON, err := marshalJSONColumn(run.InputData)
	if err != nil {
		return fmt.Errorf("failed to encode input data: %w", err)
	}
	outputJSON, err := marshalJSONColumn(run.OutputData)
	if err != nil {
		return fmt.Errorf("failed to encode output data: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`UPDATE agent_executions SET
			status = $2, input_data = $3, output_data = $4, tokens_used = $5,
			latency_ms = $6, started_at = $7, completed_at = $8, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		run.ID, run.Status, inputJSON, outputJSON, run.TokensUsed,
		run.LatencyMS, run.StartedAt, run.CompletedAt,
	).Scan(&run.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("agent run %s: %w", run.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to save agent run: %w", err)
	}
	return nil
}

// ListAgentRuns returns every agent execution of a run in creation order.
func (s *ExecutionService) ListAgentRuns(ctx context.Context, executionID string) ([]*models.AgentExecution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workflow_execution_id, agent_node_id, status, input_data, output_data,
			tokens_used, latency_ms, started_at, completed_at, created_at, updated_at
		 FROM agent_executions WHERE workflow_execution_id = $1
		 ORDER BY created_at, id`, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.AgentExecution
	for rows.Next() {
		var run models.AgentExecution
		var inputJSON, outputJSON []byte
		err := rows.Scan(&run.ID, &run.WorkflowExecutionID, &run.AgentNodeID, &run.Status,
			&inputJSON, &outputJSON, &run.TokensUsed, &run.LatencyMS,
			&run.StartedAt, &run.CompletedAt, &run.CreatedAt, &run.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent run: %w", err)
		}
		if err := unmarshalJSONColumn(inputJSON, &run.InputData); err != nil {
			return nil, fmt.Errorf("failed to decode input data: %w", err)
		}
		if err := unmarshalJSONColumn(outputJSON, &run.OutputData); err != nil {
			return nil, fmt.Errorf("failed to decode output data: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list agent runs: %w", err)
	}
	return runs, nil
}

// marshalJSONColumn encodes a map for a JSONB column, storing nil as {}.
func marshalJSONColumn(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte(`{}`), nil
	}
	return json.Marshal(m)
}

// unmarshalJSONColumn decodes a JSONB column, treating empty as an empty map.
func unmarshalJSONColumn(data []byte, dst *map[string]any) error {
	if len(data) == 0 {
		*dst = map[string]any{}
		return nil
	}
	return json.Unmarshal(data, dst)
}

package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/synapse-hq/synapse/pkg/models"
)

// maxWorkflowNameLength bounds workflow names, matching the column width.
const maxWorkflowNameLength = 255

// WorkflowService handles CRUD for stored workflow definitions.
type WorkflowService struct {
	db *sql.DB
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(db *sql.DB) *WorkflowService {
	return &WorkflowService{db: db}
}

// CreateWorkflowInput is the validated input for Create.
type CreateWorkflowInput struct {
	Name        string
	Description string
	CanvasData  json.RawMessage
	IsTemplate  bool
}

// UpdateWorkflowInput carries a partial update. Nil fields are left unchanged.
type UpdateWorkflowInput struct {
	Name        *string
	Description *string
	CanvasData  json.RawMessage
	IsTemplate  *bool
}

// Create stores a new workflow and returns it with generated ID and
// timestamps. The canvas document is stored byte-for-byte so client-only
// fields (positions, styling) survive.
func (s *WorkflowService) Create(ctx context.Context, input CreateWorkflowInput) (*models.Workflow, error) {
	if err := validateWorkflowName(input.Name); err != nil {
		return nil, err
	}

	canvas := input.CanvasData
	if len(canvas) == 0 {
		canvas = json.RawMessage(`{}`)
	}

	workflow := &models.Workflow{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		CanvasData:  canvas,
		IsTemplate:  input.IsTemplate,
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO workflows (id, name, description, canvas_data, is_template)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		workflow.ID, workflow.Name, workflow.Description, []byte(workflow.CanvasData), workflow.IsTemplate,
	).Scan(&workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	slog.Info("Workflow created", "workflow_id", workflow.ID, "name", workflow.Name)
	return workflow, nil
}

// Get returns a workflow by ID, or ErrNotFound.
func (s *WorkflowService) Get(ctx context.Context, id string) (*models.Workflow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, canvas_data, is_template, created_at, updated_at
		 FROM workflows WHERE id = $1`, id)

	workflow, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("workflow %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	return workflow, nil
}

// List returns workflows ordered by most recently updated, plus the total
// count. When templatesOnly is set, only template workflows are returned.
func (s *WorkflowService) List(ctx context.Context, templatesOnly bool) ([]*models.Workflow, int, error) {
	query := `SELECT id, name, description, canvas_data, is_template, created_at, updated_at
		 FROM workflows`
	if templatesOnly {
		query += ` WHERE is_template`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan workflow: %w", err)
		}
		workflows = append(workflows, workflow)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, len(workflows), nil
}

// Update applies a partial update and returns the updated workflow.
func (s *WorkflowService) Update(ctx context.Context, id string, input UpdateWorkflowInput) (*models.Workflow, error) {
	if input.Name != nil {
		if err := validateWorkflowName(*input.Name); err != nil {
			return nil, err
		}
	}

	var canvas []byte
	if input.CanvasData != nil {
		canvas = []byte(input.CanvasData)
	}

	// COALESCE keeps the stored value for fields absent from the payload.
	row := s.db.QueryRowContext(ctx,
		`UPDATE workflows SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			canvas_data = COALESCE($4, canvas_data),
			is_template = COALESCE($5, is_template),
			updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, description, canvas_data, is_template, created_at, updated_at`,
		id, input.Name, input.Description, canvas, input.IsTemplate)

	workflow, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("workflow %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	slog.Info("Workflow updated", "workflow_id", id)
	return workflow, nil
}

// Delete removes a workflow and, through cascading foreign keys, all of its
// execution records.
func (s *WorkflowService) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}

	slog.Info("Workflow deleted", "workflow_id", id)
	return nil
}

func validateWorkflowName(name string) error {
	if name == "" {
		return NewValidationError("name", "name is required")
	}
	if len(name) > maxWorkflowNameLength {
		return NewValidationError("name", fmt.Sprintf("name must be at most %d characters", maxWorkflowNameLength))
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var workflow models.Workflow
	var canvas []byte
	err := row.Scan(&workflow.ID, &workflow.Name, &workflow.Description, &canvas,
		&workflow.IsTemplate, &workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		return nil, err
	}
	workflow.CanvasData = json.RawMessage(canvas)
	return &workflow, nil
}

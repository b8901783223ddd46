// Package models defines the domain records shared by the services, the
// execution engine, and the HTTP API.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Workflow is a stored workflow definition. CanvasData holds the visual graph
// as opaque JSON so client-only fields (positions, viewport, styling) survive
// round-trips untouched.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CanvasData  json.RawMessage `json:"canvas_data"`
	IsTemplate  bool            `json:"is_template"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Canvas is the executable projection of CanvasData. Only the fields the
// engine needs are decoded; everything else stays in the raw document.
type Canvas struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a single canvas node.
type Node struct {
	ID   string   `json:"id"`
	Type string   `json:"type"`
	Data NodeData `json:"data"`
}

// NodeData carries the agent configuration authored on the canvas. Pointer
// fields distinguish "omitted" from zero values so defaults apply correctly.
type NodeData struct {
	Label        string   `json:"label,omitempty"`
	Provider     string   `json:"provider,omitempty"`
	Model        string   `json:"model,omitempty"`
	SystemPrompt string   `json:"systemPrompt,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    *int     `json:"maxTokens,omitempty"`
}

// Edge is a directed connection between two canvas nodes.
type Edge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// NodeTypeAgent marks nodes the engine executes against an LLM provider.
// Any other node type passes the trigger input through unchanged.
const NodeTypeAgent = "agent"

// Defaults applied to agent nodes when the canvas omits a field.
const (
	DefaultAgentLabel  = "Agent"
	DefaultProvider    = "openai"
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2048
)

// ParseCanvas decodes the stored canvas JSON into its executable form.
// An empty or null canvas yields an empty Canvas rather than an error.
func (w *Workflow) ParseCanvas() (*Canvas, error) {
	if len(w.CanvasData) == 0 || string(w.CanvasData) == "null" {
		return &Canvas{}, nil
	}
	var c Canvas
	if err := json.Unmarshal(w.CanvasData, &c); err != nil {
		return nil, fmt.Errorf("invalid canvas data: %w", err)
	}
	return &c, nil
}

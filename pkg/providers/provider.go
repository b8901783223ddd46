// Package providers contains the LLM vendor adapters the execution engine
// streams completions through. Every adapter speaks plain HTTP with
// server-sent events; no vendor SDKs are involved.
package providers

import (
	"context"
	"time"
)

// Message roles understood by every adapter.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// requestTimeout bounds the entire provider call including body streaming.
const requestTimeout = 120 * time.Second

// chunkBuffer sizes the streaming channel so slow consumers do not stall
// the HTTP read loop immediately.
const chunkBuffer = 100

// Message is one turn of the prompt sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config tunes a single provider call.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Chunk is one streamed fragment of a completion. The stream ends with
// exactly one terminal chunk: either Final carrying the vendor-reported
// token total, or Err when the stream broke mid-flight.
type Chunk struct {
	Content    string
	Final      bool
	TokensUsed int
	Err        error
}

// Response is a non-streaming completion result.
type Response struct {
	Content    string
	TokensUsed int
	Model      string
}

// Provider is implemented by each LLM vendor adapter.
//
// Stream performs the HTTP request synchronously, so authentication and
// rate-limit failures surface as a classified error before any chunk is
// produced. The returned channel is closed after the terminal chunk.
type Provider interface {
	Name() string
	Stream(ctx context.Context, messages []Message, config Config) (<-chan Chunk, error)
	Complete(ctx context.Context, messages []Message, config Config) (*Response, error)
	ValidateAPIKeyFormat(key string) bool
}

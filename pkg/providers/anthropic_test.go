package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicProviderStreamLiftsSystemPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-ant-test-key-1234567890", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "You are the second system prompt.", req.System)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, RoleUser, req.Messages[0].Role)
		assert.Equal(t, RoleAssistant, req.Messages[1].Role)
		assert.True(t, req.Stream)

		writeSSE(t, w,
			`event: message_start`,
			`data: {"type":"message_start","message":{"usage":{"input_tokens":10}}}`,
			`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"Hi"}}`,
			`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":" there"}}`,
			`data: {"type":"message_delta","usage":{"output_tokens":6}}`,
			`data: {"type":"message_stop"}`,
		)
	}))
	defer server.Close()

	provider := NewAnthropicProvider("sk-ant-test-key-1234567890", server.URL)
	ch, err := provider.Stream(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are the first system prompt."},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleSystem, Content: "You are the second system prompt."},
		{Role: RoleAssistant, Content: "hello"},
	}, Config{Model: "claude-sonnet-4", Temperature: 0.5, MaxTokens: 512})
	require.NoError(t, err)

	contents, terminal := collectChunks(t, ch)
	assert.Equal(t, []string{"Hi", " there"}, contents)
	require.NoError(t, terminal.Err)
	assert.True(t, terminal.Final)
	// Input tokens from message_start plus output tokens from message_delta.
	assert.Equal(t, 16, terminal.TokensUsed)
}

func TestAnthropicProviderStreamOmitsEmptySystem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, hasSystem := raw["system"]
		assert.False(t, hasSystem, "system must be omitted when no system message exists")

		writeSSE(t, w, `data: {"type":"message_stop"}`)
	}))
	defer server.Close()

	provider := NewAnthropicProvider("sk-ant-test-key-1234567890", server.URL)
	ch, err := provider.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, testConfig)
	require.NoError(t, err)

	contents, terminal := collectChunks(t, ch)
	assert.Empty(t, contents)
	assert.True(t, terminal.Final)
	assert.Zero(t, terminal.TokensUsed)
}

func TestAnthropicProviderStreamStatusClassification(t *testing.T) {
	tests := []struct {
		status   int
		wantAuth bool
		wantRate bool
	}{
		{status: http.StatusUnauthorized, wantAuth: true},
		{status: http.StatusTooManyRequests, wantRate: true},
		{status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			provider := NewAnthropicProvider("sk-ant-test-key-1234567890", server.URL)
			_, err := provider.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, testConfig)
			require.Error(t, err)

			switch {
			case tt.wantAuth:
				var authErr *AuthError
				assert.ErrorAs(t, err, &authErr)
			case tt.wantRate:
				var rateErr *RateLimitError
				assert.ErrorAs(t, err, &rateErr)
			default:
				var provErr *Error
				assert.ErrorAs(t, err, &provErr)
			}
		})
	}
}

func TestAnthropicProviderComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)

		fmt.Fprint(w, `{"content":[{"type":"text","text":"Complete answer."}],"usage":{"input_tokens":9,"output_tokens":4}}`)
	}))
	defer server.Close()

	provider := NewAnthropicProvider("sk-ant-test-key-1234567890", server.URL)
	resp, err := provider.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, testConfig)
	require.NoError(t, err)
	assert.Equal(t, "Complete answer.", resp.Content)
	assert.Equal(t, 13, resp.TokensUsed)
}

func TestAnthropicProviderValidateAPIKeyFormat(t *testing.T) {
	provider := NewAnthropicProvider("", "")

	assert.True(t, provider.ValidateAPIKeyFormat("sk-ant-abcdefghijklmnopqrs"))
	assert.False(t, provider.ValidateAPIKeyFormat("sk-ant-x"))
	assert.False(t, provider.ValidateAPIKeyFormat("sk-abcdefghijklmnopqrstuvwxyz"))
}

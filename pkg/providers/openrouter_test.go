package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterProviderSendsAttributionHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-or-test-key-1234567890", r.Header.Get("Authorization"))
		assert.Equal(t, "https://github.com/synapse-ai", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Synapse", r.Header.Get("X-Title"))

		writeSSE(t, w,
			`data: {"choices":[{"delta":{"content":"routed"}}]}`,
			`data: {"usage":{"total_tokens":5}}`,
			`data: [DONE]`,
		)
	}))
	defer server.Close()

	provider := NewOpenRouterProvider("sk-or-test-key-1234567890", server.URL)
	ch, err := provider.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, testConfig)
	require.NoError(t, err)

	contents, terminal := collectChunks(t, ch)
	assert.Equal(t, []string{"routed"}, contents)
	assert.True(t, terminal.Final)
	assert.Equal(t, 5, terminal.TokensUsed)
}

func TestOpenRouterProviderValidateAPIKeyFormat(t *testing.T) {
	provider := NewOpenRouterProvider("", "")

	assert.True(t, provider.ValidateAPIKeyFormat("sk-or-abcdefghijklmnopqrstu"))
	assert.False(t, provider.ValidateAPIKeyFormat("sk-or-short"))
	assert.False(t, provider.ValidateAPIKeyFormat("sk-abcdefghijklmnopqrstuvwxyz"))
}

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

func TestGeminiProviderStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-pro:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "AItest-key-1234567890abcd", r.URL.Query().Get("key"))
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "Be brief.", req.SystemInstruction.Parts[0].Text)
		require.Len(t, req.Contents, 2)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "model", req.Contents[1].Role)
		assert.Equal(t, 0.7, req.GenerationConfig.Temperature)
		assert.Equal(t, 2048, req.GenerationConfig.MaxOutputTokens)

		writeSSE(t, w,
			`data: {"candidates":[{"content":{"parts":[{"text":"Multi"},{"text":"part"}]}}],"usageMetadata":{"totalTokenCount":3}}`,
			`data: {"candidates":[{"content":{"parts":[{"text":" answer"}]}}],"usageMetadata":{"totalTokenCount":21}}`,
		)
	}))
	defer server.Close()

	provider := NewGeminiProvider("AItest-key-1234567890abcd", server.URL)
	ch, err := provider.Stream(context.Background(), []Message{
		{Role: RoleSystem, Content: "Be brief."},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}, Config{Model: "gemini-pro", Temperature: 0.7, MaxTokens: 2048})
	require.NoError(t, err)

	contents, terminal := collectChunks(t, ch)
	assert.Equal(t, []string{"Multipart", " answer"}, contents)
	require.NoError(t, terminal.Err)
	assert.True(t, terminal.Final)
	// The last usageMetadata wins.
	assert.Equal(t, 21, terminal.TokensUsed)
}

func TestGeminiProviderTreatsForbiddenAsAuthFailure(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "denied", status)
			}))
			defer server.Close()

			provider := NewGeminiProvider("AItest-key-1234567890abcd", server.URL)
			_, err := provider.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Config{Model: "gemini-pro"})

			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, geminiName, authErr.Provider)
		})
	}
}

func TestGeminiProviderRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewGeminiProvider("AItest-key-1234567890abcd", server.URL)
	_, err := provider.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Config{Model: "gemini-pro"})

	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
}

func TestGeminiProviderComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-pro:generateContent", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("alt"))

		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Done"},{"text":"."}]}}],"usageMetadata":{"totalTokenCount":17}}`)
	}))
	defer server.Close()

	provider := NewGeminiProvider("AItest-key-1234567890abcd", server.URL)
	resp, err := provider.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Config{Model: "gemini-pro"})
	require.NoError(t, err)
	assert.Equal(t, "Done.", resp.Content)
	assert.Equal(t, 17, resp.TokensUsed)
}

func TestGeminiProviderValidateAPIKeyFormat(t *testing.T) {
	provider := NewGeminiProvider("", "")

	assert.True(t, provider.ValidateAPIKeyFormat("AIzaSyabcdefghijklmnopqrstu"))
	assert.False(t, provider.ValidateAPIKeyFormat("AIshort"))
	assert.False(t, provider.ValidateAPIKeyFormat("sk-abcdefghijklmnopqrstuvwxyz"))
}

package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetKnownProviders(t *testing.T) {
	registry := NewRegistry()

	for _, name := range []string{"openai", "anthropic", "gemini", "groq", "openrouter"} {
		t.Run(name, func(t *testing.T) {
			provider, err := registry.Get(name, "some-key-1234567890", "")
			require.NoError(t, err)
			require.NotNil(t, provider)
			assert.Equal(t, name, provider.Name())
		})
	}
}

func TestRegistryGetEmptyKeyFailsBeforeLookup(t *testing.T) {
	registry := NewRegistry()

	// Even an unknown provider reports the missing key first.
	for _, name := range []string{"openai", "nonexistent"} {
		_, err := registry.Get(name, "", "")
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr, "provider %q", name)
		assert.Equal(t, name, authErr.Provider)
	}
}

func TestRegistryGetUnknownProviderListsSupported(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("deepseek", "some-key-1234567890", "")
	require.Error(t, err)

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.Contains(t, provErr.Message, "Unsupported provider: 'deepseek'")
	assert.Contains(t, provErr.Message, "anthropic, gemini, groq, openai, openrouter")
}

func TestRegistryRegisterReplacesFactory(t *testing.T) {
	registry := NewRegistry()
	stub := &stubProvider{name: "openai"}
	registry.Register("openai", func(apiKey, baseURL string) Provider { return stub })

	provider, err := registry.Get("openai", "whatever-key-123456789", "")
	require.NoError(t, err)
	assert.Same(t, stub, provider.(*stubProvider))
}

func TestRegistryIntrospection(t *testing.T) {
	registry := NewRegistry()

	assert.Equal(t, 5, registry.Len())
	assert.True(t, registry.Has("gemini"))
	assert.False(t, registry.Has("deepseek"))
	assert.Equal(t, []string{"anthropic", "gemini", "groq", "openai", "openrouter"}, registry.Names())
}

// stubProvider satisfies Provider for registry tests.
type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Stream(ctx context.Context, messages []Message, config Config) (<-chan Chunk, error) {
	ch := make(chan Chunk, 1)
	ch <- Chunk{Final: true}
	close(ch)
	return ch, nil
}

func (s *stubProvider) Complete(ctx context.Context, messages []Message, config Config) (*Response, error) {
	return &Response{}, nil
}

func (s *stubProvider) ValidateAPIKeyFormat(key string) bool { return true }

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearProviderKeys blanks every provider credential variable so tests are
// insulated from the developer's environment.
func clearProviderKeys(t *testing.T) {
	t.Helper()
	for _, envVar := range providerKeyEnvVars {
		t.Setenv(envVar, "")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadDefaults(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/synapse")
	t.Setenv("PORT", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("DEBUG", "")
	t.Setenv("CORS_ORIGINS", "")

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "synapse", settings.AppName)
	assert.Equal(t, "0.1.0", settings.AppVersion)
	assert.Equal(t, 8000, settings.Port)
	assert.Equal(t, "0.0.0.0", settings.Host)
	assert.False(t, settings.Debug)
	assert.Equal(t, []string{"http://localhost:5173"}, settings.CORSOrigins)
	assert.Equal(t, "postgres://localhost/synapse", settings.DatabaseURL)
	assert.Empty(t, settings.RedisURL)
	assert.Empty(t, settings.ProviderAPIKeys)
}

func TestLoadOverrides(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("DATABASE_URL", "postgres://db/synapse")
	t.Setenv("PORT", "9001")
	t.Setenv("DEBUG", "true")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("GROQ_API_KEY", "gsk_env")

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, settings.Port)
	assert.True(t, settings.Debug)
	assert.Equal(t, "redis://localhost:6379/0", settings.RedisURL)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, settings.CORSOrigins)
	assert.Equal(t, map[string]string{
		"openai": "sk-env",
		"groq":   "gsk_env",
	}, settings.ProviderAPIKeys)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/synapse")
	t.Setenv("PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestMergeAPIKeysCallerWins(t *testing.T) {
	settings := &Settings{ProviderAPIKeys: map[string]string{
		"openai":    "E1",
		"anthropic": "E2",
	}}

	merged := settings.MergeAPIKeys(map[string]string{"openai": "K1"})

	assert.Equal(t, map[string]string{
		"openai":    "K1",
		"anthropic": "E2",
	}, merged)
}

func TestMergeAPIKeysEmptyInputs(t *testing.T) {
	settings := &Settings{ProviderAPIKeys: map[string]string{"gemini": "G"}}

	assert.Equal(t, map[string]string{"gemini": "G"}, settings.MergeAPIKeys(nil))

	empty := &Settings{ProviderAPIKeys: map[string]string{}}
	assert.Empty(t, empty.MergeAPIKeys(nil))
}

func TestMergeAPIKeysDoesNotMutateInputs(t *testing.T) {
	settings := &Settings{ProviderAPIKeys: map[string]string{"openai": "E1"}}
	caller := map[string]string{"groq": "K1"}

	merged := settings.MergeAPIKeys(caller)
	merged["openai"] = "mutated"

	assert.Equal(t, map[string]string{"groq": "K1"}, caller)
	assert.Equal(t, "E1", settings.ProviderAPIKeys["openai"])
}

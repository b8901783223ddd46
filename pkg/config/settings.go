// Package config loads application settings from environment variables,
// read once at process start.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings holds the full application configuration.
type Settings struct {
	AppName    string
	AppVersion string
	Debug      bool

	Host        string
	Port        int
	CORSOrigins []string

	// DatabaseURL is required; the process refuses to start without it.
	DatabaseURL string
	// RedisURL selects the Redis event bus. Empty means the in-process bus,
	// which is fine for single-instance deployments.
	RedisURL string

	SecretKey     string
	EncryptionKey string

	// ProviderAPIKeys holds the env-configured default key per provider.
	// Providers without a configured key are absent from the map.
	ProviderAPIKeys map[string]string
}

// providerKeyEnvVars maps provider names to their credential variables.
// deepseek is carried for key merging even though no adapter exists for it;
// a node selecting it gets the unsupported-provider error.
var providerKeyEnvVars = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"gemini":     "GEMINI_API_KEY",
	"groq":       "GROQ_API_KEY",
	"deepseek":   "DEEPSEEK_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

// Load reads settings from the environment. DATABASE_URL is the only
// required variable.
func Load() (*Settings, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	providerKeys := make(map[string]string)
	for provider, envVar := range providerKeyEnvVars {
		if key := os.Getenv(envVar); key != "" {
			providerKeys[provider] = key
		}
	}

	return &Settings{
		AppName:         getEnvOrDefault("APP_NAME", "synapse"),
		AppVersion:      getEnvOrDefault("APP_VERSION", "0.1.0"),
		Debug:           parseBool(os.Getenv("DEBUG")),
		Host:            getEnvOrDefault("HOST", "0.0.0.0"),
		Port:            port,
		CORSOrigins:     splitCommaList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     databaseURL,
		RedisURL:        os.Getenv("REDIS_URL"),
		SecretKey:       getEnvOrDefault("SECRET_KEY", "change-me-in-production"),
		EncryptionKey:   getEnvOrDefault("ENCRYPTION_KEY", "change-me-generate-a-real-key"),
		ProviderAPIKeys: providerKeys,
	}, nil
}

// MergeAPIKeys combines caller-supplied provider keys with the env-configured
// defaults. A caller-supplied key always wins; env keys fill only the
// providers the caller omitted.
func (s *Settings) MergeAPIKeys(callerKeys map[string]string) map[string]string {
	merged := make(map[string]string, len(callerKeys)+len(s.ProviderAPIKeys))
	for provider, key := range callerKeys {
		merged[provider] = key
	}
	for provider, key := range s.ProviderAPIKeys {
		if _, ok := merged[provider]; !ok {
			merged[provider] = key
		}
	}
	return merged
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseBool(val string) bool {
	parsed, err := strconv.ParseBool(val)
	return err == nil && parsed
}

func splitCommaList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

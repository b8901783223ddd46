package providers

import (
	"context"
	"strings"
)

const (
	openRouterName       = "openrouter"
	openRouterDefaultURL = "https://openrouter.ai/api/v1/chat/completions"
)

// openRouterHeaders are the attribution headers OpenRouter asks callers to
// send alongside the usual bearer token.
var openRouterHeaders = map[string]string{
	"HTTP-Referer": "https://github.com/synapse-ai",
	"X-Title":      "Synapse",
}

// OpenRouterProvider streams chat completions through the OpenRouter
// aggregator, which speaks the OpenAI protocol.
type OpenRouterProvider struct {
	chat *chatCompletions
}

// NewOpenRouterProvider builds an adapter bound to apiKey. A non-empty
// baseURL overrides the default endpoint.
func NewOpenRouterProvider(apiKey, baseURL string) *OpenRouterProvider {
	url := openRouterDefaultURL
	if baseURL != "" {
		url = chatCompletionsURL(baseURL)
	}
	return &OpenRouterProvider{
		chat: newChatCompletions(openRouterName, url, apiKey, openRouterHeaders, standardUsage),
	}
}

func (p *OpenRouterProvider) Name() string { return openRouterName }

func (p *OpenRouterProvider) Stream(ctx context.Context, messages []Message, config Config) (<-chan Chunk, error) {
	return p.chat.stream(ctx, messages, config)
}

func (p *OpenRouterProvider) Complete(ctx context.Context, messages []Message, config Config) (*Response, error) {
	return p.chat.complete(ctx, messages, config)
}

// ValidateAPIKeyFormat checks the vendor key shape without a network call.
func (p *OpenRouterProvider) ValidateAPIKeyFormat(key string) bool {
	return strings.HasPrefix(key, "sk-or-") && len(key) > 20
}

package providers

import (
	"context"
	"strings"
)

const (
	openAIName       = "openai"
	openAIDefaultURL = "https://api.openai.com/v1/chat/completions"
)

// OpenAIProvider streams chat completions from the OpenAI API.
type OpenAIProvider struct {
	chat *chatCompletions
}

// NewOpenAIProvider builds an adapter bound to apiKey. A non-empty baseURL
// overrides the default endpoint; the chat-completions path is appended when
// missing so bare hosts work.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	url := openAIDefaultURL
	if baseURL != "" {
		url = chatCompletionsURL(baseURL)
	}
	return &OpenAIProvider{
		chat: newChatCompletions(openAIName, url, apiKey, nil, standardUsage),
	}
}

func (p *OpenAIProvider) Name() string { return openAIName }

func (p *OpenAIProvider) Stream(ctx context.Context, messages []Message, config Config) (<-chan Chunk, error) {
	return p.chat.stream(ctx, messages, config)
}

func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message, config Config) (*Response, error) {
	return p.chat.complete(ctx, messages, config)
}

// ValidateAPIKeyFormat checks the vendor key shape without a network call.
func (p *OpenAIProvider) ValidateAPIKeyFormat(key string) bool {
	return strings.HasPrefix(key, "sk-") && len(key) > 20
}

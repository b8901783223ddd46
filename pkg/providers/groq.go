package providers

import (
	"context"
	"strings"
)

const (
	groqName       = "groq"
	groqDefaultURL = "https://api.groq.com/openai/v1/chat/completions"
)

// GroqProvider streams chat completions from the Groq API, which speaks the
// OpenAI protocol but reports streaming usage under an x_groq envelope.
type GroqProvider struct {
	chat *chatCompletions
}

// NewGroqProvider builds an adapter bound to apiKey. A non-empty baseURL
// overrides the default endpoint.
func NewGroqProvider(apiKey, baseURL string) *GroqProvider {
	url := groqDefaultURL
	if baseURL != "" {
		url = chatCompletionsURL(baseURL)
	}
	return &GroqProvider{
		chat: newChatCompletions(groqName, url, apiKey, nil, groqUsage),
	}
}

// groqUsage prefers the x_groq envelope and falls back to the standard
// usage object when absent.
func groqUsage(frame *chatStreamFrame) (int, bool) {
	if frame.XGroq != nil && frame.XGroq.Usage != nil {
		return frame.XGroq.Usage.TotalTokens, true
	}
	return standardUsage(frame)
}

func (p *GroqProvider) Name() string { return groqName }

func (p *GroqProvider) Stream(ctx context.Context, messages []Message, config Config) (<-chan Chunk, error) {
	return p.chat.stream(ctx, messages, config)
}

func (p *GroqProvider) Complete(ctx context.Context, messages []Message, config Config) (*Response, error) {
	return p.chat.complete(ctx, messages, config)
}

// ValidateAPIKeyFormat checks the vendor key shape without a network call.
func (p *GroqProvider) ValidateAPIKeyFormat(key string) bool {
	return strings.HasPrefix(key, "gsk_") && len(key) > 20
}

package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	anthropicName       = "anthropic"
	anthropicDefaultURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion    = "2023-06-01"
)

// AnthropicProvider streams completions from the Anthropic Messages API.
// System messages are lifted out of the message list into the top-level
// system field, as the API requires.
type AnthropicProvider struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

// NewAnthropicProvider builds an adapter bound to apiKey. A non-empty
// baseURL replaces the default messages endpoint.
func NewAnthropicProvider(apiKey, baseURL string) *AnthropicProvider {
	url := anthropicDefaultURL
	if baseURL != "" {
		url = baseURL
	}
	return &AnthropicProvider{
		apiKey:     apiKey,
		url:        url,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Message struct {
		Usage anthropicUsage `json:"usage"`
	} `json:"message"`
	Usage anthropicUsage `json:"usage"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage anthropicUsage `json:"usage"`
}

func (p *AnthropicProvider) Name() string { return anthropicName }

// splitSystem separates the system prompt from the conversational turns.
// When several system messages appear, the last one wins.
func splitSystem(messages []Message) (string, []Message) {
	var system string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}

func (p *AnthropicProvider) do(ctx context.Context, messages []Message, cfg Config, stream bool) (*http.Response, error) {
	system, turns := splitSystem(messages)
	payload, err := json.Marshal(anthropicRequest{
		Model:       cfg.Model,
		Messages:    turns,
		System:      system,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, &Error{Provider: anthropicName, Message: fmt.Sprintf("Unexpected error: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Provider: anthropicName, Message: fmt.Sprintf("Unexpected error: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, requestError(anthropicName, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, classifyStatus(anthropicName, resp.StatusCode, body)
	}
	return resp, nil
}

func (p *AnthropicProvider) Stream(ctx context.Context, messages []Message, config Config) (<-chan Chunk, error) {
	resp, err := p.do(ctx, messages, config, true)
	if err != nil {
		return nil, err
	}

	out := make(chan Chunk, chunkBuffer)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		totalTokens := 0

		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				if err == io.EOF {
					break
				}
				out <- Chunk{Err: requestError(anthropicName, err)}
				return
			}

			line = bytes.TrimSpace(line)
			// Event-name lines and keepalives lack the data prefix.
			if !bytes.HasPrefix(line, ssePrefix) {
				continue
			}
			line = line[len(ssePrefix):]

			var event anthropicStreamEvent
			if err := json.Unmarshal(line, &event); err != nil {
				continue
			}

			if event.Type == "message_stop" {
				break
			}

			switch event.Type {
			case "message_start":
				totalTokens += event.Message.Usage.InputTokens
			case "content_block_delta":
				if event.Delta.Text != "" {
					out <- Chunk{Content: event.Delta.Text}
				}
			case "message_delta":
				totalTokens += event.Usage.OutputTokens
			}
		}

		out <- Chunk{Final: true, TokensUsed: totalTokens}
	}()

	return out, nil
}

func (p *AnthropicProvider) Complete(ctx context.Context, messages []Message, config Config) (*Response, error) {
	resp, err := p.do(ctx, messages, config, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, requestError(anthropicName, err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Provider: anthropicName, Message: fmt.Sprintf("Unexpected error: %v", err)}
	}
	if len(parsed.Content) == 0 {
		return nil, &Error{Provider: anthropicName, Message: "response contained no content blocks"}
	}

	return &Response{
		Content:    parsed.Content[0].Text,
		TokensUsed: parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		Model:      config.Model,
	}, nil
}

// ValidateAPIKeyFormat checks the vendor key shape without a network call.
func (p *AnthropicProvider) ValidateAPIKeyFormat(key string) bool {
	return strings.HasPrefix(key, "sk-ant-") && len(key) > 20
}

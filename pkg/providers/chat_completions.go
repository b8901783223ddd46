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

// The OpenAI chat-completions protocol, implemented once. The openai, groq
// and openrouter adapters differ only in endpoint, headers and where stream
// frames report usage totals.

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

type chatUsage struct {
	TotalTokens int `json:"total_tokens"`
}

type chatStreamFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage"`
	XGroq *struct {
		Usage *chatUsage `json:"usage"`
	} `json:"x_groq"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage chatUsage `json:"usage"`
}

// usageFromFrame extracts the running token total from a stream frame,
// returning false when the frame carries none.
type usageFromFrame func(*chatStreamFrame) (int, bool)

func standardUsage(frame *chatStreamFrame) (int, bool) {
	if frame.Usage != nil {
		return frame.Usage.TotalTokens, true
	}
	return 0, false
}

type chatCompletions struct {
	provider     string
	url          string
	apiKey       string
	extraHeaders map[string]string
	usage        usageFromFrame
	httpClient   *http.Client
}

func newChatCompletions(provider, url, apiKey string, extraHeaders map[string]string, usage usageFromFrame) *chatCompletions {
	return &chatCompletions{
		provider:     provider,
		url:          url,
		apiKey:       apiKey,
		extraHeaders: extraHeaders,
		usage:        usage,
		httpClient:   &http.Client{Timeout: requestTimeout},
	}
}

// chatCompletionsURL normalizes a base URL override so both bare hosts and
// full endpoint URLs work.
func chatCompletionsURL(base string) string {
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/chat/completions") {
		base += "/chat/completions"
	}
	return base
}

// do issues the request and classifies non-200 responses. Callers own the
// response body on success.
func (c *chatCompletions) do(ctx context.Context, messages []Message, cfg Config, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, &Error{Provider: c.provider, Message: fmt.Sprintf("Unexpected error: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Provider: c.provider, Message: fmt.Sprintf("Unexpected error: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for key, value := range c.extraHeaders {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, requestError(c.provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, classifyStatus(c.provider, resp.StatusCode, body)
	}
	return resp, nil
}

var (
	ssePrefix    = []byte("data: ")
	sseDoneFrame = []byte("[DONE]")
)

func (c *chatCompletions) stream(ctx context.Context, messages []Message, cfg Config) (<-chan Chunk, error) {
	resp, err := c.do(ctx, messages, cfg, true)
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
				out <- Chunk{Err: requestError(c.provider, err)}
				return
			}

			line = bytes.TrimSpace(line)
			if !bytes.HasPrefix(line, ssePrefix) {
				continue
			}
			line = line[len(ssePrefix):]

			if bytes.Equal(line, sseDoneFrame) {
				break
			}

			var frame chatStreamFrame
			if err := json.Unmarshal(line, &frame); err != nil {
				// Malformed frames are skipped, not fatal.
				continue
			}

			if tokens, ok := c.usage(&frame); ok {
				totalTokens = tokens
			}
			if len(frame.Choices) == 0 {
				continue
			}
			if content := frame.Choices[0].Delta.Content; content != "" {
				out <- Chunk{Content: content}
			}
		}

		out <- Chunk{Final: true, TokensUsed: totalTokens}
	}()

	return out, nil
}

func (c *chatCompletions) complete(ctx context.Context, messages []Message, cfg Config) (*Response, error) {
	resp, err := c.do(ctx, messages, cfg, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, requestError(c.provider, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Provider: c.provider, Message: fmt.Sprintf("Unexpected error: %v", err)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &Error{Provider: c.provider, Message: "response contained no choices"}
	}

	return &Response{
		Content:    parsed.Choices[0].Message.Content,
		TokensUsed: parsed.Usage.TotalTokens,
		Model:      cfg.Model,
	}, nil
}

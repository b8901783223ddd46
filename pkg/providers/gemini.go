package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	geminiName       = "gemini"
	geminiDefaultURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

// GeminiProvider streams completions from the Google Gemini API. The model
// name is part of the URL, authentication rides in a query parameter, and
// roles map to Gemini's user/model vocabulary.
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiProvider builds an adapter bound to apiKey. A non-empty baseURL
// replaces the default models root.
func NewGeminiProvider(apiKey, baseURL string) *GeminiProvider {
	root := geminiDefaultURL
	if baseURL != "" {
		root = strings.TrimRight(baseURL, "/")
	}
	return &GeminiProvider{
		apiKey:     apiKey,
		baseURL:    root,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (p *GeminiProvider) Name() string { return geminiName }

// buildGeminiRequest converts the neutral message list into Gemini's content
// shape. System prompts become a systemInstruction and assistant turns map
// to the model role. The last system message wins when several appear.
func buildGeminiRequest(messages []Message, cfg Config) geminiRequest {
	req := geminiRequest{
		GenerationConfig: geminiGenerationConfig{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxTokens,
		},
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		case RoleAssistant:
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	return req
}

func (p *GeminiProvider) do(ctx context.Context, endpoint string, messages []Message, cfg Config) (*http.Response, error) {
	payload, err := json.Marshal(buildGeminiRequest(messages, cfg))
	if err != nil {
		return nil, &Error{Provider: geminiName, Message: fmt.Sprintf("Unexpected error: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Provider: geminiName, Message: fmt.Sprintf("Unexpected error: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, requestError(geminiName, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		// Gemini reports key problems as 403 as well as 401.
		if resp.StatusCode == http.StatusForbidden {
			return nil, &AuthError{Provider: geminiName}
		}
		return nil, classifyStatus(geminiName, resp.StatusCode, body)
	}
	return resp, nil
}

func (p *GeminiProvider) Stream(ctx context.Context, messages []Message, config Config) (<-chan Chunk, error) {
	endpoint := fmt.Sprintf("%s/%s:streamGenerateContent?key=%s&alt=sse",
		p.baseURL, config.Model, url.QueryEscape(p.apiKey))

	resp, err := p.do(ctx, endpoint, messages, config)
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
				out <- Chunk{Err: requestError(geminiName, err)}
				return
			}

			line = bytes.TrimSpace(line)
			if !bytes.HasPrefix(line, ssePrefix) {
				continue
			}
			line = line[len(ssePrefix):]

			var frame geminiResponse
			if err := json.Unmarshal(line, &frame); err != nil {
				continue
			}

			if frame.UsageMetadata != nil {
				totalTokens = frame.UsageMetadata.TotalTokenCount
			}
			if len(frame.Candidates) == 0 {
				continue
			}
			if text := joinGeminiParts(frame.Candidates[0].Content.Parts); text != "" {
				out <- Chunk{Content: text}
			}
		}

		out <- Chunk{Final: true, TokensUsed: totalTokens}
	}()

	return out, nil
}

func (p *GeminiProvider) Complete(ctx context.Context, messages []Message, config Config) (*Response, error) {
	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s",
		p.baseURL, config.Model, url.QueryEscape(p.apiKey))

	resp, err := p.do(ctx, endpoint, messages, config)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, requestError(geminiName, err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Provider: geminiName, Message: fmt.Sprintf("Unexpected error: %v", err)}
	}
	if len(parsed.Candidates) == 0 {
		return nil, &Error{Provider: geminiName, Message: "response contained no candidates"}
	}

	tokens := 0
	if parsed.UsageMetadata != nil {
		tokens = parsed.UsageMetadata.TotalTokenCount
	}
	return &Response{
		Content:    joinGeminiParts(parsed.Candidates[0].Content.Parts),
		TokensUsed: tokens,
		Model:      config.Model,
	}, nil
}

func joinGeminiParts(parts []geminiPart) string {
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

// ValidateAPIKeyFormat checks the vendor key shape without a network call.
func (p *GeminiProvider) ValidateAPIKeyFormat(key string) bool {
	return strings.HasPrefix(key, "AI") && len(key) > 20
}

package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const anthropicVersion = "2023-06-01"

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	keyName string
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewAnthropicProvider(keyName string) *AnthropicProvider {
	return &AnthropicProvider{
		keyName: keyName,
		apiKey:  resolveKey("ANTHROPIC", keyName),
		model:   envOr("DOCRAG_ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
		baseURL: strings.TrimRight(envOr("DOCRAG_ANTHROPIC_BASE_URL", "https://api.anthropic.com"), "/"),
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (a *AnthropicProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "anthropic", Key: a.keyName, Model: a.model}
	if a.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("anthropic key missing for alias %q", a.keyName)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	body := map[string]any{
		"model":      a.model,
		"max_tokens": maxTokens,
		"messages":   []map[string]string{{"role": "user", "content": req.Prompt}},
	}
	if req.System != "" {
		body["system"] = req.System
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := postJSON(ctx, a.client, a.baseURL+"/v1/messages", headers, body, &parsed); err != nil {
		return GenerateResponse{}, info, fmt.Errorf("anthropic generate: %w", err)
	}
	var sb strings.Builder
	for _, c := range parsed.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return GenerateResponse{}, info, fmt.Errorf("anthropic generate: empty content")
	}
	return GenerateResponse{Text: sb.String()}, info, nil
}

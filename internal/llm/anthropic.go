package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/weitblick/internal/model"
)

// anthropicVersion is the API version header value the wire contract pins
const anthropicVersion = "2023-06-01"

// AnthropicProvider implements the Provider interface for Anthropic Claude models
type AnthropicProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Anthropic API structures
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(endpoint model.Endpoint, httpClient *http.Client) *AnthropicProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AnthropicProvider{
		baseURL:    strings.TrimSuffix(endpoint.BaseURL, "/"),
		model:      endpoint.Model,
		httpClient: httpClient,
	}
}

// Name returns the provider name
func (p *AnthropicProvider) Name() model.ProviderID {
	return model.ProviderAnthropic
}

// Complete calls the Messages API
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string, credential string) (string, error) {
	apiReq := anthropicRequest{
		Model:     p.model,
		MaxTokens: MaxOutputTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	resp, err := p.makeRequest(ctx, apiReq, credential)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Content) == 0 {
		return Unavailable, nil
	}

	text := strings.TrimSpace(resp.Content[0].Text)
	if text == "" {
		return Unavailable, nil
	}
	return text, nil
}

// makeRequest makes an HTTP request to the Anthropic API. A nil response
// with a nil error means the body could not be decoded.
func (p *AnthropicProvider) makeRequest(ctx context.Context, apiReq anthropicRequest, credential string) (*anthropicResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/messages", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, transportError(p.Name(), err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", credential)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(p.Name(), err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &HTTPError{Provider: p.Name(), Status: httpResp.StatusCode}
	}

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(p.Name(), err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, nil
	}

	return &resp, nil
}

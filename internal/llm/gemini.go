package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/weitblick/internal/model"
)

// GeminiProvider implements the Provider interface for Google Gemini
type GeminiProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Gemini API structures
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(endpoint model.Endpoint, httpClient *http.Client) *GeminiProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GeminiProvider{
		baseURL:    strings.TrimSuffix(endpoint.BaseURL, "/"),
		model:      endpoint.Model,
		httpClient: httpClient,
	}
}

// Name returns the provider name
func (p *GeminiProvider) Name() model.ProviderID {
	return model.ProviderGemini
}

// Complete calls generateContent with the key in the query string
func (p *GeminiProvider) Complete(ctx context.Context, prompt string, credential string) (string, error) {
	apiReq := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     Temperature,
			TopK:            TopK,
			TopP:            TopP,
			MaxOutputTokens: MaxOutputTokens,
		},
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, url.QueryEscape(credential))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", transportError(p.Name(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", transportError(p.Name(), err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", &HTTPError{Provider: p.Name(), Status: httpResp.StatusCode}
	}

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return "", transportError(p.Name(), err)
	}

	var resp geminiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return Unavailable, nil
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return Unavailable, nil
	}

	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return Unavailable, nil
	}
	return text, nil
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/weitblick/internal/model"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI-compatible
// chat completion APIs. DeepSeek speaks the same envelope and reuses it.
type OpenAIProvider struct {
	id         model.ProviderID
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAIProvider creates a provider for api.openai.com
func NewOpenAIProvider(endpoint model.Endpoint, httpClient *http.Client) *OpenAIProvider {
	return newChatProvider(model.ProviderOpenAI, endpoint, httpClient)
}

// NewDeepSeekProvider creates a provider for api.deepseek.com
func NewDeepSeekProvider(endpoint model.Endpoint, httpClient *http.Client) *OpenAIProvider {
	return newChatProvider(model.ProviderDeepSeek, endpoint, httpClient)
}

func newChatProvider(id model.ProviderID, endpoint model.Endpoint, httpClient *http.Client) *OpenAIProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAIProvider{
		id:         id,
		baseURL:    strings.TrimSuffix(endpoint.BaseURL, "/"),
		model:      endpoint.Model,
		httpClient: httpClient,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() model.ProviderID {
	return p.id
}

// Complete calls the chat completions endpoint with a bearer credential
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, credential string) (string, error) {
	clientConfig := openai.DefaultConfig(credential)
	clientConfig.BaseURL = p.baseURL
	clientConfig.HTTPClient = p.httpClient
	client := openai.NewClientWithConfig(clientConfig)

	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: Temperature,
		MaxTokens:   MaxOutputTokens,
	}

	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return p.handleError(err)
	}

	if len(resp.Choices) == 0 {
		return Unavailable, nil
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return Unavailable, nil
	}
	return text, nil
}

// handleError maps go-openai errors onto the provider error taxonomy
func (p *OpenAIProvider) handleError(err error) (string, error) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return "", &HTTPError{Provider: p.id, Status: apiErr.HTTPStatusCode}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return "", &HTTPError{Provider: p.id, Status: reqErr.HTTPStatusCode}
	}

	// A 2xx body that does not decode is a malformed response, not a failure
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Unavailable, nil
	}

	return "", transportError(p.id, err)
}

package llm

import (
	"fmt"
	"net/http"

	"github.com/ppiankov/weitblick/internal/model"
)

// NewProvider creates the client for one vendor from configuration
func NewProvider(id model.ProviderID, providers model.ProvidersConfig, httpClient *http.Client) (Provider, error) {
	endpoint, ok := providers.Endpoint(id)
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: gemini, openai, anthropic, deepseek)", id)
	}

	switch id {
	case model.ProviderGemini:
		return NewGeminiProvider(endpoint, httpClient), nil
	case model.ProviderOpenAI:
		return NewOpenAIProvider(endpoint, httpClient), nil
	case model.ProviderAnthropic:
		return NewAnthropicProvider(endpoint, httpClient), nil
	case model.ProviderDeepSeek:
		return NewDeepSeekProvider(endpoint, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", id)
	}
}

// NewProviders creates one client per supported vendor, sharing one HTTP client
func NewProviders(cfg *model.Config) (map[model.ProviderID]Provider, error) {
	httpClient := NewHTTPClient(cfg.HTTP)

	providers := make(map[model.ProviderID]Provider, len(model.AllProviders))
	for _, id := range model.AllProviders {
		p, err := NewProvider(id, cfg.Providers, httpClient)
		if err != nil {
			return nil, err
		}
		providers[id] = p
	}
	return providers, nil
}

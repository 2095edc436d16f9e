package model

import (
	"fmt"
	"strings"
)

// ProviderID identifies one of the supported LLM vendors
type ProviderID string

const (
	ProviderGemini    ProviderID = "gemini"
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderDeepSeek  ProviderID = "deepseek"
)

// AllProviders is the fixed enumeration order. Result selection walks this list.
var AllProviders = []ProviderID{
	ProviderGemini,
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderDeepSeek,
}

// Label returns the display name of the provider
func (p ProviderID) Label() string {
	switch p {
	case ProviderGemini:
		return "Google Gemini"
	case ProviderOpenAI:
		return "OpenAI ChatGPT"
	case ProviderAnthropic:
		return "Anthropic Claude"
	case ProviderDeepSeek:
		return "DeepSeek"
	default:
		return string(p)
	}
}

// ParseProviderID converts a user supplied name into a ProviderID
func ParseProviderID(name string) (ProviderID, error) {
	id := ProviderID(strings.ToLower(strings.TrimSpace(name)))
	for _, p := range AllProviders {
		if p == id {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown provider: %s (supported: gemini, openai, anthropic, deepseek)", name)
}

// Credentials maps a provider to its API secret. A missing or blank entry
// means the provider is not configured.
type Credentials map[ProviderID]string

// Present reports whether a non-blank secret exists for the provider
func (c Credentials) Present(id ProviderID) bool {
	return strings.TrimSpace(c[id]) != ""
}

// Configured returns the providers with a secret, in enumeration order
func (c Credentials) Configured() []ProviderID {
	var ids []ProviderID
	for _, id := range AllProviders {
		if c.Present(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clone returns an independent copy
func (c Credentials) Clone() Credentials {
	out := make(Credentials, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

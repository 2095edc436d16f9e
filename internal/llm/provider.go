package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ppiankov/weitblick/internal/model"
)

// Provider defines the interface every LLM vendor client implements
type Provider interface {
	// Name returns the provider identifier
	Name() model.ProviderID

	// Complete sends one prompt and returns the generated text. The
	// credential is supplied per call and never stored by the provider.
	Complete(ctx context.Context, prompt string, credential string) (string, error)
}

// Unavailable is returned instead of an error when a vendor answers with a
// success status but the expected text field is missing or unreadable.
const Unavailable = "Analyse nicht verfügbar"

// Fixed sampling configuration shared by all vendors
const (
	Temperature     = 0.7
	TopK            = 40
	TopP            = 0.95
	MaxOutputTokens = 1024
)

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 4 << 20

// HTTPError reports a non-success status from a vendor endpoint
type HTTPError struct {
	Provider model.ProviderID
	Status   int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Provider, e.Status)
}

// IsUnavailable reports whether text is the placeholder for an unreadable response
func IsUnavailable(text string) bool {
	return text == Unavailable
}

// transportError strips the request URL from a client error. The Gemini
// key travels in the query string and must never reach a log line.
func transportError(provider model.ProviderID, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request failed: %s: %w", provider, urlErr.Op, urlErr.Err)
	}
	return fmt.Errorf("%s request failed: %w", provider, err)
}

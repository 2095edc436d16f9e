// Package keystore stores provider API keys outside the main configuration.
package keystore

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/weitblick/internal/model"
)

// ErrMalformedKey is returned for a key that does not have its provider's shape
var ErrMalformedKey = errors.New("malformed API key")

// Store persists provider credentials
type Store interface {
	Load() (model.Credentials, error)
	Set(id model.ProviderID, key string) error
	Remove(id model.ProviderID) error
}

// keyPatterns are the lexical shapes vendors issue keys in
var keyPatterns = map[model.ProviderID]*regexp.Regexp{
	model.ProviderGemini:    regexp.MustCompile(`^AIza[\w-]{35,}$`),
	model.ProviderOpenAI:    regexp.MustCompile(`^sk-[\w-]{48,}$`),
	model.ProviderAnthropic: regexp.MustCompile(`^sk-ant-[\w-]{95,}$`),
	model.ProviderDeepSeek:  regexp.MustCompile(`^sk-[\w-]{32,}$`),
}

// envVars name the environment variable that may supply each key
var envVars = map[model.ProviderID]string{
	model.ProviderGemini:    "GEMINI_API_KEY",
	model.ProviderOpenAI:    "OPENAI_API_KEY",
	model.ProviderAnthropic: "ANTHROPIC_API_KEY",
	model.ProviderDeepSeek:  "DEEPSEEK_API_KEY",
}

var (
	keyValidator     *validator.Validate
	keyValidatorOnce sync.Once
)

func tagFor(id model.ProviderID) string {
	return string(id) + "_key"
}

func getValidator() *validator.Validate {
	keyValidatorOnce.Do(func() {
		v := validator.New()
		for id, re := range keyPatterns {
			re := re
			_ = v.RegisterValidation(tagFor(id), func(fl validator.FieldLevel) bool {
				return re.MatchString(fl.Field().String())
			})
		}
		keyValidator = v
	})
	return keyValidator
}

// Validate checks that key has the shape the provider issues keys in
func Validate(id model.ProviderID, key string) error {
	if _, ok := keyPatterns[id]; !ok {
		return fmt.Errorf("unknown provider: %s", id)
	}
	if err := getValidator().Var(key, "required,"+tagFor(id)); err != nil {
		return fmt.Errorf("%w for %s", ErrMalformedKey, id.Label())
	}
	return nil
}

// EnvVar returns the environment variable consulted for a provider
func EnvVar(id model.ProviderID) string {
	return envVars[id]
}

// Overlay returns a copy of creds with well-formed keys from the
// environment applied on top. Malformed values are skipped.
func Overlay(creds model.Credentials, getenv func(string) string) model.Credentials {
	out := creds.Clone()
	if getenv == nil {
		return out
	}
	for _, id := range model.AllProviders {
		value := strings.TrimSpace(getenv(envVars[id]))
		if value == "" {
			continue
		}
		if Validate(id, value) != nil {
			continue
		}
		out[id] = value
	}
	return out
}

// WithEnv wraps a store so every Load sees environment keys on top
type WithEnv struct {
	Store  Store
	Getenv func(string) string
}

// Load returns the stored credentials overlaid with the environment
func (w WithEnv) Load() (model.Credentials, error) {
	creds, err := w.Store.Load()
	if err != nil {
		return nil, err
	}
	return Overlay(creds, w.Getenv), nil
}

// Mask shortens a key for display
func Mask(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if len(key) <= 12 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}

// MemoryStore keeps credentials in process memory
type MemoryStore struct {
	mu    sync.Mutex
	creds model.Credentials
}

// NewMemoryStore creates a store seeded with the given credentials. Seeds
// are not validated so tests can use short placeholder keys.
func NewMemoryStore(seed model.Credentials) *MemoryStore {
	if seed == nil {
		seed = model.Credentials{}
	}
	return &MemoryStore{creds: seed.Clone()}
}

// Load returns a copy of the stored credentials
func (s *MemoryStore) Load() (model.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Clone(), nil
}

// Set validates and stores a key
func (s *MemoryStore) Set(id model.ProviderID, key string) error {
	key = strings.TrimSpace(key)
	if err := Validate(id, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[id] = key
	return nil
}

// Remove deletes a key
func (s *MemoryStore) Remove(id model.ProviderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, id)
	return nil
}

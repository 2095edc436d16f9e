package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the complete application configuration
type Config struct {
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Analysis  AnalysisConfig  `mapstructure:"analysis" yaml:"analysis"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Keys      KeysConfig      `mapstructure:"keys" yaml:"keys"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// Endpoint describes where and with which model a vendor is called
type Endpoint struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	Model   string `mapstructure:"model" yaml:"model" validate:"required"`
}

// ProvidersConfig holds one endpoint per vendor
type ProvidersConfig struct {
	Gemini    Endpoint `mapstructure:"gemini" yaml:"gemini"`
	OpenAI    Endpoint `mapstructure:"openai" yaml:"openai"`
	Anthropic Endpoint `mapstructure:"anthropic" yaml:"anthropic"`
	DeepSeek  Endpoint `mapstructure:"deepseek" yaml:"deepseek"`
}

// Endpoint returns the endpoint configured for the provider
func (p ProvidersConfig) Endpoint(id ProviderID) (Endpoint, bool) {
	switch id {
	case ProviderGemini:
		return p.Gemini, true
	case ProviderOpenAI:
		return p.OpenAI, true
	case ProviderAnthropic:
		return p.Anthropic, true
	case ProviderDeepSeek:
		return p.DeepSeek, true
	default:
		return Endpoint{}, false
	}
}

// Layer generation strategies
const (
	StrategySeparate = "separate" // One fan-out per perspective
	StrategyShared   = "shared"   // One multi-party discourse fan-out
)

// Layer structures
const (
	StructurePerspectives = "perspectives" // Five perspective nodes
	StructureDialectic    = "dialectic"    // Thesis and antithesis nodes
)

// AnalysisConfig controls fan-out and discourse generation
type AnalysisConfig struct {
	Timeout                 time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"` // Per provider call
	Concurrency             int           `mapstructure:"concurrency" yaml:"concurrency" validate:"gte=1"`
	Strategy                string        `mapstructure:"strategy" yaml:"strategy" validate:"oneof=separate shared"`
	Structure               string        `mapstructure:"structure" yaml:"structure" validate:"oneof=perspectives dialectic"`
	MinQuintessenceSiblings int           `mapstructure:"min_quintessence_siblings" yaml:"min_quintessence_siblings" validate:"gte=2"`
}

// CacheConfig controls the provider response cache
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gte=0"`
	Disk    bool          `mapstructure:"disk" yaml:"disk"`
	Dir     string        `mapstructure:"dir" yaml:"dir" validate:"required_if=Disk true"`
}

// KeysConfig locates the credential file
type KeysConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// HTTPConfig holds outbound proxy settings
type HTTPConfig struct {
	HTTPProxy  string `mapstructure:"http_proxy" yaml:"http_proxy,omitempty" validate:"omitempty,url"`
	HTTPSProxy string `mapstructure:"https_proxy" yaml:"https_proxy,omitempty" validate:"omitempty,url"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=console json"`
}

// DefaultConfig returns the vendor endpoints of the wire contract and sane defaults
func DefaultConfig() *Config {
	home := HomeDir()
	return &Config{
		Providers: ProvidersConfig{
			Gemini: Endpoint{
				BaseURL: "https://generativelanguage.googleapis.com/v1beta",
				Model:   "gemini-pro",
			},
			OpenAI: Endpoint{
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-4",
			},
			Anthropic: Endpoint{
				BaseURL: "https://api.anthropic.com",
				Model:   "claude-3-sonnet-20240229",
			},
			DeepSeek: Endpoint{
				BaseURL: "https://api.deepseek.com/v1",
				Model:   "deepseek-chat",
			},
		},
		Analysis: AnalysisConfig{
			Timeout:                 60 * time.Second,
			Concurrency:             4,
			Strategy:                StrategySeparate,
			Structure:               StructurePerspectives,
			MinQuintessenceSiblings: 2,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
			Disk:    false,
			Dir:     filepath.Join(home, "cache"),
		},
		Keys: KeysConfig{
			File: filepath.Join(home, "keys.yaml"),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// HomeDir returns the application directory ($HOME/.weitblick)
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".weitblick"
	}
	return filepath.Join(home, ".weitblick")
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

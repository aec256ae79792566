// Package config provides the configuration schema, loader, and provider
// registry for the training backend.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Defaults applied by [Load] and [LoadFromReader] to fields left empty.
const (
	DefaultListenAddr      = ":3000"
	DefaultAllowedOrigin   = "*"
	DefaultMaxBodyBytes    = 50 << 20
	DefaultShutdownTimeout = 10 * time.Second
	DefaultProviderName    = "openai"
	DefaultChatModel       = "gpt-4o-mini"
	DefaultChatTemperature = 0.7
	DefaultLanguage        = "de"
)

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader]; every field has a usable
// default so the service also starts without a file.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Personas   PersonasConfig   `yaml:"personas"`
	Prompts    PromptsConfig    `yaml:"prompts"`
	Chat       ModelConfig      `yaml:"chat"`
	Feedback   ModelConfig      `yaml:"feedback"`
	Resilience ResilienceConfig `yaml:"resilience"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":3000").
	// The PORT environment variable overrides it.
	ListenAddr string `yaml:"listen_addr"`

	// AllowedOrigin is the single CORS origin answered to browsers. Quotes and
	// whitespace are stripped; empty means "*".
	AllowedOrigin string `yaml:"allowed_origin"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MaxBodyBytes caps request bodies. Default: 50 MiB.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProvidersConfig selects the provider implementation for each gateway.
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`
	STT ProviderEntry `yaml:"stt"`
	TTS ProviderEntry `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. Name is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai",
	// "whisper", "anthropic").
	Name string `yaml:"name"`

	// APIKey authenticates against the provider. Empty entries of OpenAI
	// providers fall back to OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`

	// Language is the expected speech language of transcription providers.
	Language string `yaml:"language"`

	// Vocabulary lists names and terms the transcription model should expect.
	Vocabulary string `yaml:"vocabulary"`

	// Timeout bounds a single provider call. Zero means no client-side limit
	// beyond the request context.
	Timeout time.Duration `yaml:"timeout"`

	// Options holds provider-specific values not covered above.
	Options map[string]any `yaml:"options"`
}

// MissingAPIKey reports whether e selects an OpenAI provider without a key.
// Such a slot is left unconfigured at startup.
func (e ProviderEntry) MissingAPIKey() bool {
	return e.Name == DefaultProviderName && e.APIKey == ""
}

// PersonasConfig points at an optional persona table replacing the built-in
// one. The PERSONAS_FILE environment variable overrides File.
type PersonasConfig struct {
	File string `yaml:"file"`
}

// PromptsConfig points at optional template files replacing the embedded
// prompt templates.
type PromptsConfig struct {
	SystemFile   string `yaml:"system_file"`
	GenericFile  string `yaml:"generic_file"`
	FeedbackFile string `yaml:"feedback_file"`
}

// ModelConfig tunes the completion calls of one endpoint.
type ModelConfig struct {
	// Temperature is the sampling temperature. Nil uses the endpoint default
	// (0.7 for chat, provider default for feedback).
	Temperature *float64 `yaml:"temperature"`

	// MaxTokens caps the reply length. Zero uses the provider default.
	MaxTokens int `yaml:"max_tokens"`
}

// ResilienceConfig tunes the circuit breaker in front of every gateway.
type ResilienceConfig struct {
	// MaxFailures is the number of consecutive failures that open a breaker.
	// Default: 5.
	MaxFailures int `yaml:"max_failures"`

	// ResetTimeout is how long an open breaker rejects calls. Default: 30s.
	ResetTimeout time.Duration `yaml:"reset_timeout"`

	// Disabled removes the breakers entirely.
	Disabled bool `yaml:"disabled"`
}

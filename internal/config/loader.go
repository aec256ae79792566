package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt": {"openai", "whisper"},
	"tts": {"openai"},
}

// Environment variables read by [ApplyEnv].
const (
	EnvAPIKey        = "OPENAI_API_KEY"
	EnvPort          = "PORT"
	EnvAllowedOrigin = "ALLOWED_ORIGIN"
	EnvLogLevel      = "LOG_LEVEL"
	EnvPersonasFile  = "PERSONAS_FILE"
)

// Load reads the YAML configuration file at path, applies environment
// overrides and defaults, and returns a validated [Config]. An empty path
// skips the file.
func Load(path string) (*Config, error) {
	if path == "" {
		return finish(&Config{}, os.LookupEnv)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return finish(cfg, os.LookupEnv)
}

// LoadFromReader decodes a YAML config from r, applies defaults and validates
// the result. The environment is not consulted, which keeps tests hermetic.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg, err := decode(r)
	if err != nil {
		return nil, err
	}
	return finish(cfg, nil)
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	return cfg, nil
}

func finish(cfg *Config, lookup func(string) (string, bool)) (*Config, error) {
	if lookup != nil {
		ApplyEnv(cfg, lookup)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg. lookup is usually
// [os.LookupEnv]. Empty values are ignored except for ALLOWED_ORIGIN, where
// an empty value means "any origin".
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvPort); ok && strings.TrimSpace(v) != "" {
		cfg.Server.ListenAddr = ":" + strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvAllowedOrigin); ok {
		cfg.Server.AllowedOrigin = v
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		cfg.Server.LogLevel = LogLevel(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup(EnvPersonasFile); ok && strings.TrimSpace(v) != "" {
		cfg.Personas.File = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvAPIKey); ok && strings.TrimSpace(v) != "" {
		key := strings.TrimSpace(v)
		for _, e := range []*ProviderEntry{&cfg.Providers.LLM, &cfg.Providers.STT, &cfg.Providers.TTS} {
			if e.APIKey == "" && (e.Name == "" || e.Name == DefaultProviderName) {
				e.APIKey = key
			}
		}
	}
}

// ApplyDefaults fills every empty field of cfg with its default value.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	cfg.Server.AllowedOrigin = SanitizeOrigin(cfg.Server.AllowedOrigin)
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	for _, e := range []*ProviderEntry{&cfg.Providers.LLM, &cfg.Providers.STT, &cfg.Providers.TTS} {
		if e.Name == "" {
			e.Name = DefaultProviderName
		}
	}
	if cfg.Providers.LLM.Name == DefaultProviderName && cfg.Providers.LLM.Model == "" {
		cfg.Providers.LLM.Model = DefaultChatModel
	}
	if cfg.Providers.STT.Language == "" {
		cfg.Providers.STT.Language = DefaultLanguage
	}

	if cfg.Chat.Temperature == nil {
		t := DefaultChatTemperature
		cfg.Chat.Temperature = &t
	}
}

// SanitizeOrigin strips quotes and whitespace that deployment dashboards
// tend to leave in the ALLOWED_ORIGIN value. An empty result means "*".
func SanitizeOrigin(origin string) string {
	origin = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', ' ', '\t', '\n', '\r', '\v', '\f':
			return -1
		}
		return r
	}, origin)
	if origin == "" {
		return DefaultAllowedOrigin
	}
	return origin
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes %d must not be negative", cfg.Server.MaxBodyBytes))
	}

	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)

	for kind, e := range map[string]ProviderEntry{"llm": cfg.Providers.LLM, "stt": cfg.Providers.STT, "tts": cfg.Providers.TTS} {
		if e.Timeout < 0 {
			errs = append(errs, fmt.Errorf("providers.%s.timeout %s must not be negative", kind, e.Timeout))
		}
		if e.MissingAPIKey() {
			slog.Warn("no API key configured; provider stays unconfigured and its endpoints answer 500",
				"kind", kind, "env", EnvAPIKey)
		}
	}
	if cfg.Providers.STT.Name == "whisper" && cfg.Providers.STT.BaseURL == "" {
		errs = append(errs, errors.New("providers.stt.base_url is required for the whisper provider"))
	}

	for name, m := range map[string]ModelConfig{"chat": cfg.Chat, "feedback": cfg.Feedback} {
		if m.Temperature != nil && (*m.Temperature < 0 || *m.Temperature > 2) {
			errs = append(errs, fmt.Errorf("%s.temperature %.2f is out of range [0, 2]", name, *m.Temperature))
		}
		if m.MaxTokens < 0 {
			errs = append(errs, fmt.Errorf("%s.max_tokens %d must not be negative", name, m.MaxTokens))
		}
	}

	if cfg.Resilience.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("resilience.max_failures %d must not be negative", cfg.Resilience.MaxFailures))
	}
	if cfg.Resilience.ResetTimeout < 0 {
		errs = append(errs, fmt.Errorf("resilience.reset_timeout %s must not be negative", cfg.Resilience.ResetTimeout))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}

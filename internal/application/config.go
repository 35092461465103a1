// Package application contains the arena's use cases: orchestrating
// battles, recording votes, maintaining ratings, and administering the
// model roster. It depends on ports only; infrastructure is injected.
package application

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration, loaded from YAML with
// environment-variable fallbacks for secrets.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server"`
	// Database configures the SQLite store.
	Database DatabaseConfig `yaml:"database"`
	// Providers configures the generation backends. A provider with no
	// credentials and no base URL stays disabled.
	Providers ProvidersConfig `yaml:"providers"`
	// Arena tunes battle generation and rating behavior.
	Arena ArenaConfig `yaml:"arena"`
	// Admin configures the administrative API surface.
	Admin AdminConfig `yaml:"admin"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address in host:port form.
	Addr string `yaml:"addr" validate:"required"`
}

// DatabaseConfig configures persistence.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" keeps everything
	// in process, which is only useful for tests.
	Path string `yaml:"path" validate:"required"`
}

// ProviderConfig configures one generation backend.
type ProviderConfig struct {
	// Enabled turns the backend on. Defaults to true whenever an API key
	// or base URL is present.
	Enabled *bool `yaml:"enabled"`
	// APIKey authenticates against the backend. Falls back to the
	// provider's conventional environment variable when empty.
	APIKey string `yaml:"api_key"`
	// BaseURL overrides the backend endpoint.
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
}

// Active reports whether the backend should be constructed, given the
// explicit flag and whatever credentials resolved.
func (p ProviderConfig) Active() bool {
	if p.Enabled != nil {
		return *p.Enabled
	}
	return p.APIKey != "" || p.BaseURL != ""
}

// ProvidersConfig holds per-backend configuration.
type ProvidersConfig struct {
	Anthropic ProviderConfig `yaml:"anthropic"`
	Gateway   ProviderConfig `yaml:"gateway"`
	Google    ProviderConfig `yaml:"google"`
	Ollama    ProviderConfig `yaml:"ollama"`
}

// ArenaConfig tunes battle generation and rating behavior.
type ArenaConfig struct {
	// KFactor is the rating sensitivity constant.
	KFactor float64 `yaml:"k_factor" validate:"gt=0,lte=128"`
	// MaxTokens is the shared per-response token budget.
	MaxTokens int `yaml:"max_tokens" validate:"min=1,max=32768"`
	// Temperature is the shared sampling temperature.
	Temperature float64 `yaml:"temperature" validate:"min=0,max=2"`
	// GenerationTimeoutSeconds bounds each side's backend call.
	GenerationTimeoutSeconds int `yaml:"generation_timeout_seconds" validate:"min=1,max=600"`
	// SystemPrompt is prepended to every battle prompt so both sides
	// answer under identical instructions.
	SystemPrompt string `yaml:"system_prompt"`
}

// GenerationTimeout returns the per-side deadline as a duration.
func (a ArenaConfig) GenerationTimeout() time.Duration {
	return time.Duration(a.GenerationTimeoutSeconds) * time.Second
}

// AdminConfig configures the administrative API surface.
type AdminConfig struct {
	// Token is the bearer token required on admin routes. Falls back to
	// ARENA_ADMIN_TOKEN; when empty, admin routes are disabled.
	Token string `yaml:"token"`
}

// DefaultSystemPrompt is the instruction both sides receive ahead of the
// user's prompt.
const DefaultSystemPrompt = "You are a helpful assistant. Answer the user's question clearly and concisely."

// DefaultConfig returns a configuration with every tunable at its
// default. Provider credentials still come from the environment.
func DefaultConfig() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "arena.db"},
		Arena: ArenaConfig{
			KFactor:                  32,
			MaxTokens:                1024,
			Temperature:              0.7,
			GenerationTimeoutSeconds: 45,
			SystemPrompt:             DefaultSystemPrompt,
		},
	}
}

// LoadConfig reads a YAML configuration file, applies defaults and
// environment fallbacks, and validates the result. An empty path yields
// the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnv fills empty secrets from the conventional environment
// variables so deployments never have to put keys in the YAML file.
func (c *Config) applyEnv() {
	fallback := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fallback(&c.Providers.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	fallback(&c.Providers.Gateway.APIKey, "LOVABLE_API_KEY")
	fallback(&c.Providers.Google.APIKey, "GEMINI_API_KEY")
	fallback(&c.Providers.Ollama.BaseURL, "OLLAMA_BASE_URL")
	fallback(&c.Admin.Token, "ARENA_ADMIN_TOKEN")
}

// applyDefaults restores required fields a sparse YAML file may have
// blanked out.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "arena.db"
	}
	if c.Arena.KFactor == 0 {
		c.Arena.KFactor = 32
	}
	if c.Arena.MaxTokens == 0 {
		c.Arena.MaxTokens = 1024
	}
	if c.Arena.Temperature == 0 {
		c.Arena.Temperature = 0.7
	}
	if c.Arena.GenerationTimeoutSeconds == 0 {
		c.Arena.GenerationTimeoutSeconds = 45
	}
	if c.Arena.SystemPrompt == "" {
		c.Arena.SystemPrompt = DefaultSystemPrompt
	}
}

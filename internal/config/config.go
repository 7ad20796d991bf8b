// Package config loads and validates pmhelper configuration.
//
// Values come from an optional YAML file and from environment variables
// prefixed with PMH_ (PMH_BACKEND_URL, PMH_LLM_PROVIDER, ...). Validation
// runs once at startup: a missing credential or path is a fatal
// configuration error, never something discovered mid-conversation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "PMH"

// ErrMissing marks a required configuration value that was not provided.
var ErrMissing = errors.New("missing required configuration")

// ErrInvalid marks a configuration value that was provided but is unusable.
var ErrInvalid = errors.New("invalid configuration")

// Provider identifies the model runtime adapter.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	// ProviderScripted runs without a model; used for local development.
	ProviderScripted Provider = "scripted"
)

// Config is the full application configuration.
type Config struct {
	LLM        LLMConfig        `mapstructure:"llm"`
	Backend    BackendConfig    `mapstructure:"backend"`
	Templates  TemplatesConfig  `mapstructure:"templates"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	History    HistoryConfig    `mapstructure:"history"`
	Roadmap    RoadmapConfig    `mapstructure:"roadmap"`
	Log        LogConfig        `mapstructure:"log"`
	DevBackend DevBackendConfig `mapstructure:"devbackend"`
}

// LLMConfig configures the model runtime.
type LLMConfig struct {
	Provider      Provider `mapstructure:"provider"`
	APIKey        string   `mapstructure:"api_key"`
	Model         string   `mapstructure:"model"`
	BaseURL       string   `mapstructure:"base_url"`
	MaxTokens     int      `mapstructure:"max_tokens"`
	MaxIterations int      `mapstructure:"max_iterations"`
}

// BackendConfig configures the persistence REST API client.
type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TemplatesConfig points at the directory holding *-prd.json and *-spec.json files.
type TemplatesConfig struct {
	Dir       string `mapstructure:"dir"`
	CacheSize int    `mapstructure:"cache_size"`
}

// HTTPConfig configures the HTTP adapter.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// HistoryConfig bounds conversation history. Zero keeps every message.
type HistoryConfig struct {
	MaxMessages int `mapstructure:"max_messages"`
}

// RoadmapConfig toggles the fixed fallback roadmap created after a PRD save.
type RoadmapConfig struct {
	Fallback bool `mapstructure:"fallback"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// DevBackendConfig configures the local sqlite backend.
type DevBackendConfig struct {
	DB   string `mapstructure:"db"`
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from configPath (optional) and the environment.
// It does not validate; call Validate before building components.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Both spellings are accepted for the fallback roadmap switch.
	if err := v.BindEnv("roadmap.fallback", EnvPrefix+"_ROADMAP_FALLBACK", EnvPrefix+"_FALLBACK_ROADMAP"); err != nil {
		return nil, fmt.Errorf("binding env: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.LLM.Provider = Provider(strings.ToLower(string(cfg.LLM.Provider)))
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKeyFromEnv(cfg.LLM.Provider)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", string(ProviderOpenAI))
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.max_iterations", 8)

	v.SetDefault("backend.url", "http://localhost:4000")
	v.SetDefault("backend.timeout", 30*time.Second)

	v.SetDefault("templates.dir", "templates")
	v.SetDefault("templates.cache_size", 64)

	v.SetDefault("http.addr", ":8000")
	v.SetDefault("history.max_messages", 0)
	v.SetDefault("roadmap.fallback", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("devbackend.db", "pmhelper-dev.db")
	v.SetDefault("devbackend.addr", ":4000")
}

// providerKeyFromEnv falls back to the vendor's conventional variable.
func providerKeyFromEnv(p Provider) string {
	switch p {
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

// DefaultModel returns the model used when llm.model is empty.
func (c LLMConfig) DefaultModel() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case ProviderAnthropic:
		return "claude-sonnet-4-5"
	case ProviderOpenAI:
		return "gpt-4o"
	}
	return ""
}

// Validate checks everything the agents need at construction time.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: llm.api_key (set %s_LLM_API_KEY or the provider's API key variable for provider %q)",
				ErrMissing, EnvPrefix, c.LLM.Provider)
		}
	case ProviderScripted:
	case "":
		return fmt.Errorf("%w: llm.provider", ErrMissing)
	default:
		return fmt.Errorf("%w: llm.provider %q (want anthropic, openai or scripted)", ErrInvalid, c.LLM.Provider)
	}

	if c.Backend.URL == "" {
		return fmt.Errorf("%w: backend.url", ErrMissing)
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend.url %q is not an absolute URL", ErrInvalid, c.Backend.URL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("%w: backend.timeout must be positive", ErrInvalid)
	}

	if c.Templates.Dir == "" {
		return fmt.Errorf("%w: templates.dir", ErrMissing)
	}
	info, err := os.Stat(c.Templates.Dir)
	if err != nil {
		return fmt.Errorf("%w: templates.dir %q: %v", ErrInvalid, c.Templates.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: templates.dir %q is not a directory", ErrInvalid, c.Templates.Dir)
	}

	if c.History.MaxMessages < 0 {
		return fmt.Errorf("%w: history.max_messages must not be negative", ErrInvalid)
	}
	return nil
}

// Public returns the configuration with secrets removed, for display.
func (c *Config) Public() map[string]any {
	return map[string]any{
		"llm": map[string]any{
			"provider":       c.LLM.Provider,
			"model":          c.LLM.DefaultModel(),
			"max_tokens":     c.LLM.MaxTokens,
			"max_iterations": c.LLM.MaxIterations,
			"api_key_set":    c.LLM.APIKey != "",
		},
		"backend": map[string]any{
			"url":     c.Backend.URL,
			"timeout": c.Backend.Timeout.String(),
		},
		"templates_dir":        c.Templates.Dir,
		"history_max_messages": c.History.MaxMessages,
		"roadmap_fallback":     c.Roadmap.Fallback,
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
)

// Settings is the application configuration for the flowchat binaries.
type Settings struct {
	LLM     LLMSettings     `mapstructure:"llm"`
	Store   StoreSettings   `mapstructure:"store"`
	Log     LogSettings     `mapstructure:"log"`
	Metrics MetricsSettings `mapstructure:"metrics"`
	Driver  DriverSettings  `mapstructure:"driver"`
}

// LLMSettings selects and tunes the model provider.
type LLMSettings struct {
	// Provider is "openai" or "langchain".
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// Retries is the number of attempts per call, including the first.
	Retries int `mapstructure:"retries"`
}

// StoreSettings selects the checkpoint store.
type StoreSettings struct {
	// Kind is "memory", "sqlite" or "redis".
	Kind        string        `mapstructure:"kind"`
	Path        string        `mapstructure:"path"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisDB     int           `mapstructure:"redis_db"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
	RedisTTL    time.Duration `mapstructure:"redis_ttl"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level string `mapstructure:"level"`
	// Format is "text", "json" or "pretty".
	Format string `mapstructure:"format"`
}

// MetricsSettings configures metrics export.
type MetricsSettings struct {
	// Kind is "none", "otel" or "prometheus".
	Kind string `mapstructure:"kind"`
	// Addr is the listen address for the Prometheus handler.
	Addr string `mapstructure:"addr"`
}

// DriverSettings configures the conversation loop.
type DriverSettings struct {
	// MaxResumes caps resume cycles per conversation; 0 is unlimited.
	MaxResumes int `mapstructure:"max_resumes"`
	// MissingCheckpoint is "fresh-start" or "fail".
	MissingCheckpoint string `mapstructure:"missing_checkpoint"`
	// Approvals are the replies accepted as approval.
	Approvals []string `mapstructure:"approvals"`
}

// DefaultApprovals is the default approval vocabulary.
var DefaultApprovals = []string{"yes", "y", "ok", "good", "send"}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		LLM: LLMSettings{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
			Retries:  3,
		},
		Store: StoreSettings{
			Kind:        "memory",
			Path:        "flowchat.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "flowchat:",
		},
		Log:     LogSettings{Level: "warn", Format: "text"},
		Metrics: MetricsSettings{Kind: "none", Addr: ":9464"},
		Driver: DriverSettings{
			MaxResumes:        100,
			MissingCheckpoint: "fresh-start",
			Approvals:         slices.Clone(DefaultApprovals),
		},
	}
}

// Load builds settings from defaults, the optional file at path, and the
// process environment, in that order of precedence (environment wins).
func Load(path string) (Settings, error) {
	s := Defaults()
	if path != "" {
		cfg, err := FromFile(path)
		if err != nil {
			return s, err
		}
		if err := s.decode(cfg); err != nil {
			return s, err
		}
	}
	s.ApplyEnv(os.LookupEnv)
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// FromConfig decodes cfg over the defaults without reading the environment.
func FromConfig(cfg Config) (Settings, error) {
	s := Defaults()
	if err := s.decode(cfg); err != nil {
		return s, err
	}
	return s, s.Validate()
}

// decode merges cfg into s. Slices are replaced rather than merged
// element-wise.
func (s *Settings) decode(cfg Config) error {
	if cfg.Has("driver.approvals") {
		s.Driver.Approvals = nil
	}
	return cfg.Decode(s)
}

// ApplyEnv overrides settings from environment variables.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	set("OPENAI_API_KEY", &s.LLM.APIKey)
	set("OPENAI_BASE_URL", &s.LLM.BaseURL)
	set("FLOWCHAT_PROVIDER", &s.LLM.Provider)
	set("FLOWCHAT_MODEL", &s.LLM.Model)
	set("FLOWCHAT_STORE", &s.Store.Kind)
	set("FLOWCHAT_STORE_PATH", &s.Store.Path)
	set("FLOWCHAT_REDIS_ADDR", &s.Store.RedisAddr)
	set("FLOWCHAT_LOG_LEVEL", &s.Log.Level)
	set("FLOWCHAT_LOG_FORMAT", &s.Log.Format)
	set("FLOWCHAT_METRICS", &s.Metrics.Kind)
}

// Validate reports every invalid field.
func (s Settings) Validate() error {
	var errs []error
	oneOf := func(field, value string, allowed ...string) {
		if !slices.Contains(allowed, value) {
			errs = append(errs, fmt.Errorf("%s: %q is not one of %s", field, value, strings.Join(allowed, ", ")))
		}
	}
	oneOf("llm.provider", s.LLM.Provider, "openai", "langchain")
	oneOf("store.kind", s.Store.Kind, "memory", "sqlite", "redis")
	oneOf("log.format", s.Log.Format, "text", "json", "pretty")
	oneOf("metrics.kind", s.Metrics.Kind, "none", "otel", "prometheus")
	oneOf("driver.missing_checkpoint", s.Driver.MissingCheckpoint, "fresh-start", "fail")

	if s.LLM.Timeout < 0 {
		errs = append(errs, errors.New("llm.timeout: must not be negative"))
	}
	if s.Driver.MaxResumes < 0 {
		errs = append(errs, errors.New("driver.max_resumes: must not be negative"))
	}
	if s.Store.Kind == "sqlite" && s.Store.Path == "" {
		errs = append(errs, errors.New("store.path: required for sqlite"))
	}
	if len(s.Driver.Approvals) == 0 {
		errs = append(errs, errors.New("driver.approvals: must not be empty"))
	}
	return errors.Join(errs...)
}

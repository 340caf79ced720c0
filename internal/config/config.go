// Package config provides configuration loading and validation for the CLI
// and the HTTP server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/writing-coach/internal/detectors"
)

// EnvPrefix prefixes every environment override except the provider API keys.
const EnvPrefix = "WRITING_COACH_"

// Config is the full runtime configuration. Files may set any subset of it;
// missing values keep their defaults.
type Config struct {
	Analysis  detectors.Thresholds `json:"analysis" yaml:"analysis"`
	Cache     CacheConfig          `json:"cache" yaml:"cache"`
	Scheduler SchedulerConfig      `json:"scheduler" yaml:"scheduler"`
	Server    ServerConfig         `json:"server" yaml:"server"`
	LLM       LLMConfig            `json:"llm" yaml:"llm"`
	Logging   LoggingConfig        `json:"logging" yaml:"logging"`
}

// CacheConfig sizes the result cache.
type CacheConfig struct {
	TTL        Duration `json:"ttl" yaml:"ttl" validate:"gt=0"`
	MaxEntries int      `json:"max_entries" yaml:"max_entries" validate:"min=1"`
}

// SchedulerConfig tunes the per-session analysis scheduler.
type SchedulerConfig struct {
	Debounce           Duration `json:"debounce" yaml:"debounce" validate:"gte=0"`
	SecondaryTimeout   Duration `json:"secondary_timeout" yaml:"secondary_timeout" validate:"gte=0"`
	SecondaryMinLength int      `json:"secondary_min_length" yaml:"secondary_min_length" validate:"min=0"`
}

// ServerConfig holds HTTP listener and rate limiting settings.
type ServerConfig struct {
	Port            int      `json:"port" yaml:"port" validate:"min=1,max=65535"`
	RateLimit       bool     `json:"rate_limit" yaml:"rate_limit"`
	RequestsPerMin  int      `json:"requests_per_min" yaml:"requests_per_min" validate:"min=0"`
	FeedbackPerHour int      `json:"feedback_per_hour" yaml:"feedback_per_hour" validate:"min=0"`
	Whitelist       []string `json:"whitelist,omitempty" yaml:"whitelist,omitempty" validate:"dive,ip"`
	MaxSessions     int      `json:"max_sessions" yaml:"max_sessions" validate:"min=1"`
}

// LLMConfig selects the deep-feedback provider.
type LLMConfig struct {
	Provider string   `json:"provider" yaml:"provider" validate:"omitempty,oneof=gemini openai"`
	Model    string   `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey   string   `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Timeout  Duration `json:"timeout" yaml:"timeout" validate:"gt=0"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=text json"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Analysis: detectors.DefaultThresholds(),
		Cache: CacheConfig{
			TTL:        Duration(5 * time.Minute),
			MaxEntries: 50,
		},
		Scheduler: SchedulerConfig{
			Debounce:           Duration(time.Second),
			SecondaryTimeout:   Duration(2 * time.Second),
			SecondaryMinLength: 50,
		},
		Server: ServerConfig{
			Port:            8080,
			RateLimit:       true,
			RequestsPerMin:  600,
			FeedbackPerHour: 30,
			MaxSessions:     1000,
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Timeout:  Duration(30 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a JSON or YAML file on top of the
// defaults. The format follows the file extension; anything other than
// .json is parsed as YAML.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	return &cfg, nil
}

// Load returns the defaults, overlaid with the file at path when path is
// non-empty and then with the process environment, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overlays environment variables read through getenv.
// Provider API keys use their conventional names; everything else is
// prefixed with EnvPrefix.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvPrefix + "LLM_PROVIDER"); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	if v := getenv(EnvPrefix + "LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = getenv("OPENAI_API_KEY")
		default:
			c.LLM.APIKey = getenv("GEMINI_API_KEY")
		}
	}
	if v := getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v := getenv(EnvPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: %sPORT must be an integer: %w", EnvPrefix, err)
		}
		c.Server.Port = port
	}
	if v := getenv(EnvPrefix + "RATE_LIMIT_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config error: %sRATE_LIMIT_ENABLED must be a boolean: %w", EnvPrefix, err)
		}
		c.Server.RateLimit = enabled
	}

	durations := []struct {
		key    string
		target *Duration
	}{
		{"DEBOUNCE", &c.Scheduler.Debounce},
		{"SECONDARY_TIMEOUT", &c.Scheduler.SecondaryTimeout},
		{"CACHE_TTL", &c.Cache.TTL},
		{"LLM_TIMEOUT", &c.LLM.Timeout},
	}
	for _, d := range durations {
		v := getenv(EnvPrefix + d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config error: %s%s: %w", EnvPrefix, d.key, err)
		}
		*d.target = Duration(parsed)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// Duration is a time.Duration that reads "750ms" style strings from both
// JSON and YAML. Bare JSON numbers are taken as milliseconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = Duration(time.Duration(v) * time.Millisecond)
		return nil
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!int" {
		ms, err := strconv.ParseInt(node.Value, 10, 64)
		if err != nil {
			return err
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

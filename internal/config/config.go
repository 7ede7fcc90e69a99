package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// APIKeyName is the config and environment key holding the model API key.
const APIKeyName = "DASHSCOPE_API_KEY"

// EnvConfig points at an alternate config file.
const EnvConfig = "MOLT_CONFIG"

// Config holds the runtime configuration loaded from config.json. JSON is a
// subset of YAML, so the same decoder reads config.yaml as well.
type Config struct {
	APIKey  string            `yaml:"DASHSCOPE_API_KEY,omitempty" json:"DASHSCOPE_API_KEY,omitempty"`
	Agent   AgentConfig       `yaml:"agent" json:"agent"`
	Reply   ReplyConfig       `yaml:"reply" json:"reply"`
	Posting PostingConfig     `yaml:"posting" json:"posting"`
	Storage StorageConfig     `yaml:"storage" json:"storage"`
	Metrics MetricsConfig     `yaml:"metrics" json:"metrics"`
	Logging LoggingConfig     `yaml:"logging" json:"logging"`
	Secrets SecretsConfig     `yaml:"secrets" json:"secrets"`
	Extra   map[string]string `yaml:"-" json:"-"`
}

// AgentConfig controls how we call the chat-completions endpoint.
type AgentConfig struct {
	Type           string  `yaml:"type" json:"type"`
	APIBase        string  `yaml:"api_base" json:"api_base"`
	Model          string  `yaml:"model" json:"model"`
	Temperature    float64 `yaml:"temperature" json:"temperature"`
	TopP           float64 `yaml:"top_p" json:"top_p"`
	MaxTokens      int     `yaml:"max_tokens" json:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries" json:"max_retries"`
	BackoffBase    float64 `yaml:"backoff_base" json:"backoff_base"`
}

// ReplyConfig selects the prompt preset.
type ReplyConfig struct {
	Preset string `yaml:"preset" json:"preset"`
}

// PostingConfig controls the publishing platform.
type PostingConfig struct {
	Platform string   `yaml:"platform" json:"platform"`
	XAPIBase string   `yaml:"x_api_base,omitempty" json:"x_api_base,omitempty"`
	Relays   []string `yaml:"relays,omitempty" json:"relays,omitempty"`
}

// StorageConfig controls the optional history database.
type StorageConfig struct {
	Path string `yaml:"path" json:"path"`
}

// MetricsConfig controls the optional prometheus textfile.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" json:"textfile"`
}

// LoggingConfig controls log level, format, and destination.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// SecretsConfig lists extra secret sources.
type SecretsConfig struct {
	DotenvPath     string `yaml:"dotenv" json:"dotenv"`
	KeyringService string `yaml:"keyring_service" json:"keyring_service"`
}

// Load reads configuration from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		var flat map[string]any
		if err := yaml.Unmarshal(raw, &flat); err == nil {
			cfg.Extra = stringValues(flat)
		}
	}

	cfg.applyDefaults(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultPath returns $MOLT_CONFIG, else config.json next to the executable
// when it exists, else ./config.json.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	if exe, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(exe), "config.json")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "config.json"
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Agent.TimeoutSeconds) * time.Second
}

func (c *Config) applyDefaults(baseDir string) {
	if c.Agent.Type == "" {
		c.Agent.Type = "chatapi"
	}
	if c.Agent.APIBase == "" {
		c.Agent.APIBase = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	}
	if c.Agent.Model == "" {
		c.Agent.Model = "qwen-max"
	}
	if c.Agent.Temperature == 0 {
		c.Agent.Temperature = 0.75
	}
	if c.Agent.TopP == 0 {
		c.Agent.TopP = 0.85
	}
	if c.Agent.MaxTokens == 0 {
		c.Agent.MaxTokens = 1024
	}
	if c.Agent.TimeoutSeconds == 0 {
		c.Agent.TimeoutSeconds = 30
	}
	if c.Agent.MaxRetries == 0 {
		c.Agent.MaxRetries = 3
	}
	if c.Agent.BackoffBase == 0 {
		c.Agent.BackoffBase = 2
	}
	if c.Reply.Preset == "" {
		c.Reply.Preset = "cybermolt"
	}
	if c.Posting.Platform == "" {
		c.Posting.Platform = "x"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Secrets.DotenvPath == "" {
		c.Secrets.DotenvPath = filepath.Join(baseDir, ".env")
	}
	c.Posting.Platform = strings.ToLower(c.Posting.Platform)
}

func stringValues(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

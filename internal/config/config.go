package config

import (
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

// Source providers.
const (
	ProviderGitLab = "gitlab"
	ProviderGitHub = "github"
)

// Tool transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

const defaultGitLabURL = "https://gitlab.com"

// Config represents the server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Source     SourceConfig     `yaml:"source"`
	Confluence ConfluenceConfig `yaml:"confluence"`
	Webhook    WebhookConfig    `yaml:"webhook"`
}

// ServerConfig holds tool transport settings. Host and Port apply to the
// http transport only.
type ServerConfig struct {
	Transport string `yaml:"transport"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
}

// LoggingConfig holds logging settings. An empty Dir logs to stderr only.
type LoggingConfig struct {
	Dir           string `yaml:"dir"`
	Level         string `yaml:"level"`
	RetentionDays int    `yaml:"retention_days"`
}

// SourceConfig holds the source-control host settings.
type SourceConfig struct {
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	DefaultProject string `yaml:"default_project"`
	MRState        string `yaml:"mr_state"`
}

// ConfluenceConfig holds the documentation host settings. It is optional;
// without a base URL store_in_confluence is unavailable.
type ConfluenceConfig struct {
	BaseURL        string `yaml:"base_url"`
	Username       string `yaml:"username"`
	Token          string `yaml:"token"`
	Space          string `yaml:"space"`
	ParentTitle    string `yaml:"parent_title"`
	RetryMax       int    `yaml:"retry_max"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Enabled reports whether a documentation host is configured.
func (c ConfluenceConfig) Enabled() bool {
	return c.BaseURL != ""
}

// Timeout returns the per-request timeout.
func (c ConfluenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WebhookConfig controls automatic report storage on merge request events.
// It requires the http transport and a documentation host.
type WebhookConfig struct {
	Secret          string `yaml:"secret"`
	DebounceSeconds int    `yaml:"debounce_seconds"`
	MROpened        bool   `yaml:"mr_opened"`
	MRUpdated       bool   `yaml:"mr_updated"`
}

// Enabled reports whether the webhook endpoint is mounted.
func (c WebhookConfig) Enabled() bool {
	return c.Secret != ""
}

// DebounceWindow returns how long repeated events of one merge request are
// dropped after a stored report.
func (c WebhookConfig) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceSeconds) * time.Second
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Transport: TransportStdio,
			Host:      "127.0.0.1",
			Port:      7000,
		},
		Logging: LoggingConfig{
			Level:         "info",
			RetentionDays: 30,
		},
		Source: SourceConfig{
			Provider: ProviderGitLab,
			MRState:  "opened",
		},
		Confluence: ConfluenceConfig{
			ParentTitle:    "PR Analysis Reports",
			TimeoutSeconds: 30,
		},
		Webhook: WebhookConfig{
			DebounceSeconds: 10,
			MROpened:        true,
			MRUpdated:       true,
		},
	}
}

// Load reads and parses the config file at the given path, then fills unset
// values from the environment. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "reading config file")
	}

	// Substitute environment variables
	data = envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(varName)))
	})

	// Start with defaults
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	ApplyEnv(cfg, os.Getenv)
	if cfg.Source.Provider == ProviderGitLab && cfg.Source.BaseURL == "" {
		cfg.Source.BaseURL = defaultGitLabURL
	}

	return cfg, nil
}

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return errors.Errorf("server.transport: unknown transport %q", c.Server.Transport)
	}
	if c.Server.Transport == TransportHTTP && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return errors.Errorf("server.port: %d out of range", c.Server.Port)
	}

	switch c.Source.Provider {
	case ProviderGitLab, ProviderGitHub:
	default:
		return errors.Errorf("source.provider: unknown provider %q", c.Source.Provider)
	}
	if c.Source.Token == "" {
		return errors.New("source.token: required")
	}

	if c.Confluence.Enabled() {
		if c.Confluence.Token == "" {
			return errors.New("confluence.token: required when confluence.base_url is set")
		}
		if c.Confluence.Space == "" {
			return errors.New("confluence.space: required when confluence.base_url is set")
		}
	} else if c.Confluence.Token != "" || c.Confluence.Space != "" {
		return errors.New("confluence.base_url: required when confluence is configured")
	}
	if c.Confluence.RetryMax < 0 {
		return errors.Errorf("confluence.retry_max: %d is negative", c.Confluence.RetryMax)
	}

	if c.Webhook.Enabled() {
		if c.Server.Transport != TransportHTTP {
			return errors.New("webhook.secret: webhooks require the http transport")
		}
		if !c.Confluence.Enabled() {
			return errors.New("webhook.secret: webhooks require confluence to be configured")
		}
	}
	if c.Webhook.DebounceSeconds < 0 {
		return errors.Errorf("webhook.debounce_seconds: %d is negative", c.Webhook.DebounceSeconds)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}

	return nil
}

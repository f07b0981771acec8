// Package config provides YAML-based configuration loading for the CRM assistant.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults for the agent section.
const (
	DefaultMaxIterations       = 10
	DefaultWorkingMemorySize   = 20
	DefaultAuditResultMaxBytes = 5000
)

// Config is the top-level configuration, loaded from crm.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Agent    AgentConfig    `yaml:"agent"`
	Audit    AuditConfig    `yaml:"audit"`
	Server   ServerConfig   `yaml:"server"`
	Notify   NotifyConfig   `yaml:"notify"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig selects the SQL backend. Driver is "sqlite" or "mysql".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"` // sqlite file path or a full mysql DSN
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// OracleConfig configures the language model used by the assistant.
type OracleConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	SummaryModel string `yaml:"summary_model"`
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
}

// AgentConfig bounds the agent loop and memory.
type AgentConfig struct {
	MaxIterations       int `yaml:"max_iterations"`
	WorkingMemorySize   int `yaml:"working_memory_size"`
	AuditResultMaxBytes int `yaml:"audit_result_max_bytes"`
}

// AuditConfig controls audit log signing and periodic chain verification.
type AuditConfig struct {
	SigningKey     string `yaml:"signing_key"`
	VerifySchedule string `yaml:"verify_schedule"` // 5-field cron expression; empty disables
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// NotifyConfig holds chat-platform credentials for high-risk action alerts.
type NotifyConfig struct {
	Slack   ChannelConfig `yaml:"slack"`
	Discord ChannelConfig `yaml:"discord"`
}

// ChannelConfig is a bot token plus the channel to post into.
type ChannelConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// LogConfig selects log verbosity and output format ("console" or "json").
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Enabled reports whether both token and channel are set.
func (c ChannelConfig) Enabled() bool {
	return c.Token != "" && c.Channel != ""
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(nil)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays environment variables on top of file values.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("CRM_DATABASE_DRIVER", &c.Database.Driver)
	str("CRM_DATABASE_DSN", &c.Database.DSN)
	str("CRM_DATABASE_PASSWORD", &c.Database.Password)
	str("OPENAI_API_KEY", &c.Oracle.APIKey)
	str("CRM_ORACLE_MODEL", &c.Oracle.Model)
	str("CRM_ORACLE_BASE_URL", &c.Oracle.BaseURL)
	str("CRM_AUDIT_SIGNING_KEY", &c.Audit.SigningKey)
	str("SLACK_BOT_TOKEN", &c.Notify.Slack.Token)
	str("DISCORD_BOT_TOKEN", &c.Notify.Discord.Token)
	str("CRM_LOG_LEVEL", &c.Log.Level)
	if v, ok := lookup("CRM_SERVER_PORT"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Server.Port = n
		}
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = "crm.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "crm"
		}
	}
	if c.Oracle.Provider == "" {
		c.Oracle.Provider = "openai"
	}
	if c.Oracle.Model == "" {
		c.Oracle.Model = "gpt-4o-mini"
	}
	if c.Oracle.SummaryModel == "" {
		c.Oracle.SummaryModel = c.Oracle.Model
	}
	if c.Agent.MaxIterations <= 0 {
		c.Agent.MaxIterations = DefaultMaxIterations
	}
	if c.Agent.WorkingMemorySize <= 0 {
		c.Agent.WorkingMemorySize = DefaultWorkingMemorySize
	}
	if c.Agent.AuditResultMaxBytes <= 0 {
		c.Agent.AuditResultMaxBytes = DefaultAuditResultMaxBytes
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	if c.Oracle.Provider != "openai" {
		errs = append(errs, fmt.Sprintf("oracle.provider %q is not supported", c.Oracle.Provider))
	}
	if c.Audit.SigningKey != "" && len(c.Audit.SigningKey) < 32 {
		errs = append(errs, "audit.signing_key must be at least 32 bytes")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q must be console or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

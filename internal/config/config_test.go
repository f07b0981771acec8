package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullYAML = `
database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  user: crm
  password: secret
  name: crm_prod

oracle:
  provider: openai
  model: gpt-4o
  summary_model: gpt-4o-mini
  base_url: http://llm.internal:8000

agent:
  max_iterations: 6
  working_memory_size: 12
  audit_result_max_bytes: 2048

audit:
  signing_key: 0123456789abcdef0123456789abcdef
  verify_schedule: "*/15 * * * *"

server:
  port: 9090

notify:
  slack:
    token: xoxb-test
    channel: C0123
  discord:
    token: ""
    channel: "998877"

log:
  level: debug
  format: json
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CRM_DATABASE_DRIVER", "CRM_DATABASE_DSN", "CRM_DATABASE_PASSWORD",
		"OPENAI_API_KEY", "CRM_ORACLE_MODEL", "CRM_ORACLE_BASE_URL",
		"CRM_AUDIT_SIGNING_KEY", "SLACK_BOT_TOKEN", "DISCORD_BOT_TOKEN",
		"CRM_LOG_LEVEL", "CRM_SERVER_PORT",
	} {
		t.Setenv(k, "")
	}
}

func TestParse_FullConfig(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, want mysql", cfg.Database.Driver)
	}
	if cfg.Database.Host != "10.0.0.5" || cfg.Database.Port != 3307 {
		t.Errorf("Database address = %s:%d, want 10.0.0.5:3307", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.Name != "crm_prod" {
		t.Errorf("Database.Name = %q, want crm_prod", cfg.Database.Name)
	}
	if cfg.Oracle.Model != "gpt-4o" {
		t.Errorf("Oracle.Model = %q, want gpt-4o", cfg.Oracle.Model)
	}
	if cfg.Oracle.SummaryModel != "gpt-4o-mini" {
		t.Errorf("Oracle.SummaryModel = %q, want gpt-4o-mini", cfg.Oracle.SummaryModel)
	}
	if cfg.Agent.MaxIterations != 6 {
		t.Errorf("Agent.MaxIterations = %d, want 6", cfg.Agent.MaxIterations)
	}
	if cfg.Agent.WorkingMemorySize != 12 {
		t.Errorf("Agent.WorkingMemorySize = %d, want 12", cfg.Agent.WorkingMemorySize)
	}
	if cfg.Agent.AuditResultMaxBytes != 2048 {
		t.Errorf("Agent.AuditResultMaxBytes = %d, want 2048", cfg.Agent.AuditResultMaxBytes)
	}
	if cfg.Audit.VerifySchedule != "*/15 * * * *" {
		t.Errorf("Audit.VerifySchedule = %q", cfg.Audit.VerifySchedule)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.Notify.Slack.Enabled() {
		t.Error("Notify.Slack should be enabled")
	}
	if cfg.Notify.Discord.Enabled() {
		t.Error("Notify.Discord should be disabled without a token")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want debug/json", cfg.Log)
	}
}

func TestParse_Empty_AppliesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "crm.db" {
		t.Errorf("Database.DSN = %q, want crm.db", cfg.Database.DSN)
	}
	if cfg.Oracle.Provider != "openai" {
		t.Errorf("Oracle.Provider = %q, want openai", cfg.Oracle.Provider)
	}
	if cfg.Oracle.SummaryModel != cfg.Oracle.Model {
		t.Errorf("Oracle.SummaryModel = %q, want it to default to Model %q", cfg.Oracle.SummaryModel, cfg.Oracle.Model)
	}
	if cfg.Agent.MaxIterations != DefaultMaxIterations {
		t.Errorf("Agent.MaxIterations = %d, want %d", cfg.Agent.MaxIterations, DefaultMaxIterations)
	}
	if cfg.Agent.WorkingMemorySize != DefaultWorkingMemorySize {
		t.Errorf("Agent.WorkingMemorySize = %d, want %d", cfg.Agent.WorkingMemorySize, DefaultWorkingMemorySize)
	}
	if cfg.Agent.AuditResultMaxBytes != DefaultAuditResultMaxBytes {
		t.Errorf("Agent.AuditResultMaxBytes = %d, want %d", cfg.Agent.AuditResultMaxBytes, DefaultAuditResultMaxBytes)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestParse_MySQLDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte("database:\n  driver: mysql\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Host != "127.0.0.1" || cfg.Database.Port != 3306 {
		t.Errorf("Database address = %s:%d, want 127.0.0.1:3306", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.User != "root" || cfg.Database.Name != "crm" {
		t.Errorf("Database user/name = %s/%s, want root/crm", cfg.Database.User, cfg.Database.Name)
	}
	if cfg.Database.DSN != "" {
		t.Errorf("Database.DSN = %q, want empty for mysql", cfg.Database.DSN)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad driver", "database:\n  driver: postgres\n", "database.driver"},
		{"bad provider", "oracle:\n  provider: llama\n", "oracle.provider"},
		{"short signing key", "audit:\n  signing_key: short\n", "signing_key"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
		{"bad log format", "log:\n  format: xml\n", "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParse_MultipleValidationErrors(t *testing.T) {
	clearEnv(t)
	_, err := Parse([]byte("database:\n  driver: oracle\nlog:\n  format: xml\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "database.driver") || !strings.Contains(msg, "log.format") {
		t.Errorf("error should list every problem: %s", msg)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("database: [unclosed"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want config: parse prefix", err.Error())
	}
}

func TestApplyEnv_OverridesFileValues(t *testing.T) {
	env := map[string]string{
		"CRM_DATABASE_DSN":      "/tmp/override.db",
		"OPENAI_API_KEY":        "sk-test",
		"CRM_ORACLE_MODEL":      "gpt-4.1",
		"CRM_AUDIT_SIGNING_KEY": strings.Repeat("k", 32),
		"SLACK_BOT_TOKEN":       "xoxb-env",
		"CRM_SERVER_PORT":       " 7000 ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Config{Oracle: OracleConfig{Model: "gpt-4o"}}
	cfg.applyEnv(lookup)

	if cfg.Database.DSN != "/tmp/override.db" {
		t.Errorf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Oracle.APIKey != "sk-test" {
		t.Errorf("Oracle.APIKey = %q", cfg.Oracle.APIKey)
	}
	if cfg.Oracle.Model != "gpt-4.1" {
		t.Errorf("Oracle.Model = %q, want env override gpt-4.1", cfg.Oracle.Model)
	}
	if cfg.Notify.Slack.Token != "xoxb-env" {
		t.Errorf("Notify.Slack.Token = %q", cfg.Notify.Slack.Token)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
}

func TestApplyEnv_EmptyValueKeepsFileValue(t *testing.T) {
	lookup := func(k string) (string, bool) { return "", true }
	cfg := Config{Oracle: OracleConfig{Model: "gpt-4o"}}
	cfg.applyEnv(lookup)
	if cfg.Oracle.Model != "gpt-4o" {
		t.Errorf("Oracle.Model = %q, want gpt-4o", cfg.Oracle.Model)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "crm.yaml")
	if err := os.WriteFile(path, []byte(fullYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Name != "crm_prod" {
		t.Errorf("Database.Name = %q, want crm_prod", cfg.Database.Name)
	}
}

func TestLoad_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
}

func TestLoad_UnreadablePath(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error reading a directory")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want config: read prefix", err.Error())
	}
}

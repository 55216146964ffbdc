package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the loader reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, names := range legacyEnv {
		for _, n := range names {
			t.Setenv(n, "")
			os.Unsetenv(n)
		}
	}
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix+"_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	// Keep godotenv from picking up a stray .env.
	t.Chdir(t.TempDir())
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Decode(New())
	require.NoError(t, err)

	assert.Equal(t, "vertex", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.Equal(t, 0.5, cfg.LLM.Temperature)
	assert.Equal(t, "us-central1", cfg.Vertex.Location)
	assert.Equal(t, "http://localhost:3000", cfg.Gotenberg.URL)
	assert.Equal(t, "6", cfg.Templates.Order)
	assert.Equal(t, "random", cfg.Templates.Declaration)
	assert.Equal(t, TransportSMTP, cfg.Delivery.Transport)
	assert.Equal(t, 587, cfg.Delivery.SMTP.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Run.Delay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Journal.Path)
}

func TestEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SENDER_EMAIL", "phantom@example.com")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "legacy-project")
	t.Setenv("PHANTOMMAIL_LLM_TEMPERATURE", "0.9")
	t.Setenv("PHANTOMMAIL_DELIVERY_TRANSPORT", "STDOUT")
	t.Setenv("PHANTOMMAIL_RUN_DELAY", "2s")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "phantom@example.com", cfg.Sender)
	assert.Equal(t, "legacy-project", cfg.Vertex.Project)
	assert.Equal(t, 0.9, cfg.LLM.Temperature)
	assert.Equal(t, TransportStdout, cfg.Delivery.Transport)
	assert.Equal(t, 2*time.Second, cfg.Run.Delay)
}

func TestEnvironment_PrefixedWinsOverLegacy(t *testing.T) {
	clearEnv(t)
	t.Setenv("SENDER_EMAIL", "legacy@example.com")
	t.Setenv("PHANTOMMAIL_SENDER", "prefixed@example.com")

	cfg, err := Decode(New())
	require.NoError(t, err)
	assert.Equal(t, "prefixed@example.com", cfg.Sender)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sender: ops@example.com
llm:
  provider: anthropic
  anthropic_api_key: sk-test
  model: claude-sonnet-4-5
templates:
  order: "2"
delivery:
  transport: ses
  ses:
    region: eu-west-1
journal:
  path: runs.db
`), 0o644))

	t.Setenv("PHANTOMMAIL_DELIVERY_SES_REGION", "eu-central-1")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", cfg.Sender)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLM.Model)
	assert.Equal(t, "2", cfg.Templates.Order)
	assert.Equal(t, "eu-central-1", cfg.Delivery.SES.Region, "environment overrides file")
	assert.Equal(t, "runs.db", cfg.Journal.Path)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("SENDER_EMAIL=dotenv@example.com\nGOOGLE_CLOUD_PROJECT=p\nPHANTOMMAIL_DELIVERY_TRANSPORT=stdout\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("SENDER_EMAIL")
		os.Unsetenv("GOOGLE_CLOUD_PROJECT")
		os.Unsetenv("PHANTOMMAIL_DELIVERY_TRANSPORT")
	})

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "dotenv@example.com", cfg.Sender)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	clearEnv(t)
	cfg, err := Decode(New())
	require.NoError(t, err)
	cfg.Sender = "phantom@example.com"
	cfg.Vertex.Project = "p"
	cfg.Delivery.SMTP.Host = "smtp.example.com"
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing sender", func(c *Config) { c.Sender = "" }, "sender address is required"},
		{"bad sender", func(c *Config) { c.Sender = "not-an-address" }, "not a valid address"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "cohere" }, "unknown provider: cohere"},
		{"anthropic without key", func(c *Config) { c.LLM.Provider = "anthropic" }, "ANTHROPIC_API_KEY is required"},
		{"openai without key", func(c *Config) { c.LLM.Provider = "openai" }, "OPENAI_API_KEY is required"},
		{"google without key", func(c *Config) { c.LLM.Provider = "google" }, "GOOGLE_API_KEY is required"},
		{"vertex without project", func(c *Config) { c.Vertex.Project = "" }, "GOOGLE_CLOUD_PROJECT"},
		{"temperature", func(c *Config) { c.LLM.Temperature = 3 }, "out of range"},
		{"order policy", func(c *Config) { c.Templates.Order = "first" }, "templates.order"},
		{"declaration policy", func(c *Config) { c.Templates.Declaration = "-1" }, "templates.declaration"},
		{"order template missing", func(c *Config) { c.Templates.Order = "9" }, "templates.order template 9 does not exist"},
		{"declaration template missing", func(c *Config) { c.Templates.Declaration = "3" }, "templates.declaration template 3 does not exist"},
		{"smtp host", func(c *Config) { c.Delivery.SMTP.Host = "" }, "delivery.smtp.host is required"},
		{"smtp tls", func(c *Config) { c.Delivery.SMTP.TLSPolicy = "always" }, "tls_policy"},
		{"ses region", func(c *Config) { c.Delivery.Transport = TransportSES }, "region"},
		{"ses half key", func(c *Config) {
			c.Delivery.Transport = TransportSES
			c.Delivery.SES.Region = "eu-west-1"
			c.Delivery.SES.AccessKeyID = "AKIA"
		}, "set together"},
		{"brevo key", func(c *Config) { c.Delivery.Transport = TransportBrevo }, "BREVO_API_KEY"},
		{"blob connection", func(c *Config) { c.Delivery.Transport = TransportBlob }, "AZURE_STORAGE_CONNECTION_STRING"},
		{"unknown transport", func(c *Config) { c.Delivery.Transport = "resend" }, "unknown transport: resend"},
		{"attempts", func(c *Config) { c.Delivery.MaxAttempts = 0 }, "max_attempts"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "unknown log level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "unknown log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsAll(t *testing.T) {
	cfg := validConfig(t)
	cfg.Sender = ""
	cfg.Delivery.Transport = "carrier-pigeon"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sender address is required")
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)

	buf.Reset()
	LogConfig{Level: "debug"}.NewLogger(&buf).Debug("text line")
	assert.Contains(t, buf.String(), "msg=\"text line\"")
}

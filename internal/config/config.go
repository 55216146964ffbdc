// Package config loads PhantomMail settings. Sources are layered, later ones
// winning: built-in defaults, an optional phantommail.yaml, a .env file,
// the environment, and finally any command-line flags bound to the viper
// instance.
//
// Keys are dotted (llm.provider); their environment form carries the
// PHANTOMMAIL_ prefix with dots as underscores (PHANTOMMAIL_LLM_PROVIDER).
// A few well-known variables are honored too: SENDER_EMAIL,
// GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION and the provider API keys.
package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/branch"
	"github.com/spetersoncode/phantommail/templates"
)

// Transports.
const (
	TransportSMTP   = "smtp"
	TransportSES    = "ses"
	TransportBrevo  = "brevo"
	TransportBlob   = "blob"
	TransportStdout = "stdout"
)

// EnvPrefix prefixes every environment key.
const EnvPrefix = "PHANTOMMAIL"

// Config holds the complete application configuration.
type Config struct {
	Sender string `mapstructure:"sender"`

	LLM       LLMConfig       `mapstructure:"llm"`
	Vertex    VertexConfig    `mapstructure:"vertex"`
	Gotenberg GotenbergConfig `mapstructure:"gotenberg"`
	Templates TemplateConfig  `mapstructure:"templates"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	Run       RunConfig       `mapstructure:"run"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Log       LogConfig       `mapstructure:"log"`
}

// LLMConfig selects the model that writes the emails.
type LLMConfig struct {
	// Provider is anthropic, openai, google or vertex.
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	AnthropicKey string `mapstructure:"anthropic_api_key"`
	OpenAIKey    string `mapstructure:"openai_api_key"`
	GoogleKey    string `mapstructure:"google_api_key"`

	// MaxAttempts bounds retries of transient model errors.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// VertexConfig locates the Vertex AI project. Credentials come from
// Application Default Credentials.
type VertexConfig struct {
	Project  string `mapstructure:"project"`
	Location string `mapstructure:"location"`
}

// GotenbergConfig points at the HTML to PDF service.
type GotenbergConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TemplateConfig holds the template policies: a template number, or
// "random" for a uniform draw.
type TemplateConfig struct {
	Order       string `mapstructure:"order"`
	Declaration string `mapstructure:"declaration"`
}

// DeliveryConfig selects and configures the transport.
type DeliveryConfig struct {
	Transport   string `mapstructure:"transport"`
	MaxAttempts int    `mapstructure:"max_attempts"`

	SMTP  SMTPConfig  `mapstructure:"smtp"`
	SES   SESConfig   `mapstructure:"ses"`
	Brevo BrevoConfig `mapstructure:"brevo"`
	Blob  BlobConfig  `mapstructure:"blob"`
}

// SMTPConfig configures the SMTP relay.
type SMTPConfig struct {
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	TLSPolicy string        `mapstructure:"tls_policy"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SESConfig configures Amazon SES. Empty keys fall back to the default
// AWS credential chain.
type SESConfig struct {
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	ConfigurationSet string `mapstructure:"configuration_set"`
}

// BrevoConfig configures the Brevo transactional API.
type BrevoConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// BlobConfig configures the Azure Blob drop.
type BlobConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	Container        string `mapstructure:"container"`
	Prefix           string `mapstructure:"prefix"`
}

// RunConfig bounds runs and paces batches.
type RunConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	StepTimeout time.Duration `mapstructure:"step_timeout"`
	Delay       time.Duration `mapstructure:"delay"`

	// Seed fixes the fake data and category draws. Zero draws a random one.
	Seed uint64 `mapstructure:"seed"`
}

// JournalConfig enables the run journal when Path is set.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key with its default. Keys must be known to
// viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("sender", "")

	v.SetDefault("llm.provider", "vertex")
	v.SetDefault("llm.model", "gemini-2.5-pro")
	v.SetDefault("llm.temperature", 0.5)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.anthropic_api_key", "")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.google_api_key", "")
	v.SetDefault("llm.max_attempts", 5)

	v.SetDefault("vertex.project", "")
	v.SetDefault("vertex.location", "us-central1")

	v.SetDefault("gotenberg.url", "http://localhost:3000")
	v.SetDefault("gotenberg.timeout", 30*time.Second)

	v.SetDefault("templates.order", "6")
	v.SetDefault("templates.declaration", "random")

	v.SetDefault("delivery.transport", TransportSMTP)
	v.SetDefault("delivery.max_attempts", 3)
	v.SetDefault("delivery.smtp.host", "")
	v.SetDefault("delivery.smtp.port", 587)
	v.SetDefault("delivery.smtp.username", "")
	v.SetDefault("delivery.smtp.password", "")
	v.SetDefault("delivery.smtp.tls_policy", "mandatory")
	v.SetDefault("delivery.smtp.timeout", 30*time.Second)
	v.SetDefault("delivery.ses.region", "")
	v.SetDefault("delivery.ses.access_key_id", "")
	v.SetDefault("delivery.ses.secret_access_key", "")
	v.SetDefault("delivery.ses.configuration_set", "")
	v.SetDefault("delivery.brevo.api_key", "")
	v.SetDefault("delivery.brevo.base_url", "")
	v.SetDefault("delivery.blob.connection_string", "")
	v.SetDefault("delivery.blob.container", "phantommail")
	v.SetDefault("delivery.blob.prefix", "")

	v.SetDefault("run.timeout", 5*time.Minute)
	v.SetDefault("run.step_timeout", 0)
	v.SetDefault("run.delay", 500*time.Millisecond)
	v.SetDefault("run.seed", 0)

	v.SetDefault("journal.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// legacyEnv maps keys to the plain environment variables also honored.
var legacyEnv = map[string][]string{
	"sender":                          {"SENDER_EMAIL"},
	"llm.anthropic_api_key":           {"ANTHROPIC_API_KEY"},
	"llm.openai_api_key":              {"OPENAI_API_KEY"},
	"llm.google_api_key":              {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	"vertex.project":                  {"GOOGLE_CLOUD_PROJECT"},
	"vertex.location":                 {"GOOGLE_CLOUD_LOCATION"},
	"gotenberg.url":                   {"GOTENBERG_URL"},
	"delivery.brevo.api_key":          {"BREVO_API_KEY"},
	"delivery.ses.region":             {"AWS_REGION"},
	"delivery.ses.access_key_id":      {"AWS_ACCESS_KEY_ID"},
	"delivery.ses.secret_access_key":  {"AWS_SECRET_ACCESS_KEY"},
	"delivery.blob.connection_string": {"AZURE_STORAGE_CONNECTION_STRING"},
}

// New returns a viper instance with defaults and environment bindings in
// place. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		// The first set variable wins, so the prefixed name comes first.
		_ = v.BindEnv(append([]string{key, prefixed}, names...)...)
	}
	return v
}

// Load reads configuration into v, then decodes and validates it.
func Load(v *viper.Viper, file string) (*Config, error) {
	if err := Read(v, file); err != nil {
		return nil, err
	}
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads .env (if present) and the config file into v. An empty file
// searches for phantommail.yaml in the working directory and
// ~/.config/phantommail; a missing file there is not an error.
func Read(v *viper.Viper, file string) error {
	// .env is optional.
	_ = godotenv.Load()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("phantommail")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "phantommail"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Decode unmarshals v without validating.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Sender = strings.TrimSpace(c.Sender)
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Delivery.Transport = strings.ToLower(strings.TrimSpace(c.Delivery.Transport))
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

// Validate checks that required configuration is present. All problems
// are reported together.
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.Sender == "":
		errs = append(errs, errors.New("sender address is required (set SENDER_EMAIL or PHANTOMMAIL_SENDER)"))
	default:
		if _, err := mail.ParseAddress(c.Sender); err != nil {
			errs = append(errs, fmt.Errorf("sender %q is not a valid address", c.Sender))
		}
	}

	switch c.LLM.Provider {
	case "anthropic":
		if c.LLM.AnthropicKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for anthropic provider"))
		}
	case "openai":
		if c.LLM.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for openai provider"))
		}
	case "google":
		if c.LLM.GoogleKey == "" {
			errs = append(errs, errors.New("GOOGLE_API_KEY is required for google provider"))
		}
	case "vertex":
		if c.Vertex.Project == "" || c.Vertex.Location == "" {
			errs = append(errs, errors.New("GOOGLE_CLOUD_PROJECT and vertex.location are required for vertex provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider: %s (must be anthropic, openai, google, or vertex)", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature %g out of range [0, 2]", c.LLM.Temperature))
	}

	if c.Gotenberg.URL == "" {
		errs = append(errs, errors.New("gotenberg.url is required"))
	}
	errs = append(errs, c.Templates.validate()...)

	errs = append(errs, c.Delivery.validate()...)

	if c.Run.Delay < 0 {
		errs = append(errs, errors.New("run.delay must not be negative"))
	}
	if _, ok := levels[c.Log.Level]; !ok {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q (must be text or json)", c.Log.Format))
	}
	return errors.Join(errs...)
}

func (d DeliveryConfig) validate() []error {
	var errs []error
	switch d.Transport {
	case TransportSMTP:
		if d.SMTP.Host == "" {
			errs = append(errs, errors.New("delivery.smtp.host is required for smtp transport"))
		}
		switch d.SMTP.TLSPolicy {
		case "", "mandatory", "opportunistic", "none":
		default:
			errs = append(errs, fmt.Errorf("unknown delivery.smtp.tls_policy %q", d.SMTP.TLSPolicy))
		}
	case TransportSES:
		if d.SES.Region == "" {
			errs = append(errs, errors.New("delivery.ses.region (or AWS_REGION) is required for ses transport"))
		}
		if (d.SES.AccessKeyID == "") != (d.SES.SecretAccessKey == "") {
			errs = append(errs, errors.New("delivery.ses access key id and secret must be set together"))
		}
	case TransportBrevo:
		if d.Brevo.APIKey == "" {
			errs = append(errs, errors.New("BREVO_API_KEY is required for brevo transport"))
		}
	case TransportBlob:
		if d.Blob.ConnectionString == "" {
			errs = append(errs, errors.New("AZURE_STORAGE_CONNECTION_STRING is required for blob transport"))
		}
		if d.Blob.Container == "" {
			errs = append(errs, errors.New("delivery.blob.container is required for blob transport"))
		}
	case TransportStdout:
	default:
		errs = append(errs, fmt.Errorf("unknown transport: %s (must be smtp, ses, brevo, blob, or stdout)", d.Transport))
	}
	if d.MaxAttempts < 1 {
		errs = append(errs, errors.New("delivery.max_attempts must be at least 1"))
	}
	return errs
}

// validate checks each policy against the indices the embedded manifest
// declares, so a missing template fails at startup rather than per run.
func (t TemplateConfig) validate() []error {
	store, err := templates.New()
	if err != nil {
		return []error{err}
	}
	var errs []error
	for _, p := range []struct {
		key      string
		value    string
		category phantommail.Category
	}{
		{"templates.order", t.Order, phantommail.Order},
		{"templates.declaration", t.Declaration, phantommail.Declaration},
	} {
		if _, err := branch.ParseTemplatePolicy(p.value, store.Indices(p.category), nil); err != nil {
			errs = append(errs, fmt.Errorf("%s %w", p.key, err))
		}
	}
	return errs
}

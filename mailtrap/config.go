package mailtrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Karrrthik7/authshield/internal/core"
	"github.com/Karrrthik7/authshield/internal/providers"
)

// Defaults applied when the corresponding variable is unset or empty.
const (
	DefaultEndpoint     = "https://send.api.mailtrap.io"
	DefaultSenderEmail  = "mailtrap@demomailtrap.com"
	DefaultSenderName   = "AuthShield"
	DefaultTransport    = TransportAPI
	DefaultSMTPHost     = "live.smtp.mailtrap.io"
	DefaultSMTPPort     = 587
	DefaultSMTPUsername = "api"
	DefaultTimeout      = 30 * time.Second
)

// Transports supported by the client.
const (
	// TransportAPI sends through the Mailtrap Send API over HTTPS.
	TransportAPI = providers.TransportAPI

	// TransportSMTP sends through the Mailtrap SMTP relay.
	TransportSMTP = providers.TransportSMTP
)

// Config holds the resolved Mailtrap configuration.
// It is immutable once a Client has been built from it.
type Config struct {
	// Token authenticates against Mailtrap. It has no default.
	Token string `env:"MAILTRAP_TOKEN"`

	// Endpoint is the Send API base URL, without a trailing slash.
	Endpoint string `env:"MAILTRAP_ENDPOINT"`

	// SenderEmail and SenderName form the "from" identity for outgoing mail.
	SenderEmail string `env:"MAILTRAP_SENDER_EMAIL"`
	SenderName  string `env:"MAILTRAP_SENDER_NAME"`

	// Transport selects the Send API ("api") or the SMTP relay ("smtp").
	Transport string `env:"MAILTRAP_TRANSPORT"`

	// SMTP holds relay settings, used only with TransportSMTP.
	SMTP SMTPConfig

	// Timeout bounds each outbound request.
	Timeout time.Duration `env:"MAILTRAP_TIMEOUT"`

	// CredentialCheck enables the startup credential self-test.
	CredentialCheck bool `env:"MAILTRAP_CREDENTIAL_CHECK" envDefault:"true"`

	// Logging contains logging configuration.
	Logging LoggingConfig

	// resolved is set once normalize has run.
	resolved bool
}

// SMTPConfig contains Mailtrap SMTP relay settings.
type SMTPConfig struct {
	Host     string `env:"MAILTRAP_SMTP_HOST"`
	Port     int    `env:"MAILTRAP_SMTP_PORT"`
	Username string `env:"MAILTRAP_SMTP_USERNAME"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string `env:"LOG_LEVEL"`

	// Format is the log format (json, text).
	Format string `env:"LOG_FORMAT"`

	// Output is where to write logs (stdout, stderr).
	Output string `env:"LOG_OUTPUT"`
}

// DefaultConfig returns a configuration with every default applied.
// The token is left empty.
func DefaultConfig() Config {
	return Config{
		Endpoint:    DefaultEndpoint,
		SenderEmail: DefaultSenderEmail,
		SenderName:  DefaultSenderName,
		Transport:   DefaultTransport,
		SMTP: SMTPConfig{
			Host:     DefaultSMTPHost,
			Port:     DefaultSMTPPort,
			Username: DefaultSMTPUsername,
		},
		Timeout:         DefaultTimeout,
		CredentialCheck: true,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

var dotenvLoaded sync.Once

// LoadConfig reads the configuration from the process environment.
// A .env file in the working directory is loaded first, if present;
// variables already set in the environment win.
func LoadConfig() (Config, error) {
	dotenvLoaded.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})
	return ParseConfig(env.ToMap(os.Environ()))
}

// ParseConfig resolves the configuration from environ. The resolved config is
// returned even when validation fails so that callers can still set up logging.
func ParseConfig(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	cfg.normalize()

	return cfg, cfg.Validate()
}

// normalize applies defaults to blank values, trims every string and strips
// a single trailing slash from the endpoint. Only the first call has any
// effect, so a config from ParseConfig passed to New keeps its endpoint.
func (c *Config) normalize() {
	if c.resolved {
		return
	}
	c.resolved = true

	d := DefaultConfig()

	c.Token = strings.TrimSpace(c.Token)
	c.Endpoint = strings.TrimSuffix(strings.TrimSpace(orDefault(c.Endpoint, d.Endpoint)), "/")
	c.SenderEmail = strings.TrimSpace(orDefault(c.SenderEmail, d.SenderEmail))
	c.SenderName = strings.TrimSpace(orDefault(c.SenderName, d.SenderName))
	c.Transport = strings.ToLower(strings.TrimSpace(orDefault(c.Transport, d.Transport)))

	c.SMTP.Host = strings.TrimSpace(orDefault(c.SMTP.Host, d.SMTP.Host))
	c.SMTP.Username = strings.TrimSpace(orDefault(c.SMTP.Username, d.SMTP.Username))
	if c.SMTP.Port == 0 {
		c.SMTP.Port = d.SMTP.Port
	}

	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(orDefault(c.Logging.Level, d.Logging.Level)))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(orDefault(c.Logging.Format, d.Logging.Format)))
	c.Logging.Output = strings.ToLower(strings.TrimSpace(orDefault(c.Logging.Output, d.Logging.Output)))
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

// Validate checks if the configuration is valid and complete.
func (c *Config) Validate() error {
	if c.Token == "" {
		return newConfigError("MAILTRAP_TOKEN",
			"Missing MAILTRAP_TOKEN environment variable. Add MAILTRAP_TOKEN to your .env as described in README.md",
			ErrMissingToken)
	}

	if c.SenderEmail == "" {
		return newConfigError("MAILTRAP_SENDER_EMAIL",
			"Missing MAILTRAP_SENDER_EMAIL environment variable. Set MAILTRAP_SENDER_EMAIL in your .env or fallback will be used.",
			ErrMissingSenderEmail)
	}

	if c.Endpoint == "" {
		return newConfigError("MAILTRAP_ENDPOINT",
			"Set MAILTRAP_ENDPOINT to the Send API base URL, for example "+DefaultEndpoint,
			ErrMissingEndpoint)
	}

	if c.Transport != TransportAPI && c.Transport != TransportSMTP {
		return newConfigError("MAILTRAP_TRANSPORT",
			"Set MAILTRAP_TRANSPORT to \"api\" or \"smtp\"",
			fmt.Errorf("%w: unsupported transport %q", ErrInvalidConfiguration, c.Transport))
	}

	if c.Timeout < 0 {
		return newConfigError("MAILTRAP_TIMEOUT",
			"Set MAILTRAP_TIMEOUT to a positive duration such as 30s",
			fmt.Errorf("%w: timeout must be greater than 0", ErrInvalidConfiguration))
	}

	if c.Transport == TransportSMTP && (c.SMTP.Port < 1 || c.SMTP.Port > 65535) {
		return newConfigError("MAILTRAP_SMTP_PORT",
			"Set MAILTRAP_SMTP_PORT to the relay port, usually 587",
			fmt.Errorf("%w: invalid port %d", ErrInvalidConfiguration, c.SMTP.Port))
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return newConfigError("LOG_LEVEL",
			"Set LOG_LEVEL to one of debug, info, warn, error",
			fmt.Errorf("%w: %v", ErrInvalidConfiguration, err))
	}

	return nil
}

// Sender returns the sender identity derived from the configuration.
func (c Config) Sender() Address {
	return Address{Email: c.SenderEmail, Name: c.SenderName}
}

// String describes the configuration with the token masked.
func (c Config) String() string {
	return fmt.Sprintf("endpoint=%s transport=%s sender=%q token=%s",
		c.Endpoint, c.Transport, c.Sender().String(), MaskToken(c.Token))
}

// providerSettings converts the configuration into transport settings.
func (c Config) providerSettings() core.ProviderSettings {
	return core.ProviderSettings{
		"token":      c.Token,
		"endpoint":   c.Endpoint,
		"user_agent": UserAgent(),
		"host":       c.SMTP.Host,
		"port":       strconv.Itoa(c.SMTP.Port),
		"username":   c.SMTP.Username,
		"password":   c.Token,
	}
}

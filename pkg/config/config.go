// Package config loads client configuration from a YAML file.
//
// Values are resolved in three layers: Default, then the file passed to Load,
// then LINEWEB_* environment variables applied by ApplyEnv. The cookie export
// itself is never stored in the YAML; it lives in the file named by
// cookies_file and is read with ReadCredentials.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the chat web API root.
const DefaultBaseURL = "https://chat.line.biz/api"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LINEWEB_"

var (
	ErrEmptyPath      = errors.New("config: path is empty")
	ErrEmptyCookies   = errors.New("config: cookie export is empty")
	ErrNilCallback    = errors.New("config: callback is nil")
	errInvalidBaseURL = errors.New("config: base_url must be an absolute http(s) URL")
)

// Config is the on-disk client configuration.
type Config struct {
	// BaseURL is the API root without a trailing slash.
	BaseURL string `yaml:"base_url"`

	// UserAgent and ClientVersion override the browser identity.
	UserAgent     string `yaml:"user_agent"`
	ClientVersion string `yaml:"client_version"`

	// CookieDomain overrides the domain derived from BaseURL.
	CookieDomain string `yaml:"cookie_domain"`

	// Timeout bounds every HTTP exchange. Zero disables it.
	Timeout Duration `yaml:"timeout"`

	// CookiesFile is the path of the JSON cookie export.
	CookiesFile string `yaml:"cookies_file"`

	// Headers are extra headers sent with every request.
	Headers map[string]string `yaml:"headers"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TelemetryConfig configures tracing, metrics and log masking.
type TelemetryConfig struct {
	ServiceName    string   `yaml:"service_name"`
	ServiceVersion string   `yaml:"service_version"`
	Environment    string   `yaml:"environment"`
	Mask           string   `yaml:"mask"`
	Patterns       []string `yaml:"patterns"`
	// OTLPEndpoint enables the OTLP/HTTP trace exporter when set (host:port).
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	// OTLPInsecure disables TLS towards the collector.
	OTLPInsecure bool `yaml:"otlp_insecure"`
}

// Duration is a time.Duration read from strings such as "30s".
type Duration time.Duration

// UnmarshalYAML accepts Go duration strings.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("config: decode duration: %w", err)
	}
	parsed, err := parseDuration(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML writes the duration in Go notation.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func parseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse duration %q: %w", raw, err)
	}
	return Duration(parsed), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: Duration(30 * time.Second),
		Headers: map[string]string{},
		Telemetry: TelemetryConfig{
			ServiceName: "lineweb-go",
			Mask:        "[redacted]",
		},
	}
}

// Load reads the YAML file at path over Default and applies environment
// overrides. The result is validated.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from LINEWEB_* variables resolved through lookup.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("BASE_URL", &c.BaseURL)
	str("USER_AGENT", &c.UserAgent)
	str("CLIENT_VERSION", &c.ClientVersion)
	str("COOKIE_DOMAIN", &c.CookieDomain)
	str("COOKIES_FILE", &c.CookiesFile)
	str("SERVICE_NAME", &c.Telemetry.ServiceName)
	str("ENVIRONMENT", &c.Telemetry.Environment)
	str("OTLP_ENDPOINT", &c.Telemetry.OTLPEndpoint)

	if v, ok := lookup(EnvPrefix + "TIMEOUT"); ok {
		d, err := parseDuration(v)
		if err != nil {
			return err
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("%w: %q", errInvalidBaseURL, c.BaseURL))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("config: timeout must not be negative: %s", c.Timeout.Std()))
	}
	for k := range c.Headers {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, errors.New("config: header names must not be empty"))
			break
		}
	}
	return errors.Join(errs...)
}

// ReadCredentials returns the raw cookie export stored at path.
func ReadCredentials(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: read cookies %s: %w", path, err)
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", ErrEmptyCookies
	}
	return raw, nil
}

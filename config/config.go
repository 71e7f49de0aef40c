package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
	"webframeworks/models"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when configuration values fail validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Configuration keys
const (
	KeyGitHubToken    = "github_token"
	KeyAPIURL         = "api_url"
	KeyLanguage       = "language"
	KeyFrameworks     = "frameworks"
	KeyOutput         = "output"
	KeyConcurrency    = "concurrency"
	KeyRequestTimeout = "request_timeout"
	KeyMaxRetries     = "max_retries"
	KeyLogLevel       = "log_level"
	KeyStrict         = "strict"

	// EnvPrefix prefixes every variable except GITHUB_TOKEN.
	EnvPrefix = "WEBFW"
)

// Config holds all configuration for the application
type Config struct {
	GitHubToken    string
	APIURL         string
	Language       string
	Frameworks     []models.RepositoryIdentifier
	Output         string
	Concurrency    int
	RequestTimeout time.Duration
	MaxRetries     int
	LogLevel       string
	Strict         bool
}

// NewConfig creates a new Config instance
func NewConfig() *Config {
	return &Config{}
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, "https://api.github.com")
	v.SetDefault(KeyOutput, "-")
	v.SetDefault(KeyConcurrency, 8)
	v.SetDefault(KeyRequestTimeout, 30*time.Second)
	v.SetDefault(KeyMaxRetries, 0)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyStrict, false)
}

// Load reads configuration from the optional config file, the environment and
// whatever flags were bound to v, then validates it.
func (c *Config) Load(v *viper.Viper, configFile string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	if err := v.BindEnv(KeyGitHubToken, "GITHUB_TOKEN"); err != nil {
		return fmt.Errorf("failed to bind GITHUB_TOKEN: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	c.GitHubToken = v.GetString(KeyGitHubToken)
	c.APIURL = strings.TrimSuffix(v.GetString(KeyAPIURL), "/")
	c.Language = strings.TrimSpace(v.GetString(KeyLanguage))
	c.Output = v.GetString(KeyOutput)
	c.Concurrency = v.GetInt(KeyConcurrency)
	c.RequestTimeout = v.GetDuration(KeyRequestTimeout)
	c.MaxRetries = v.GetInt(KeyMaxRetries)
	c.LogLevel = v.GetString(KeyLogLevel)
	c.Strict = v.GetBool(KeyStrict)

	frameworks, err := parseFrameworks(v.GetStringSlice(KeyFrameworks))
	if err != nil {
		return err
	}
	c.Frameworks = frameworks

	return c.Validate()
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.Language == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidConfig, KeyLanguage)
	}
	if len(c.Frameworks) == 0 {
		return fmt.Errorf("%w: at least one framework repository is required", ErrInvalidConfig)
	}
	if !validAPIURL(c.APIURL) {
		return fmt.Errorf("%w: %s must be an absolute https URL, got %q", ErrInvalidConfig, KeyAPIURL, c.APIURL)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: %s must be at least 1", ErrInvalidConfig, KeyConcurrency)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyRequestTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, KeyMaxRetries)
	}
	return nil
}

// validAPIURL requires https. Plain http is only accepted for loopback hosts.
func validAPIURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "https":
		return true
	case "http":
		host := u.Hostname()
		if host == "localhost" {
			return true
		}
		ip := net.ParseIP(host)
		return ip != nil && ip.IsLoopback()
	default:
		return false
	}
}

// parseFrameworks accepts list items that may themselves be comma separated
// (as they are when coming from an environment variable) and drops
// case-insensitive duplicates, keeping the first occurrence.
func parseFrameworks(raw []string) ([]models.RepositoryIdentifier, error) {
	seen := make(map[string]struct{}, len(raw))
	var out []models.RepositoryIdentifier
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := models.ParseIdentifier(part)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
			key := strings.ToLower(id.String())
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

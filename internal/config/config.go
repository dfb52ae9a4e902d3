// Package config resolves the runtime configuration from flags, environment and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/naka-gawa/repo-stats/internal/domain"
	"github.com/spf13/viper"
)

// Configuration keys. Flag names match these keys.
const (
	KeyToken         = "token"
	KeyTimeout       = "timeout"
	KeyConcurrency   = "concurrency"
	KeyBaseURL       = "base-url"
	KeyRateLimitWait = "rate-limit-wait"
	KeyVerbose       = "verbose"
	KeyNoColor       = "no-color"
	KeyConfigFile    = "config"
)

const (
	// TokenEnvVar is read when --token is not given.
	TokenEnvVar = "GITHUB_TOKEN"
	// EnvPrefix applies to every other key, e.g. REPO_STATS_TIMEOUT.
	EnvPrefix = "REPO_STATS"

	DefaultStartDate   = "2025-01-01"
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 4

	// DateLayout is the accepted --start-date format.
	DateLayout = "2006-01-02"
)

// Config is the validated configuration passed explicitly into the gateway.
type Config struct {
	Token         string
	Timeout       time.Duration
	Concurrency   int
	BaseURL       string
	RateLimitWait time.Duration
	Verbose       bool
	NoColor       bool
}

// Authenticated reports whether a token was resolved.
func (c Config) Authenticated() bool {
	return c.Token != ""
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyConcurrency, DefaultConcurrency)
	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyRateLimitWait, time.Duration(0))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// The token keeps the conventional unprefixed variable name.
	_ = v.BindEnv(KeyToken, TokenEnvVar)
}

// ReadFile loads the config file named by --config, or .repo-stats.yaml from
// the working or home directory. A missing default file is not an error.
func ReadFile(v *viper.Viper) error {
	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".repo-stats")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// HasToken reports whether a non-blank token was resolved from any source.
func HasToken(v *viper.Viper) bool {
	return strings.TrimSpace(v.GetString(KeyToken)) != ""
}

// Load builds a Config from the resolved values in v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Token:         strings.TrimSpace(v.GetString(KeyToken)),
		Timeout:       v.GetDuration(KeyTimeout),
		Concurrency:   v.GetInt(KeyConcurrency),
		BaseURL:       v.GetString(KeyBaseURL),
		RateLimitWait: v.GetDuration(KeyRateLimitWait),
		Verbose:       v.GetBool(KeyVerbose),
		NoColor:       v.GetBool(KeyNoColor),
	}
	if cfg.Timeout < 0 {
		return Config{}, fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	if cfg.Concurrency < 1 {
		return Config{}, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.RateLimitWait < 0 {
		return Config{}, fmt.Errorf("rate-limit-wait must not be negative, got %s", cfg.RateLimitWait)
	}
	return cfg, nil
}

// ParseStartDate parses a YYYY-MM-DD date as midnight UTC.
func ParseStartDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, &domain.InvalidDateError{Value: s}
	}
	return t, nil
}

// Package config loads ghsearch settings from defaults, an optional YAML file,
// an optional search input document, GHSEARCH_* environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/FranksOps/ghsearch/internal/fingerprint"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultBaseURL      = "https://github.com"
	DefaultWorkers      = 10
	DefaultTimeout      = 30 * time.Second
	DefaultFingerprint  = "go"
	DefaultFormat       = "json"
	DefaultMaxRedirects = 10
	EnvPrefix           = "GHSEARCH"
)

// Config holds every setting of a search invocation.
type Config struct {
	Type      string   `mapstructure:"type"`
	Keywords  []string `mapstructure:"keywords"`
	Proxies   []string `mapstructure:"proxies"`
	ProxyFile string   `mapstructure:"proxy_file"`

	Format  string `mapstructure:"format"`
	Output  string `mapstructure:"output"`
	Summary string `mapstructure:"summary"`

	Workers      int           `mapstructure:"workers"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	BaseURL      string        `mapstructure:"base_url"`
	Selector     string        `mapstructure:"selector"`
	UserAgents   []string      `mapstructure:"user_agents"`
	Fingerprint  string        `mapstructure:"fingerprint"`

	RPS           float64 `mapstructure:"rps"`
	Jitter        float64 `mapstructure:"jitter"`
	RespectRobots bool    `mapstructure:"respect_robots"`
	MetricsPort   int     `mapstructure:"metrics_port"`
}

// flagKeys maps config keys to the flag names that set them.
var flagKeys = map[string]string{
	"type":           "type",
	"keywords":       "keyword",
	"proxies":        "proxy",
	"proxy_file":     "proxy-file",
	"format":         "format",
	"output":         "output",
	"summary":        "summary",
	"workers":        "workers",
	"timeout":        "timeout",
	"max_redirects":  "max-redirects",
	"base_url":       "base-url",
	"selector":       "selector",
	"user_agents":    "user-agent",
	"fingerprint":    "fingerprint",
	"rps":            "rps",
	"jitter":         "jitter",
	"respect_robots": "respect-robots",
	"metrics_port":   "metrics-port",
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("max_redirects", DefaultMaxRedirects)
	v.SetDefault("fingerprint", DefaultFingerprint)
	v.SetDefault("format", DefaultFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// BindFlags binds every flag of fs that backs a config key. Flags missing from
// fs are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the optional YAML config file, then merges the optional input
// document ({"keywords": [...], "proxies": [...], "type": "..."}) on top of
// it, and decodes the result. Environment and bound flags still win.
func Load(v *viper.Viper, configFile, inputFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	if inputFile != "" {
		v.SetConfigFile(inputFile)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read input %s: %w", inputFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if len(c.Keywords) == 0 {
		return ErrNoKeywords
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	switch strings.ToLower(c.Format) {
	case "json", "csv":
	default:
		return ErrInvalidFormat
	}

	switch strings.ToLower(c.Summary) {
	case "", "text", "html", "json":
	default:
		return ErrInvalidSummary
	}

	if c.RPS < 0 {
		return ErrInvalidRPS
	}

	if c.Jitter < 0 || c.Jitter > 1 {
		return ErrInvalidJitter
	}

	if c.MaxRedirects < 0 {
		return ErrInvalidMaxRedirects
	}

	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return ErrInvalidMetricsPort
	}

	if _, err := fingerprint.ParseProfile(c.Fingerprint); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFingerprint, err)
	}

	return nil
}

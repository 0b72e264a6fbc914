// Package config handles TOML-based configuration loading and validation.
// TOML is parsed as data only, so rule patterns in the file are never executed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"clipharvest/internal/extract"
	"clipharvest/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	History  bool    `toml:"history"`
	Debug    bool    `toml:"debug"`
	LogLevel string  `toml:"log_level"`
	Server   Server  `toml:"server"`
	Extract  Extract `toml:"extract"`
}

// Server configures the HTTP front end.
type Server struct {
	Listen         string   `toml:"listen"`
	StaticDir      string   `toml:"static_dir"`
	MaxBodyBytes   int64    `toml:"max_body_bytes"`
	MinSourceBytes int      `toml:"min_source_bytes"`
	RatePerMinute  int      `toml:"rate_per_minute"`
	RateBurst      int      `toml:"rate_burst"`
	ProxyTimeout   Duration `toml:"proxy_timeout"`
}

// Extract configures the extraction pipeline. A zero group_threshold,
// context_threshold, diversity_threshold or per_format_limit keeps the
// built-in default; result_cap and min_url_length must be positive.
type Extract struct {
	ResultCap          int            `toml:"result_cap"`
	GroupThreshold     int            `toml:"group_threshold"`
	ContextFilter      bool           `toml:"context_filter"`
	ContextThreshold   int            `toml:"context_threshold"`
	DiversityThreshold int            `toml:"diversity_threshold"`
	PerFormatLimit     int            `toml:"per_format_limit"`
	MinURLLength       int            `toml:"min_url_length"`
	CDNHosts           []string       `toml:"cdn_hosts"`
	Rules              []extract.Rule `toml:"rules"`
}

// Duration is a time.Duration that decodes from TOML strings like "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		History:  true,
		Debug:    false,
		LogLevel: "info",
		Server: Server{
			Listen:         "127.0.0.1:3000",
			StaticDir:      "public",
			MaxBodyBytes:   50 << 20,
			MinSourceBytes: 1000,
			RatePerMinute:  10,
			RateBurst:      10,
			ProxyTimeout:   Duration{5 * time.Minute},
		},
		Extract: Extract{
			ResultCap:          extract.DefaultResultCap,
			GroupThreshold:     extract.DefaultGroupThreshold,
			ContextFilter:      true,
			ContextThreshold:   extract.DefaultContextOptions().Threshold,
			DiversityThreshold: extract.DefaultDiversityThreshold,
			PerFormatLimit:     extract.DefaultPerFormatLimit,
			MinURLLength:       extract.DefaultMinURLLength,
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "clipharvest"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "clipharvest"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the default config file and merges it with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path, true)
}

// LoadFile reads the config file at path and merges it with defaults.
// When optional is set a missing file yields the defaults.
func LoadFile(path string, optional bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Server.Listen == "" {
		return fmt.Errorf("server listen address cannot be empty")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	if c.Server.MinSourceBytes < 0 || int64(c.Server.MinSourceBytes) > c.Server.MaxBodyBytes {
		return fmt.Errorf("server min_source_bytes %d out of range", c.Server.MinSourceBytes)
	}
	if c.Server.RatePerMinute <= 0 {
		return fmt.Errorf("server rate_per_minute must be positive, got %d", c.Server.RatePerMinute)
	}
	if c.Server.RateBurst <= 0 {
		return fmt.Errorf("server rate_burst must be positive, got %d", c.Server.RateBurst)
	}
	if c.Server.ProxyTimeout.Duration < 0 {
		return fmt.Errorf("server proxy_timeout cannot be negative")
	}

	if c.Extract.ResultCap <= 0 {
		return fmt.Errorf("extract result_cap must be positive, got %d", c.Extract.ResultCap)
	}
	if c.Extract.MinURLLength <= 0 {
		return fmt.Errorf("extract min_url_length must be positive, got %d", c.Extract.MinURLLength)
	}
	for name, v := range map[string]int{
		"group_threshold":     c.Extract.GroupThreshold,
		"context_threshold":   c.Extract.ContextThreshold,
		"diversity_threshold": c.Extract.DiversityThreshold,
		"per_format_limit":    c.Extract.PerFormatLimit,
	} {
		if v < 0 {
			return fmt.Errorf("extract %s cannot be negative, got %d", name, v)
		}
	}
	for _, host := range c.Extract.CDNHosts {
		if strings.TrimSpace(host) == "" || strings.ContainsAny(host, "/: ") {
			return fmt.Errorf("invalid cdn host %q", host)
		}
	}

	return nil
}

// withDefaults returns e with zero thresholds replaced by the built-in defaults.
func (e Extract) withDefaults() Extract {
	if e.GroupThreshold == 0 {
		e.GroupThreshold = extract.DefaultGroupThreshold
	}
	if e.ContextThreshold == 0 {
		e.ContextThreshold = extract.DefaultContextOptions().Threshold
	}
	if e.DiversityThreshold == 0 {
		e.DiversityThreshold = extract.DefaultDiversityThreshold
	}
	if e.PerFormatLimit == 0 {
		e.PerFormatLimit = extract.DefaultPerFormatLimit
	}
	return e
}

// ExtractOptions translates the [extract] section into extractor options.
func (c *Config) ExtractOptions() []extract.Option {
	e := c.Extract.withDefaults()

	ctx := extract.DefaultContextOptions()
	ctx.Enabled = e.ContextFilter
	ctx.Threshold = e.ContextThreshold

	opts := []extract.Option{
		extract.WithResultCap(e.ResultCap),
		extract.WithGroupThreshold(e.GroupThreshold),
		extract.WithContextFilter(ctx),
		extract.WithDiversity(e.DiversityThreshold, e.PerFormatLimit),
		extract.WithMinURLLength(e.MinURLLength),
	}

	if len(e.CDNHosts) > 0 {
		tables := extract.DefaultTables()
		tables.CDN.HostTokens = make([]string, len(e.CDNHosts))
		for i, h := range e.CDNHosts {
			tables.CDN.HostTokens[i] = strings.ToLower(strings.TrimSpace(h))
		}
		opts = append(opts, extract.WithTables(tables))
	}
	if len(e.Rules) > 0 {
		opts = append(opts, extract.WithRules(e.Rules))
	}
	return opts
}

// CDNHostTokens returns the host tokens the proxy accepts.
func (c *Config) CDNHostTokens() []string {
	if len(c.Extract.CDNHosts) > 0 {
		return c.Extract.CDNHosts
	}
	return extract.DefaultTables().CDN.HostTokens
}

// dataDir returns the XDG-compliant data directory.
func dataDir() (string, error) {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "clipharvest"), nil
}

// HistoryPath returns the path to the history database.
func HistoryPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipharvest/internal/extract"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Listen != "127.0.0.1:3000" {
		t.Errorf("default listen = %q, want 127.0.0.1:3000", cfg.Server.Listen)
	}
	if cfg.Server.RatePerMinute != 10 {
		t.Errorf("default rate = %d, want 10", cfg.Server.RatePerMinute)
	}
	if cfg.Server.MaxBodyBytes != 50<<20 {
		t.Errorf("default max body = %d, want 50 MiB", cfg.Server.MaxBodyBytes)
	}
	if cfg.Extract.ResultCap != 15 {
		t.Errorf("default result cap = %d, want 15", cfg.Extract.ResultCap)
	}
	if !cfg.History {
		t.Error("default history should be true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"invalid log level", func(c *Config) { c.LogLevel = "chatty" }, true},
		{"empty listen", func(c *Config) { c.Server.Listen = "" }, true},
		{"zero body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }, true},
		{"min above max", func(c *Config) { c.Server.MinSourceBytes = 100; c.Server.MaxBodyBytes = 10 }, true},
		{"zero rate", func(c *Config) { c.Server.RatePerMinute = 0 }, true},
		{"zero burst", func(c *Config) { c.Server.RateBurst = 0 }, true},
		{"negative proxy timeout", func(c *Config) { c.Server.ProxyTimeout = Duration{-time.Second} }, true},
		{"zero cap", func(c *Config) { c.Extract.ResultCap = 0 }, true},
		{"zero min url length", func(c *Config) { c.Extract.MinURLLength = 0 }, true},
		{"bad cdn host", func(c *Config) { c.Extract.CDNHosts = []string{"https://x"} }, true},
		{"valid cdn host", func(c *Config) { c.Extract.CDNHosts = []string{"example-cdn.net"} }, false},
		{"valid debug level", func(c *Config) { c.LogLevel = "debug" }, false},
		{"negative group threshold", func(c *Config) { c.Extract.GroupThreshold = -1 }, true},
		{"negative per format limit", func(c *Config) { c.Extract.PerFormatLimit = -3 }, true},
		{"zero thresholds", func(c *Config) { c.Extract.ContextThreshold = 0; c.Extract.DiversityThreshold = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	content := `
history = false
log_level = "debug"

[server]
listen = ":8080"
rate_per_minute = 30
proxy_timeout = "45s"

[extract]
result_cap = 5
cdn_hosts = ["example-cdn.net"]

[[extract.rules]]
id = "custom"
pattern = 'data-clip="(https://[^"]+)"'
group = 1
priority = 5
`
	dir := filepath.Join(tmpDir, "clipharvest")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.History {
		t.Error("history should be false")
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("listen = %q, want :8080", cfg.Server.Listen)
	}
	if cfg.Server.RatePerMinute != 30 {
		t.Errorf("rate = %d, want 30", cfg.Server.RatePerMinute)
	}
	if cfg.Server.ProxyTimeout.Duration != 45*time.Second {
		t.Errorf("proxy timeout = %v, want 45s", cfg.Server.ProxyTimeout)
	}
	if cfg.Server.RateBurst != 10 {
		t.Errorf("unset rate burst = %d, want default 10", cfg.Server.RateBurst)
	}
	if cfg.Extract.ResultCap != 5 {
		t.Errorf("result cap = %d, want 5", cfg.Extract.ResultCap)
	}
	if len(cfg.Extract.Rules) != 1 || cfg.Extract.Rules[0].Group != 1 {
		t.Fatalf("rules = %+v, want one custom rule", cfg.Extract.Rules)
	}

	if _, err := extract.New(cfg.ExtractOptions()...); err != nil {
		t.Errorf("extractor from loaded config: %v", err)
	}
	if got := cfg.CDNHostTokens(); len(got) != 1 || got[0] != "example-cdn.net" {
		t.Errorf("CDNHostTokens() = %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.Extract.ResultCap != 15 {
		t.Errorf("missing file should return defaults, got cap = %d", cfg.Extract.ResultCap)
	}
}

func TestLoadFileRequired(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"), false); err == nil {
		t.Error("LoadFile() should error on a missing explicit file")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[extract]\nresult_cap = -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path, false); err == nil {
		t.Error("LoadFile() should reject a negative result cap")
	}
}

func TestExtractOptionsRejectBadRule(t *testing.T) {
	cfg := Default()
	cfg.Extract.Rules = []extract.Rule{{ID: "broken", Pattern: "(("}}
	if _, err := extract.New(cfg.ExtractOptions()...); err == nil {
		t.Error("expected a compile error for a broken rule pattern")
	}
}

func TestHistoryPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	path, err := HistoryPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "clipharvest", "history.db"); path != want {
		t.Errorf("HistoryPath() = %q, want %q", path, want)
	}
}

func TestExtractZeroThresholdsKeepDefaults(t *testing.T) {
	e := Extract{GroupThreshold: 0, ContextThreshold: 0, DiversityThreshold: 0, PerFormatLimit: 0}.withDefaults()

	if e.GroupThreshold != extract.DefaultGroupThreshold {
		t.Errorf("group threshold = %d, want %d", e.GroupThreshold, extract.DefaultGroupThreshold)
	}
	if want := extract.DefaultContextOptions().Threshold; e.ContextThreshold != want {
		t.Errorf("context threshold = %d, want %d", e.ContextThreshold, want)
	}
	if e.DiversityThreshold != extract.DefaultDiversityThreshold {
		t.Errorf("diversity threshold = %d, want %d", e.DiversityThreshold, extract.DefaultDiversityThreshold)
	}
	if e.PerFormatLimit != extract.DefaultPerFormatLimit {
		t.Errorf("per format limit = %d, want %d", e.PerFormatLimit, extract.DefaultPerFormatLimit)
	}

	custom := Extract{GroupThreshold: 5, PerFormatLimit: 1}.withDefaults()
	if custom.GroupThreshold != 5 || custom.PerFormatLimit != 1 {
		t.Errorf("explicit values overridden: %+v", custom)
	}
}

func TestLoadZeroThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[extract]\ngroup_threshold = 0\nper_format_limit = 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path, false)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if _, err := extract.New(cfg.ExtractOptions()...); err != nil {
		t.Errorf("extractor from zero thresholds: %v", err)
	}
}

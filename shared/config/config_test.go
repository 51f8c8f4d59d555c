package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TMDB_API_KEY", "STREAMING_COUNTRY_CODE", "STREAMING_SERVICES", "CINEMA_CACHE_PATH",
		"GEMINI_API_KEY", "EMAIL_USERNAME", "EMAIL_PASSWORD", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnvironmentOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TMDB_API_KEY", "test-key")
	t.Setenv("STREAMING_COUNTRY_CODE", "gb")
	t.Setenv("STREAMING_SERVICES", "Netflix, MUBI ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TMDB.APIKey != "test-key" {
		t.Errorf("TMDB.APIKey = %s, want test-key", cfg.TMDB.APIKey)
	}
	if got := cfg.Streaming.RegionCode(); got != "GB" {
		t.Errorf("RegionCode() = %s, want GB", got)
	}
	subs := cfg.Streaming.Subscriptions()
	if len(subs) != 2 || !subs.Has("netflix") || !subs.Has("Mubi") {
		t.Errorf("Subscriptions() = %v, want netflix and mubi", subs)
	}
	if cfg.Recommend.DiscoverPages != 5 || cfg.Recommend.TopN != 5 || cfg.Recommend.RandomAttempts != 20 {
		t.Errorf("unexpected recommend defaults: %+v", cfg.Recommend)
	}
	if cfg.Recommend.ItemDelay != 250*time.Millisecond {
		t.Errorf("ItemDelay = %v, want 250ms", cfg.Recommend.ItemDelay)
	}
	if cfg.Tracker.ItemDelay != 250*time.Millisecond {
		t.Errorf("Tracker.ItemDelay = %v, want 250ms", cfg.Tracker.ItemDelay)
	}
	if cfg.Cache.Path != "data/cache.sqlite" {
		t.Errorf("Cache.Path = %s, want data/cache.sqlite", cfg.Cache.Path)
	}
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
tmdb:
  api_key: yaml-key
streaming:
  region: us
  services: "Netflix,Hulu"
cache:
  path: /tmp/cinema.sqlite
  discover_ttl: 6h
recommend:
  top_n: 10
  item_delay: 100ms
tracker:
  item_delay: 1s
lists:
  - label: Criterion
    url: https://letterboxd.com/someone/list/criterion/
`
	if err := os.WriteFile(configFile, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", configFile)
	t.Setenv("TMDB_API_KEY", "env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TMDB.APIKey != "yaml-key" {
		t.Errorf("TMDB.APIKey = %s, want yaml-key (file wins over env)", cfg.TMDB.APIKey)
	}
	if cfg.Cache.DiscoverTTL != 6*time.Hour {
		t.Errorf("DiscoverTTL = %v, want 6h", cfg.Cache.DiscoverTTL)
	}
	if cfg.Recommend.TopN != 10 {
		t.Errorf("TopN = %d, want 10", cfg.Recommend.TopN)
	}
	if cfg.Recommend.ItemDelay != 100*time.Millisecond {
		t.Errorf("ItemDelay = %v, want 100ms", cfg.Recommend.ItemDelay)
	}
	if cfg.Tracker.ItemDelay != time.Second {
		t.Errorf("Tracker.ItemDelay = %v, want 1s", cfg.Tracker.ItemDelay)
	}
	if len(cfg.Lists) != 1 || cfg.Lists[0].Label != "Criterion" {
		t.Errorf("Lists = %+v, want one Criterion list", cfg.Lists)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{
			name:      "Missing API key",
			cfg:       Config{Streaming: StreamingConfig{Region: "US"}},
			wantField: "TMDB API key",
		},
		{
			name:      "Missing region",
			cfg:       Config{TMDB: TMDBConfig{APIKey: "k"}},
			wantField: "streaming region",
		},
		{
			name:      "Region too long",
			cfg:       Config{TMDB: TMDBConfig{APIKey: "k"}, Streaming: StreamingConfig{Region: "USA"}},
			wantField: "streaming region",
		},
		{
			name: "Valid",
			cfg:  Config{TMDB: TMDBConfig{APIKey: "k"}, Streaming: StreamingConfig{Region: "us"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("ConfigError.Field = %s, want %s", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestValidateSubscriptions(t *testing.T) {
	cfg := Config{Streaming: StreamingConfig{Services: " , "}}
	if err := cfg.ValidateSubscriptions(); err == nil {
		t.Error("Expected error for empty service list")
	}

	cfg.Streaming.Services = "Netflix"
	if err := cfg.ValidateSubscriptions(); err != nil {
		t.Errorf("ValidateSubscriptions() error = %v", err)
	}
}

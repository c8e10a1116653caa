package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if !cfg.Cache.Enabled {
		t.Error("Expected cache enabled by default")
	}
	if cfg.API.RetryCount != 3 {
		t.Errorf("RetryCount = %d, want 3", cfg.API.RetryCount)
	}
	if len(cfg.Categories) == 0 || cfg.Categories[0].Endpoint != HotCategory {
		t.Errorf("Expected Hot as first default category, got %v", cfg.Categories)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:     "missing base url",
			mutate:   func(c *Config) { c.API.BaseURL = "" },
			errorMsg: "base url is required",
		},
		{
			name: "url builder replaces base url",
			mutate: func(c *Config) {
				c.API.BaseURL = ""
				c.URLBuilder = func(string) string { return "http://x" }
			},
		},
		{
			name:     "zero timeout",
			mutate:   func(c *Config) { c.API.Timeout = 0 },
			errorMsg: "timeout must be positive",
		},
		{
			name:     "negative retries",
			mutate:   func(c *Config) { c.API.RetryCount = -1 },
			errorMsg: "retry_count must be >= 0",
		},
		{
			name:     "zero cache size",
			mutate:   func(c *Config) { c.Cache.MaxSize = 0 },
			errorMsg: "max_size must be >= 1",
		},
		{
			name:     "category without endpoint",
			mutate:   func(c *Config) { c.Categories = append(c.Categories, Category{Name: "Broken"}) },
			errorMsg: "has no endpoint",
		},
		{
			name:   "empty category list",
			mutate: func(c *Config) { c.Categories = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.errorMsg)
			}
		})
	}
}

func TestParseCategories(t *testing.T) {
	cats, err := ParseCategories("Hot=Hot, Shoes=shoes ,Beauty,,Home & Kitchen=home")
	if err != nil {
		t.Fatalf("ParseCategories() error = %v", err)
	}

	want := []Category{
		{Name: "Hot", Endpoint: "Hot"},
		{Name: "Shoes", Endpoint: "shoes"},
		{Name: "Beauty", Endpoint: "Beauty"},
		{Name: "Home & Kitchen", Endpoint: "home"},
	}
	if len(cats) != len(want) {
		t.Fatalf("got %v, want %v", cats, want)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Errorf("category %d = %+v, want %+v", i, cats[i], want[i])
		}
	}

	if _, err := ParseCategories("Shoes="); err == nil {
		t.Error("Expected error for empty endpoint")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("FEED_BASE_URL", "https://feeds.example.com/api/")
	t.Setenv("FEED_TIMEOUT", "500")
	t.Setenv("FEED_RETRY_COUNT", "2")
	t.Setenv("FEED_RETRY_DELAY", "100ms")
	t.Setenv("FEED_CACHE_ENABLED", "false")
	t.Setenv("FEED_CACHE_EXPIRY", "2m")
	t.Setenv("FEED_CACHE_MAX_SIZE", "7")
	t.Setenv("FEED_CATEGORIES", "Hot=Hot,Shoes=Shoes")
	t.Setenv("FEED_MSG_TIMEOUT", "too slow")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if cfg.API.BaseURL != "https://feeds.example.com/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 500*time.Millisecond {
		t.Errorf("Timeout = %v, want 500ms", cfg.API.Timeout)
	}
	if cfg.API.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", cfg.API.RetryCount)
	}
	if cfg.API.RetryDelay != 100*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 100ms", cfg.API.RetryDelay)
	}
	if cfg.Cache.Enabled {
		t.Error("Expected cache disabled")
	}
	if cfg.Cache.ExpiryTime != 2*time.Minute {
		t.Errorf("ExpiryTime = %v, want 2m", cfg.Cache.ExpiryTime)
	}
	if cfg.Cache.MaxSize != 7 {
		t.Errorf("MaxSize = %d, want 7", cfg.Cache.MaxSize)
	}
	if len(cfg.Categories) != 2 || cfg.Categories[1].Endpoint != "Shoes" {
		t.Errorf("Categories = %v", cfg.Categories)
	}
	if cfg.ErrorMessages.Timeout != "too slow" {
		t.Errorf("Timeout message = %q", cfg.ErrorMessages.Timeout)
	}
	if cfg.ErrorMessages.Loading != Default().ErrorMessages.Loading {
		t.Error("Unset message should keep its default")
	}
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"FEED_TIMEOUT", "soon"},
		{"FEED_RETRY_COUNT", "many"},
		{"FEED_CACHE_ENABLED", "maybe"},
		{"FEED_CACHE_MAX_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "FEED_RETRY_COUNT=5\nFEED_CACHE_MAX_SIZE=9\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("FEED_RETRY_COUNT")
		os.Unsetenv("FEED_CACHE_MAX_SIZE")
	})

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.RetryCount != 5 {
		t.Errorf("RetryCount = %d, want 5", cfg.API.RetryCount)
	}
	if cfg.Cache.MaxSize != 9 {
		t.Errorf("MaxSize = %d, want 9", cfg.Cache.MaxSize)
	}
}

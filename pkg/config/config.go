// Package config holds the static configuration of the product feed client:
// upstream timeouts and retries, cache limits, the category set and the
// user-facing error messages.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// HotCategory is the synthetic category aggregated from all others.
const HotCategory = "Hot"

// Config is the full client configuration.
type Config struct {
	API           API
	Cache         Cache
	Categories    []Category
	ErrorMessages ErrorMessages

	// URLBuilder overrides how a category becomes an upstream URL.
	// When nil the URL is API.BaseURL + "/" + the percent-encoded category.
	URLBuilder func(category string) string
}

// API configures upstream requests.
type API struct {
	BaseURL    string
	Timeout    time.Duration // Per attempt
	RetryCount int
	RetryDelay time.Duration // Multiplied by attempt index
}

// Cache configures the category cache.
type Cache struct {
	Enabled    bool
	ExpiryTime time.Duration
	MaxSize    int

	// RedisURL selects the shared Redis store when set (redis://host:port/db)
	RedisURL  string
	KeyPrefix string
}

// Category is a named upstream feed.
type Category struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

// ErrorMessages are the display strings for classified errors.
type ErrorMessages struct {
	Timeout string
	Network string
	Loading string
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		API: API{
			BaseURL:    "http://localhost:3000/api/products",
			Timeout:    10 * time.Second,
			RetryCount: 3,
			RetryDelay: 1 * time.Second,
		},
		Cache: Cache{
			Enabled:    true,
			ExpiryTime: 5 * time.Minute,
			MaxSize:    50,
			KeyPrefix:  "feed:cache:",
		},
		Categories: []Category{
			{Name: "Hot", Endpoint: HotCategory},
			{Name: "Electronics", Endpoint: "Electronics"},
			{Name: "Fashion", Endpoint: "Fashion"},
			{Name: "Shoes", Endpoint: "Shoes"},
			{Name: "Home & Kitchen", Endpoint: "Home & Kitchen"},
			{Name: "Beauty", Endpoint: "Beauty"},
		},
		ErrorMessages: ErrorMessages{
			Timeout: "The request timed out. Please try again.",
			Network: "Network error. Please check your connection and try again.",
			Loading: "Failed to load products. Please try again later.",
		},
	}
}

// Validate checks the configuration for values the client cannot work with.
func (c Config) Validate() error {
	if c.URLBuilder == nil && c.API.BaseURL == "" {
		return fmt.Errorf("base url is required when no url builder is set")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive (got %s)", c.API.Timeout)
	}
	if c.API.RetryCount < 0 {
		return fmt.Errorf("api retry_count must be >= 0 (got %d)", c.API.RetryCount)
	}
	if c.API.RetryDelay < 0 {
		return fmt.Errorf("api retry_delay must be >= 0 (got %s)", c.API.RetryDelay)
	}
	if c.Cache.MaxSize < 1 {
		return fmt.Errorf("cache max_size must be >= 1 (got %d)", c.Cache.MaxSize)
	}
	if c.Cache.ExpiryTime < 0 {
		return fmt.Errorf("cache expiry_time must be >= 0 (got %s)", c.Cache.ExpiryTime)
	}
	for i, cat := range c.Categories {
		if cat.Endpoint == "" {
			return fmt.Errorf("category %d (%q) has no endpoint", i, cat.Name)
		}
	}
	return nil
}

// Load reads .env style files into the environment, then builds the config
// with FromEnv. Missing files are ignored; variables already set in the
// environment win over file values.
func Load(files ...string) (Config, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat %s: %w", f, err)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return Config{}, fmt.Errorf("load env files: %w", err)
		}
	}
	return FromEnv()
}

// FromEnv builds the config from Default overridden by FEED_* variables.
func FromEnv() (Config, error) {
	cfg := Default()
	var err error

	if v := os.Getenv("FEED_BASE_URL"); v != "" {
		cfg.API.BaseURL = strings.TrimRight(v, "/")
	}
	if cfg.API.Timeout, err = durationEnv("FEED_TIMEOUT", cfg.API.Timeout); err != nil {
		return Config{}, err
	}
	if cfg.API.RetryCount, err = intEnv("FEED_RETRY_COUNT", cfg.API.RetryCount); err != nil {
		return Config{}, err
	}
	if cfg.API.RetryDelay, err = durationEnv("FEED_RETRY_DELAY", cfg.API.RetryDelay); err != nil {
		return Config{}, err
	}
	if cfg.Cache.Enabled, err = boolEnv("FEED_CACHE_ENABLED", cfg.Cache.Enabled); err != nil {
		return Config{}, err
	}
	if cfg.Cache.ExpiryTime, err = durationEnv("FEED_CACHE_EXPIRY", cfg.Cache.ExpiryTime); err != nil {
		return Config{}, err
	}
	if cfg.Cache.MaxSize, err = intEnv("FEED_CACHE_MAX_SIZE", cfg.Cache.MaxSize); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("FEED_REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv("FEED_CACHE_KEY_PREFIX"); v != "" {
		cfg.Cache.KeyPrefix = v
	}
	if v := os.Getenv("FEED_CATEGORIES"); v != "" {
		cats, err := ParseCategories(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Categories = cats
	}
	if v := os.Getenv("FEED_MSG_TIMEOUT"); v != "" {
		cfg.ErrorMessages.Timeout = v
	}
	if v := os.Getenv("FEED_MSG_NETWORK"); v != "" {
		cfg.ErrorMessages.Network = v
	}
	if v := os.Getenv("FEED_MSG_LOADING"); v != "" {
		cfg.ErrorMessages.Loading = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseCategories parses "Name=endpoint,Name2=endpoint2". An entry without
// "=" uses the same string for name and endpoint. Order is preserved.
func ParseCategories(s string) ([]Category, error) {
	var cats []Category
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, endpoint, found := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !found {
			endpoint = name
		}
		endpoint = strings.TrimSpace(endpoint)
		if name == "" || endpoint == "" {
			return nil, fmt.Errorf("invalid category %q", part)
		}
		cats = append(cats, Category{Name: name, Endpoint: endpoint})
	}
	return cats, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	// Bare integers are milliseconds
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvEmbeddingsBaseURL   = "PRFAQ_EMBEDDINGS_BASE_URL"
	EnvEmbeddingsModel     = "PRFAQ_EMBEDDINGS_MODEL"
	EnvEmbeddingsAPIKey    = "PRFAQ_EMBEDDINGS_API_KEY"
	EnvEmbeddingsDimension = "PRFAQ_EMBEDDINGS_DIMENSION"
	EnvEmbeddingsTimeout   = "PRFAQ_EMBEDDINGS_TIMEOUT"
	EnvEmbeddingsCacheTTL  = "PRFAQ_EMBEDDINGS_CACHE_TTL"
)

// EmbeddingsConfig points at an OpenAI-compatible /embeddings endpoint.
type EmbeddingsConfig struct {
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	APIKey    string `toml:"api_key"`
	Dimension int    `toml:"dimension"`
	Timeout   string `toml:"timeout"`
	CacheTTL  string `toml:"cache_ttl"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *EmbeddingsConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c *EmbeddingsConfig) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EmbeddingsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EmbeddingsConfig) Merge(overlay *EmbeddingsConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Dimension != 0 {
		c.Dimension = overlay.Dimension
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
}

func (c *EmbeddingsConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434/v1"
	}
	if c.Model == "" {
		c.Model = "nomic-embed-text"
	}
	if c.Dimension == 0 {
		c.Dimension = 768
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "1h"
	}
}

func (c *EmbeddingsConfig) loadEnv() {
	if v := os.Getenv(EnvEmbeddingsBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvEmbeddingsModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvEmbeddingsAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvEmbeddingsDimension); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Dimension = n
		}
	}
	if v := os.Getenv(EnvEmbeddingsTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvEmbeddingsCacheTTL); v != "" {
		c.CacheTTL = v
	}
}

func (c *EmbeddingsConfig) validate() error {
	if c.Dimension < 1 {
		return fmt.Errorf("dimension must be positive: %d", c.Dimension)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}
	return nil
}

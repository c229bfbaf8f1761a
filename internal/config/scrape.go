package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvScrapeURL     = "PRFAQ_SCRAPE_URL"
	EnvScrapeTimeout = "PRFAQ_SCRAPE_TIMEOUT"
)

// ScrapeConfig points at the page scrape API.
type ScrapeConfig struct {
	URL     string `toml:"url"`
	Timeout string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ScrapeConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ScrapeConfig) Finalize() error {
	if c.URL == "" {
		c.URL = "http://localhost:8090/api/v1/tools/web-scrape"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}

	if v := os.Getenv(EnvScrapeURL); v != "" {
		c.URL = v
	}
	if v := os.Getenv(EnvScrapeTimeout); v != "" {
		c.Timeout = v
	}

	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *ScrapeConfig) Merge(overlay *ScrapeConfig) {
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvSearchBaseURL         = "PRFAQ_SEARCH_BASE_URL"
	EnvSearchAPIKey          = "PRFAQ_SEARCH_API_KEY"
	EnvSearchCountry         = "PRFAQ_SEARCH_COUNTRY"
	EnvSearchTrustedDomains  = "PRFAQ_SEARCH_TRUSTED_DOMAINS"
	EnvSearchTrustedPerQuery = "PRFAQ_SEARCH_TRUSTED_PER_QUERY"
	EnvSearchRatePerSecond   = "PRFAQ_SEARCH_RATE_PER_SECOND"
	EnvSearchMaxRetries      = "PRFAQ_SEARCH_MAX_RETRIES"
	EnvSearchTimeout         = "PRFAQ_SEARCH_TIMEOUT"
)

// SearchConfig configures the Brave web search connector.
type SearchConfig struct {
	BaseURL         string   `toml:"base_url"`
	APIKey          string   `toml:"api_key"`
	Country         string   `toml:"country"`
	TrustedDomains  []string `toml:"trusted_domains"`
	TrustedPerQuery int      `toml:"trusted_per_query"`
	RatePerSecond   float64  `toml:"rate_per_second"`
	MaxRetries      int      `toml:"max_retries"`
	Timeout         string   `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *SearchConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SearchConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SearchConfig) Merge(overlay *SearchConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Country != "" {
		c.Country = overlay.Country
	}
	if overlay.TrustedDomains != nil {
		c.TrustedDomains = overlay.TrustedDomains
	}
	if overlay.TrustedPerQuery != 0 {
		c.TrustedPerQuery = overlay.TrustedPerQuery
	}
	if overlay.RatePerSecond != 0 {
		c.RatePerSecond = overlay.RatePerSecond
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *SearchConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.search.brave.com"
	}
	if c.TrustedPerQuery == 0 {
		c.TrustedPerQuery = 3
	}
	if c.RatePerSecond == 0 {
		c.RatePerSecond = 1
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
}

func (c *SearchConfig) loadEnv() {
	if v := os.Getenv(EnvSearchBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvSearchAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvSearchCountry); v != "" {
		c.Country = v
	}
	if v := os.Getenv(EnvSearchTrustedDomains); v != "" {
		domains := strings.Split(v, ",")
		c.TrustedDomains = make([]string, 0, len(domains))
		for _, d := range domains {
			if trimmed := strings.TrimSpace(d); trimmed != "" {
				c.TrustedDomains = append(c.TrustedDomains, trimmed)
			}
		}
	}
	if v := os.Getenv(EnvSearchTrustedPerQuery); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TrustedPerQuery = n
		}
	}
	if v := os.Getenv(EnvSearchRatePerSecond); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv(EnvSearchMaxRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv(EnvSearchTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *SearchConfig) validate() error {
	if c.RatePerSecond <= 0 {
		return fmt.Errorf("rate_per_second must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

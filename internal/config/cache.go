package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

const (
	EnvCacheBackend       = "PRFAQ_CACHE_BACKEND"
	EnvCacheTTL           = "PRFAQ_CACHE_TTL"
	EnvCacheRedisAddr     = "PRFAQ_CACHE_REDIS_ADDR"
	EnvCacheRedisPassword = "PRFAQ_CACHE_REDIS_PASSWORD"
	EnvCacheRedisDB       = "PRFAQ_CACHE_REDIS_DB"
	EnvCachePrefix        = "PRFAQ_CACHE_PREFIX"
)

// CacheConfig selects where connector results are memoized.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	TTL           string `toml:"ttl"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// TTLDuration returns TTL as a time.Duration.
func (c *CacheConfig) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *CacheConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *CacheConfig) Merge(overlay *CacheConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
	if overlay.RedisAddr != "" {
		c.RedisAddr = overlay.RedisAddr
	}
	if overlay.RedisPassword != "" {
		c.RedisPassword = overlay.RedisPassword
	}
	if overlay.RedisDB != 0 {
		c.RedisDB = overlay.RedisDB
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
}

func (c *CacheConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = CacheMemory
	}
	if c.TTL == "" {
		c.TTL = "30m"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.Prefix == "" {
		c.Prefix = "prfaq:"
	}
}

func (c *CacheConfig) loadEnv() {
	if v := os.Getenv(EnvCacheBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		c.TTL = v
	}
	if v := os.Getenv(EnvCacheRedisAddr); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv(EnvCacheRedisPassword); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv(EnvCacheRedisDB); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv(EnvCachePrefix); v != "" {
		c.Prefix = v
	}
}

func (c *CacheConfig) validate() error {
	switch c.Backend {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := time.ParseDuration(c.TTL); err != nil {
		return fmt.Errorf("invalid ttl: %w", err)
	}
	return nil
}

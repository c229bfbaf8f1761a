package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/prfaq/pkg/database"
	"github.com/JaimeStill/prfaq/pkg/openapi"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvPrfaqEnv             = "PRFAQ_ENV"
	EnvPrfaqConfig          = "PRFAQ_CONFIG"
	EnvPrfaqShutdownTimeout = "PRFAQ_SHUTDOWN_TIMEOUT"
	EnvPrfaqVersion         = "PRFAQ_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "PRFAQ_DB_URL",
	Host:            "PRFAQ_DB_HOST",
	Port:            "PRFAQ_DB_PORT",
	Name:            "PRFAQ_DB_NAME",
	User:            "PRFAQ_DB_USER",
	Password:        "PRFAQ_DB_PASSWORD",
	SSLMode:         "PRFAQ_DB_SSL_MODE",
	MaxOpenConns:    "PRFAQ_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PRFAQ_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PRFAQ_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PRFAQ_DB_CONN_TIMEOUT",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "PRFAQ_OPENAPI_TITLE",
	Description: "PRFAQ_OPENAPI_DESCRIPTION",
	Servers:     "PRFAQ_OPENAPI_SERVERS",
}

// Config is the root configuration for the PR/FAQ service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	API             APIConfig        `toml:"api"`
	Agent           AgentConfig      `toml:"agent"`
	Workflow        WorkflowConfig   `toml:"workflow"`
	Prompts         PromptsConfig    `toml:"prompts"`
	Knowledge       KnowledgeConfig  `toml:"knowledge"`
	Database        database.Config  `toml:"database"`
	Embeddings      EmbeddingsConfig `toml:"embeddings"`
	Search          SearchConfig     `toml:"search"`
	Scrape          ScrapeConfig     `toml:"scrape"`
	Cache           CacheConfig      `toml:"cache"`
	Logging         LoggingConfig    `toml:"logging"`
	OpenAPI         openapi.Config   `toml:"openapi"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the PRFAQ_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvPrfaqEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// DatabaseURL finalizes the database section regardless of the knowledge
// backend and returns its connection URL.
func (c *Config) DatabaseURL() (string, error) {
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return "", fmt.Errorf("database: %w", err)
	}
	return c.Database.ConnectionURL(), nil
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration. PRFAQ_CONFIG replaces the base file path.
func Load() (*Config, error) {
	cfg := &Config{}

	base := BaseConfigFile
	if v := os.Getenv(EnvPrfaqConfig); v != "" {
		base = v
	}

	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.Agent.Merge(&overlay.Agent)
	c.Workflow.Merge(&overlay.Workflow)
	c.Prompts.Merge(&overlay.Prompts)
	c.Knowledge.Merge(&overlay.Knowledge)
	c.Database.Merge(&overlay.Database)
	c.Embeddings.Merge(&overlay.Embeddings)
	c.Search.Merge(&overlay.Search)
	c.Scrape.Merge(&overlay.Scrape)
	c.Cache.Merge(&overlay.Cache)
	c.Logging.Merge(&overlay.Logging)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Agent.Finalize(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Workflow.Finalize(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if err := c.Prompts.Finalize(); err != nil {
		return fmt.Errorf("prompts: %w", err)
	}
	if err := c.Knowledge.Finalize(); err != nil {
		return fmt.Errorf("knowledge: %w", err)
	}
	// The database is only required by the pgvector knowledge backend.
	if c.Knowledge.Backend == KnowledgePgvector {
		c.Database.RequireExtension("vector")
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := c.Embeddings.Finalize(); err != nil {
		return fmt.Errorf("embeddings: %w", err)
	}
	if err := c.Search.Finalize(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := c.Scrape.Finalize(); err != nil {
		return fmt.Errorf("scrape: %w", err)
	}
	if err := c.Cache.Finalize(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvPrfaqShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvPrfaqVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	if err := c.Server.checkWriteTimeout(c.Workflow.RunTimeoutDuration()); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvPrfaqEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

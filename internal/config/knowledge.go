package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Knowledge backends.
const (
	KnowledgeQdrant   = "qdrant"
	KnowledgePgvector = "pgvector"
	KnowledgeNone     = "none"
)

const (
	EnvKnowledgeBackend    = "PRFAQ_KNOWLEDGE_BACKEND"
	EnvKnowledgeURL        = "PRFAQ_KNOWLEDGE_URL"
	EnvKnowledgeCollection = "PRFAQ_KNOWLEDGE_COLLECTION"
	EnvKnowledgeAPIKey     = "PRFAQ_KNOWLEDGE_API_KEY"
	EnvKnowledgeTable      = "PRFAQ_KNOWLEDGE_TABLE"
	EnvKnowledgeTimeout    = "PRFAQ_KNOWLEDGE_TIMEOUT"
	EnvKnowledgeChunkSize  = "PRFAQ_KNOWLEDGE_CHUNK_SIZE"
	EnvKnowledgeOverlap    = "PRFAQ_KNOWLEDGE_CHUNK_OVERLAP"
)

// KnowledgeConfig selects and configures the vector knowledge base.
// URL, Collection, and APIKey apply to qdrant; Table applies to pgvector.
// ChunkSize and ChunkOverlap, in characters, control document ingestion.
type KnowledgeConfig struct {
	Backend      string `toml:"backend"`
	URL          string `toml:"url"`
	Collection   string `toml:"collection"`
	APIKey       string `toml:"api_key"`
	Table        string `toml:"table"`
	Timeout      string `toml:"timeout"`
	ChunkSize    int    `toml:"chunk_size"`
	ChunkOverlap int    `toml:"chunk_overlap"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *KnowledgeConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *KnowledgeConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *KnowledgeConfig) Merge(overlay *KnowledgeConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Collection != "" {
		c.Collection = overlay.Collection
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Table != "" {
		c.Table = overlay.Table
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.ChunkSize != 0 {
		c.ChunkSize = overlay.ChunkSize
	}
	if overlay.ChunkOverlap != 0 {
		c.ChunkOverlap = overlay.ChunkOverlap
	}
}

func (c *KnowledgeConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = KnowledgeQdrant
	}
	if c.URL == "" {
		c.URL = "http://localhost:6333"
	}
	if c.Collection == "" {
		c.Collection = "knowledge"
	}
	if c.Table == "" {
		c.Table = "kb_chunks"
	}
	if c.Timeout == "" {
		c.Timeout = "15s"
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 2000
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 200
	}
}

func (c *KnowledgeConfig) loadEnv() {
	if v := os.Getenv(EnvKnowledgeBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvKnowledgeURL); v != "" {
		c.URL = v
	}
	if v := os.Getenv(EnvKnowledgeCollection); v != "" {
		c.Collection = v
	}
	if v := os.Getenv(EnvKnowledgeAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvKnowledgeTable); v != "" {
		c.Table = v
	}
	if v := os.Getenv(EnvKnowledgeTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvKnowledgeChunkSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ChunkSize = n
		}
	}
	if v := os.Getenv(EnvKnowledgeOverlap); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ChunkOverlap = n
		}
	}
}

func (c *KnowledgeConfig) validate() error {
	switch c.Backend {
	case KnowledgeQdrant, KnowledgePgvector, KnowledgeNone:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size)")
	}
	return nil
}

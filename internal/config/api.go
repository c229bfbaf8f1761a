package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/prfaq/pkg/formatting"
	"github.com/JaimeStill/prfaq/pkg/middleware"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "PRFAQ_CORS_ENABLED",
	Origins:          "PRFAQ_CORS_ORIGINS",
	AllowedMethods:   "PRFAQ_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "PRFAQ_CORS_ALLOWED_HEADERS",
	AllowCredentials: "PRFAQ_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "PRFAQ_CORS_MAX_AGE",
}

// APIConfig holds API routing, CORS, and request limits.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	MaxLinks      int                   `toml:"max_links"`
	MaxFiles      int                   `toml:"max_files"`
	MaxPDFPages   int                   `toml:"max_pdf_pages"`
	CORS          middleware.CORSConfig `toml:"cors"`
}

func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 25 * 1024 * 1024 // 25MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS config.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.MaxLinks != 0 {
		c.MaxLinks = overlay.MaxLinks
	}
	if overlay.MaxFiles != 0 {
		c.MaxFiles = overlay.MaxFiles
	}
	if overlay.MaxPDFPages != 0 {
		c.MaxPDFPages = overlay.MaxPDFPages
	}

	c.CORS.Merge(&overlay.CORS)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "25MB"
	}
	if c.MaxLinks == 0 {
		c.MaxLinks = 5
	}
	if c.MaxFiles == 0 {
		c.MaxFiles = 5
	}
	if c.MaxPDFPages == 0 {
		c.MaxPDFPages = 200
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("PRFAQ_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("PRFAQ_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv("PRFAQ_API_MAX_LINKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxLinks = n
		}
	}
	if v := os.Getenv("PRFAQ_API_MAX_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxFiles = n
		}
	}
	if v := os.Getenv("PRFAQ_API_MAX_PDF_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxPDFPages = n
		}
	}
}

func (c *APIConfig) validate() error {
	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if c.MaxLinks < 0 {
		return fmt.Errorf("max_links must be non-negative")
	}
	if c.MaxFiles < 0 {
		return fmt.Errorf("max_files must be non-negative")
	}
	return nil
}

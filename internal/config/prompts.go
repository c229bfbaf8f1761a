package config

import (
	"os"
	"strings"
)

const (
	EnvPromptsCompany    = "PRFAQ_PROMPTS_COMPANY"
	EnvPromptsAbout      = "PRFAQ_PROMPTS_ABOUT"
	EnvPromptsGuidelines = "PRFAQ_PROMPTS_GUIDELINES"
)

// PromptsConfig carries the company context and per-stage instruction
// overrides. Override keys are stage names; they are validated when the
// prompt system is created.
type PromptsConfig struct {
	Company    string            `toml:"company"`
	About      string            `toml:"about"`
	Guidelines string            `toml:"guidelines"`
	Overrides  map[string]string `toml:"overrides"`
}

// Finalize applies environment variable overrides.
func (c *PromptsConfig) Finalize() error {
	if v := os.Getenv(EnvPromptsCompany); v != "" {
		c.Company = v
	}
	if v := os.Getenv(EnvPromptsAbout); v != "" {
		c.About = v
	}
	if v := os.Getenv(EnvPromptsGuidelines); v != "" {
		c.Guidelines = v
	}
	c.Company = strings.TrimSpace(c.Company)
	return nil
}

// Merge overwrites non-zero fields from overlay. Overrides merge per stage.
func (c *PromptsConfig) Merge(overlay *PromptsConfig) {
	if overlay.Company != "" {
		c.Company = overlay.Company
	}
	if overlay.About != "" {
		c.About = overlay.About
	}
	if overlay.Guidelines != "" {
		c.Guidelines = overlay.Guidelines
	}
	if len(overlay.Overrides) > 0 && c.Overrides == nil {
		c.Overrides = make(map[string]string, len(overlay.Overrides))
	}
	for k, v := range overlay.Overrides {
		c.Overrides[k] = v
	}
}

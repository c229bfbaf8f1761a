package config

import (
	"fmt"
	"os"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "PRFAQ_AGENT_NAME"
	EnvAgentProviderName = "PRFAQ_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "PRFAQ_AGENT_BASE_URL"
	EnvAgentToken        = "PRFAQ_AGENT_TOKEN"
	EnvAgentDeployment   = "PRFAQ_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "PRFAQ_AGENT_API_VERSION"
	EnvAgentAuthType     = "PRFAQ_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "PRFAQ_AGENT_MODEL_NAME"
	EnvAgentTimeout      = "PRFAQ_AGENT_TIMEOUT"
)

// AgentConfig is the TOML surface for the LLM agent. It is translated into
// a go-agents AgentConfig by AgentConfig().
type AgentConfig struct {
	Name       string `toml:"name"`
	Provider   string `toml:"provider"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Token      string `toml:"token"`
	Deployment string `toml:"deployment"`
	APIVersion string `toml:"api_version"`
	AuthType   string `toml:"auth_type"`
	Timeout    string `toml:"timeout"`
}

// TimeoutDuration bounds a single chat call.
func (c *AgentConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AgentConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AgentConfig) Merge(overlay *AgentConfig) {
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Deployment != "" {
		c.Deployment = overlay.Deployment
	}
	if overlay.APIVersion != "" {
		c.APIVersion = overlay.APIVersion
	}
	if overlay.AuthType != "" {
		c.AuthType = overlay.AuthType
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

// AgentConfig layers these settings over go-agents DefaultAgentConfig and
// returns the result ready for agent.New.
func (c *AgentConfig) AgentConfig() gaconfig.AgentConfig {
	cfg := gaconfig.DefaultAgentConfig()
	cfg.Name = c.Name

	if cfg.Provider == nil {
		cfg.Provider = &gaconfig.ProviderConfig{}
	}
	if cfg.Provider.Options == nil {
		cfg.Provider.Options = make(map[string]any)
	}
	if cfg.Model == nil {
		cfg.Model = &gaconfig.ModelConfig{}
	}

	cfg.Provider.Name = c.Provider
	cfg.Provider.BaseURL = c.BaseURL
	cfg.Model.Name = c.Model

	setOption := func(key, value string) {
		if value != "" {
			cfg.Provider.Options[key] = value
		}
	}

	setOption("token", c.Token)
	setOption("deployment", c.Deployment)
	setOption("api_version", c.APIVersion)
	setOption("auth_type", c.AuthType)

	return cfg
}

func (c *AgentConfig) loadDefaults() {
	if c.Name == "" {
		c.Name = "prfaq-agent"
	}
	if c.Provider == "" {
		c.Provider = "ollama"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = "llama3.1:8b"
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
}

func (c *AgentConfig) loadEnv() {
	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvAgentToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvAgentDeployment); v != "" {
		c.Deployment = v
	}
	if v := os.Getenv(EnvAgentAPIVersion); v != "" {
		c.APIVersion = v
	}
	if v := os.Getenv(EnvAgentAuthType); v != "" {
		c.AuthType = v
	}
	if v := os.Getenv(EnvAgentTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *AgentConfig) validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider name required")
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

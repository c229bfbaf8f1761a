package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvWorkflowWorkers              = "PRFAQ_WORKFLOW_WORKERS"
	EnvWorkflowKBTopK               = "PRFAQ_WORKFLOW_KB_TOP_K"
	EnvWorkflowQuestionKBTopK       = "PRFAQ_WORKFLOW_QUESTION_KB_TOP_K"
	EnvWorkflowQuestionWebTopK      = "PRFAQ_WORKFLOW_QUESTION_WEB_TOP_K"
	EnvWorkflowCompetitorTopK       = "PRFAQ_WORKFLOW_COMPETITOR_TOP_K"
	EnvWorkflowModifyWebTopK        = "PRFAQ_WORKFLOW_MODIFY_WEB_TOP_K"
	EnvWorkflowStreamBuffer         = "PRFAQ_WORKFLOW_STREAM_BUFFER"
	EnvWorkflowContinueOnDisconnect = "PRFAQ_WORKFLOW_CONTINUE_ON_DISCONNECT"
	EnvWorkflowRunTimeout           = "PRFAQ_WORKFLOW_RUN_TIMEOUT"
)

// WorkflowConfig tunes the generation pipeline.
type WorkflowConfig struct {
	// Workers bounds the process-wide question resolver pool.
	Workers              int    `toml:"workers"`
	KBTopK               int    `toml:"kb_top_k"`
	QuestionKBTopK       int    `toml:"question_kb_top_k"`
	QuestionWebTopK      int    `toml:"question_web_top_k"`
	CompetitorTopK       int    `toml:"competitor_top_k"`
	ModifyWebTopK        int    `toml:"modify_web_top_k"`
	StreamBuffer         int    `toml:"stream_buffer"`
	ContinueOnDisconnect bool   `toml:"continue_on_disconnect"`
	RunTimeout           string `toml:"run_timeout"`
}

// RunTimeoutDuration returns RunTimeout as a time.Duration.
func (c *WorkflowConfig) RunTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RunTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkflowConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. ContinueOnDisconnect
// always applies, matching the boolean handling of CORSConfig.
func (c *WorkflowConfig) Merge(overlay *WorkflowConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.KBTopK != 0 {
		c.KBTopK = overlay.KBTopK
	}
	if overlay.QuestionKBTopK != 0 {
		c.QuestionKBTopK = overlay.QuestionKBTopK
	}
	if overlay.QuestionWebTopK != 0 {
		c.QuestionWebTopK = overlay.QuestionWebTopK
	}
	if overlay.CompetitorTopK != 0 {
		c.CompetitorTopK = overlay.CompetitorTopK
	}
	if overlay.ModifyWebTopK != 0 {
		c.ModifyWebTopK = overlay.ModifyWebTopK
	}
	if overlay.StreamBuffer != 0 {
		c.StreamBuffer = overlay.StreamBuffer
	}
	if overlay.RunTimeout != "" {
		c.RunTimeout = overlay.RunTimeout
	}
	c.ContinueOnDisconnect = overlay.ContinueOnDisconnect
}

func (c *WorkflowConfig) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 12
	}
	if c.KBTopK == 0 {
		c.KBTopK = 10
	}
	if c.QuestionKBTopK == 0 {
		c.QuestionKBTopK = 3
	}
	if c.QuestionWebTopK == 0 {
		c.QuestionWebTopK = 5
	}
	if c.CompetitorTopK == 0 {
		c.CompetitorTopK = 20
	}
	if c.ModifyWebTopK == 0 {
		c.ModifyWebTopK = 5
	}
	if c.StreamBuffer == 0 {
		c.StreamBuffer = 64
	}
	if c.RunTimeout == "" {
		c.RunTimeout = "15m"
	}
}

func (c *WorkflowConfig) loadEnv() {
	setInt := func(env string, dst *int) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setInt(EnvWorkflowWorkers, &c.Workers)
	setInt(EnvWorkflowKBTopK, &c.KBTopK)
	setInt(EnvWorkflowQuestionKBTopK, &c.QuestionKBTopK)
	setInt(EnvWorkflowQuestionWebTopK, &c.QuestionWebTopK)
	setInt(EnvWorkflowCompetitorTopK, &c.CompetitorTopK)
	setInt(EnvWorkflowModifyWebTopK, &c.ModifyWebTopK)
	setInt(EnvWorkflowStreamBuffer, &c.StreamBuffer)

	if v := os.Getenv(EnvWorkflowContinueOnDisconnect); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ContinueOnDisconnect = b
		}
	}
	if v := os.Getenv(EnvWorkflowRunTimeout); v != "" {
		c.RunTimeout = v
	}
}

func (c *WorkflowConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	if c.StreamBuffer < 1 {
		return fmt.Errorf("stream_buffer must be positive: %d", c.StreamBuffer)
	}
	if c.KBTopK < 1 || c.QuestionKBTopK < 1 || c.QuestionWebTopK < 1 || c.CompetitorTopK < 1 || c.ModifyWebTopK < 1 {
		return fmt.Errorf("top_k values must be positive")
	}
	if _, err := time.ParseDuration(c.RunTimeout); err != nil {
		return fmt.Errorf("invalid run_timeout: %w", err)
	}
	return nil
}

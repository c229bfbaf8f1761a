package workflow

import (
	"log/slog"

	"github.com/JaimeStill/prfaq/internal/config"
	"github.com/JaimeStill/prfaq/internal/connectors"
	"github.com/JaimeStill/prfaq/internal/llm"
	"github.com/JaimeStill/prfaq/internal/metrics"
	"github.com/JaimeStill/prfaq/internal/prompts"
)

// Runtime bundles the dependencies that workflow stages require.
// It is constructed once by higher-level composition code and shared by
// every run; it carries no per-run state.
type Runtime struct {
	Model   llm.Model
	KB      connectors.KnowledgeBase
	Search  connectors.WebSearch
	Scraper connectors.Scraper
	Prompts prompts.System
	Pool    *Pool
	Config  config.WorkflowConfig
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

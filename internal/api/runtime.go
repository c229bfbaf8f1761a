package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/prfaq/internal/config"
	"github.com/JaimeStill/prfaq/internal/connectors"
	"github.com/JaimeStill/prfaq/internal/extract"
	"github.com/JaimeStill/prfaq/internal/infrastructure"
	"github.com/JaimeStill/prfaq/internal/llm"
	"github.com/JaimeStill/prfaq/internal/prompts"
	"github.com/JaimeStill/prfaq/internal/workflow"
)

// Runtime extends Infrastructure with the workflow runtime the API serves.
type Runtime struct {
	*infrastructure.Infrastructure
	Workflow  *workflow.Runtime
	Extractor *extract.Extractor
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	wf, err := NewWorkflowRuntime(cfg, &scoped)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		Infrastructure: &scoped,
		Workflow:       wf,
		Extractor:      extract.New(cfg.API.MaxPDFPages),
	}, nil
}

// NewWorkflowRuntime wires the model, prompts, and cached source connectors
// selected by cfg into a workflow runtime with a process-wide resolver pool.
func NewWorkflowRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*workflow.Runtime, error) {
	model := llm.New(cfg.Agent.AgentConfig(), cfg.Agent.TimeoutDuration())

	ps, err := prompts.New(prompts.Config{
		Company:    cfg.Prompts.Company,
		About:      cfg.Prompts.About,
		Guidelines: cfg.Prompts.Guidelines,
		Overrides:  cfg.Prompts.Overrides,
	}, infra.Logger)
	if err != nil {
		return nil, fmt.Errorf("prompts: %w", err)
	}

	kb, err := newKnowledgeBackend(cfg, infra, newEmbedder(cfg, cfg.Embeddings.CacheTTLDuration()))
	if err != nil {
		return nil, err
	}

	return &workflow.Runtime{
		Model:   model,
		KB:      connectors.CachedKnowledgeBase(kb, infra.Cache),
		Search:  connectors.CachedWebSearch(newWebSearch(cfg, model, infra.Logger), infra.Cache),
		Scraper: connectors.CachedScraper(connectors.NewScrapeAPI(cfg.Scrape.URL, cfg.Scrape.TimeoutDuration()), infra.Cache),
		Prompts: ps,
		Pool:    workflow.NewPool(cfg.Workflow.Workers),
		Config:  cfg.Workflow,
		Metrics: infra.Metrics,
		Logger:  infra.Logger.With("system", "workflow"),
	}, nil
}

// knowledgeBackend is a knowledge base that also accepts ingested chunks.
type knowledgeBackend interface {
	connectors.KnowledgeBase
	connectors.Store
}

func newEmbedder(cfg *config.Config, cacheTTL time.Duration) connectors.Embedder {
	return connectors.NewEmbeddings(connectors.EmbeddingsOptions{
		BaseURL:   cfg.Embeddings.BaseURL,
		Model:     cfg.Embeddings.Model,
		APIKey:    cfg.Embeddings.APIKey,
		Dimension: cfg.Embeddings.Dimension,
		Timeout:   cfg.Embeddings.TimeoutDuration(),
		CacheTTL:  cacheTTL,
	})
}

func newKnowledgeBackend(cfg *config.Config, infra *infrastructure.Infrastructure, embedder connectors.Embedder) (knowledgeBackend, error) {
	switch cfg.Knowledge.Backend {
	case config.KnowledgeQdrant:
		return connectors.NewQdrant(connectors.QdrantOptions{
			URL:        cfg.Knowledge.URL,
			Collection: cfg.Knowledge.Collection,
			APIKey:     cfg.Knowledge.APIKey,
			Timeout:    cfg.Knowledge.TimeoutDuration(),
		}, embedder), nil
	case config.KnowledgePgvector:
		if infra.Database == nil {
			return nil, fmt.Errorf("pgvector knowledge base requires a database")
		}
		return connectors.NewPgvector(infra.Database, cfg.Knowledge.Table, embedder), nil
	default:
		return connectors.Disabled{Name: "knowledge base"}, nil
	}
}

// NewIngester wires the configured knowledge base backend for document
// ingestion. Chunk embeddings are not memoized.
func NewIngester(cfg *config.Config, infra *infrastructure.Infrastructure) (*connectors.Ingester, error) {
	if cfg.Knowledge.Backend == config.KnowledgeNone {
		return nil, fmt.Errorf("knowledge backend %q does not store documents", config.KnowledgeNone)
	}

	embedder := newEmbedder(cfg, 0)
	store, err := newKnowledgeBackend(cfg, infra, embedder)
	if err != nil {
		return nil, err
	}

	return connectors.NewIngester(connectors.IngestOptions{
		ChunkSize:    cfg.Knowledge.ChunkSize,
		ChunkOverlap: cfg.Knowledge.ChunkOverlap,
		Workers:      cfg.Workflow.Workers,
	}, embedder, store), nil
}

// newWebSearch returns Brave search, or a disabled connector when no API
// key is configured. The model picks trusted domains for scoped queries.
func newWebSearch(cfg *config.Config, model llm.Model, logger *slog.Logger) connectors.WebSearch {
	if cfg.Search.APIKey == "" {
		logger.Warn("web search disabled: no api key configured")
		return connectors.Disabled{Name: "web search"}
	}

	return connectors.NewBrave(connectors.BraveOptions{
		BaseURL:         cfg.Search.BaseURL,
		APIKey:          cfg.Search.APIKey,
		Country:         cfg.Search.Country,
		TrustedDomains:  cfg.Search.TrustedDomains,
		TrustedPerQuery: cfg.Search.TrustedPerQuery,
		RatePerSecond:   cfg.Search.RatePerSecond,
		MaxRetries:      cfg.Search.MaxRetries,
		Timeout:         cfg.Search.TimeoutDuration(),
	}, connectors.ModelChooser(model), logger)
}

package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/prfaq/internal/api"
	"github.com/JaimeStill/prfaq/internal/config"
	"github.com/JaimeStill/prfaq/internal/infrastructure"
	"github.com/JaimeStill/prfaq/internal/prfaq"
	"github.com/JaimeStill/prfaq/internal/workflow"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()

	t.Setenv(config.EnvPrfaqConfig, filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv(config.EnvKnowledgeBackend, config.KnowledgeNone)
	t.Setenv(config.EnvCacheBackend, config.CacheMemory)
	t.Setenv(config.EnvSearchAPIKey, "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func setupModule(t *testing.T) http.HandlerFunc {
	t.Helper()

	cfg := loadConfig(t)
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
	return m.Serve
}

func TestNewRuntime(t *testing.T) {
	cfg := loadConfig(t)
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}

	runtime, err := api.NewRuntime(cfg, infra)
	if err != nil {
		t.Fatalf("NewRuntime() error = %v", err)
	}

	wf := runtime.Workflow
	if wf.Model == nil || wf.KB == nil || wf.Search == nil || wf.Scraper == nil || wf.Prompts == nil {
		t.Fatal("workflow runtime has unset dependencies")
	}
	if wf.Pool.Size() != cfg.Workflow.Workers {
		t.Errorf("pool size: got %d, want %d", wf.Pool.Size(), cfg.Workflow.Workers)
	}
	if wf.Metrics != infra.Metrics {
		t.Error("workflow metrics are not the infrastructure metrics")
	}
	if runtime.Extractor.MaxPages != cfg.API.MaxPDFPages {
		t.Errorf("extractor max pages: got %d, want %d", runtime.Extractor.MaxPages, cfg.API.MaxPDFPages)
	}
}

func TestNewRuntimePgvectorRequiresDatabase(t *testing.T) {
	cfg := loadConfig(t)
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}

	cfg.Knowledge.Backend = config.KnowledgePgvector

	if _, err := api.NewRuntime(cfg, infra); err == nil {
		t.Error("expected error for pgvector without a database")
	}
}

func TestNewIngester(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		wantErr bool
	}{
		{"qdrant", config.KnowledgeQdrant, false},
		{"pgvector without database", config.KnowledgePgvector, true},
		{"no backend", config.KnowledgeNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t)
			infra, err := infrastructure.New(cfg)
			if err != nil {
				t.Fatalf("infrastructure.New() error = %v", err)
			}

			cfg.Knowledge.Backend = tt.backend

			ing, err := api.NewIngester(cfg, infra)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewIngester() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && ing == nil {
				t.Error("expected an ingester")
			}
		})
	}
}

func TestModuleRoutes(t *testing.T) {
	serve := setupModule(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"openapi", "GET", "/api/openapi.json", "", http.StatusOK},
		{"prompts", "GET", "/api/prompts", "", http.StatusOK},
		{"prompt stages", "GET", "/api/prompts/stages", "", http.StatusOK},
		{"plan", "POST", "/api/prfaq/plan", `{"topic": "Solar Loans"}`, http.StatusOK},
		{"generate invalid", "POST", "/api/prfaq/generate", `{"topic": "AI"}`, http.StatusBadRequest},
		{"unknown", "GET", "/api/prfaq/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			serve(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestOpenAPISpec(t *testing.T) {
	serve := setupModule(t)

	rec := httptest.NewRecorder()
	serve(rec, httptest.NewRequest("GET", "/api/openapi.json", nil))

	var spec struct {
		Paths      map[string]json.RawMessage `json:"paths"`
		Components struct {
			Schemas map[string]json.RawMessage `json:"schemas"`
		} `json:"components"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&spec); err != nil {
		t.Fatalf("decode spec: %v", err)
	}

	for _, path := range []string{
		"/api/prfaq/generate",
		"/api/prfaq/stream",
		"/api/prfaq/modify",
		"/api/prfaq/plan",
		"/api/prfaq/extract",
		"/api/prompts/{stage}/instructions",
	} {
		if _, ok := spec.Paths[path]; !ok {
			t.Errorf("spec missing path %s", path)
		}
	}

	for _, schema := range []string{"Inputs", "FAQ", "Response", "Prompt", "Error"} {
		if _, ok := spec.Components.Schemas[schema]; !ok {
			t.Errorf("spec missing schema %s", schema)
		}
	}
}

func TestPlanRoute(t *testing.T) {
	serve := setupModule(t)

	body := `{"topic": "Solar Loans", "reference_doc_content": "notes"}`
	rec := httptest.NewRecorder()
	serve(rec, httptest.NewRequest("POST", "/api/prfaq/plan", strings.NewReader(body)))

	var got prfaq.PlanResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !slices.Contains(got.Plan, workflow.StageExtractInfo) {
		t.Errorf("plan %v missing %s", got.Plan, workflow.StageExtractInfo)
	}
}

func TestOpenAPIDocumentsEveryRoute(t *testing.T) {
	cfg := loadConfig(t)
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}

	runtime, err := api.NewRuntime(cfg, infra)
	if err != nil {
		t.Fatalf("NewRuntime() error = %v", err)
	}
	domain := api.NewDomain(cfg, runtime)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/api/openapi.json", nil))

	var spec struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&spec); err != nil {
		t.Fatalf("decode spec: %v", err)
	}

	for _, g := range domain.Groups() {
		for _, pattern := range g.Patterns() {
			method, path, _ := strings.Cut(pattern, " ")
			item, ok := spec.Paths[cfg.API.BasePath+path]
			if !ok {
				t.Errorf("%s: path not documented", pattern)
				continue
			}
			if _, ok := item[strings.ToLower(method)]; !ok {
				t.Errorf("%s: method not documented", pattern)
			}
		}
	}
}

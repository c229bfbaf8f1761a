package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/prfaq/internal/config"
	"github.com/JaimeStill/prfaq/internal/prfaq"
	"github.com/JaimeStill/prfaq/internal/prompts"
	"github.com/JaimeStill/prfaq/pkg/openapi"
	"github.com/JaimeStill/prfaq/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, cfg *config.Config, logger *slog.Logger) error {
	groups := domain.Groups()
	if err := routes.Register(mux, groups...); err != nil {
		return err
	}
	for _, g := range groups {
		logger.Debug("routes registered", "prefix", cfg.API.BasePath+g.Prefix, "patterns", g.Patterns())
	}

	spec, err := buildSpec(cfg)
	if err != nil {
		return err
	}

	serveSpec, err := spec.Handler()
	if err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", serveSpec)

	return nil
}

func buildSpec(cfg *config.Config) (*openapi.Spec, error) {
	spec := openapi.NewSpec(cfg.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.OpenAPI.Description)
	spec.AddServers(cfg.OpenAPI.Servers...)

	spec.Components.AddSchemas(prfaq.Schemas())
	spec.Components.AddSchemas(prompts.Schemas())

	for _, paths := range []map[string]*openapi.PathItem{
		prfaq.Paths(cfg.API.BasePath),
		prompts.Paths(cfg.API.BasePath),
	} {
		if err := spec.AddPaths(paths); err != nil {
			return nil, fmt.Errorf("openapi: %w", err)
		}
	}

	return spec, nil
}

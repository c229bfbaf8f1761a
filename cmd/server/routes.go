package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/prfaq/internal/api"
	"github.com/JaimeStill/prfaq/internal/config"
	"github.com/JaimeStill/prfaq/internal/infrastructure"
	"github.com/JaimeStill/prfaq/pkg/module"
)

// buildRouter mounts the API module and the native health check and metrics routes.
func buildRouter(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Router, error) {
	router := module.NewRouter()

	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}
	if err := router.Mount(apiModule); err != nil {
		return nil, err
	}

	router.HandleNative("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	}))

	router.HandleNative("GET /readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		if infra.Database != nil && !infra.Database.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, "knowledge base unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	}))

	router.HandleNative("GET /metrics", infra.Metrics.Handler())

	return router, nil
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

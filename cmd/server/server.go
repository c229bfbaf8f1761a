package main

import (
	"time"

	"github.com/JaimeStill/prfaq/internal/config"
	"github.com/JaimeStill/prfaq/internal/infrastructure"
)

// Server owns the infrastructure and the HTTP listener for one process.
type Server struct {
	infra *infrastructure.Infrastructure
	http  *httpServer
}

// NewServer builds the infrastructure and the routed HTTP server from cfg.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	router, err := buildRouter(cfg, infra)
	if err != nil {
		return nil, err
	}

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"knowledge", cfg.Knowledge.Backend,
		"cache", cfg.Cache.Backend,
	)

	return &Server{
		infra: infra,
		http:  newHTTPServer(&cfg.Server, cfg.ShutdownTimeoutDuration(), router, infra.Logger),
	}, nil
}

// Start runs the infrastructure startup hooks and begins listening. The
// server reports ready once every startup hook has finished.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown stops accepting runs, drains in-flight ones, and closes every
// subsystem within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}

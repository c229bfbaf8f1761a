package api

import (
	"github.com/JaimeStill/prfaq/internal/config"
	"github.com/JaimeStill/prfaq/internal/prfaq"
	"github.com/JaimeStill/prfaq/internal/prompts"
	"github.com/JaimeStill/prfaq/pkg/routes"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	PRFAQ   prfaq.System
	Prompts prompts.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	prfaqSystem := prfaq.New(
		runtime.Workflow,
		runtime.Extractor,
		prfaq.Config{
			MaxLinks:             cfg.API.MaxLinks,
			MaxFiles:             cfg.API.MaxFiles,
			MaxUploadSize:        cfg.API.MaxUploadSizeBytes(),
			StreamBuffer:         cfg.Workflow.StreamBuffer,
			ContinueOnDisconnect: cfg.Workflow.ContinueOnDisconnect,
			Lifecycle:            runtime.Lifecycle,
		},
		runtime.Logger,
	)

	return &Domain{
		PRFAQ:   prfaqSystem,
		Prompts: runtime.Workflow.Prompts,
	}
}

// Groups returns the route groups of every domain handler.
func (d *Domain) Groups() []routes.Group {
	return []routes.Group{
		d.PRFAQ.Handler().Routes(),
		d.Prompts.Handler().Routes(),
	}
}

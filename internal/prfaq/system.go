// Package prfaq exposes PR/FAQ generation, streaming, modification, plan
// preview, and reference document extraction over HTTP.
package prfaq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/prfaq/internal/extract"
	"github.com/JaimeStill/prfaq/internal/workflow"
	"github.com/JaimeStill/prfaq/pkg/lifecycle"
)

// Config holds request limits and streaming behavior for the domain.
type Config struct {
	MaxLinks      int
	MaxFiles      int
	MaxUploadSize int64
	StreamBuffer  int
	// ContinueOnDisconnect detaches a streamed run from its request so it
	// completes after the client leaves.
	ContinueOnDisconnect bool
	// Lifecycle, when set, tracks streamed runs so shutdown drains them.
	Lifecycle *lifecycle.Coordinator
}

// Upload is one uploaded reference file.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Extraction is the text extracted from a set of uploads.
type Extraction struct {
	Documents           []*extract.Document `json:"documents"`
	ReferenceDocContent string              `json:"reference_doc_content"`
}

// PlanResponse lists the stages a run would execute.
type PlanResponse struct {
	Plan []string `json:"plan"`
}

// System defines the public contract for PR/FAQ operations.
type System interface {
	Handler() *Handler

	Generate(ctx context.Context, in workflow.Inputs, sink workflow.ProgressSink) (*workflow.Result, error)
	Modify(ctx context.Context, in workflow.ModifyInputs, sink workflow.ProgressSink) (*workflow.Result, error)
	Plan(in workflow.Inputs) []string
	Extract(uploads []Upload) (*Extraction, error)
	Validate(in workflow.Inputs) error
}

type system struct {
	rt        *workflow.Runtime
	extractor *extract.Extractor
	cfg       Config
	logger    *slog.Logger
}

// New creates the PR/FAQ system over a workflow runtime.
func New(rt *workflow.Runtime, extractor *extract.Extractor, cfg Config, logger *slog.Logger) System {
	return &system{
		rt:        rt,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger.With("system", "prfaq"),
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger, s.cfg)
}

func (s *system) Validate(in workflow.Inputs) error {
	return in.Validate(s.cfg.MaxLinks)
}

func (s *system) Generate(ctx context.Context, in workflow.Inputs, sink workflow.ProgressSink) (*workflow.Result, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}
	return workflow.Generate(ctx, s.rt, in, sink)
}

func (s *system) Modify(ctx context.Context, in workflow.ModifyInputs, sink workflow.ProgressSink) (*workflow.Result, error) {
	if err := in.Validate(s.cfg.MaxLinks); err != nil {
		return nil, err
	}
	return workflow.Modify(ctx, s.rt, in, sink)
}

func (s *system) Plan(in workflow.Inputs) []string {
	return workflow.Plan(workflow.NewState(in))
}

// Extract pulls text from every upload and combines it into one reference
// document. Any failing file fails the whole request.
func (s *system) Extract(uploads []Upload) (*Extraction, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	if s.cfg.MaxFiles > 0 && len(uploads) > s.cfg.MaxFiles {
		return nil, fmt.Errorf("%w: %d uploaded, at most %d allowed", ErrTooManyFiles, len(uploads), s.cfg.MaxFiles)
	}

	docs := make([]*extract.Document, 0, len(uploads))
	var errs []error

	for _, u := range uploads {
		doc, err := s.extractor.Extract(u.Filename, u.ContentType, u.Data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	s.logger.Info("reference documents extracted", "files", len(docs))

	return &Extraction{
		Documents:           docs,
		ReferenceDocContent: extract.Combine(docs),
	}, nil
}

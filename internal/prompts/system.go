package prompts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// System resolves the effective prompts for workflow stages.
type System interface {
	Handler() *Handler

	List(ctx context.Context) []Prompt
	Instructions(ctx context.Context, stage Stage) (string, error)
	Spec(ctx context.Context, stage Stage) (string, error)
	// Context returns the company context and writing guidelines appended
	// to generation prompts. Empty when none are configured.
	Context() string
}

type system struct {
	overrides map[Stage]string
	context   string
	logger    *slog.Logger
}

// New validates cfg and creates a prompt System.
// Returns ErrInvalidStage if an override names an unknown stage.
func New(cfg Config, logger *slog.Logger) (System, error) {
	overrides := make(map[Stage]string, len(cfg.Overrides))
	for name, text := range cfg.Overrides {
		stage, err := ParseStage(name)
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", name, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			overrides[stage] = text
		}
	}

	return &system{
		overrides: overrides,
		context:   companyContext(cfg),
		logger:    logger.With("system", "prompts"),
	}, nil
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) List(ctx context.Context) []Prompt {
	out := make([]Prompt, 0, len(stages))
	for _, stage := range stages {
		instr, _ := s.Instructions(ctx, stage)
		spec, _ := s.Spec(ctx, stage)
		_, overridden := s.overrides[stage]
		out = append(out, Prompt{
			Stage:        stage,
			Instructions: instr,
			Spec:         spec,
			Overridden:   overridden,
		})
	}
	return out
}

// Instructions returns the configured override for stage if one exists,
// otherwise the hardcoded default.
func (s *system) Instructions(_ context.Context, stage Stage) (string, error) {
	if text, ok := s.overrides[stage]; ok {
		return text, nil
	}
	return Instructions(stage)
}

func (s *system) Spec(_ context.Context, stage Stage) (string, error) {
	return Spec(stage)
}

func (s *system) Context() string {
	return s.context
}

func companyContext(cfg Config) string {
	var parts []string
	if cfg.Company != "" {
		parts = append(parts, fmt.Sprintf("You work for %s.", cfg.Company))
	}
	if cfg.About != "" {
		parts = append(parts, strings.TrimSpace(cfg.About))
	}
	if cfg.Guidelines != "" {
		parts = append(parts, "Follow these writing and content guidelines:\n"+strings.TrimSpace(cfg.Guidelines))
	}
	return strings.Join(parts, "\n\n")
}

// Package llm adapts go-agents to the single-prompt chat calls the PR/FAQ
// workflow makes.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// ErrChatFailed wraps any failure to obtain a completion from the model.
var ErrChatFailed = errors.New("llm chat failed")

// Model produces a text completion for a prompt.
type Model interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Model.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Chat(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type agentModel struct {
	cfg     gaconfig.AgentConfig
	timeout time.Duration
}

// New returns a Model backed by a go-agents agent. A fresh agent is created
// per call so concurrent question resolution never shares client state.
// A zero timeout leaves the call bounded only by ctx.
func New(cfg gaconfig.AgentConfig, timeout time.Duration) Model {
	return &agentModel{cfg: cfg, timeout: timeout}
}

func (m *agentModel) Chat(ctx context.Context, prompt string) (string, error) {
	a, err := agent.New(&m.cfg)
	if err != nil {
		return "", fmt.Errorf("%w: create agent: %w", ErrChatFailed, err)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	resp, err := a.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrChatFailed, err)
	}

	return resp.Content(), nil
}

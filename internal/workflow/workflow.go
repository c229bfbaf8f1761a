package workflow

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/prfaq/internal/metrics"
)

// Run kinds used in logs and metrics.
const (
	KindGenerate = "generate"
	KindModify   = "modify"
)

// Execute runs the generation pipeline for in and returns the final state.
// Stages run strictly in Plan order; each receives the state produced by
// its predecessor. sink may be nil.
func Execute(ctx context.Context, rt *Runtime, in Inputs, sink ProgressSink) (state.State, error) {
	initial := NewState(in)
	return execute(ctx, rt, "prfaq-generate", initial, Plan(initial), NewProgress(sink, rt.Logger))
}

// Generate runs the generation pipeline and extracts the finished FAQ.
func Generate(ctx context.Context, rt *Runtime, in Inputs, sink ProgressSink) (*Result, error) {
	initial := NewState(in)
	return runPipeline(ctx, rt, KindGenerate, initial, Plan(initial), sink)
}

// Modify revises an existing document according to the last chat message.
func Modify(ctx context.Context, rt *Runtime, in ModifyInputs, sink ProgressSink) (*Result, error) {
	return runPipeline(ctx, rt, KindModify, NewModifyState(in), ModifyPlan(), sink)
}

func runPipeline(
	ctx context.Context,
	rt *Runtime,
	kind string,
	initial state.State,
	plan []string,
	sink ProgressSink,
) (*Result, error) {
	runID := uuid.New()

	scoped := *rt
	scoped.Logger = rt.Logger.With("run_id", runID, "kind", kind)

	if timeout := rt.Config.RunTimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := rt.Metrics.RunStarted(kind)
	start := time.Now()

	scoped.Logger.InfoContext(ctx, "workflow started", "plan", plan)

	final, err := execute(ctx, &scoped, "prfaq-"+kind, initial, plan, NewProgress(sink, scoped.Logger))
	if err != nil {
		done(outcome(err))
		scoped.Logger.ErrorContext(ctx, "workflow failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	result, err := extractResult(final)
	if err != nil {
		done(metrics.OutcomeError)
		return nil, err
	}

	result.RunID = runID
	result.Plan = plan

	done(metrics.OutcomeSuccess)
	scoped.Logger.InfoContext(ctx, "workflow complete", "duration", time.Since(start))

	return result, nil
}

func outcome(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return metrics.OutcomeCancelled
	}
	return metrics.OutcomeError
}

func execute(ctx context.Context, rt *Runtime, name string, initial state.State, plan []string, p *Progress) (state.State, error) {
	var failed error

	graph, err := buildGraph(rt, name, plan, p, &failed)
	if err != nil {
		return initial, fmt.Errorf("build graph: %w", err)
	}

	final, err := graph.Execute(ctx, initial)
	if err != nil {
		// Prefer the stage error so its sentinels survive whatever wrapping
		// the graph applies.
		if failed != nil {
			return initial, failed
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return initial, fmt.Errorf("execute graph: %w: %w", err, ctxErr)
		}
		return initial, fmt.Errorf("execute graph: %w", err)
	}

	return final, nil
}

// buildGraph links one node per planned stage with unconditional edges.
// A failing stage stores its error in failed before returning it.
func buildGraph(rt *Runtime, name string, plan []string, p *Progress, failed *error) (state.StateGraph, error) {
	if len(plan) == 0 {
		return nil, errors.New("empty plan")
	}

	cfg := gaoconfig.DefaultGraphConfig(name)
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	for i, stage := range plan {
		fn, ok := stageFuncs[stage]
		if !ok {
			return nil, fmt.Errorf("unknown stage %q", stage)
		}

		if err := graph.AddNode(stage, stageNode(rt, stage, fn, p, failed)); err != nil {
			return nil, err
		}

		if i > 0 {
			if err := graph.AddEdge(plan[i-1], stage, nil); err != nil {
				return nil, err
			}
		}
	}

	if err := graph.SetEntryPoint(plan[0]); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint(plan[len(plan)-1]); err != nil {
		return nil, err
	}

	return graph, nil
}

// stageNode wraps a stage body: it reports the stage's start event, times
// the body, records the progress log in thinking_steps, and rejects a next
// state that dropped a key or changed an input.
func stageNode(rt *Runtime, name string, fn stageFunc, p *Progress, failed *error) state.StateNode {
	fail := func(err error) error {
		*failed = fmt.Errorf("%w: %s: %w", ErrStageFailed, name, err)
		return *failed
	}

	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		if err := ctx.Err(); err != nil {
			return s, fail(err)
		}

		p.Report(ctx, name, startDetails[name])

		start := time.Now()
		next, err := fn(ctx, rt, s, p)
		rt.Metrics.ObserveStage(name, time.Since(start))

		if err != nil {
			return s, fail(err)
		}

		next = next.Set(KeyThinkingSteps, p.Steps())

		if err := CheckRegression(s, next); err != nil {
			return s, fail(err)
		}

		return next, nil
	})
}

// CheckRegression reports ErrStateRegression when next dropped a key that
// prev holds or changed the value of an input key.
func CheckRegression(prev, next state.State) error {
	for _, key := range inputKeys {
		before, ok := prev.Get(key)
		if !ok {
			continue
		}

		after, ok := next.Get(key)
		if !ok {
			return fmt.Errorf("%w: input %s removed", ErrStateRegression, key)
		}
		if !reflect.DeepEqual(before, after) {
			return fmt.Errorf("%w: input %s changed", ErrStateRegression, key)
		}
	}

	for _, key := range derivedKeys {
		if _, ok := prev.Get(key); !ok {
			continue
		}
		if _, ok := next.Get(key); !ok {
			return fmt.Errorf("%w: %s removed", ErrStateRegression, key)
		}
	}

	return nil
}

func extractResult(s state.State) (*Result, error) {
	val, ok := s.Get(KeyFAQ)
	if !ok {
		return nil, fmt.Errorf("missing %s in final state", KeyFAQ)
	}

	faq, ok := val.(FAQ)
	if !ok {
		return nil, fmt.Errorf("%s is not FAQ", KeyFAQ)
	}

	stepsVal, ok := s.Get(KeyThinkingSteps)
	if !ok {
		return nil, fmt.Errorf("missing %s in final state", KeyThinkingSteps)
	}

	steps, ok := stepsVal.([]ProgressEvent)
	if !ok {
		return nil, fmt.Errorf("%s is not []ProgressEvent", KeyThinkingSteps)
	}

	return &Result{
		FAQ:           faq.WithDefaults(),
		ThinkingSteps: steps,
		CompletedAt:   time.Now(),
	}, nil
}

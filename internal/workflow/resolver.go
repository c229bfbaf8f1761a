package workflow

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool bounds concurrent question resolution across every run in the
// process. It holds no request state.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool returns a pool admitting at most workers concurrent tasks.
// Values below one are raised to one.
func NewPool(workers int) *Pool {
	workers = max(workers, 1)
	return &Pool{
		sem:  semaphore.NewWeighted(int64(workers)),
		size: workers,
	}
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return p.size
}

// Resolve fuses context for every question on the shared pool and returns
// one bundle per question in submission order, whatever order the tasks
// finish in. A failing or panicking task marks only its own bundle, and
// questions that never acquire a worker before ctx ends are marked with the
// context error.
func Resolve(ctx context.Context, rt *Runtime, questions []string, topic string, websearch bool) []ContextBundle {
	bundles := make([]ContextBundle, len(questions))

	var g errgroup.Group

	for i, q := range questions {
		g.Go(func() error {
			if err := rt.Pool.sem.Acquire(ctx, 1); err != nil {
				b := ContextBundle{Question: q}
				b.KBResult = b.fail(SourceKB, err)
				bundles[i] = b
				return nil
			}
			defer rt.Pool.sem.Release(1)

			bundles[i] = fuseSafely(ctx, rt, q, topic, websearch)
			return nil
		})
	}

	g.Wait()

	rt.Metrics.QuestionsResolved(len(questions))
	return bundles
}

func fuseSafely(ctx context.Context, rt *Runtime, question, topic string, websearch bool) (b ContextBundle) {
	defer func() {
		if r := recover(); r != nil {
			rt.Logger.ErrorContext(ctx, "question resolution panicked",
				"question", question,
				"panic", r,
			)
			b = ContextBundle{Question: question}
			b.KBResult = b.fail("resolver", fmt.Errorf("panic: %v", r))
		}
	}()

	return Fuse(ctx, rt, question, topic, websearch)
}

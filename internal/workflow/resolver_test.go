package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/prfaq/internal/prompts"
	"github.com/JaimeStill/prfaq/internal/workflow"
)

func questionIndex(q string) int {
	// questions look like "q<N> in the context of topic"
	n, _ := strconv.Atoi(strings.TrimPrefix(strings.Fields(q)[0], "q"))
	return n
}

func TestResolvePreservesOrder(t *testing.T) {
	const n = 8

	var seq atomic.Int32
	order := make([]int32, n)

	kb := fakeKB(func(q string) (string, error) {
		i := questionIndex(q)
		// last submitted finishes first
		time.Sleep(time.Duration(n-i) * 15 * time.Millisecond)
		order[i] = seq.Add(1)
		return fmt.Sprintf("answer %d", i), nil
	})

	rt := newRuntime(t, newScriptedModel(nil), kb, nil, nil)
	rt.Pool = workflow.NewPool(n)

	questions := make([]string, n)
	for i := range questions {
		questions[i] = fmt.Sprintf("q%d", i)
	}

	bundles := workflow.Resolve(context.Background(), rt, questions, "topic", false)

	if len(bundles) != n {
		t.Fatalf("bundles: got %d, want %d", len(bundles), n)
	}
	for i, b := range bundles {
		if b.Question != questions[i] {
			t.Errorf("bundle %d question: got %q, want %q", i, b.Question, questions[i])
		}
		if want := fmt.Sprintf("answer %d", i); b.KBResult != want {
			t.Errorf("bundle %d kb: got %q, want %q", i, b.KBResult, want)
		}
		if b.WebResult != nil {
			t.Errorf("bundle %d: web result present with web search disabled", i)
		}
	}

	if order[n-1] > order[0] {
		t.Errorf("expected the last question to complete before the first, completion order %v", order)
	}
}

func TestResolvePartialFailure(t *testing.T) {
	kb := fakeKB(func(q string) (string, error) {
		switch questionIndex(q) {
		case 1:
			return "", errors.New("kb unreachable")
		case 3:
			panic("lookup exploded")
		}
		return "ok", nil
	})

	rt := newRuntime(t, newScriptedModel(nil), kb, nil, nil)
	questions := []string{"q0", "q1", "q2", "q3", "q4"}

	bundles := workflow.Resolve(context.Background(), rt, questions, "topic", false)

	if len(bundles) != len(questions) {
		t.Fatalf("bundles: got %d, want %d", len(bundles), len(questions))
	}

	for i, b := range bundles {
		wantFailed := i == 1 || i == 3
		if b.Failed() != wantFailed {
			t.Errorf("bundle %d failed: got %v, want %v", i, b.Failed(), wantFailed)
		}
		if b.Question != questions[i] {
			t.Errorf("bundle %d question: got %q", i, b.Question)
		}
		if wantFailed && !strings.HasPrefix(b.KBResult, workflow.ErrorMarker) {
			t.Errorf("bundle %d kb result should carry the error marker: %q", i, b.KBResult)
		}
	}
}

func TestResolveCancelled(t *testing.T) {
	kb := fakeKB(func(string) (string, error) {
		return "", context.Canceled
	})
	rt := newRuntime(t, newScriptedModel(nil), kb, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bundles := workflow.Resolve(ctx, rt, []string{"q0", "q1", "q2"}, "topic", false)
	for i, b := range bundles {
		if !b.Failed() {
			t.Errorf("bundle %d should be marked failed after cancellation", i)
		}
	}
}

func TestFuseWebSearch(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		replyErr   error
		searchFail map[string]bool
		wantWeb    string
		wantNoWeb  bool
		wantFailed bool
		wantCalls  int
	}{
		{
			name:      "refined query",
			reply:     `{"websearchquery": "solar rates"}`,
			wantWeb:   "web: solar rates",
			wantCalls: 1,
		},
		{
			name:      "empty query skips web",
			reply:     `{"websearchquery": ""}`,
			wantNoWeb: true,
		},
		{
			name:      "refinement error falls back to raw question",
			replyErr:  errors.New("model down"),
			wantWeb:   "web: q0",
			wantCalls: 1,
		},
		{
			name:      "unparseable refinement falls back",
			reply:     "not json",
			wantWeb:   "web: q0",
			wantCalls: 1,
		},
		{
			name:       "refined search failure falls back once",
			reply:      `{"websearchquery": "solar rates"}`,
			searchFail: map[string]bool{"solar rates": true},
			wantWeb:    "web: q0",
			wantCalls:  2,
		},
		{
			name:       "fallback failure marks bundle",
			reply:      `{"websearchquery": "solar rates"}`,
			searchFail: map[string]bool{"solar rates": true, "q0": true},
			wantFailed: true,
			wantCalls:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := newScriptedModel(map[prompts.Stage]string{prompts.StageWebQuery: tt.reply})
			if tt.replyErr != nil {
				model.errs[prompts.StageWebQuery] = tt.replyErr
			}

			var calls atomic.Int32
			search := fakeSearch(func(q string, trust bool) (string, error) {
				calls.Add(1)
				if !trust {
					t.Errorf("question searches must be trusted")
				}
				if tt.searchFail[q] {
					return "", errors.New("search failed")
				}
				return "web: " + q, nil
			})

			rt := newRuntime(t, model, nil, search, nil)
			b := workflow.Fuse(context.Background(), rt, "q0", "topic", true)

			if int(calls.Load()) != tt.wantCalls {
				t.Errorf("search calls: got %d, want %d", calls.Load(), tt.wantCalls)
			}
			if b.Failed() != tt.wantFailed {
				t.Errorf("failed: got %v, want %v (%v)", b.Failed(), tt.wantFailed, b.Errors)
			}
			if b.KBResult != "kb: q0 in the context of topic" {
				t.Errorf("kb result: got %q", b.KBResult)
			}

			switch {
			case tt.wantNoWeb:
				if b.WebResult != nil {
					t.Errorf("web result: got %q, want none", *b.WebResult)
				}
			case tt.wantFailed:
				if b.WebResult == nil || !strings.HasPrefix(*b.WebResult, workflow.ErrorMarker) {
					t.Errorf("web result should carry the error marker: %v", b.WebResult)
				}
			default:
				if b.WebResult == nil || *b.WebResult != tt.wantWeb {
					t.Errorf("web result: got %v, want %q", b.WebResult, tt.wantWeb)
				}
			}
		})
	}
}

func TestContextBundleMarkdown(t *testing.T) {
	web := "web text"
	b := workflow.ContextBundle{Question: "Q?", KBResult: "kb text", WebResult: &web}

	want := "#### Question\nQ?\n\n#### Internal KB Results\nkb text\n\n#### Web Search Results\nweb text"
	if got := b.Markdown(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	b.WebResult = nil
	if got := b.Markdown(); strings.Contains(got, "Web Search Results") {
		t.Errorf("web section rendered without a web result: %q", got)
	}
}

func TestScrapesShareResolverPool(t *testing.T) {
	const size = 2

	var inFlight, peak atomic.Int32
	scraper := fakeScraper(func(u string) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return "page " + u, nil
	})

	rt := newRuntime(t, newScriptedModel(generationReplies()), nil, nil, scraper)
	rt.Pool = workflow.NewPool(size)

	in := validInputs()
	in.WebScrapingLinks = []string{"https://a.example", "https://b.example", "https://c.example"}

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Go(func() {
			_, errs[i] = workflow.Generate(context.Background(), rt, in, nil)
		})
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("run %d: %v", i, err)
		}
	}
	if got := peak.Load(); got > size {
		t.Errorf("concurrent scrapes across runs: got %d, want at most %d", got, size)
	}
}

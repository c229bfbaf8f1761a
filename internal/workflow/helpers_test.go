package workflow_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/JaimeStill/prfaq/internal/config"
	"github.com/JaimeStill/prfaq/internal/llm"
	"github.com/JaimeStill/prfaq/internal/prompts"
	"github.com/JaimeStill/prfaq/internal/workflow"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeKB func(question string) (string, error)

func (f fakeKB) Lookup(_ context.Context, question string, _ int) (string, error) {
	return f(question)
}

type fakeSearch func(query string, trust bool) (string, error)

func (f fakeSearch) Search(_ context.Context, query string, trust bool, _ int) (string, error) {
	return f(query, trust)
}

type fakeScraper func(url string) (string, error)

func (f fakeScraper) Scrape(_ context.Context, url string) (string, error) {
	return f(url)
}

// scriptedModel answers by stage. Every stage's instructions are replaced
// with a "STAGE=<name>" marker so the prompt's first line names the stage.
type scriptedModel struct {
	mu      sync.Mutex
	replies map[prompts.Stage]string
	errs    map[prompts.Stage]error
	calls   []prompts.Stage
	prompts map[prompts.Stage]string
}

func newScriptedModel(replies map[prompts.Stage]string) *scriptedModel {
	return &scriptedModel{
		replies: replies,
		errs:    map[prompts.Stage]error{},
		prompts: map[prompts.Stage]string{},
	}
}

func stageOf(prompt string) prompts.Stage {
	line, _, _ := strings.Cut(prompt, "\n")
	return prompts.Stage(strings.TrimPrefix(line, "STAGE="))
}

func (m *scriptedModel) Chat(_ context.Context, prompt string) (string, error) {
	stage := stageOf(prompt)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, stage)
	m.prompts[stage] = prompt

	if err := m.errs[stage]; err != nil {
		return "", err
	}
	return m.replies[stage], nil
}

func (m *scriptedModel) count(stage prompts.Stage) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c == stage {
			n++
		}
	}
	return n
}

func (m *scriptedModel) prompt(stage prompts.Stage) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompts[stage]
}

func markerPrompts(t *testing.T) prompts.System {
	t.Helper()

	overrides := make(map[string]string)
	for _, stage := range prompts.Stages() {
		overrides[string(stage)] = "STAGE=" + string(stage)
	}

	ps, err := prompts.New(prompts.Config{Overrides: overrides}, discard())
	if err != nil {
		t.Fatalf("prompts.New: %v", err)
	}
	return ps
}

func newRuntime(t *testing.T, model llm.Model, kb fakeKB, search fakeSearch, scraper fakeScraper) *workflow.Runtime {
	t.Helper()

	var cfg config.WorkflowConfig
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize workflow config: %v", err)
	}

	if kb == nil {
		kb = func(q string) (string, error) { return "kb: " + q, nil }
	}
	if search == nil {
		search = func(q string, _ bool) (string, error) { return "web: " + q, nil }
	}
	if scraper == nil {
		scraper = func(u string) (string, error) { return "page " + u, nil }
	}

	return &workflow.Runtime{
		Model:   model,
		KB:      kb,
		Search:  search,
		Scraper: scraper,
		Prompts: markerPrompts(t),
		Pool:    workflow.NewPool(4),
		Config:  cfg,
		Logger:  discard(),
	}
}

func validInputs() workflow.Inputs {
	return workflow.Inputs{
		Topic:    "Solar Loans",
		Problem:  "Homeowners cannot finance rooftop solar easily.",
		Solution: "A point-of-sale green loan product with instant approval and flexible repayment terms.",
	}
}

const (
	generatedJSON = `{
		"Title": "ACME ANNOUNCES SOLAR LOANS",
		"Subtitle": "Finance solar in minutes",
		"IntroParagraph": "[Location] - [Launch Date] - Acme launches solar loans.",
		"ProblemStatement": "Financing is slow.",
		"Solution": "Instant approval.",
		"Competitors": [{"name": "SunFi", "url": "https://sunfi.example"}]
	}`

	questionsJSON = `{
		"internal_questions": ["Who is the target audience for this product?", "What is the ROI?"],
		"external_questions": ["How do I apply?", "what is the roi?"]
	}`

	answersJSON = "```json\n" + `{
		"InternalFAQs": [
			{"Question": "Who is the target audience for this product?", "Answer": "Homeowners."},
			{"Question": "", "Answer": [{"Year": "1", "Return": "5%"}]}
		],
		"ExternalFAQs": [
			{"question": "How do I apply?", "answer": ["Online", "In store"]}
		],
		"UserResponse": "Here you go."
	}` + "\n```"
)

func generationReplies() map[prompts.Stage]string {
	return map[prompts.Stage]string{
		prompts.StageKBRetrieval:       "kb findings",
		prompts.StageWebScrape:         "scrape findings",
		prompts.StageExtractInfo:       "reference findings",
		prompts.StageCompetitorQuery:   "\"solar loan providers\"\n",
		prompts.StageGenerateContent:   generatedJSON,
		prompts.StageGenerateQuestions: questionsJSON,
		prompts.StageWebQuery:          `{"websearchquery": "solar loan rates"}`,
		prompts.StageAnswerFAQs:        answersJSON,
	}
}

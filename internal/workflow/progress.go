package workflow

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Fixed progress details. The start detail of each stage is reported by the
// executor before the stage body runs; the others are reported by stages.
var startDetails = map[string]string{
	StageKBRetrieval:       "Retrieving relevant knowledge base information...",
	StageWebScrape:         "Scraping provided web links and extracting key info...",
	StageExtractInfo:       "Extracting info from reference document...",
	StageGenerateContent:   "Generating PR/FAQ content leveraging all available information...",
	StageGenerateQuestions: "Generating exhaustive internal and external FAQ questions...",
	StageAnswerFAQs:        "Answering all generated FAQs using all available information...",
	StageRefineQuery:       "Refining a search query from your feedback...",
	StageModifyRetrieval:   "Searching for information to address your feedback...",
	StageModifyFAQ:         "Updating the PR/FAQ with your feedback...",
}

const (
	detailKBExtract       = "Parsing and extracting key info from KB content..."
	detailScrapeExtract   = "Extracting info from scraped content..."
	detailCompetitors     = "Searching the web for competitors..."
	detailContentDone     = "PR/FAQ introduction generated."
	detailQuestionsDone   = "Questions generated."
	detailResolving       = "Gathering context for each question..."
	detailFAQDone         = "PRFAQ generated!"
	detailModifyRetrieved = "Search results collected."
	detailModifyDone      = "PR/FAQ updated."
)

// Progress records the events of one run and forwards each to a sink.
// It is safe for concurrent use. A panicking sink is recovered and logged
// so reporting never affects the run.
type Progress struct {
	mu     sync.Mutex
	steps  []ProgressEvent
	sink   ProgressSink
	logger *slog.Logger
}

// NewProgress returns a Progress forwarding to sink, which may be nil.
func NewProgress(sink ProgressSink, logger *slog.Logger) *Progress {
	return &Progress{
		steps:  []ProgressEvent{},
		sink:   sink,
		logger: logger,
	}
}

// Report appends an event to the run log and forwards it to the sink.
func (p *Progress) Report(ctx context.Context, step, detail string) {
	ev := ProgressEvent{Step: step, Detail: detail}

	p.mu.Lock()
	p.steps = append(p.steps, ev)
	p.mu.Unlock()

	p.forward(ctx, ev)
}

// Steps returns a copy of the events reported so far, in report order.
func (p *Progress) Steps() []ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.steps)
}

func (p *Progress) forward(ctx context.Context, ev ProgressEvent) {
	if p.sink == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.DebugContext(ctx, "progress sink panicked", "step", ev.Step, "panic", r)
		}
	}()

	p.sink(ev)
}

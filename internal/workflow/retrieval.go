package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/prfaq/internal/prompts"
)

// stageFunc is the body of one pipeline stage. It returns the next state
// and may report progress beyond the start event the executor emits.
type stageFunc func(ctx context.Context, rt *Runtime, s state.State, p *Progress) (state.State, error)

var stageFuncs = map[string]stageFunc{
	StageKBRetrieval:       kbRetrieval,
	StageWebScrape:         webScrape,
	StageExtractInfo:       extractInfo,
	StageGenerateContent:   generateContent,
	StageGenerateQuestions: generateQuestions,
	StageAnswerFAQs:        answerFAQs,
	StageRefineQuery:       refineQuery,
	StageModifyRetrieval:   modifyRetrieval,
	StageModifyFAQ:         modifyFAQ,
}

type brief struct {
	topic    string
	problem  string
	solution string
}

func readBrief(s state.State) brief {
	return brief{
		topic:    get[string](s, KeyTopic),
		problem:  get[string](s, KeyProblem),
		solution: get[string](s, KeySolution),
	}
}

func (b brief) sections() []Section {
	return briefSections(b.topic, b.problem, b.solution)
}

func kbRetrieval(ctx context.Context, rt *Runtime, s state.State, p *Progress) (state.State, error) {
	b := readBrief(s)

	query := fmt.Sprintf(
		"Retrieve all information about %s. The problem is: %s. The proposed solution is: %s.",
		b.topic, b.problem, b.solution,
	)

	kb, err := rt.KB.Lookup(ctx, query, rt.Config.KBTopK)
	if err != nil {
		connectorFailure(ctx, rt, SourceKB, err)
		kb = fmt.Sprintf("%s %s: %v", ErrorMarker, SourceKB, err)
	}

	p.Report(ctx, StageKBRetrieval, detailKBExtract)

	extracted, err := keyInfo(ctx, rt, prompts.StageKBRetrieval, b,
		Section{Title: "Knowledge Base Content", Body: kb},
	)
	if err != nil {
		return s, err
	}

	rt.Logger.InfoContext(ctx, "kb_retrieval node complete", "content_length", len(extracted))

	return s.Set(KeyKBContent, extracted), nil
}

var urlPattern = regexp.MustCompile(`https?://[^\s)\]>"']+`)

// stripLinks removes URLs from scraped page text.
func stripLinks(text string) string {
	return strings.TrimSpace(urlPattern.ReplaceAllString(text, ""))
}

func webScrape(ctx context.Context, rt *Runtime, s state.State, p *Progress) (state.State, error) {
	b := readBrief(s)
	links := get[[]string](s, KeyWebScrapingLinks)

	pages := scrapeAll(ctx, rt, links)

	p.Report(ctx, StageWebScrape, detailScrapeExtract)

	var sb strings.Builder
	for i, link := range links {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("#### ")
		sb.WriteString(link)
		sb.WriteString("\n")
		sb.WriteString(pages[i])
	}

	extracted, err := keyInfo(ctx, rt, prompts.StageWebScrape, b,
		Section{Title: "Scraped Web Content", Body: sb.String()},
	)
	if err != nil {
		return s, err
	}

	rt.Logger.InfoContext(ctx, "web_scrape node complete",
		"link_count", len(links),
		"content_length", len(extracted),
	)

	return s.Set(KeyWebScrapeContent, extracted), nil
}

// scrapeAll scrapes every link concurrently on the shared pool. The result
// is index-aligned with links; a failed page, or one that never acquires a
// worker before ctx ends, holds an error marker in place of its text.
func scrapeAll(ctx context.Context, rt *Runtime, links []string) []string {
	pages := make([]string, len(links))

	var g errgroup.Group

	for i, link := range links {
		g.Go(func() error {
			if err := rt.Pool.sem.Acquire(ctx, 1); err != nil {
				pages[i] = fmt.Sprintf("%s %s: %v", ErrorMarker, SourceScrape, err)
				return nil
			}
			defer rt.Pool.sem.Release(1)

			text, err := rt.Scraper.Scrape(ctx, link)
			if err != nil {
				connectorFailure(ctx, rt, SourceScrape, err, "url", link)
				pages[i] = fmt.Sprintf("%s %s: %v", ErrorMarker, SourceScrape, err)
				return nil
			}
			pages[i] = stripLinks(text)
			return nil
		})
	}

	g.Wait()
	return pages
}

func extractInfo(ctx context.Context, rt *Runtime, s state.State, _ *Progress) (state.State, error) {
	b := readBrief(s)

	extracted, err := keyInfo(ctx, rt, prompts.StageExtractInfo, b,
		Section{Title: "Reference Document", Body: get[string](s, KeyReferenceDocContent)},
	)
	if err != nil {
		return s, err
	}

	rt.Logger.InfoContext(ctx, "extract_info node complete", "content_length", len(extracted))

	return s.Set(KeyExtractedReferenceDocContent, extracted), nil
}

// keyInfo asks the model to pull the material relevant to the brief out of
// source text.
func keyInfo(ctx context.Context, rt *Runtime, stage prompts.Stage, b brief, source Section) (string, error) {
	prompt, err := ComposePrompt(ctx, rt.Prompts, stage, append(b.sections(), source)...)
	if err != nil {
		return "", err
	}

	content, err := rt.Model.Chat(ctx, prompt)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(content), nil
}

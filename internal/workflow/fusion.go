package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/prfaq/internal/prompts"
	"github.com/JaimeStill/prfaq/pkg/formatting"
)

// ErrorMarker prefixes the text that replaces a failed retrieval.
const ErrorMarker = "[retrieval error]"

// Connector sources used in error markers, logs and metrics.
const (
	SourceKB     = "kb"
	SourceWeb    = "web"
	SourceScrape = "scrape"
)

// ContextBundle is the evidence gathered for one question. WebResult is nil
// when web search was disabled or judged unnecessary for the question.
type ContextBundle struct {
	Question  string   `json:"question"`
	KBResult  string   `json:"kb_result"`
	WebResult *string  `json:"web_result,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// Failed reports whether any sub-result carries an error marker.
func (b ContextBundle) Failed() bool {
	return len(b.Errors) > 0
}

// Markdown renders the bundle as delimited sections for the answer prompt.
func (b ContextBundle) Markdown() string {
	var sb strings.Builder
	sb.WriteString("#### Question\n")
	sb.WriteString(b.Question)
	sb.WriteString("\n\n#### Internal KB Results\n")
	sb.WriteString(b.KBResult)

	if b.WebResult != nil {
		sb.WriteString("\n\n#### Web Search Results\n")
		sb.WriteString(*b.WebResult)
	}

	return sb.String()
}

func (b *ContextBundle) fail(source string, err error) string {
	marker := fmt.Sprintf("%s %s: %v", ErrorMarker, source, err)
	b.Errors = append(b.Errors, marker)
	return marker
}

type webQueryResponse struct {
	WebSearchQuery string `json:"websearchquery"`
}

// Fuse gathers the knowledge base result for question and, when websearch
// is set, a web result. The model picks the web query; if that fails, or
// the search with its query fails, one fallback search runs with the raw
// question. Connector failures become error markers and never escape.
func Fuse(ctx context.Context, rt *Runtime, question, topic string, websearch bool) ContextBundle {
	b := ContextBundle{Question: question}

	kbQuery := fmt.Sprintf("%s in the context of %s", question, topic)
	kb, err := rt.KB.Lookup(ctx, kbQuery, rt.Config.QuestionKBTopK)
	if err != nil {
		connectorFailure(ctx, rt, SourceKB, err, "question", question)
		b.KBResult = b.fail(SourceKB, err)
	} else {
		b.KBResult = kb
	}

	if !websearch {
		return b
	}

	query, err := webQuery(ctx, rt, question, topic)
	switch {
	case err != nil:
		rt.Logger.WarnContext(ctx, "web query refinement failed, searching raw question",
			"question", question,
			"error", err,
		)
	case query == "":
		return b
	default:
		web, err := rt.Search.Search(ctx, query, true, rt.Config.QuestionWebTopK)
		if err == nil {
			b.WebResult = &web
			return b
		}
		rt.Logger.WarnContext(ctx, "refined web search failed, searching raw question",
			"question", question,
			"query", query,
			"error", err,
		)
	}

	web, err := rt.Search.Search(ctx, question, true, rt.Config.QuestionWebTopK)
	if err != nil {
		connectorFailure(ctx, rt, SourceWeb, err, "question", question)
		web = b.fail(SourceWeb, err)
	}
	b.WebResult = &web
	return b
}

func webQuery(ctx context.Context, rt *Runtime, question, topic string) (string, error) {
	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageWebQuery,
		Section{Title: "Question", Body: question},
		Section{Title: "Topic", Body: topic},
	)
	if err != nil {
		return "", err
	}

	content, err := rt.Model.Chat(ctx, prompt)
	if err != nil {
		return "", err
	}

	parsed, err := formatting.Parse[webQueryResponse](content)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(parsed.WebSearchQuery), nil
}

func connectorFailure(ctx context.Context, rt *Runtime, source string, err error, attrs ...any) {
	rt.Metrics.ConnectorError(source)
	rt.Logger.WarnContext(ctx, "connector failed",
		append([]any{"source", source, "error", err}, attrs...)...,
	)
}

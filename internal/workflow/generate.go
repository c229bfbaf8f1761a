package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/prfaq/internal/prompts"
	"github.com/JaimeStill/prfaq/pkg/formatting"
)

func generateContent(ctx context.Context, rt *Runtime, s state.State, p *Progress) (state.State, error) {
	b := readBrief(s)

	query, err := competitorQuery(ctx, rt, b)
	if err != nil {
		return s, err
	}

	p.Report(ctx, StageGenerateContent, detailCompetitors)

	competitors, err := rt.Search.Search(ctx, query, false, rt.Config.CompetitorTopK)
	if err != nil {
		connectorFailure(ctx, rt, SourceWeb, err, "query", query)
		competitors = fmt.Sprintf("%s %s: %v", ErrorMarker, SourceWeb, err)
	}

	sections := append(b.sections(),
		chatSection(get[[]string](s, KeyChatHistory)),
		Section{Title: "Knowledge Base Findings", Body: get[string](s, KeyKBContent)},
		Section{Title: "Scraped Web Findings", Body: get[string](s, KeyWebScrapeContent)},
		Section{Title: "Reference Document Findings", Body: get[string](s, KeyExtractedReferenceDocContent)},
		Section{Title: "Competitor Search Results", Body: competitors},
	)

	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageGenerateContent, sections...)
	if err != nil {
		return s, err
	}

	content, err := rt.Model.Chat(ctx, prompt)
	if err != nil {
		return s, err
	}

	generated, ok := formatting.ParseOr(content, GeneratedContent{})
	if !ok {
		rt.Logger.WarnContext(ctx, "generated content is not valid JSON, using defaults")
	}
	if generated.Competitors == nil {
		generated.Competitors = []Competitor{}
	}

	p.Report(ctx, StageGenerateContent, detailContentDone)

	rt.Logger.InfoContext(ctx, "generate_content node complete",
		"title", generated.Title,
		"competitor_count", len(generated.Competitors),
	)

	return s.Set(KeyGeneratedContent, generated), nil
}

// competitorQuery asks the model for a competitor search query. A blank
// reply falls back to the topic.
func competitorQuery(ctx context.Context, rt *Runtime, b brief) (string, error) {
	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageCompetitorQuery, b.sections()...)
	if err != nil {
		return "", err
	}

	content, err := rt.Model.Chat(ctx, prompt)
	if err != nil {
		return "", err
	}

	if query := singleLine(content); query != "" {
		return query, nil
	}
	return "competitors " + b.topic, nil
}

// singleLine returns the first non-blank line of content without
// surrounding quotes.
func singleLine(content string) string {
	for line := range strings.Lines(content) {
		line = strings.Trim(strings.TrimSpace(line), "\"'`")
		if line != "" {
			return line
		}
	}
	return ""
}

func generateQuestions(ctx context.Context, rt *Runtime, s state.State, p *Progress) (state.State, error) {
	b := readBrief(s)

	sections := append(b.sections(), chatSection(get[[]string](s, KeyChatHistory)))

	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageGenerateQuestions, sections...)
	if err != nil {
		return s, err
	}

	content, err := rt.Model.Chat(ctx, prompt)
	if err != nil {
		return s, err
	}

	questions, ok := formatting.ParseOr(content, FAQQuestions{})
	if !ok {
		rt.Logger.WarnContext(ctx, "generated questions are not valid JSON, using defaults")
	}
	questions = questions.Normalize()

	p.Report(ctx, StageGenerateQuestions, detailQuestionsDone)

	rt.Logger.InfoContext(ctx, "generate_questions node complete",
		"internal_count", len(questions.InternalQuestions),
		"external_count", len(questions.ExternalQuestions),
	)

	return s.Set(KeyFAQQuestions, questions), nil
}

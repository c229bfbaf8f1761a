package workflow

import (
	"context"
	"strconv"
	"strings"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/prfaq/internal/prompts"
	"github.com/JaimeStill/prfaq/pkg/formatting"
)

type answerResponse struct {
	InternalFAQs []QA   `json:"InternalFAQs"`
	ExternalFAQs []QA   `json:"ExternalFAQs"`
	UserResponse string `json:"UserResponse"`
}

// answerFAQs resolves context for every question, asks the model to answer
// them, and assembles the final FAQ from the generated introduction and the
// answers. With no questions it skips retrieval and the model call and
// yields empty FAQ lists.
func answerFAQs(ctx context.Context, rt *Runtime, s state.State, p *Progress) (state.State, error) {
	b := readBrief(s)
	generated := get[GeneratedContent](s, KeyGeneratedContent)
	questions := get[FAQQuestions](s, KeyFAQQuestions)

	var answers answerResponse

	if all := questions.All(); len(all) > 0 {
		p.Report(ctx, StageAnswerFAQs, detailResolving)

		bundles := Resolve(ctx, rt, all, b.topic, get[bool](s, KeyUseWebSearch))

		var err error
		answers, err = answer(ctx, rt, s, b, generated, questions, bundles)
		if err != nil {
			return s, err
		}
	}

	faq := FAQ{
		Title:            generated.Title,
		Subtitle:         generated.Subtitle,
		IntroParagraph:   generated.IntroParagraph,
		ProblemStatement: generated.ProblemStatement,
		Solution:         generated.Solution,
		Competitors:      generated.Competitors,
		InternalFAQs:     alignQuestions(answers.InternalFAQs, questions.InternalQuestions),
		ExternalFAQs:     alignQuestions(answers.ExternalFAQs, questions.ExternalQuestions),
		UserResponse:     answers.UserResponse,
	}.WithDefaults()

	p.Report(ctx, StageAnswerFAQs, detailFAQDone)

	rt.Logger.InfoContext(ctx, "answer_faqs node complete",
		"internal_count", len(faq.InternalFAQs),
		"external_count", len(faq.ExternalFAQs),
	)

	return s.Set(KeyFAQ, faq), nil
}

func answer(
	ctx context.Context,
	rt *Runtime,
	s state.State,
	b brief,
	generated GeneratedContent,
	questions FAQQuestions,
	bundles []ContextBundle,
) (answerResponse, error) {
	blocks := make([]string, len(bundles))
	for i, bundle := range bundles {
		blocks[i] = bundle.Markdown()
	}

	sections := append(b.sections(),
		chatSection(get[[]string](s, KeyChatHistory)),
		Section{Title: "Reference Document Findings", Body: get[string](s, KeyExtractedReferenceDocContent)},
		Section{Title: "Scraped Web Findings", Body: get[string](s, KeyWebScrapeContent)},
		jsonSection("Generated Introduction", generated),
		Section{Title: "Internal Questions", Body: numbered(questions.InternalQuestions)},
		Section{Title: "External Questions", Body: numbered(questions.ExternalQuestions)},
		Section{Title: "Retrieved Context", Body: strings.Join(blocks, "\n\n")},
	)

	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageAnswerFAQs, sections...)
	if err != nil {
		return answerResponse{}, err
	}

	content, err := rt.Model.Chat(ctx, prompt)
	if err != nil {
		return answerResponse{}, err
	}

	parsed, ok := formatting.ParseOr(content, answerResponse{})
	if !ok {
		rt.Logger.WarnContext(ctx, "faq answers are not valid JSON, using defaults")
	}
	return parsed, nil
}

// alignQuestions fills blank questions from the submitted list by position.
func alignQuestions(answers []QA, questions []string) []QA {
	out := make([]QA, len(answers))
	for i, qa := range answers {
		if strings.TrimSpace(qa.Question) == "" && i < len(questions) {
			qa.Question = questions[i]
		}
		out[i] = qa
	}
	return out
}

func numbered(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(item)
	}
	return sb.String()
}

package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/prfaq/internal/prompts"
	"github.com/JaimeStill/prfaq/pkg/formatting"
)

func feedback(s state.State) string {
	chat := get[[]string](s, KeyChatHistory)
	if len(chat) == 0 {
		return ""
	}
	return chat[len(chat)-1]
}

func refineQuery(ctx context.Context, rt *Runtime, s state.State, _ *Progress) (state.State, error) {
	b := readBrief(s)
	fb := feedback(s)

	sections := append([]Section{{Title: "User Feedback", Body: fb}}, b.sections()...)

	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageRefineQuery, sections...)
	if err != nil {
		return s, err
	}

	content, err := rt.Model.Chat(ctx, prompt)
	if err != nil {
		return s, err
	}

	query := singleLine(content)
	if query == "" {
		query = fb
	}

	rt.Logger.InfoContext(ctx, "refine_query node complete", "query", query)

	return s.Set(KeyRefinedQuery, query), nil
}

func modifyRetrieval(ctx context.Context, rt *Runtime, s state.State, p *Progress) (state.State, error) {
	query := get[string](s, KeyRefinedQuery)

	kb, err := rt.KB.Lookup(ctx, query, rt.Config.KBTopK)
	if err != nil {
		connectorFailure(ctx, rt, SourceKB, err, "query", query)
		kb = fmt.Sprintf("%s %s: %v", ErrorMarker, SourceKB, err)
	}

	var web string
	if get[bool](s, KeyUseWebSearch) {
		web, err = rt.Search.Search(ctx, query, true, rt.Config.ModifyWebTopK)
		if err != nil {
			connectorFailure(ctx, rt, SourceWeb, err, "query", query)
			web = fmt.Sprintf("%s %s: %v", ErrorMarker, SourceWeb, err)
		}
	}

	p.Report(ctx, StageModifyRetrieval, detailModifyRetrieved)

	rt.Logger.InfoContext(ctx, "modify_retrieval node complete",
		"kb_length", len(kb),
		"web_length", len(web),
	)

	s = s.Set(KeyModifyKBContent, kb)
	return s.Set(KeyModifyWebContent, web), nil
}

// modifyFAQ rewrites the current document. Unlike generation, unparseable
// output fails the run with ErrMalformedOutput: the current document only
// exists as markdown, so no default can stand in for it.
func modifyFAQ(ctx context.Context, rt *Runtime, s state.State, p *Progress) (state.State, error) {
	b := readBrief(s)

	sections := []Section{
		{Title: "Problem", Body: b.problem},
		{Title: "Solution", Body: b.solution},
		{Title: "User Feedback", Body: feedback(s)},
		{Title: "Refined Search Query", Body: get[string](s, KeyRefinedQuery)},
		{Title: "Knowledge Base Results", Body: get[string](s, KeyModifyKBContent)},
		{Title: "Web Search Results", Body: get[string](s, KeyModifyWebContent)},
		chatSection(get[[]string](s, KeyChatHistory)),
		{Title: "Current PR/FAQ", Body: get[string](s, KeyCurrentPRFAQ)},
	}

	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageModifyFAQ, sections...)
	if err != nil {
		return s, err
	}

	content, err := rt.Model.Chat(ctx, prompt)
	if err != nil {
		return s, err
	}

	faq, err := formatting.Parse[FAQ](content)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}
	faq = faq.WithDefaults()
	if strings.TrimSpace(faq.Title) == "" {
		return s, fmt.Errorf("%w: updated document has no title", ErrMalformedOutput)
	}

	p.Report(ctx, StageModifyFAQ, detailModifyDone)

	rt.Logger.InfoContext(ctx, "modify_faq node complete",
		"internal_count", len(faq.InternalFAQs),
		"external_count", len(faq.ExternalFAQs),
	)

	return s.Set(KeyFAQ, faq), nil
}

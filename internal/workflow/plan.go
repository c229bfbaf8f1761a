package workflow

import "github.com/JaimeStill/go-agents-orchestration/pkg/state"

// Stage names.
const (
	StageKBRetrieval       = "kb_retrieval"
	StageWebScrape         = "web_scrape"
	StageExtractInfo       = "extract_info"
	StageGenerateContent   = "generate_content"
	StageGenerateQuestions = "generate_questions"
	StageAnswerFAQs        = "answer_faqs"
	StageRefineQuery       = "refine_query"
	StageModifyRetrieval   = "modify_retrieval"
	StageModifyFAQ         = "modify_faq"
)

// Plan returns the ordered stage names a generation run executes for s.
// kb_retrieval always runs first; web_scrape runs only when links are
// present and extract_info only when the reference document is non-empty.
// A whitespace-only document still counts as content.
// The three generation stages always close the chain. The result depends
// only on which optional inputs are present.
func Plan(s state.State) []string {
	plan := []string{StageKBRetrieval}

	if len(get[[]string](s, KeyWebScrapingLinks)) > 0 {
		plan = append(plan, StageWebScrape)
	}

	if get[string](s, KeyReferenceDocContent) != "" {
		plan = append(plan, StageExtractInfo)
	}

	return append(plan,
		StageGenerateContent,
		StageGenerateQuestions,
		StageAnswerFAQs,
	)
}

// ModifyPlan returns the fixed stage chain of a modification run.
func ModifyPlan() []string {
	return []string{
		StageRefineQuery,
		StageModifyRetrieval,
		StageModifyFAQ,
	}
}

package prompts

import (
	"encoding/json"
	"slices"
)

// Stage identifies a model call in the PR/FAQ workflow that a prompt
// targets.
type Stage string

// Prompted stages.
const (
	StageKBRetrieval       Stage = "kb_retrieval"
	StageWebScrape         Stage = "web_scrape"
	StageExtractInfo       Stage = "extract_info"
	StageCompetitorQuery   Stage = "competitor_query"
	StageGenerateContent   Stage = "generate_content"
	StageGenerateQuestions Stage = "generate_questions"
	StageWebQuery          Stage = "web_query"
	StageAnswerFAQs        Stage = "answer_faqs"
	StageRefineQuery       Stage = "refine_query"
	StageModifyFAQ         Stage = "modify_faq"
)

var stages = []Stage{
	StageKBRetrieval,
	StageWebScrape,
	StageExtractInfo,
	StageCompetitorQuery,
	StageGenerateContent,
	StageGenerateQuestions,
	StageWebQuery,
	StageAnswerFAQs,
	StageRefineQuery,
	StageModifyFAQ,
}

// Stages returns the list of prompted stages.
func Stages() []Stage {
	return stages
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Stage(raw)
	if !slices.Contains(stages, v) {
		return ErrInvalidStage
	}
	*s = v
	return nil
}

// ParseStage validates a string as a known stage.
// Returns ErrInvalidStage if the value is not recognized.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}

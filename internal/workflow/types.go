package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

// Input keys. Stages read them but never change them.
const (
	KeyTopic               = "topic"
	KeyProblem             = "problem"
	KeySolution            = "solution"
	KeyChatHistory         = "chat_history"
	KeyReferenceDocContent = "reference_doc_content"
	KeyWebScrapingLinks    = "web_scraping_links"
	KeyUseWebSearch        = "use_websearch"
	KeyCurrentPRFAQ        = "current_prfaq"
)

// Derived keys written by stages.
const (
	KeyKBContent                    = "kb_content"
	KeyWebScrapeContent             = "web_scrape_content"
	KeyExtractedReferenceDocContent = "extracted_reference_doc_content"
	KeyGeneratedContent             = "generated_content"
	KeyFAQQuestions                 = "faq_questions"
	KeyFAQ                          = "faq"
	KeyThinkingSteps                = "thinking_steps"
	KeyRefinedQuery                 = "refined_query"
	KeyModifyKBContent              = "modify_kb_content"
	KeyModifyWebContent             = "modify_web_content"
)

var inputKeys = []string{
	KeyTopic,
	KeyProblem,
	KeySolution,
	KeyChatHistory,
	KeyReferenceDocContent,
	KeyWebScrapingLinks,
	KeyUseWebSearch,
	KeyCurrentPRFAQ,
}

var derivedKeys = []string{
	KeyKBContent,
	KeyWebScrapeContent,
	KeyExtractedReferenceDocContent,
	KeyGeneratedContent,
	KeyFAQQuestions,
	KeyFAQ,
	KeyThinkingSteps,
	KeyRefinedQuery,
	KeyModifyKBContent,
	KeyModifyWebContent,
}

// DefaultChatMessage stands in for an empty chat history.
const DefaultChatMessage = "Generate this PR/FAQ for me"

// Inputs carries the caller-provided values a generation run starts from.
type Inputs struct {
	Topic               string   `json:"topic"`
	Problem             string   `json:"problem"`
	Solution            string   `json:"solution"`
	ChatHistory         []string `json:"chat_history"`
	ReferenceDocContent string   `json:"reference_doc_content"`
	WebScrapingLinks    []string `json:"web_scraping_links"`
	UseWebSearch        bool     `json:"use_websearch"`
}

// ModifyInputs adds the current rendered document to Inputs for a
// modification run. The feedback is the last chat history message.
type ModifyInputs struct {
	Inputs
	CurrentPRFAQ string `json:"current_prfaq"`
}

// NewState builds the initial state for a generation run. Nil lists become
// empty lists and an empty chat history gets DefaultChatMessage.
func NewState(in Inputs) state.State {
	chat := in.ChatHistory
	if len(chat) == 0 {
		chat = []string{DefaultChatMessage}
	}

	links := in.WebScrapingLinks
	if links == nil {
		links = []string{}
	}

	s := state.New(nil)
	s = s.Set(KeyTopic, in.Topic)
	s = s.Set(KeyProblem, in.Problem)
	s = s.Set(KeySolution, in.Solution)
	s = s.Set(KeyChatHistory, chat)
	s = s.Set(KeyReferenceDocContent, in.ReferenceDocContent)
	s = s.Set(KeyWebScrapingLinks, links)
	s = s.Set(KeyUseWebSearch, in.UseWebSearch)
	s = s.Set(KeyThinkingSteps, []ProgressEvent{})
	return s
}

// NewModifyState builds the initial state for a modification run.
func NewModifyState(in ModifyInputs) state.State {
	return NewState(in.Inputs).Set(KeyCurrentPRFAQ, in.CurrentPRFAQ)
}

// GeneratedContent is the PR/FAQ introduction produced by generate_content.
type GeneratedContent struct {
	Title            string       `json:"Title"`
	Subtitle         string       `json:"Subtitle"`
	IntroParagraph   string       `json:"IntroParagraph"`
	ProblemStatement string       `json:"ProblemStatement"`
	Solution         string       `json:"Solution"`
	Competitors      []Competitor `json:"Competitors"`
}

// ProgressEvent is one human-readable observation reported during a run.
type ProgressEvent struct {
	Step   string `json:"step"`
	Detail string `json:"detail"`
}

// ProgressSink receives progress events. It may be called from any
// goroutine and its return is not awaited for correctness.
type ProgressSink func(ProgressEvent)

// Result is the outcome of a completed generation or modification run.
type Result struct {
	RunID         uuid.UUID       `json:"run_id"`
	Plan          []string        `json:"plan"`
	FAQ           FAQ             `json:"faq"`
	ThinkingSteps []ProgressEvent `json:"thinking_steps"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// get reads key from s as T, falling back to the zero value when the key
// is missing or holds another type.
func get[T any](s state.State, key string) T {
	var zero T

	val, ok := s.Get(key)
	if !ok {
		return zero
	}

	v, ok := val.(T)
	if !ok {
		return zero
	}

	return v
}

// Package prompts implements the prompt domain for the PR/FAQ workflow.
// Each prompted stage has tunable instructions and an immutable output
// specification. Instructions may be overridden per stage from configuration.
package prompts

// Prompt is the effective prompt for a stage.
type Prompt struct {
	Stage        Stage  `json:"stage"`
	Instructions string `json:"instructions"`
	Spec         string `json:"spec"`
	Overridden   bool   `json:"overridden"`
}

// Config carries the company context and per-stage instruction overrides.
// Company and About describe the organization the document is written for;
// Guidelines holds its writing and tone rules.
type Config struct {
	Company    string
	About      string
	Guidelines string
	Overrides  map[string]string
}

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JaimeStill/prfaq/internal/prompts"
)

// Section is a titled block of run material appended to a prompt.
type Section struct {
	Title string
	Body  string
}

// ComposePrompt builds a prompt from the stage's instructions, the company
// context, the stage's output specification, and the given sections.
// Sections with an empty body are rendered as "None provided." so the model
// can tell an absent input from a missing heading.
func ComposePrompt(
	ctx context.Context,
	ps prompts.System,
	stage prompts.Stage,
	sections ...Section,
) (string, error) {
	instructions, err := ps.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := ps.Spec(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", stage, err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)

	if company := ps.Context(); company != "" {
		sb.WriteString("\n\n")
		sb.WriteString(company)
	}

	sb.WriteString("\n\n")
	sb.WriteString(spec)

	for _, sec := range sections {
		body := strings.TrimSpace(sec.Body)
		if body == "" {
			body = "None provided."
		}

		sb.WriteString("\n\n### ")
		sb.WriteString(sec.Title)
		sb.WriteString("\n\n")
		sb.WriteString(body)
	}

	return sb.String(), nil
}

// briefSections returns the topic, problem and solution sections shared by
// most stages.
func briefSections(topic, problem, solution string) []Section {
	return []Section{
		{Title: "Topic", Body: topic},
		{Title: "Problem", Body: problem},
		{Title: "Solution", Body: solution},
	}
}

// jsonSection renders v as indented JSON. Encoding failures render as an
// empty body.
func jsonSection(title string, v any) Section {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Section{Title: title}
	}
	return Section{Title: title, Body: string(data)}
}

func chatSection(history []string) Section {
	return Section{Title: "Chat History", Body: numbered(history)}
}

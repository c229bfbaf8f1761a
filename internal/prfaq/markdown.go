package prfaq

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/prfaq/internal/workflow"
)

// Response is the body returned by the generate and modify endpoints.
type Response struct {
	RunID          string                   `json:"run_id"`
	MarkdownOutput string                   `json:"markdown_output"`
	ResponseToUser string                   `json:"response_to_user"`
	FAQ            workflow.FAQ             `json:"faq"`
	Plan           []string                 `json:"plan"`
	ThinkingSteps  []workflow.ProgressEvent `json:"thinking_steps"`
}

// NewResponse renders result for the client.
func NewResponse(result *workflow.Result) Response {
	faq := result.FAQ.WithDefaults()
	return Response{
		RunID:          result.RunID.String(),
		MarkdownOutput: FormatMarkdown(faq),
		ResponseToUser: faq.UserResponse,
		FAQ:            faq,
		Plan:           result.Plan,
		ThinkingSteps:  result.ThinkingSteps,
	}
}

// FormatMarkdown renders a PR/FAQ document. The quote sections are left as
// empty placeholders for the author to fill in.
func FormatMarkdown(faq workflow.FAQ) string {
	var sb strings.Builder

	field := func(label, value string) {
		fmt.Fprintf(&sb, "**%s:** %s\n\n", label, value)
	}

	field("Title", faq.Title)
	field("Subtitle", faq.Subtitle)
	field("Introduction Paragraph", faq.IntroParagraph)
	field("Problem Statement", faq.ProblemStatement)
	field("Solution", faq.Solution)
	sb.WriteString("**Leader's Quote:** \n\n")
	sb.WriteString("**Customer's Quote:** \n\n")

	sb.WriteString("\n**Competitors:**\n")
	for _, c := range faq.Competitors {
		fmt.Fprintf(&sb, "\n- [%s](%s)\n", c.Name, c.URL)
	}

	writeQAs(&sb, "Internal FAQs", faq.InternalFAQs)
	writeQAs(&sb, "External FAQs", faq.ExternalFAQs)

	return sb.String()
}

func writeQAs(sb *strings.Builder, heading string, qas []workflow.QA) {
	fmt.Fprintf(sb, "\n**%s:**\n", heading)
	for _, qa := range qas {
		question := qa.Question
		if strings.TrimSpace(question) == "" {
			question = "Unknown Question"
		}
		answer := qa.Answer
		if strings.TrimSpace(answer) == "" {
			answer = "No answer provided"
		}
		fmt.Fprintf(sb, "\n**Q: %s**\n", question)
		fmt.Fprintf(sb, "\nA:\n%s\n", answer)
	}
}

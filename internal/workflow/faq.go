package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// DefaultUserResponse is used when the model does not reply to the user.
const DefaultUserResponse = "Here is the generated PR/FAQ document on the topic and your provided inputs. Please review and let me know if any changes are needed."

// FAQ is the final PR/FAQ document.
type FAQ struct {
	Title            string       `json:"Title"`
	Subtitle         string       `json:"Subtitle"`
	IntroParagraph   string       `json:"IntroParagraph"`
	ProblemStatement string       `json:"ProblemStatement"`
	Solution         string       `json:"Solution"`
	Competitors      []Competitor `json:"Competitors"`
	InternalFAQs     []QA         `json:"InternalFAQs"`
	ExternalFAQs     []QA         `json:"ExternalFAQs"`
	UserResponse     string       `json:"UserResponse"`
}

// WithDefaults returns f with every list non-nil and an empty UserResponse
// replaced by DefaultUserResponse. It is idempotent.
func (f FAQ) WithDefaults() FAQ {
	if f.Competitors == nil {
		f.Competitors = []Competitor{}
	}
	if f.InternalFAQs == nil {
		f.InternalFAQs = []QA{}
	}
	if f.ExternalFAQs == nil {
		f.ExternalFAQs = []QA{}
	}
	if strings.TrimSpace(f.UserResponse) == "" {
		f.UserResponse = DefaultUserResponse
	}
	return f
}

// Competitor is a competing company or product.
type Competitor struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UnmarshalJSON accepts either lowercase or capitalized keys.
func (c *Competitor) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Name = scalarText(field(raw, "name", "Name"))
	c.URL = scalarText(field(raw, "url", "URL", "Url"))
	return nil
}

// QA is a question with its markdown answer.
type QA struct {
	Question string `json:"Question"`
	Answer   string `json:"Answer"`
}

// UnmarshalJSON accepts either key casing and normalizes non-string answers
// to markdown: a list of objects becomes a table and a list of scalars a
// bullet list.
func (qa *QA) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	qa.Question = scalarText(field(raw, "Question", "question"))

	answer, err := answerText(field(raw, "Answer", "answer"))
	if err != nil {
		return fmt.Errorf("answer for %q: %w", qa.Question, err)
	}
	qa.Answer = answer
	return nil
}

func field(raw map[string]json.RawMessage, names ...string) json.RawMessage {
	for _, n := range names {
		if v, ok := raw[n]; ok {
			return v
		}
	}
	return nil
}

func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func answerText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return scalarText(raw), nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return "", err
	}

	if len(items) > 0 && bytes.HasPrefix(bytes.TrimSpace(items[0]), []byte("{")) {
		return markdownTable(items)
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+scalarText(item))
	}
	return strings.Join(lines, "\n"), nil
}

// markdownTable renders rows as a table whose columns follow the key order
// of the objects as they appear in the source JSON.
func markdownTable(items []json.RawMessage) (string, error) {
	var columns []string
	rows := make([]map[string]string, 0, len(items))

	for _, item := range items {
		keys, values, err := orderedObject(item)
		if err != nil {
			return "", err
		}
		for _, k := range keys {
			if !slices.Contains(columns, k) {
				columns = append(columns, k)
			}
		}
		rows = append(rows, values)
	}

	var sb strings.Builder
	sb.WriteString("| " + strings.Join(escapeCells(columns), " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", len(columns)))

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = row[c]
		}
		sb.WriteString("\n| " + strings.Join(escapeCells(cells), " | ") + " |")
	}

	return sb.String(), nil
}

func orderedObject(data json.RawMessage) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("table row is not an object")
	}

	var keys []string
	values := make(map[string]string)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, nil, err
		}

		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = scalarText(val)
	}

	return keys, values, nil
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>")

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = cellEscaper.Replace(c)
	}
	return out
}

// FAQQuestions holds the two disjoint question lists.
type FAQQuestions struct {
	InternalQuestions []string `json:"internal_questions"`
	ExternalQuestions []string `json:"external_questions"`
}

// Normalize trims questions, drops blanks and duplicates within each list,
// and removes from the external list any question already asked
// internally. Comparison ignores case and surrounding whitespace.
func (q FAQQuestions) Normalize() FAQQuestions {
	seen := make(map[string]bool)

	internal := dedupe(q.InternalQuestions, seen)
	external := dedupe(q.ExternalQuestions, seen)

	return FAQQuestions{
		InternalQuestions: internal,
		ExternalQuestions: external,
	}
}

// All returns internal questions followed by external questions.
func (q FAQQuestions) All() []string {
	return slices.Concat(q.InternalQuestions, q.ExternalQuestions)
}

func dedupe(questions []string, seen map[string]bool) []string {
	out := make([]string, 0, len(questions))
	for _, question := range questions {
		question = strings.TrimSpace(question)
		if question == "" {
			continue
		}

		key := strings.ToLower(question)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, question)
	}
	return out
}

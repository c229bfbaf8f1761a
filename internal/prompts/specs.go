package prompts

const textSpec = `Respond with plain text only. No preamble, no markdown fencing.`

const querySpec = `Respond with the query only, on a single line, without quotes or any extra text.`

const webQuerySpec = `Respond with a JSON object matching this exact structure:

{
  "websearchquery": "<query for web search, or empty>"
}

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Use an empty string when no web search is needed`

const generateContentSpec = `Respond with a JSON object matching this exact structure:

{
  "Title": "<COMPANY> ANNOUNCES XXX TO ENABLE XXX TO OBTAIN/HAVE XXX.",
  "Subtitle": "<one sentence reframing the headline around its benefits>",
  "IntroParagraph": "[Location] - [Launch Date] - <2-4 sentences>",
  "ProblemStatement": "<3-4 sentences>",
  "Solution": "<3-5 sentences>",
  "Competitors": [{"name": "<company or product>", "url": "<product website>"}]
}

Field constraints:
- IntroParagraph: Self-contained summary of the product and its benefits.
  A reader of this paragraph alone should understand the offering.
- ProblemStatement: The problems addressed and their negative impact.
- Solution: How the offering addresses those problems.
- Competitors: Genuine companies or products from the search results only.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Use double quotes for every key and string value`

const generateQuestionsSpec = `Respond with a JSON object matching this exact structure:

{
  "internal_questions": ["<question>", "<question>"],
  "external_questions": ["<question>", "<question>"]
}

Field constraints:
- internal_questions: 12-13 questions (8-9 generated plus the 4 mandatory).
- external_questions: 9-10 questions (8-9 generated plus the 1 mandatory).

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- No question may appear in both lists`

const answerFAQsSpec = `Respond with a JSON object matching this exact structure:

{
  "InternalFAQs": [{"Question": "<question>", "Answer": "<markdown answer>"}],
  "ExternalFAQs": [{"Question": "<question>", "Answer": "<markdown answer>"}],
  "UserResponse": "<reply to the user's latest request>"
}

Field constraints:
- Question: Exactly one of the provided questions, in the given order.
- Answer: Markdown text. Use "\n-" for bullet points and markdown tables
  where applicable. A table may instead be given as a JSON array of
  objects with the same keys, e.g. [{"Name": "A", "Feature": "Yes"}].

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Answer every internal question under InternalFAQs and every external
  question under ExternalFAQs`

const modifyFAQSpec = `Respond with a JSON object matching this exact structure:

{
  "Title": "<string>",
  "Subtitle": "<string>",
  "IntroParagraph": "<string>",
  "ProblemStatement": "<string>",
  "Solution": "<string>",
  "Competitors": [{"name": "<string>", "url": "<string>"}],
  "InternalFAQs": [{"Question": "<string>", "Answer": "<markdown>"}],
  "ExternalFAQs": [{"Question": "<string>", "Answer": "<markdown>"}],
  "UserResponse": "<reply to the user's feedback>"
}

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Return every field, including those left unchanged
- Use double quotes for every key and string value`

var specs = map[Stage]string{
	StageKBRetrieval:       textSpec,
	StageWebScrape:         textSpec,
	StageExtractInfo:       textSpec,
	StageCompetitorQuery:   querySpec,
	StageGenerateContent:   generateContentSpec,
	StageGenerateQuestions: generateQuestionsSpec,
	StageWebQuery:          webQuerySpec,
	StageAnswerFAQs:        answerFAQsSpec,
	StageRefineQuery:       querySpec,
	StageModifyFAQ:         modifyFAQSpec,
}

// Spec returns the hardcoded specification for a stage.
// Specifications define the expected output format and behavioral constraints.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}

package prompts

// role frames every generation prompt.
const role = `You are a meticulous senior product manager with deep experience building and scaling products. You reason from first principles: break problems into core truths, question assumptions, and keep every decision tied to both business rationale and user impact.`

const kbRetrievalInstructions = `Extract the key information from the knowledge base content below that is relevant to the topic, problem, and proposed solution. Keep facts, figures, constraints, and product details. Drop anything unrelated. Do not add information that is not present in the content.`

const webScrapeInstructions = `Extract the key information from the scraped web pages below that is relevant to the topic, problem, and proposed solution. Each page is labelled with its source. Pages that failed to load are marked as errors; ignore them. Keep facts, figures, and product details and note which page they came from.`

const extractInfoInstructions = `Extract the key information from the reference document below that is relevant to the topic, problem, and proposed solution. Keep facts, figures, requirements, and product details. Do not add information that is not present in the document.`

const competitorQueryInstructions = `Write a single web search query that finds competing products and services addressing the same problem with a similar solution. Use general key terms rather than brand names.

Example: competitors document moderation system financial document handling compliance parser`

const generateContentInstructions = role + `

Write the introduction of a PR/FAQ (press release and frequently asked questions) document for the topic. Use the problem, solution, chat history, knowledge base findings, scraped web content, reference document findings, and competitor search results provided. Only use information present in the provided material and do not invent facts. Do not mention specific dates, names, or locations; use placeholders such as [Location] and [Launch Date] instead. Competitors must be genuine companies or products taken from the competitor search results, never blogs or invented names.`

const generateQuestionsInstructions = role + `

Generate clear, structured, non-redundant internal and external FAQ questions for a PR/FAQ document.

Step 1. Draft about 20 raw questions for each section.
Internal questions cover business rationale and market need, product vision and company alignment, urgency and timing, technical approach and risks, legal and compliance, resourcing and launch readiness, and success metrics.
External questions cover what the product is and the problem it solves, target users and usage, pricing and onboarding, features and limitations, data handling and privacy, and support.

Step 2. Merge overlapping or similar questions and keep the 8 or 9 most important, distinct questions per section.

Step 3. Add the mandatory questions, each exactly once, at random positions within their own section only.
Internal:
- Who is the target audience for this product?
- What is the potential impact on business/Return on Investment (ROI) for the company?
- Which departments are or will be involved in the execution of this initiative, and what roles will they play?
- Does it align with the company's philosophy?
External:
- How will it impact/make the target audience's life better?

A question must never appear in both sections. Do not fabricate facts.`

const webQueryInstructions = `Given a question and a topic, decide whether a web search would strengthen the answer with quantitative or qualitative data from trusted sources. The company knowledge base is already used to answer the question, so never search the web for information about the company itself. Leave the query empty when no search is needed.`

const answerFAQsInstructions = role + `

Answer every question of the PR/FAQ document in well-formatted markdown. Use the retrieved context for each question first. When it does not cover a question, use the scraped web findings and reference document findings. As a last resort, frame an answer consistent with the generated introduction.

- Use bullet points, bold, italics, numbered steps, and markdown tables where they help.
- Every sentence must be specific to its question. Avoid generic statements and buzzwords.
- Do not repeat the same ideas across answers.
- Never introduce fabricated or assumed facts.

Also write a short reply to the user's latest request, shown alongside the document.`

const refineQueryInstructions = `Based on the user's feedback and the topic, problem, and solution, write the most effective search engine query for gathering the latest detailed information that answers the feedback. Balance specificity and breadth: aim for structured detail such as cost breakdowns, feature comparisons, or regional insights while still capturing related material. Avoid proper nouns and years; use words like "latest" and general key terms. If the feedback concerns cost or pricing, include "cost breakdown" or "pricing table".`

const modifyFAQInstructions = `You update an existing PR/FAQ document according to the user's feedback.

- Apply the feedback comprehensively and keep the document consistent throughout.
- Use the knowledge base results, web search results, and chat history to make the changes.
- New information must align with the problem and solution.
- Whenever the feedback asks for a table, the answer must contain a well-formatted markdown table, built from the retrieved data points if necessary.
- Treat new feedback as a new FAQ unless it says otherwise.
- Keep the structure of the existing document and return every field, updated where needed.
- Set UserResponse to a reply to the user's feedback.
- Avoid vague answers such as "not specified"; derive an answer from the context or omit the point.`

var instructions = map[Stage]string{
	StageKBRetrieval:       kbRetrievalInstructions,
	StageWebScrape:         webScrapeInstructions,
	StageExtractInfo:       extractInfoInstructions,
	StageCompetitorQuery:   competitorQueryInstructions,
	StageGenerateContent:   generateContentInstructions,
	StageGenerateQuestions: generateQuestionsInstructions,
	StageWebQuery:          webQueryInstructions,
	StageAnswerFAQs:        answerFAQsInstructions,
	StageRefineQuery:       refineQueryInstructions,
	StageModifyFAQ:         modifyFAQInstructions,
}

// Instructions returns the hardcoded default instructions for a stage.
// Returns ErrInvalidStage if the stage is not recognized.
func Instructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}

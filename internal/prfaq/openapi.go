package prfaq

import "github.com/JaimeStill/prfaq/pkg/openapi"

// Schemas returns the component schemas used by the PR/FAQ operations.
func Schemas() map[string]*openapi.Schema {
	str := func(description string) *openapi.Schema {
		return &openapi.Schema{Type: "string", Description: description}
	}
	strList := func(description string) *openapi.Schema {
		return &openapi.Schema{Type: "array", Items: &openapi.Schema{Type: "string"}, Description: description}
	}
	minLen := func(n int) *int { return &n }

	inputs := map[string]*openapi.Schema{
		"topic":                 {Type: "string", MinLength: minLen(3), Description: "Product or initiative name"},
		"problem":               {Type: "string", MinLength: minLen(20), Description: "Customer problem statement"},
		"solution":              {Type: "string", MinLength: minLen(50), Description: "Proposed solution"},
		"chat_history":          strList("Conversation so far; the last message is the latest request"),
		"reference_doc_content": str("Reference document text"),
		"web_scraping_links":    strList("Pages to scrape for evidence"),
		"use_websearch":         {Type: "boolean", Description: "Search the web while answering questions"},
	}

	modify := map[string]*openapi.Schema{
		"current_prfaq": str("The rendered PR/FAQ document to revise"),
	}
	for k, v := range inputs {
		modify[k] = v
	}

	form := map[string]*openapi.Schema{
		"files": {
			Type:        "array",
			Items:       &openapi.Schema{Type: "string", Format: "binary"},
			Description: "PDF, DOCX, text, or markdown reference files",
		},
	}
	for k, v := range inputs {
		form[k] = v
	}

	qa := &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"Question": str(""),
			"Answer":   str("Markdown answer"),
		},
	}

	return map[string]*openapi.Schema{
		"Inputs": {
			Type:       "object",
			Required:   []string{"topic", "problem", "solution"},
			Properties: inputs,
		},
		"ModifyInputs": {
			Type:       "object",
			Required:   []string{"topic", "problem", "solution", "chat_history", "current_prfaq"},
			Properties: modify,
		},
		"InputsForm": {
			Type:       "object",
			Properties: form,
		},
		"FilesForm": {
			Type:       "object",
			Required:   []string{"files"},
			Properties: map[string]*openapi.Schema{"files": form["files"]},
		},
		"FAQ": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"Title":            str(""),
				"Subtitle":         str(""),
				"IntroParagraph":   str(""),
				"ProblemStatement": str(""),
				"Solution":         str(""),
				"Competitors": {
					Type: "array",
					Items: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"name": str(""),
							"url":  str(""),
						},
					},
				},
				"InternalFAQs": {Type: "array", Items: qa},
				"ExternalFAQs": {Type: "array", Items: qa},
				"UserResponse": str("Message addressed to the requester"),
			},
		},
		"Response": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"run_id":           {Type: "string", Format: "uuid"},
				"markdown_output":  str("The rendered PR/FAQ document"),
				"response_to_user": str(""),
				"faq":              openapi.SchemaRef("FAQ"),
				"plan":             strList("Executed stages"),
				"thinking_steps": {
					Type: "array",
					Items: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"step":   str("Stage name"),
							"detail": str("Progress message"),
						},
					},
				},
			},
		},
		"PlanResponse": {
			Type:       "object",
			Properties: map[string]*openapi.Schema{"plan": strList("Stages in execution order")},
		},
		"Extraction": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"documents": {
					Type: "array",
					Items: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"filename": str(""),
							"kind":     {Type: "string", Enum: []any{"pdf", "docx", "text"}},
							"pages":    {Type: "integer"},
							"text":     str(""),
						},
					},
				},
				"reference_doc_content": str("All documents combined"),
			},
		},
	}
}

// Paths returns the PR/FAQ operations keyed by path relative to basePath.
func Paths(basePath string) map[string]*openapi.PathItem {
	webSearch := openapi.HeaderParam(HeaderWebSearch, "boolean", "Overrides use_websearch")

	inputsBody := openapi.RequestBodyJSON("Inputs", true).AddMediaType("multipart/form-data", "InputsForm")

	withErrors := func(extra map[int]*openapi.Response) map[int]*openapi.Response {
		out := map[int]*openapi.Response{
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			500: openapi.ResponseRef("ServerError"),
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	runErrors := map[int]*openapi.Response{
		502: openapi.ResponseRef("BadGateway"),
		503: openapi.ResponseRef("Unavailable"),
		504: openapi.ResponseRef("GatewayTimeout"),
	}

	generateResponses := withErrors(runErrors)
	generateResponses[200] = openapi.ResponseJSON("Generated PR/FAQ", "Response")

	streamResponses := withErrors(nil)
	streamResponses[200] = openapi.ResponseEventStream(
		"step events carry {step, detail}; the stream ends with one result event (FAQ) or one error event ({error})",
	)

	modifyResponses := withErrors(runErrors)
	modifyResponses[200] = openapi.ResponseJSON("Revised PR/FAQ", "Response")

	planResponses := withErrors(nil)
	planResponses[200] = openapi.ResponseJSON("Planned stages", "PlanResponse")

	extractResponses := withErrors(map[int]*openapi.Response{
		415: openapi.ResponseRef("UnsupportedMedia"),
		422: openapi.ResponseRef("Unprocessable"),
	})
	extractResponses[200] = openapi.ResponseJSON("Extracted text", "Extraction")

	prefix := basePath + "/prfaq"

	return map[string]*openapi.PathItem{
		prefix + "/generate": {Post: &openapi.Operation{
			Summary:     "Generate a PR/FAQ",
			Tags:        []string{"PR/FAQ"},
			Parameters:  []*openapi.Parameter{webSearch},
			RequestBody: inputsBody,
			Responses:   generateResponses,
		}},
		prefix + "/stream": {Post: &openapi.Operation{
			Summary:     "Generate a PR/FAQ with streamed progress",
			Tags:        []string{"PR/FAQ"},
			Parameters:  []*openapi.Parameter{webSearch},
			RequestBody: inputsBody,
			Responses:   streamResponses,
		}},
		prefix + "/modify": {Post: &openapi.Operation{
			Summary:     "Revise a PR/FAQ from feedback",
			Description: "The last chat_history message is the feedback to apply.",
			Tags:        []string{"PR/FAQ"},
			Parameters:  []*openapi.Parameter{webSearch},
			RequestBody: openapi.RequestBodyJSON("ModifyInputs", true),
			Responses:   modifyResponses,
		}},
		prefix + "/plan": {Post: &openapi.Operation{
			Summary:     "Preview the stages a run would execute",
			Tags:        []string{"PR/FAQ"},
			RequestBody: inputsBody,
			Responses:   planResponses,
		}},
		prefix + "/extract": {Post: &openapi.Operation{
			Summary:     "Extract reference document text",
			Tags:        []string{"PR/FAQ"},
			RequestBody: openapi.RequestBodyMultipart("FilesForm", true),
			Responses:   extractResponses,
		}},
	}
}

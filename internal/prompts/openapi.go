package prompts

import "github.com/JaimeStill/prfaq/pkg/openapi"

// Schemas returns the component schemas used by the prompt operations.
func Schemas() map[string]*openapi.Schema {
	stageEnum := make([]any, len(stages))
	for i, s := range stages {
		stageEnum[i] = string(s)
	}

	return map[string]*openapi.Schema{
		"Stage": {Type: "string", Enum: stageEnum},
		"Prompt": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"stage":        openapi.SchemaRef("Stage"),
				"instructions": {Type: "string", Description: "Effective instructions"},
				"spec":         {Type: "string", Description: "Output specification"},
				"overridden":   {Type: "boolean", Description: "Whether configuration overrides the default instructions"},
			},
		},
		"PromptList": {Type: "array", Items: openapi.SchemaRef("Prompt")},
		"StageList":  {Type: "array", Items: openapi.SchemaRef("Stage")},
		"StageContent": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"stage":   openapi.SchemaRef("Stage"),
				"content": {Type: "string"},
			},
		},
	}
}

// Paths returns the prompt operations keyed by path relative to basePath.
func Paths(basePath string) map[string]*openapi.PathItem {
	prefix := basePath + "/prompts"

	stageParam := openapi.PathParam("stage", openapi.SchemaRef("Stage"))

	content := func(summary string) *openapi.PathItem {
		return &openapi.PathItem{Get: &openapi.Operation{
			Summary:    summary,
			Tags:       []string{"Prompts"},
			Parameters: []*openapi.Parameter{stageParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Stage content", "StageContent"),
				400: openapi.ResponseRef("BadRequest"),
			},
		}}
	}

	return map[string]*openapi.PathItem{
		prefix: {Get: &openapi.Operation{
			Summary:   "List the effective prompt for every stage",
			Tags:      []string{"Prompts"},
			Responses: map[int]*openapi.Response{200: openapi.ResponseJSON("Prompts", "PromptList")},
		}},
		prefix + "/stages": {Get: &openapi.Operation{
			Summary:   "List prompted stages",
			Tags:      []string{"Prompts"},
			Responses: map[int]*openapi.Response{200: openapi.ResponseJSON("Stages", "StageList")},
		}},
		prefix + "/{stage}/instructions": content("Get the effective instructions for a stage"),
		prefix + "/{stage}/spec":         content("Get the output specification for a stage"),
	}
}

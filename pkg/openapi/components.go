package openapi

import "maps"

// NewComponents creates Components with the shared error schema and the
// error responses every operation may return.
func NewComponents() *Components {
	errorBody := func(description string) *Response {
		return &Response{
			Description: description,
			Content: map[string]*MediaType{
				mediaJSON: {Schema: SchemaRef("Error")},
			},
		}
	}

	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type: "object",
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":       errorBody("Invalid request"),
			"PayloadTooLarge":  errorBody("Request exceeds the maximum upload size"),
			"UnsupportedMedia": errorBody("Unsupported document type"),
			"Unprocessable":    errorBody("Document text could not be extracted"),
			"ServerError":      errorBody("Unexpected server error"),
			"BadGateway":       errorBody("The language model failed or returned unusable output"),
			"Unavailable":      errorBody("The run was cancelled"),
			"GatewayTimeout":   errorBody("The run exceeded its deadline"),
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}

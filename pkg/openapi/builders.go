package openapi

const (
	mediaJSON      = "application/json"
	mediaMultipart = "multipart/form-data"
	mediaSSE       = "text/event-stream"
)

// SchemaRef returns a Schema referencing the named component schema.
func SchemaRef(name string) *Schema {
	return &Schema{Ref: schemaRefPrefix + name}
}

// ResponseRef returns a Response referencing the named component response.
func ResponseRef(name string) *Response {
	return &Response{Ref: responseRefPrefix + name}
}

func RequestBodyJSON(schemaName string, required bool) *RequestBody {
	return requestBody(mediaJSON, schemaName, required)
}

func RequestBodyMultipart(schemaName string, required bool) *RequestBody {
	return requestBody(mediaMultipart, schemaName, required)
}

// AddMediaType lets one operation accept the same inputs in another
// encoding, such as JSON fields resent as a multipart form with files.
func (b *RequestBody) AddMediaType(mediaType, schemaName string) *RequestBody {
	b.Content[mediaType] = &MediaType{Schema: SchemaRef(schemaName)}
	return b
}

func ResponseJSON(description, schemaName string) *Response {
	return &Response{
		Description: description,
		Content:     map[string]*MediaType{mediaJSON: {Schema: SchemaRef(schemaName)}},
	}
}

// ResponseEventStream describes a server-sent events response. The event
// framing is documented in description since JSON Schema cannot express it.
func ResponseEventStream(description string) *Response {
	return &Response{
		Description: description,
		Content:     map[string]*MediaType{mediaSSE: {Schema: &Schema{Type: "string"}}},
	}
}

// HeaderParam creates an optional request header parameter.
func HeaderParam(name, typ, description string) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "header",
		Description: description,
		Schema:      &Schema{Type: typ},
	}
}

// PathParam creates a required path parameter.
func PathParam(name string, schema *Schema) *Parameter {
	return &Parameter{Name: name, In: "path", Required: true, Schema: schema}
}

func requestBody(mediaType, schemaName string, required bool) *RequestBody {
	return &RequestBody{
		Required: required,
		Content:  map[string]*MediaType{mediaType: {Schema: SchemaRef(schemaName)}},
	}
}

package openapi_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/prfaq/pkg/openapi"
)

func TestNewSpec(t *testing.T) {
	spec := openapi.NewSpec("Test API", "1.0.0")

	if spec.OpenAPI != "3.1.0" {
		t.Errorf("openapi version: got %s, want 3.1.0", spec.OpenAPI)
	}
	if spec.Info.Title != "Test API" {
		t.Errorf("title: got %s, want Test API", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("version: got %s, want 1.0.0", spec.Info.Version)
	}
	if spec.Components == nil {
		t.Fatal("components should not be nil")
	}
	if spec.Paths == nil {
		t.Fatal("paths should not be nil")
	}
}

func TestSetDescription(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	spec.SetDescription("A test API")

	if spec.Info.Description != "A test API" {
		t.Errorf("description: got %s", spec.Info.Description)
	}
}

func TestRefs(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"schema", openapi.SchemaRef("FAQ").Ref, "#/components/schemas/FAQ"},
		{"response", openapi.ResponseRef("BadGateway").Ref, "#/components/responses/BadGateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("ref: got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestRequestBodies(t *testing.T) {
	tests := []struct {
		name        string
		body        *openapi.RequestBody
		contentType string
	}{
		{"json", openapi.RequestBodyJSON("Inputs", true), "application/json"},
		{"multipart", openapi.RequestBodyMultipart("FilesForm", true), "multipart/form-data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.body.Required {
				t.Error("required should be true")
			}
			ct, ok := tt.body.Content[tt.contentType]
			if !ok {
				t.Fatalf("missing %s content type", tt.contentType)
			}
			if ct.Schema.Ref == "" {
				t.Error("schema ref is empty")
			}
		})
	}
}

func TestResponseJSON(t *testing.T) {
	resp := openapi.ResponseJSON("Success", "Response")

	if resp.Description != "Success" {
		t.Errorf("description: got %s", resp.Description)
	}
	ct, ok := resp.Content["application/json"]
	if !ok {
		t.Fatal("missing application/json content type")
	}
	if ct.Schema.Ref != "#/components/schemas/Response" {
		t.Errorf("schema ref: got %s", ct.Schema.Ref)
	}
}

func TestResponseEventStream(t *testing.T) {
	resp := openapi.ResponseEventStream("progress")

	if _, ok := resp.Content["text/event-stream"]; !ok {
		t.Fatal("missing text/event-stream content type")
	}
}

func TestHeaderParam(t *testing.T) {
	p := openapi.HeaderParam("X-Web-Search", "boolean", "Overrides use_websearch")

	if p.Name != "X-Web-Search" {
		t.Errorf("name: got %s", p.Name)
	}
	if p.In != "header" {
		t.Errorf("in: got %s", p.In)
	}
	if p.Required {
		t.Error("header params should be optional")
	}
	if p.Schema.Type != "boolean" {
		t.Errorf("schema type: got %s", p.Schema.Type)
	}
}

func TestNewComponentsDefaults(t *testing.T) {
	c := openapi.NewComponents()

	if _, ok := c.Schemas["Error"]; !ok {
		t.Error("missing default schema: Error")
	}

	responses := []string{
		"BadRequest", "PayloadTooLarge", "UnsupportedMedia", "Unprocessable",
		"ServerError", "BadGateway", "Unavailable", "GatewayTimeout",
	}
	for _, name := range responses {
		if _, ok := c.Responses[name]; !ok {
			t.Errorf("missing default response: %s", name)
		}
	}
}

func TestAddComponents(t *testing.T) {
	c := openapi.NewComponents()
	c.AddSchemas(map[string]*openapi.Schema{"FAQ": {Type: "object"}})
	c.AddResponses(map[string]*openapi.Response{"Conflict": {Description: "Conflict"}})

	if _, ok := c.Schemas["FAQ"]; !ok {
		t.Error("FAQ schema not added")
	}
	if _, ok := c.Schemas["Error"]; !ok {
		t.Error("default Error schema should still exist")
	}
	if _, ok := c.Responses["Conflict"]; !ok {
		t.Error("Conflict response not added")
	}
	if _, ok := c.Responses["BadRequest"]; !ok {
		t.Error("default BadRequest response should still exist")
	}
}

func TestAddPaths(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	item := &openapi.PathItem{Get: &openapi.Operation{Summary: "List prompts"}}

	if err := spec.AddPaths(map[string]*openapi.PathItem{"/api/prompts": item}); err != nil {
		t.Fatalf("AddPaths: %v", err)
	}

	err := spec.AddPaths(map[string]*openapi.PathItem{"/api/prompts": item})
	if !errors.Is(err, openapi.ErrDuplicatePath) {
		t.Errorf("duplicate path error = %v, want ErrDuplicatePath", err)
	}
}

func TestAddServers(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	spec.AddServers("https://prfaq.example.com", " ", "http://localhost:8080")

	if len(spec.Servers) != 2 {
		t.Fatalf("servers: got %d, want 2", len(spec.Servers))
	}
	if spec.Servers[1].URL != "http://localhost:8080" {
		t.Errorf("server url: got %s", spec.Servers[1].URL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		paths   map[string]*openapi.PathItem
		schemas map[string]*openapi.Schema
		wantRef string
	}{
		{
			name: "resolved",
			paths: map[string]*openapi.PathItem{
				"/plan": {Post: &openapi.Operation{
					RequestBody: openapi.RequestBodyJSON("Inputs", true),
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Plan", "Inputs"),
						400: openapi.ResponseRef("BadRequest"),
					},
				}},
			},
			schemas: map[string]*openapi.Schema{"Inputs": {Type: "object"}},
		},
		{
			name: "missing request schema",
			paths: map[string]*openapi.PathItem{
				"/plan": {Post: &openapi.Operation{
					RequestBody: openapi.RequestBodyJSON("Inputs", true),
					Responses:   map[int]*openapi.Response{},
				}},
			},
			wantRef: "#/components/schemas/Inputs",
		},
		{
			name: "missing response",
			paths: map[string]*openapi.PathItem{
				"/plan": {Get: &openapi.Operation{
					Responses: map[int]*openapi.Response{409: openapi.ResponseRef("Conflict")},
				}},
			},
			wantRef: "#/components/responses/Conflict",
		},
		{
			name: "missing nested item",
			schemas: map[string]*openapi.Schema{
				"PromptList": {Type: "array", Items: openapi.SchemaRef("Prompt")},
			},
			wantRef: "#/components/schemas/Prompt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := openapi.NewSpec("Test", "1.0.0")
			spec.Components.AddSchemas(tt.schemas)
			if err := spec.AddPaths(tt.paths); err != nil {
				t.Fatalf("AddPaths: %v", err)
			}

			err := spec.Validate()
			if tt.wantRef == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, openapi.ErrUnresolvedRef) {
				t.Fatalf("Validate() = %v, want ErrUnresolvedRef", err)
			}
			if !strings.Contains(err.Error(), tt.wantRef) {
				t.Errorf("error %q does not name %s", err, tt.wantRef)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	spec.AddServers("http://localhost:8080")

	handler, err := spec.Handler()
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content-type: got %s", ct)
	}

	body, _ := io.ReadAll(res.Body)
	var parsed struct {
		OpenAPI string `json:"openapi"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("body unmarshal failed: %v", err)
	}
	if parsed.OpenAPI != "3.1.0" {
		t.Errorf("openapi: got %s", parsed.OpenAPI)
	}
	if len(parsed.Servers) != 1 || parsed.Servers[0].URL != "http://localhost:8080" {
		t.Errorf("servers: got %+v", parsed.Servers)
	}
}

func TestHandlerRejectsUnresolvedRefs(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	spec.Paths["/faq"] = &openapi.PathItem{Get: &openapi.Operation{
		Responses: map[int]*openapi.Response{200: openapi.ResponseJSON("FAQ", "FAQ")},
	}}

	if _, err := spec.Handler(); !errors.Is(err, openapi.ErrUnresolvedRef) {
		t.Errorf("Handler() error = %v, want ErrUnresolvedRef", err)
	}
}

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := openapi.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Title != "PR/FAQ API" {
		t.Errorf("title: got %s, want PR/FAQ API", cfg.Title)
	}
	if cfg.Description == "" {
		t.Error("description should have a default")
	}
}

func TestConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_TITLE", "Custom API")
	t.Setenv("TEST_DESC", "Custom desc")
	t.Setenv("TEST_SERVERS", "https://a.example.com, https://b.example.com")

	cfg := openapi.Config{}
	env := &openapi.ConfigEnv{Title: "TEST_TITLE", Description: "TEST_DESC", Servers: "TEST_SERVERS"}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Title != "Custom API" {
		t.Errorf("title: got %s, want Custom API", cfg.Title)
	}
	if cfg.Description != "Custom desc" {
		t.Errorf("description: got %s, want Custom desc", cfg.Description)
	}
	if len(cfg.Servers) != 2 || cfg.Servers[1] != "https://b.example.com" {
		t.Errorf("servers: got %v", cfg.Servers)
	}
}

func TestConfigInvalidServer(t *testing.T) {
	cfg := openapi.Config{Servers: []string{"localhost:8080"}}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected error for server url without scheme")
	}
}

func TestConfigMerge(t *testing.T) {
	base := openapi.Config{Title: "Base"}
	base.Merge(&openapi.Config{Title: "Overlay"})

	if base.Title != "Overlay" {
		t.Errorf("title: got %s, want Overlay", base.Title)
	}
}

func TestPathParam(t *testing.T) {
	p := openapi.PathParam("stage", openapi.SchemaRef("Stage"))

	if p.In != "path" || !p.Required {
		t.Errorf("path param: got in=%s required=%v", p.In, p.Required)
	}
	if p.Schema.Ref != "#/components/schemas/Stage" {
		t.Errorf("schema ref: got %s", p.Schema.Ref)
	}
}

func TestAddMediaType(t *testing.T) {
	body := openapi.RequestBodyJSON("Inputs", true).AddMediaType("multipart/form-data", "InputsForm")

	if len(body.Content) != 2 {
		t.Fatalf("content types: got %d, want 2", len(body.Content))
	}
	if ref := body.Content["multipart/form-data"].Schema.Ref; ref != "#/components/schemas/InputsForm" {
		t.Errorf("multipart ref: got %s", ref)
	}
}

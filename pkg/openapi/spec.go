package openapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

var (
	ErrDuplicatePath = errors.New("duplicate path")
	ErrUnresolvedRef = errors.New("unresolved reference")
)

const (
	schemaRefPrefix   = "#/components/schemas/"
	responseRefPrefix = "#/components/responses/"
)

// Spec represents an OpenAPI 3.1 specification document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec creates a Spec with the given title, version, and default components.
func NewSpec(title, version string) *Spec {
	return &Spec{
		OpenAPI:    "3.1.0",
		Info:       &Info{Title: title, Version: version},
		Components: NewComponents(),
		Paths:      make(map[string]*PathItem),
	}
}

func (s *Spec) SetDescription(desc string) {
	s.Info.Description = desc
}

// AddServers appends a server entry for each non-empty URL.
func (s *Spec) AddServers(urls ...string) {
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			s.Servers = append(s.Servers, &Server{URL: u})
		}
	}
}

// AddPaths merges paths into the spec. A path already present is an error
// so two domains cannot silently overwrite each other's operations.
func (s *Spec) AddPaths(paths map[string]*PathItem) error {
	for path, item := range paths {
		if _, ok := s.Paths[path]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePath, path)
		}
		s.Paths[path] = item
	}
	return nil
}

// Validate reports every $ref that does not name a component.
func (s *Spec) Validate() error {
	var errs []error

	check := func(where, ref string) {
		if ref == "" {
			return
		}
		var ok bool
		switch {
		case strings.HasPrefix(ref, schemaRefPrefix):
			_, ok = s.Components.Schemas[strings.TrimPrefix(ref, schemaRefPrefix)]
		case strings.HasPrefix(ref, responseRefPrefix):
			_, ok = s.Components.Responses[strings.TrimPrefix(ref, responseRefPrefix)]
		}
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s in %s", ErrUnresolvedRef, ref, where))
		}
	}

	var walkSchema func(where string, sc *Schema)
	walkSchema = func(where string, sc *Schema) {
		if sc == nil {
			return
		}
		check(where, sc.Ref)
		walkSchema(where, sc.Items)
		for _, name := range sortedKeys(sc.Properties) {
			walkSchema(where, sc.Properties[name])
		}
	}

	walkContent := func(where string, content map[string]*MediaType) {
		for _, mt := range sortedKeys(content) {
			walkSchema(where, content[mt].Schema)
		}
	}

	for _, name := range sortedKeys(s.Components.Schemas) {
		walkSchema("schema "+name, s.Components.Schemas[name])
	}

	for _, path := range sortedKeys(s.Paths) {
		for method, op := range s.Paths[path].operations() {
			where := method + " " + path
			for _, p := range op.Parameters {
				walkSchema(where, p.Schema)
			}
			if op.RequestBody != nil {
				walkContent(where, op.RequestBody.Content)
			}
			for _, r := range op.Responses {
				check(where, r.Ref)
				walkContent(where, r.Content)
			}
		}
	}

	return errors.Join(errs...)
}

// Handler validates and serializes the spec once, returning a handler that
// serves the resulting document.
func (s *Spec) Handler() (http.HandlerFunc, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal spec: %w", err)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}, nil
}

func (p *PathItem) operations() map[string]*Operation {
	ops := make(map[string]*Operation, 4)
	for method, op := range map[string]*Operation{
		"GET": p.Get, "POST": p.Post, "PUT": p.Put, "DELETE": p.Delete,
	} {
		if op != nil {
			ops[method] = op
		}
	}
	return ops
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

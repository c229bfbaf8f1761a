package routes

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDuplicateRoute = errors.New("duplicate route")
	ErrInvalidRoute   = errors.New("invalid route")
)

// Group organizes routes under a common prefix. Children are registered
// beneath the parent prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Patterns returns the ServeMux patterns the group registers, parents first.
func (g Group) Patterns() []string {
	var out []string
	g.walk("", func(pattern string, _ http.HandlerFunc) error {
		out = append(out, pattern)
		return nil
	})
	return out
}

// Register adds all routes from the given groups to the mux. A route
// without a method or handler, or a pattern repeated across the groups,
// is reported instead of reaching ServeMux, which panics on conflicts.
func Register(mux *http.ServeMux, groups ...Group) error {
	seen := make(map[string]bool)

	for _, g := range groups {
		err := g.walk("", func(pattern string, h http.HandlerFunc) error {
			if seen[pattern] {
				return fmt.Errorf("%w: %s", ErrDuplicateRoute, pattern)
			}
			seen[pattern] = true
			mux.HandleFunc(pattern, h)
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (g Group) walk(parent string, fn func(string, http.HandlerFunc) error) error {
	prefix := parent + g.Prefix

	for _, r := range g.Routes {
		if r.Method == "" || r.Handler == nil {
			return fmt.Errorf("%w: %q under %q", ErrInvalidRoute, r.Pattern, prefix)
		}
		if err := fn(r.muxPattern(prefix), r.Handler); err != nil {
			return err
		}
	}

	for _, child := range g.Children {
		if err := child.walk(prefix, fn); err != nil {
			return err
		}
	}
	return nil
}

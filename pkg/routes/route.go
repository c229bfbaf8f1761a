package routes

import (
	"net/http"
	"strings"
)

// Route binds an HTTP method and pattern to a handler. Pattern is relative
// to the enclosing group and may be empty to match the group prefix.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

func (r Route) muxPattern(prefix string) string {
	return strings.ToUpper(r.Method) + " " + prefix + r.Pattern
}

package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when no JSON value in the content decodes
// into the target type.
var ErrParseFailed = errors.New("failed to parse response")

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\n?(.*?)```")

// Parse decodes model output into T. Candidates are tried in order: the
// whole content, each fenced code block, then the outermost {...} and
// [...] spans embedded in surrounding prose.
func Parse[T any](content string) (T, error) {
	content = strings.TrimSpace(content)

	for _, candidate := range candidates(content) {
		var v T
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			return v, nil
		}
	}

	var zero T
	return zero, fmt.Errorf("%w: %s", ErrParseFailed, truncate(content, 200))
}

// ParseOr behaves like Parse but returns fallback instead of an error.
// The boolean reports whether parsing succeeded.
func ParseOr[T any](content string, fallback T) (T, bool) {
	v, err := Parse[T](content)
	if err != nil {
		return fallback, false
	}
	return v, true
}

func candidates(content string) []string {
	out := []string{content}

	for _, m := range fencedBlock.FindAllStringSubmatch(content, -1) {
		if block := strings.TrimSpace(m[1]); block != "" {
			out = append(out, block)
		}
	}

	for _, delim := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(content, delim[0])
		end := strings.LastIndex(content, delim[1])
		if start != -1 && end > start {
			out = append(out, content[start:end+1])
		}
	}

	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

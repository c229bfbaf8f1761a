package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNoFlush is returned when the response writer cannot flush.
var ErrNoFlush = errors.New("streaming not supported")

// WriteEvent writes one server-sent event: "event: <name>\ndata: <JSON>\n\n".
func WriteEvent(w io.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}

// SSE writes messages to an HTTP response and flushes after each one.
type SSE struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewSSE sets the event-stream headers on w. It returns ErrNoFlush when w
// does not support flushing.
func NewSSE(w http.ResponseWriter) (*SSE, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrNoFlush
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()

	return &SSE{w: w, f: f}, nil
}

// Send writes m and flushes. It matches the sink signature of Forward.
func (s *SSE) Send(m Message) error {
	if err := WriteEvent(s.w, m.Event, m.Data); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// sseWriter frames JSON values as server-sent events for a single consumer.
// Headers are sent lazily on the first event so handlers can still return a
// plain error response if execution fails before anything is streamed.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
	failed  bool
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported by response writer")
	}
	return &sseWriter{w: w, flusher: flusher}, nil
}

// WriteEvent serializes v as one "data: {...}\n\n" frame and flushes it
// immediately. Once a write fails (consumer disconnected) all further writes
// are silently dropped; the caller's subprocess keeps running regardless.
func (s *sseWriter) WriteEvent(v any) error {
	if s.failed {
		return nil
	}
	if !s.started {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.w.Header().Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.flusher.Flush()
		s.started = true
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		s.failed = true
		return nil
	}
	s.flusher.Flush()
	return nil
}

// Started reports whether any event has been written to the consumer.
func (s *sseWriter) Started() bool {
	return s.started
}

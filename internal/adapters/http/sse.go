package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/PabloGalante/jarvis-hud/internal/adapters/llm"
)

// sseWriter writes text/event-stream frames. Headers go out lazily on the
// first event so a handler can still fall back to a JSON error.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	f, _ := w.(http.Flusher)
	return &sseWriter{w: w, flusher: f}
}

func (s *sseWriter) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
}

// Event writes one frame. An empty name writes a plain data event.
func (s *sseWriter) Event(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.raw(name, string(data))
}

// Content writes a `data: {"content": ...}` chunk.
func (s *sseWriter) Content(delta string) error {
	return s.Event("", llm.StreamEvent{Content: delta})
}

// Done writes the `data: [DONE]` terminator.
func (s *sseWriter) Done() error {
	return s.raw("", "[DONE]")
}

func (s *sseWriter) raw(name, data string) error {
	s.start()
	if name != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/portfolio-agent/internal/pipeline"
)

// SerializationError reports an event whose payload could not be encoded. The
// event has already been sent with its payload rendered as a string.
type SerializationError struct {
	Event string
	Cause error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to encode %s event: %v", e.Event, e.Cause)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewSSEWriter sets the event-stream headers on w.
func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, rc: http.NewResponseController(w)}
}

// DisableWriteDeadline clears the server write timeout for this response.
// Writers that cannot set deadlines are left as they are.
func (s *SSEWriter) DisableWriteDeadline() error {
	if err := s.rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// Start sends the response header.
func (s *SSEWriter) Start() error {
	s.w.WriteHeader(http.StatusOK)
	return s.flush()
}

// WriteEvent sends one pipeline event as
// "event: <name>\ndata: {"event": <name>, "data": <payload>}\n\n".
func (s *SSEWriter) WriteEvent(ev pipeline.Event) error {
	data, encErr := json.Marshal(ev)
	if encErr != nil {
		data = fallbackEnvelope(ev)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Name(), data); err != nil {
		return err
	}
	if err := s.flush(); err != nil {
		return err
	}
	if encErr != nil {
		return &SerializationError{Event: ev.Name(), Cause: encErr}
	}
	return nil
}

// fallbackEnvelope renders the payload with %v so the client still gets the
// event, including terminal ones.
func fallbackEnvelope(ev pipeline.Event) []byte {
	// Two strings always encode.
	data, _ := json.Marshal(struct {
		Event string `json:"event"`
		Data  string `json:"data"`
	}{Event: ev.Name(), Data: fmt.Sprintf("%v", ev.Payload)})
	return data
}

// WriteComment sends an SSE comment line, used as a keep-alive.
func (s *SSEWriter) WriteComment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	return s.flush()
}

func (s *SSEWriter) flush() error {
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

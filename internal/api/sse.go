package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// sseWriter provides Server-Sent Events writing capabilities.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// sendEvent sends an SSE event with the given event type and data.
// Format: event: <type>\ndata: <data>\n\n
func (s *sseWriter) sendEvent(event, data string) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// sendComment sends a comment (ignored by clients, useful for keepalive).
func (s *sseWriter) sendComment(comment string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", comment); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// handleBackupStream pushes backup notifications to the client as SSE
// events until the client disconnects or the stream lifetime expires.
func (s *Server) handleBackupStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		JSONError(w, ErrNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		JSONError(w, ErrStreamingUnsupported)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sse := &sseWriter{w: w, flusher: flusher}
	sse.sendComment("connected")

	msgs, cancel := s.hub.Subscribe()
	defer cancel()

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	deadline := time.NewTimer(s.config.StreamMaxDuration)
	defer deadline.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-deadline.C:
			sse.sendComment("stream lifetime reached, reconnect")
			return
		case <-keepalive.C:
			if err := sse.sendComment("keepalive"); err != nil {
				return
			}
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := sse.sendEvent("backup", string(data)); err != nil {
				return
			}
		}
	}
}

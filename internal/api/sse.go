package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// streamState issues Server-Sent Events with the live counting snapshot,
// latest-value only: a slow client skips intermediate snapshots instead of
// building a backlog.
func (s *Server) streamState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := s.manager.Active()
	if session == nil {
		s.writeJSONError(w, http.StatusNotFound, "no active session")
		return
	}

	id, c, err := session.SubscribeSnapshots()
	if err != nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "session closed")
		return
	}
	defer session.UnsubscribeSnapshots(id)

	s.serveSSE(w, r, func() (interface{}, bool) {
		v, ok := <-c
		return v, ok
	})
}

// streamReps issues one SSE event per completed repetition.
func (s *Server) streamReps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := s.manager.Active()
	if session == nil {
		s.writeJSONError(w, http.StatusNotFound, "no active session")
		return
	}

	id, c, err := session.SubscribeReps(16)
	if err != nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "session closed")
		return
	}
	defer session.UnsubscribeReps(id)

	s.serveSSE(w, r, func() (interface{}, bool) {
		v, ok := <-c
		return v, ok
	})
}

// serveSSE writes events from next until the subscription or the client
// connection closes.
func (s *Server) serveSSE(w http.ResponseWriter, r *http.Request, next func() (interface{}, bool)) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Initial ping establishes the connection on the client side.
	w.Write([]byte(": ping\n\n"))
	flusher.Flush()

	events := make(chan interface{})
	done := make(chan struct{})
	go func() {
		defer close(events)
		for {
			v, ok := next()
			if !ok {
				return
			}
			select {
			case events <- v:
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	for {
		select {
		case v, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(v)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/formsense/repcoach/internal/db"
	"github.com/formsense/repcoach/internal/engine"
)

// showState returns the current counting snapshot.
func (s *Server) showState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	session := s.manager.Active()
	if session == nil {
		s.writeJSONError(w, http.StatusNotFound, "no active session, select an exercise first")
		return
	}
	s.writeJSON(w, session.Snapshot())
}

// listExercises returns the supported exercise variants.
func (s *Server) listExercises(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, engine.Exercises)
}

// selectExercise starts a new counting session for the requested variant,
// finishing and persisting the previous one.
func (s *Server) selectExercise(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := r.FormValue("exercise")
	ex, err := engine.ParseExercise(name)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.manager.SelectExercise(r.Context(), ex)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("failed to start session: %v", err))
		return
	}

	s.writeJSON(w, map[string]string{
		"session_id": session.ID(),
		"exercise":   string(ex),
	})
}

// resetSession zeroes the active session's counters in place.
func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	session := s.manager.Active()
	if session == nil {
		s.writeJSONError(w, http.StatusNotFound, "no active session")
		return
	}
	session.Reset()
	s.writeJSON(w, session.Snapshot())
}

// showStatistics returns aggregate statistics for the active session.
func (s *Server) showStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	session := s.manager.Active()
	if session == nil {
		s.writeJSONError(w, http.StatusNotFound, "no active session")
		return
	}
	s.writeJSON(w, session.Statistics())
}

// showConfig returns the effective tuning values.
func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"probability_threshold": s.cfg.GetProbabilityThreshold(),
		"stability_frames":      s.cfg.GetStabilityFrames(),
		"min_rep_interval":      s.cfg.GetMinRepInterval().String(),
		"quality_threshold":     s.cfg.GetQualityThreshold(),
		"max_history":           s.cfg.GetMaxHistory(),
		"smoothing_window":      s.cfg.GetSmoothingWindow(),
		"min_visible_landmarks": s.cfg.GetMinVisibleLandmarks(),
		"visibility_threshold":  s.cfg.GetVisibilityThreshold(),
	})
}

// listSessions returns stored session summaries, newest first.
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusNotFound, "persistence disabled")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	sessions, err := s.db.ListSessions(r.Context(), limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("failed to list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.SessionRow{}
	}
	s.writeJSON(w, sessions)
}

// showSession returns one stored session with its repetitions.
func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusNotFound, "persistence disabled")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if id == "" || strings.Contains(id, "/") {
		s.writeJSONError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	row, err := s.db.GetSession(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		s.writeJSONError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("failed to load session: %v", err))
		return
	}

	reps, err := s.db.SessionReps(r.Context(), id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("failed to load reps: %v", err))
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"session": row,
		"reps":    reps,
	})
}

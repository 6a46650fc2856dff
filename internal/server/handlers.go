package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/weboliver/collectsearch/internal/models"
	"github.com/weboliver/collectsearch/internal/orchestrator"
)

type fieldUpdateRequest struct {
	Query string `json:"query"`
	// Wait controls whether the response carries the debounced suggestion
	// list (default) or returns immediately with the pre-fetch snapshot.
	Wait *bool `json:"wait,omitempty"`
}

type selectRequest struct {
	Field      string            `json:"field"`
	Suggestion models.Suggestion `json:"suggestion"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.orch.CreateSession()
	if err != nil {
		s.logger.Error("session create failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.orch.DeleteSession(id); err != nil {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleFieldUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	field, err := models.ParseFieldType(chi.URLParam(r, "field"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req fieldUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("field update",
		zap.String("session_id", sess.ID()),
		zap.String("field", field.String()),
		zap.String("query", req.Query),
	)

	before := sess.Snapshot().Version
	if err := sess.UpdateField(field, req.Query); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Wait != nil && !*req.Wait {
		s.respondJSON(w, http.StatusOK, sess.Snapshot())
		return
	}

	// Hold the request until the debounced fetch publishes, bounded by the
	// debounce window plus a fetch allowance.
	waitCtx, cancel := context.WithTimeout(r.Context(), s.search.Debounce()+5*time.Second)
	defer cancel()
	snap := sess.Wait(waitCtx, before+1)
	for waitCtx.Err() == nil && snap.Loading {
		snap = sess.Wait(waitCtx, snap.Version)
	}
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	field, err := models.ParseFieldType(req.Field)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("selection",
		zap.String("session_id", sess.ID()),
		zap.String("field", field.String()),
		zap.String("key", req.Suggestion.Key()),
	)

	if err := sess.HandleSelect(req.Suggestion, field); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleBestMatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	field, err := models.ParseFieldType(r.URL.Query().Get("field"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := r.URL.Query().Get("query")

	best, err := sess.BestMatch(r.Context(), field, query)
	if err != nil {
		s.logger.Error("best match failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "search failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"best_match": best})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.ClearSearch()
	s.respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.orch.CacheStats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// session resolves the session from the URL, writing a 404 when missing.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*orchestrator.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.orch.Session(id)
	if err != nil {
		if errors.Is(err, orchestrator.ErrSessionNotFound) {
			s.respondError(w, http.StatusNotFound, "session not found")
		} else {
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return sess, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

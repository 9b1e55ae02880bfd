package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/vantage/internal/profile"
)

// CAPRequest holds onboarding answers.
type CAPRequest struct {
	Answers []profile.Answer `json:"answers"`
}

// capQuestions handles GET /api/v1/cap/questions
func (s *Server) capQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"questions": profile.Questions})
}

// buildCAP handles POST /api/v1/cap
func (s *Server) buildCAP(w http.ResponseWriter, r *http.Request) {
	var req CAPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_input", "invalid JSON: "+err.Error())
		return
	}
	raw := profile.BuildFromAnswers(req.Answers)
	raw.SessionID = uuid.NewString()
	writeJSON(w, http.StatusOK, map[string]any{"cap_profile": raw})
}

// modelMetadata handles GET /api/v1/model
func (s *Server) modelMetadata(w http.ResponseWriter, r *http.Request) {
	b := s.predictor.Load().Bundle()
	if b == nil {
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", "no model bundle loaded")
		return
	}
	writeJSON(w, http.StatusOK, b.Metadata())
}

// unmappedVocabulary handles GET /api/v1/vocabulary/unmapped
func (s *Server) unmappedVocabulary(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_input", "limit must be a positive integer")
			return
		}
		limit = n
	}

	if s.vocab != nil {
		counts, err := s.vocab.ListUnmapped(r.Context(), limit)
		if err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"source": "store", "unmapped": counts})
			return
		}
		s.logger.Warn("failed to list unmapped vocabulary, using in-memory counts", "error", err)
	}

	counts := s.tally.Snapshot()
	if len(counts) > limit {
		counts = counts[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"source": "memory", "unmapped": counts})
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/vantage/internal/features"
	"github.com/MikeSquared-Agency/vantage/internal/hermes"
	"github.com/MikeSquared-Agency/vantage/internal/predict"
	"github.com/MikeSquared-Agency/vantage/internal/profile"
	"github.com/MikeSquared-Agency/vantage/internal/rules"
	"github.com/MikeSquared-Agency/vantage/internal/store"
	"github.com/MikeSquared-Agency/vantage/internal/theme"
	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

// UIConfigRequest carries a CAP in either key spelling.
type UIConfigRequest struct {
	CAPProfile      json.RawMessage `json:"cap_profile"`
	CAPProfileCamel json.RawMessage `json:"capProfile"`
	SessionID       string          `json:"session_id,omitempty"`
}

// UIConfigResponse is returned by both prediction routes.
type UIConfigResponse struct {
	UIConfig     ui.UIConfig `json:"ui_config"`
	Theme        theme.Theme `json:"theme"`
	Source       string      `json:"source"`
	ModelVersion string      `json:"model_version,omitempty"`
}

func decodeCAP(r *http.Request) (profile.RawProfile, string, error) {
	var req UIConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return profile.RawProfile{}, "", errors.New("request body must be a JSON object")
	}
	body := req.CAPProfile
	if len(body) == 0 {
		body = req.CAPProfileCamel
	}
	if len(body) == 0 {
		return profile.RawProfile{}, "", errors.New("cap_profile is required")
	}
	var raw profile.RawProfile
	if err := json.Unmarshal(body, &raw); err != nil {
		return profile.RawProfile{}, "", err
	}
	session := req.SessionID
	if session == "" {
		session = raw.SessionID
	}
	return raw, session, nil
}

// predictUIConfig handles POST /api/v1/ui-config/predict
func (s *Server) predictUIConfig(w http.ResponseWriter, r *http.Request) {
	raw, session, err := decodeCAP(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_input", err.Error())
		return
	}

	pred := s.predictor.Load()
	v := s.encoder.Encode(raw)
	cfg, err := pred.Predict(v)
	switch {
	case errors.Is(err, predict.ErrModelUnavailable):
		s.logger.Error("prediction without model", "error", err)
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", err.Error())
		return
	case err != nil:
		s.logger.Error("prediction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "prediction_failed", err.Error())
		return
	}

	version := pred.Bundle().Version
	s.served(r.Context(), session, hermes.SourceModel, version, v, cfg)
	writeJSON(w, http.StatusOK, UIConfigResponse{
		UIConfig:     cfg,
		Theme:        theme.Build(cfg),
		Source:       hermes.SourceModel,
		ModelVersion: version,
	})
}

// rulesUIConfig handles POST /api/v1/ui-config/rules
func (s *Server) rulesUIConfig(w http.ResponseWriter, r *http.Request) {
	raw, session, err := decodeCAP(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_input", err.Error())
		return
	}

	p := s.encoder.Parse(raw)
	cfg := rules.Infer(p)

	s.served(r.Context(), session, hermes.SourceRules, "", features.EncodeProfile(p), cfg)
	writeJSON(w, http.StatusOK, UIConfigResponse{
		UIConfig: cfg,
		Theme:    theme.Build(cfg),
		Source:   hermes.SourceRules,
	})
}

// served publishes and audits a configuration. Failures are logged only.
func (s *Server) served(ctx context.Context, session, source, version string, v features.Vector, cfg ui.UIConfig) {
	if s.events != nil {
		evt := hermes.PredictionEvent{
			SessionID:    session,
			Source:       source,
			ModelVersion: version,
			Config:       cfg,
			Timestamp:    time.Now().UTC(),
		}
		if err := s.events.Publish(hermes.SubjectPredicted, evt); err != nil {
			s.logger.Warn("failed to publish prediction", "error", err)
		}
	}
	if s.audit != nil {
		_, err := s.audit.RecordPrediction(ctx, store.Prediction{
			SessionID:    session,
			Source:       source,
			ModelVersion: version,
			Features:     v.Slice(),
			Config:       cfg,
		})
		if err != nil {
			s.logger.Warn("failed to record prediction", "error", err)
		}
	}
}

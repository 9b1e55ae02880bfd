package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

// Prediction is one served configuration.
type Prediction struct {
	ID           uuid.UUID
	SessionID    string
	Source       string
	ModelVersion string
	Features     []float64
	Config       ui.UIConfig
	CreatedAt    time.Time
}

// RecordPrediction writes an audit row and returns its id.
func (s *Store) RecordPrediction(ctx context.Context, p Prediction) (uuid.UUID, error) {
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ui_config_predictions (id, session_id, source, model_version, features, ui_config, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		id, p.SessionID, p.Source, p.ModelVersion, p.Features, p.Config,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert prediction: %w", err)
	}
	return id, nil
}

// PredictionsForSession returns a session's predictions, newest first.
func (s *Store) PredictionsForSession(ctx context.Context, sessionID string, limit int) ([]Prediction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, source, model_version, features, ui_config, created_at
		FROM ui_config_predictions
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []Prediction
	for rows.Next() {
		var p Prediction
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Source, &p.ModelVersion, &p.Features, &p.Config, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

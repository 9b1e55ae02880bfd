package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/vantage/internal/features"
)

// IncrementUnmapped counts one more sighting of an unmapped CAP value.
func (s *Store) IncrementUnmapped(ctx context.Context, field, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO unmapped_vocabulary (field, value, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (field, value)
		DO UPDATE SET count = unmapped_vocabulary.count + 1, last_seen = now()`,
		field, value,
	)
	if err != nil {
		return fmt.Errorf("increment unmapped: %w", err)
	}
	return nil
}

// ListUnmapped returns the most frequent unmapped values.
func (s *Store) ListUnmapped(ctx context.Context, limit int) ([]features.UnmappedCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT field, value, count
		FROM unmapped_vocabulary
		ORDER BY count DESC, field, value
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query unmapped: %w", err)
	}
	defer rows.Close()

	var out []features.UnmappedCount
	for rows.Next() {
		var c features.UnmappedCount
		var n int64
		if err := rows.Scan(&c.Field, &c.Value, &n); err != nil {
			return nil, fmt.Errorf("scan unmapped: %w", err)
		}
		c.Count = int(n)
		out = append(out, c)
	}
	return out, rows.Err()
}

// VocabularyRecorder persists unmapped values as a features.Observer.
type VocabularyRecorder struct {
	store   *Store
	timeout time.Duration
	logger  *slog.Logger
}

func NewVocabularyRecorder(s *Store, logger *slog.Logger) *VocabularyRecorder {
	return &VocabularyRecorder{store: s, timeout: 2 * time.Second, logger: logger}
}

func (r *VocabularyRecorder) Unmapped(field, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.IncrementUnmapped(ctx, field, value); err != nil {
		r.logger.Warn("failed to record unmapped value", "field", field, "error", err)
	}
}

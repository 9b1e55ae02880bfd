package api

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MikeSquared-Agency/vantage/internal/hermes"
	"github.com/MikeSquared-Agency/vantage/internal/model"
	"github.com/MikeSquared-Agency/vantage/internal/predict"
)

// ReloadBundle loads the bundle at path and swaps it in. The current
// predictor keeps serving if the load fails.
func (s *Server) ReloadBundle(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	b, err := model.LoadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", path, err)
	}
	s.SetPredictor(predict.New(b, s.encoder))
	s.logger.Info("model bundle reloaded", "version", b.Version, "path", path)
	return nil
}

var errBundleOutsideDir = errors.New("bundle path outside the model directory")

// eventBundlePath resolves a path named in an event, relative paths against
// the bundle directory, and rejects anything that leaves it.
func (s *Server) eventBundlePath(p string) (string, error) {
	if s.bundleDir == "" {
		return "", errors.New("event-driven reloads are disabled")
	}
	dir, err := filepath.Abs(s.bundleDir)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	rel, err := filepath.Rel(dir, filepath.Clean(p))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errBundleOutsideDir, p)
	}
	return filepath.Join(dir, rel), nil
}

// HandleModelTrained processes vantage.model.trained events.
func (s *Server) HandleModelTrained(subject string, data []byte) {
	evt, err := hermes.ParseModelTrained(data)
	if err != nil {
		s.logger.Error("failed to parse model trained event", "error", err)
		return
	}
	path, err := s.eventBundlePath(evt.BundlePath)
	if err != nil {
		s.logger.Warn("ignoring model trained event", "version", evt.Version, "error", err)
		return
	}
	if err := s.ReloadBundle(context.Background(), path); err != nil {
		s.logger.Error("keeping current model", "version", evt.Version, "error", err)
	}
}

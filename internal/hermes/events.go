package hermes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

const (
	SubjectPredicted    = "vantage.uiconfig.predicted"
	SubjectUnmapped     = "vantage.cap.unmapped"
	SubjectModelTrained = "vantage.model.trained"
)

// Prediction sources.
const (
	SourceModel = "model"
	SourceRules = "rules"
)

// PredictionEvent is emitted for every configuration served.
type PredictionEvent struct {
	SessionID    string      `json:"session_id,omitempty"`
	Source       string      `json:"source"`
	ModelVersion string      `json:"model_version,omitempty"`
	Config       ui.UIConfig `json:"ui_config"`
	Timestamp    time.Time   `json:"timestamp"`
}

// UnmappedEvent is emitted when a CAP value had no mapping.
type UnmappedEvent struct {
	Field     string    `json:"field"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// ModelTrainedEvent announces a newly written bundle.
type ModelTrainedEvent struct {
	Version    string             `json:"version"`
	BundlePath string             `json:"bundle_path"`
	Rows       int                `json:"rows"`
	Accuracy   map[string]float64 `json:"accuracy"`
	Flagged    []string           `json:"flagged,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// ParseModelTrained decodes a SubjectModelTrained payload.
func ParseModelTrained(data []byte) (*ModelTrainedEvent, error) {
	var evt ModelTrainedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("parse model trained event: %w", err)
	}
	if evt.BundlePath == "" {
		return nil, fmt.Errorf("model trained event %s has no bundle path", evt.Version)
	}
	return &evt, nil
}

// UnmappedPublisher forwards unmapped CAP values to NATS. Failures are
// logged and otherwise ignored.
type UnmappedPublisher struct {
	pub    Publisher
	logger *slog.Logger
}

func NewUnmappedPublisher(pub Publisher, logger *slog.Logger) *UnmappedPublisher {
	return &UnmappedPublisher{pub: pub, logger: logger}
}

func (u *UnmappedPublisher) Unmapped(field, value string) {
	evt := UnmappedEvent{Field: field, Value: value, Timestamp: time.Now().UTC()}
	if err := u.pub.Publish(SubjectUnmapped, evt); err != nil {
		u.logger.Warn("failed to publish unmapped value", "field", field, "error", err)
	}
}

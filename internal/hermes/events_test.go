package hermes

import (
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

type capture struct {
	subjects []string
	payloads []any
	err      error
}

func (c *capture) Publish(subject string, data any) error {
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return c.err
}

func TestParseModelTrained(t *testing.T) {
	raw := `{
		"version": "3b1f",
		"bundle_path": "ml/models/ui_model_bundle.json",
		"rows": 2000,
		"accuracy": {"color_theme": 0.97, "motion": 0.83},
		"flagged": ["motion"]
	}`

	evt, err := ParseModelTrained([]byte(raw))
	if err != nil {
		t.Fatalf("ParseModelTrained: %v", err)
	}
	if evt.BundlePath != "ml/models/ui_model_bundle.json" {
		t.Errorf("expected bundle path, got %q", evt.BundlePath)
	}
	if evt.Accuracy["motion"] != 0.83 {
		t.Errorf("expected motion accuracy 0.83, got %v", evt.Accuracy["motion"])
	}
	if len(evt.Flagged) != 1 || evt.Flagged[0] != "motion" {
		t.Errorf("expected motion flagged, got %v", evt.Flagged)
	}
}

func TestParseModelTrained_Invalid(t *testing.T) {
	for _, raw := range []string{`{`, `{"version":"x"}`} {
		if _, err := ParseModelTrained([]byte(raw)); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}

func TestPredictionEventShape(t *testing.T) {
	data, err := json.Marshal(PredictionEvent{Source: SourceRules, Config: ui.NeutralDefault()})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["source"] != "rules" {
		t.Errorf("expected source rules, got %v", m["source"])
	}
	cfg, ok := m["ui_config"].(map[string]any)
	if !ok || cfg["color_theme"] != "neutral" {
		t.Errorf("expected nested ui_config, got %v", m["ui_config"])
	}
	if _, ok := m["session_id"]; ok {
		t.Error("empty session_id should be omitted")
	}
}

func TestUnmappedPublisher(t *testing.T) {
	c := &capture{}
	NewUnmappedPublisher(c, slog.Default()).Unmapped("time_horizon", "1month")

	if len(c.subjects) != 1 || c.subjects[0] != SubjectUnmapped {
		t.Fatalf("expected one publish to %s, got %v", SubjectUnmapped, c.subjects)
	}
	evt := c.payloads[0].(UnmappedEvent)
	if evt.Field != "time_horizon" || evt.Value != "1month" {
		t.Errorf("unexpected event %+v", evt)
	}
}

func TestUnmappedPublisher_SwallowsErrors(t *testing.T) {
	c := &capture{err: errors.New("nats: connection closed")}
	NewUnmappedPublisher(c, slog.Default()).Unmapped("disorders", "synesthesia")
	if len(c.subjects) != 1 {
		t.Errorf("expected publish attempt, got %d", len(c.subjects))
	}
}

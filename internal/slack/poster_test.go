package slack

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/vantage/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleReport() *model.Report {
	return &model.Report{
		Version:     "bundle-42",
		Rows:        2000,
		TrainRows:   1600,
		TestRows:    400,
		MinAccuracy: 0.85,
		Targets: []model.TargetReport{
			{Target: "color_theme", Kind: "categorical", TestAccuracy: 0.97, CVMean: 0.96, CVStd: 0.01,
				Classes: []model.ClassReport{{Label: "dark", Precision: 0.98, Recall: 0.97, F1: 0.97, Support: 120}}},
			{Target: "motion", Kind: "categorical", TestAccuracy: 0.81, CVMean: 0.8, CVStd: 0.02, Flagged: true,
				Classes: []model.ClassReport{
					{Label: "off", Precision: 0.9, Recall: 0.7, F1: 0.79, Support: 50},
					{Label: "reduced", Precision: 0.7, Recall: 0.88, F1: 0.78, Support: 40},
				}},
		},
		Flagged: []string{"motion"},
		Importances: []model.FeatureImportance{
			{Feature: "has_dyslexia", Importance: 0.31},
			{Feature: "has_adhd", Importance: 0.2},
			{Feature: "support_level_enc", Importance: 0.1},
			{Feature: "time_horizon_enc", Importance: 0.01},
		},
		Summary: model.AccuracySummary{Mean: 0.89, Min: 0.81, Max: 0.97},
	}
}

func TestFormatTrainingMessage(t *testing.T) {
	msg := formatTrainingMessage(sampleReport(), "ml/models/ui_model_bundle.json")

	checks := []string{
		"bundle-42",
		"ml/models/ui_model_bundle.json",
		"2000 (1600 train / 400 test)",
		"color_theme: 0.970",
		"motion: 0.810",
		":warning:",
		"*Below 0.85:* motion",
		"has_dyslexia (0.31)",
	}
	for _, check := range checks {
		if !strings.Contains(msg, check) {
			t.Errorf("expected message to contain %q", check)
		}
	}
	if strings.Contains(msg, "time_horizon_enc") {
		t.Error("expected only the top three features")
	}
}

func TestFormatTrainingMessage_NothingFlagged(t *testing.T) {
	rep := sampleReport()
	rep.Flagged = nil
	rep.Targets = rep.Targets[:1]

	msg := formatTrainingMessage(rep, "b.json")
	if strings.Contains(msg, "Below") || strings.Contains(msg, ":warning:") {
		t.Errorf("unexpected warning in %q", msg)
	}
}

func TestPostTrainingReport_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer xoxb-test" {
			t.Errorf("expected Bearer xoxb-test, got %q", r.Header.Get("Authorization"))
		}

		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		json.Unmarshal(body, &payload)

		if payload["channel"] != "C123" {
			t.Errorf("expected channel C123, got %v", payload["channel"])
		}
		if _, ok := payload["blocks"]; !ok {
			t.Error("expected blocks in payload")
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"ts": "1234567890.123456",
		})
	}))
	defer server.Close()

	p := NewPoster("xoxb-test", "C123", discardLogger())
	p.apiURL = server.URL

	ts, err := p.PostTrainingReport(context.Background(), sampleReport(), "b.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts != "1234567890.123456" {
		t.Errorf("expected ts 1234567890.123456, got %q", ts)
	}
}

func TestPostTrainingReport_SlackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"ok":    false,
			"error": "channel_not_found",
		})
	}))
	defer server.Close()

	p := NewPoster("xoxb-test", "C123", discardLogger())
	p.apiURL = server.URL

	_, err := p.PostTrainingReport(context.Background(), sampleReport(), "b.json")
	if err == nil {
		t.Fatal("expected error for slack error response")
	}
}

func TestPostThread(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "ts": "1.2"})
	}))
	defer server.Close()

	p := NewPoster("xoxb-test", "C123", discardLogger())
	p.apiURL = server.URL

	if err := p.PostThread(context.Background(), "1.1", "motion regressed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["thread_ts"] != "1.1" || got["text"] != "motion regressed" {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestFormatClassReports(t *testing.T) {
	rep := sampleReport()
	got := formatClassReports(rep)
	if !strings.Contains(got, "*motion* (categorical)") || !strings.Contains(got, "reduced") {
		t.Errorf("flagged target missing:\n%s", got)
	}
	if strings.Contains(got, "color_theme") {
		t.Errorf("only flagged targets expected when any are flagged:\n%s", got)
	}

	rep.Flagged = nil
	rep.Targets[1].Flagged = false
	if got := formatClassReports(rep); !strings.Contains(got, "color_theme") || !strings.Contains(got, "motion") {
		t.Errorf("every target expected when none are flagged:\n%s", got)
	}

	if got := formatClassReports(&model.Report{}); got != "" {
		t.Errorf("expected nothing for an empty report, got %q", got)
	}
}

func TestPostClassReports(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "ts": "1.3"})
	}))
	defer server.Close()

	p := NewPoster("xoxb-test", "C123", discardLogger())
	p.apiURL = server.URL

	if err := p.PostClassReports(context.Background(), "1.1", sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["thread_ts"] != "1.1" {
		t.Errorf("expected a reply in thread 1.1, got %v", got["thread_ts"])
	}
	if text, _ := got["text"].(string); !strings.Contains(text, "motion") {
		t.Errorf("unexpected text %q", text)
	}
}

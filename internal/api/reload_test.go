package api

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MikeSquared-Agency/vantage/internal/hermes"
	"github.com/MikeSquared-Agency/vantage/internal/model"
	"github.com/MikeSquared-Agency/vantage/internal/synth"
)

func writeTrainedBundle(t *testing.T) (string, *model.Bundle) {
	t.Helper()
	rows, err := synth.Generate(context.Background(), synth.Options{Rows: 300, Seed: 7})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	opts := model.DefaultTrainOptions()
	opts.Params.Trees = 5
	opts.Folds = 2
	b, _, err := model.Train(context.Background(), rows, opts)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	path := filepath.Join(t.TempDir(), "bundle.json")
	if err := model.SaveFile(path, b); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path, b
}

func TestHandleModelTrained_Reloads(t *testing.T) {
	path, b := writeTrainedBundle(t)
	srv := newTestServer(nil, Options{BundleDir: filepath.Dir(path)})

	data, _ := json.Marshal(hermes.ModelTrainedEvent{Version: b.Version, BundlePath: path})
	srv.HandleModelTrained(hermes.SubjectModelTrained, data)

	w := do(t, srv, "GET", "/health", "")
	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "ok" || body["model"] != b.Version {
		t.Errorf("health after reload = %v", body)
	}

	if w := do(t, srv, "POST", "/api/v1/ui-config/predict", dyslexiaCAP); w.Code != 200 {
		t.Errorf("predict after reload = %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleModelTrained_KeepsCurrentOnFailure(t *testing.T) {
	srv := newTestServer(stubBundle(nil), Options{BundleDir: t.TempDir()})

	srv.HandleModelTrained(hermes.SubjectModelTrained, []byte("not json"))
	data, _ := json.Marshal(hermes.ModelTrainedEvent{Version: "v2", BundlePath: filepath.Join(t.TempDir(), "missing.json")})
	srv.HandleModelTrained(hermes.SubjectModelTrained, data)

	w := do(t, srv, "GET", "/health", "")
	var body map[string]string
	decode(t, w, &body)
	if body["model"] != "test-v1" {
		t.Errorf("model = %q, want test-v1 kept", body["model"])
	}
}

func TestHandleModelTrained_RestrictedToBundleDir(t *testing.T) {
	path, b := writeTrainedBundle(t)
	data, _ := json.Marshal(hermes.ModelTrainedEvent{Version: b.Version, BundlePath: path})

	tests := []struct {
		name string
		dir  string
	}{
		{"reloads disabled", ""},
		{"other directory", t.TempDir()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(stubBundle(nil), Options{BundleDir: tt.dir})
			srv.HandleModelTrained(hermes.SubjectModelTrained, data)
			if v := srv.predictor.Load().Bundle().Version; v != "test-v1" {
				t.Errorf("model = %q, want test-v1 kept", v)
			}
		})
	}
}

func TestEventBundlePath(t *testing.T) {
	dir := t.TempDir()
	srv := newTestServer(nil, Options{BundleDir: dir})

	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"absolute inside", filepath.Join(dir, "b.json"), filepath.Join(dir, "b.json"), true},
		{"relative inside", "nested/b.json", filepath.Join(dir, "nested", "b.json"), true},
		{"escapes with dots", "../b.json", "", false},
		{"dots inside absolute", filepath.Join(dir, "..", "b.json"), "", false},
		{"elsewhere", "/etc/passwd", "", false},
		{"the directory itself", dir, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := srv.eventBundlePath(tt.in)
			if tt.ok {
				if err != nil || got != tt.want {
					t.Errorf("eventBundlePath(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
				}
				return
			}
			if !errors.Is(err, errBundleOutsideDir) {
				t.Errorf("eventBundlePath(%q) err = %v, want outside dir", tt.in, err)
			}
		})
	}
}

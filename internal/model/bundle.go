package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/MikeSquared-Agency/vantage/internal/features"
	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

// ErrInvalidBundle is returned by Load when a bundle cannot serve predictions.
var ErrInvalidBundle = errors.New("invalid model bundle")

// Bundle is the unit of deployment: one fitted model per UI attribute plus
// the feature layout they were trained on.
type Bundle struct {
	Version            string
	TrainedAt          time.Time
	FeatureCols        []string
	CategoricalTargets []string
	BinaryTargets      []string
	Categorical        map[string]*CategoricalModel
	Binary             map[string]*BinaryModel
	// Importances are averaged across targets, in FeatureCols order.
	Importances []float64
}

type bundleFile struct {
	Version            string                    `json:"version"`
	TrainedAt          time.Time                 `json:"trained_at"`
	FeatureCols        []string                  `json:"feature_cols"`
	CategoricalTargets []string                  `json:"categorical_targets"`
	BinaryTargets      []string                  `json:"binary_targets"`
	Models             map[string]persistedModel `json:"models"`
	Encoders           map[string]*LabelEncoder  `json:"encoders"`
	Importances        []float64                 `json:"feature_importances,omitempty"`
}

type persistedModel struct {
	Algorithm string          `json:"algorithm"`
	Payload   json.RawMessage `json:"payload"`
}

// Save writes b as JSON. Every classifier must be Persistable.
func Save(w io.Writer, b *Bundle) error {
	f := bundleFile{
		Version:            b.Version,
		TrainedAt:          b.TrainedAt,
		FeatureCols:        b.FeatureCols,
		CategoricalTargets: b.CategoricalTargets,
		BinaryTargets:      b.BinaryTargets,
		Models:             make(map[string]persistedModel),
		Encoders:           make(map[string]*LabelEncoder),
		Importances:        b.Importances,
	}
	for _, t := range b.CategoricalTargets {
		m, ok := b.Categorical[t]
		if !ok {
			return fmt.Errorf("no model for target %s", t)
		}
		pm, err := persist(t, m.Classifier)
		if err != nil {
			return err
		}
		f.Models[t] = pm
		f.Encoders[t] = m.Encoder
	}
	for _, t := range b.BinaryTargets {
		m, ok := b.Binary[t]
		if !ok {
			return fmt.Errorf("no model for target %s", t)
		}
		pm, err := persist(t, m.Classifier)
		if err != nil {
			return err
		}
		f.Models[t] = pm
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	return nil
}

func persist(target string, c Classifier) (persistedModel, error) {
	p, ok := c.(Persistable)
	if !ok {
		return persistedModel{}, fmt.Errorf("classifier for %s cannot be persisted", target)
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return persistedModel{}, fmt.Errorf("encode %s: %w", target, err)
	}
	return persistedModel{Algorithm: p.Algorithm(), Payload: payload}, nil
}

// SaveFile writes b to path, replacing it atomically.
func SaveFile(path string, b *Bundle) error {
	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Save(out, b); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads and validates a bundle. The feature columns must match
// features.Columns, the target lists must name every UI attribute exactly
// once, and every listed target must carry a model (and, if categorical, an
// encoder).
func Load(r io.Reader) (*Bundle, error) {
	var f bundleFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if !slices.Equal(f.FeatureCols, features.Columns[:]) {
		return nil, fmt.Errorf("%w: feature columns %v do not match %v", ErrInvalidBundle, f.FeatureCols, features.Columns)
	}
	if f.Importances != nil && len(f.Importances) != len(f.FeatureCols) {
		return nil, fmt.Errorf("%w: %d importances for %d features", ErrInvalidBundle, len(f.Importances), len(f.FeatureCols))
	}
	if err := coversTargets("categorical", f.CategoricalTargets, ui.CategoricalAttributes); err != nil {
		return nil, err
	}
	if err := coversTargets("binary", f.BinaryTargets, ui.BooleanAttributes); err != nil {
		return nil, err
	}

	b := &Bundle{
		Version:            f.Version,
		TrainedAt:          f.TrainedAt,
		FeatureCols:        f.FeatureCols,
		CategoricalTargets: f.CategoricalTargets,
		BinaryTargets:      f.BinaryTargets,
		Categorical:        make(map[string]*CategoricalModel),
		Binary:             make(map[string]*BinaryModel),
		Importances:        f.Importances,
	}
	for _, t := range f.CategoricalTargets {
		c, err := loadClassifier(f.Models, t)
		if err != nil {
			return nil, err
		}
		enc := f.Encoders[t]
		if enc == nil || enc.Len() == 0 {
			return nil, fmt.Errorf("%w: no label encoder for %s", ErrInvalidBundle, t)
		}
		b.Categorical[t] = &CategoricalModel{Target: t, Encoder: enc, Classifier: c}
	}
	for _, t := range f.BinaryTargets {
		c, err := loadClassifier(f.Models, t)
		if err != nil {
			return nil, err
		}
		b.Binary[t] = &BinaryModel{Target: t, Classifier: c}
	}
	return b, nil
}

// coversTargets requires listed to hold each of want exactly once.
func coversTargets(kind string, listed []string, want []ui.Attribute) error {
	seen := make(map[string]bool, len(listed))
	for _, t := range listed {
		if !slices.Contains(want, ui.Attribute(t)) {
			return fmt.Errorf("%w: unknown %s target %q", ErrInvalidBundle, kind, t)
		}
		if seen[t] {
			return fmt.Errorf("%w: duplicate %s target %q", ErrInvalidBundle, kind, t)
		}
		seen[t] = true
	}
	for _, a := range want {
		if !seen[string(a)] {
			return fmt.Errorf("%w: missing %s target %q", ErrInvalidBundle, kind, a)
		}
	}
	return nil
}

// Complete reports whether b can answer every UI attribute: its target lists
// cover the attributes and each listed target has a usable model.
func (b *Bundle) Complete() error {
	if err := coversTargets("categorical", b.CategoricalTargets, ui.CategoricalAttributes); err != nil {
		return err
	}
	if err := coversTargets("binary", b.BinaryTargets, ui.BooleanAttributes); err != nil {
		return err
	}
	for _, t := range b.CategoricalTargets {
		if m := b.Categorical[t]; m == nil || m.Classifier == nil || m.Encoder == nil {
			return fmt.Errorf("%w: no model for %s", ErrInvalidBundle, t)
		}
	}
	for _, t := range b.BinaryTargets {
		if m := b.Binary[t]; m == nil || m.Classifier == nil {
			return fmt.Errorf("%w: no model for %s", ErrInvalidBundle, t)
		}
	}
	return nil
}

func loadClassifier(models map[string]persistedModel, target string) (Classifier, error) {
	pm, ok := models[target]
	if !ok {
		return nil, fmt.Errorf("%w: no model for %s", ErrInvalidBundle, target)
	}
	c, err := decode(pm.Algorithm, pm.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBundle, target, err)
	}
	return c, nil
}

// LoadFile loads the bundle at path, giving up when ctx is done.
func LoadFile(ctx context.Context, path string) (*Bundle, error) {
	type result struct {
		b   *Bundle
		err error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := os.Open(path)
		if err != nil {
			ch <- result{err: err}
			return
		}
		defer f.Close()
		b, err := Load(f)
		ch <- result{b, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load %s: %w", path, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("load %s: %w", path, r.err)
		}
		return r.b, nil
	}
}

// Metadata describes a bundle without its fitted parameters.
type Metadata struct {
	Version            string              `json:"version"`
	TrainedAt          time.Time           `json:"trained_at"`
	FeatureCols        []string            `json:"feature_cols"`
	CategoricalTargets []string            `json:"categorical_targets"`
	BinaryTargets      []string            `json:"binary_targets"`
	LabelClasses       map[string][]string `json:"label_classes"`
	Algorithms         map[string]string   `json:"algorithms"`
}

// Metadata summarises b.
func (b *Bundle) Metadata() Metadata {
	m := Metadata{
		Version:            b.Version,
		TrainedAt:          b.TrainedAt,
		FeatureCols:        b.FeatureCols,
		CategoricalTargets: b.CategoricalTargets,
		BinaryTargets:      b.BinaryTargets,
		LabelClasses:       make(map[string][]string),
		Algorithms:         make(map[string]string),
	}
	for t, cm := range b.Categorical {
		if cm.Encoder != nil {
			m.LabelClasses[t] = cm.Encoder.Classes()
		}
		m.Algorithms[t] = algorithmOf(cm.Classifier)
	}
	for t, bm := range b.Binary {
		m.Algorithms[t] = algorithmOf(bm.Classifier)
	}
	return m
}

func algorithmOf(c Classifier) string {
	if p, ok := c.(Persistable); ok {
		return p.Algorithm()
	}
	return fmt.Sprintf("%T", c)
}

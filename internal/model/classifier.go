package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/MikeSquared-Agency/vantage/internal/forest"
)

// Classifier maps a feature row onto one of a fixed number of classes.
type Classifier interface {
	Fit(x [][]float64, y []int, classes int) error
	Predict(x []float64) (int, error)
}

// Persistable classifiers can be written into a bundle. The name selects the
// decoder used when the bundle is loaded.
type Persistable interface {
	Classifier
	Algorithm() string
}

// Importancer is implemented by classifiers that report feature importances.
type Importancer interface {
	FeatureImportances() []float64
}

// Decoder rebuilds a fitted classifier from its persisted payload.
type Decoder func(payload json.RawMessage) (Classifier, error)

var (
	decodersMu sync.RWMutex
	decoders   = map[string]Decoder{}
)

// RegisterAlgorithm makes an algorithm loadable from bundles.
func RegisterAlgorithm(name string, d Decoder) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders[name] = d
}

// Algorithms lists registered algorithm names.
func Algorithms() []string {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	out := make([]string, 0, len(decoders))
	for name := range decoders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func decode(name string, payload json.RawMessage) (Classifier, error) {
	decodersMu.RLock()
	d, ok := decoders[name]
	decodersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown algorithm %q", name)
	}
	return d(payload)
}

func init() {
	RegisterAlgorithm(forest.AlgorithmName, func(payload json.RawMessage) (Classifier, error) {
		var f forest.Forest
		if err := json.Unmarshal(payload, &f); err != nil {
			return nil, fmt.Errorf("decode forest: %w", err)
		}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		return &f, nil
	})
}

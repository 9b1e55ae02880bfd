package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// LabelEncoder maps string labels onto class indices in sorted label order.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// FitLabelEncoder builds an encoder over the distinct labels.
func FitLabelEncoder(labels []string) *LabelEncoder {
	seen := make(map[string]bool)
	var classes []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)
	return NewLabelEncoder(classes)
}

// NewLabelEncoder returns an encoder for an already ordered class list.
func NewLabelEncoder(classes []string) *LabelEncoder {
	e := &LabelEncoder{classes: classes, index: make(map[string]int, len(classes))}
	for i, c := range classes {
		e.index[c] = i
	}
	return e
}

// Classes returns the labels in index order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Len is the number of classes.
func (e *LabelEncoder) Len() int { return len(e.classes) }

// Transform returns the index of label.
func (e *LabelEncoder) Transform(label string) (int, error) {
	i, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("label %q was not seen during fit", label)
	}
	return i, nil
}

// Inverse returns the label for index i.
func (e *LabelEncoder) Inverse(i int) (string, error) {
	if i < 0 || i >= len(e.classes) {
		return "", fmt.Errorf("class index %d outside [0, %d)", i, len(e.classes))
	}
	return e.classes[i], nil
}

func (e *LabelEncoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.classes)
}

func (e *LabelEncoder) UnmarshalJSON(data []byte) error {
	var classes []string
	if err := json.Unmarshal(data, &classes); err != nil {
		return err
	}
	seen := make(map[string]bool, len(classes))
	for _, c := range classes {
		if seen[c] {
			return fmt.Errorf("duplicate class %q", c)
		}
		seen[c] = true
	}
	*e = *NewLabelEncoder(classes)
	return nil
}

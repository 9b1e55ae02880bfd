package model

import (
	"errors"
	"fmt"
)

// CategoricalModel predicts a string label through a label encoder.
type CategoricalModel struct {
	Target     string
	Encoder    *LabelEncoder
	Classifier Classifier
}

// Fit builds the label encoder from labels and fits the classifier.
func (m *CategoricalModel) Fit(x [][]float64, labels []string) error {
	if m.Encoder == nil {
		m.Encoder = FitLabelEncoder(labels)
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		c, err := m.Encoder.Transform(l)
		if err != nil {
			return fmt.Errorf("%s: %w", m.Target, err)
		}
		y[i] = c
	}
	if err := m.Classifier.Fit(x, y, m.Encoder.Len()); err != nil {
		return fmt.Errorf("%s: %w", m.Target, err)
	}
	return nil
}

// Predict returns the label for x.
func (m *CategoricalModel) Predict(x []float64) (string, error) {
	if m.Classifier == nil || m.Encoder == nil {
		return "", errors.New("categorical model is incomplete")
	}
	c, err := m.Classifier.Predict(x)
	if err != nil {
		return "", err
	}
	return m.Encoder.Inverse(c)
}

// BinaryModel predicts a boolean. Class 1 is true.
type BinaryModel struct {
	Target     string
	Classifier Classifier
}

// Fit fits the classifier over 0/1 labels.
func (m *BinaryModel) Fit(x [][]float64, labels []bool) error {
	if err := m.Classifier.Fit(x, boolClasses(labels), 2); err != nil {
		return fmt.Errorf("%s: %w", m.Target, err)
	}
	return nil
}

// Predict returns the flag for x.
func (m *BinaryModel) Predict(x []float64) (bool, error) {
	if m.Classifier == nil {
		return false, errors.New("binary model is incomplete")
	}
	c, err := m.Classifier.Predict(x)
	if err != nil {
		return false, err
	}
	switch c {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("binary classifier returned class %d", c)
}

func boolClasses(labels []bool) []int {
	y := make([]int, len(labels))
	for i, l := range labels {
		if l {
			y[i] = 1
		}
	}
	return y
}

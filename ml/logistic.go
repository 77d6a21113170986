package ml

import (
	"errors"
	"fmt"
	"math"
)

// LogisticRegression is a binary linear model over the encoded vector.
type LogisticRegression struct {
	coefficients []float64
	intercept    float64
}

func NewLogisticRegression(coefficients []float64, intercept float64) (*LogisticRegression, error) {
	if len(coefficients) == 0 {
		return nil, errors.New("coefficients is empty")
	}
	for i, c := range coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return &LogisticRegression{
		coefficients: append([]float64(nil), coefficients...),
		intercept:    intercept,
	}, nil
}

// Proba returns [P(class 0), P(class 1)].
func (m *LogisticRegression) Proba(x []float64) ([]float64, error) {
	if len(x) != len(m.coefficients) {
		return nil, fmt.Errorf("%w: expected %d inputs, got %d", ErrSchemaMismatch, len(m.coefficients), len(x))
	}
	z := m.intercept
	for i, v := range x {
		z += m.coefficients[i] * v
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

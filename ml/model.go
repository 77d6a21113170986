package ml

import (
	"errors"
	"fmt"
)

// Classifier is a loaded binary classification model.
type Classifier interface {
	Predict(row FeatureRow) (int, error)
	PredictProba(row FeatureRow) ([]float64, error)
}

// Estimator scores an already encoded feature vector. The returned slice is
// aligned with the model's class list.
type Estimator interface {
	Proba(x []float64) ([]float64, error)
}

// Pipeline chains the category encoder and an estimator, exposing the pair
// as a Classifier.
type Pipeline struct {
	encoder   *CategoryEncoder
	estimator Estimator
	classes   []int
}

func NewPipeline(encoder *CategoryEncoder, estimator Estimator, classes []int) (*Pipeline, error) {
	if encoder == nil || estimator == nil {
		return nil, errors.New("encoder and estimator are required")
	}
	if len(classes) == 0 {
		return nil, errors.New("classes is empty")
	}
	return &Pipeline{
		encoder:   encoder,
		estimator: estimator,
		classes:   append([]int(nil), classes...),
	}, nil
}

// Classes returns the class labels in probability order.
func (p *Pipeline) Classes() []int {
	return append([]int(nil), p.classes...)
}

func (p *Pipeline) PredictProba(row FeatureRow) ([]float64, error) {
	x, err := p.encoder.Encode(row)
	if err != nil {
		return nil, err
	}
	proba, err := p.estimator.Proba(x)
	if err != nil {
		return nil, err
	}
	if len(proba) != len(p.classes) {
		return nil, fmt.Errorf("estimator returned %d probabilities for %d classes", len(proba), len(p.classes))
	}
	return proba, nil
}

// Predict returns the class with the highest probability; ties resolve to
// the earlier class.
func (p *Pipeline) Predict(row FeatureRow) (int, error) {
	proba, err := p.PredictProba(row)
	if err != nil {
		return 0, err
	}
	best := 0
	for i := 1; i < len(proba); i++ {
		if proba[i] > proba[best] {
			best = i
		}
	}
	return p.classes[best], nil
}

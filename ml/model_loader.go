package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	ModelTypeDecisionTree       = "decision_tree"
	ModelTypeLogisticRegression = "logistic_regression"
)

// ModelArtifact is the on-disk form of a trained model.
type ModelArtifact struct {
	Type         string              `json:"type"`
	Features     []string            `json:"features"`
	Categories   map[string][]string `json:"categories"`
	Classes      []int               `json:"classes"`
	Tree         []TreeNode          `json:"tree,omitempty"`
	Coefficients []float64           `json:"coefficients,omitempty"`
	Intercept    float64             `json:"intercept,omitempty"`
}

// Save writes the artifact as JSON.
func (a *ModelArtifact) Save(path string) error {
	payload, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// LoadModel reads a model artifact and builds the classifier it describes.
func LoadModel(path string) (*Pipeline, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact ModelArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	return artifact.Build()
}

// Build validates the artifact against FeatureNames and assembles the pipeline.
func (a *ModelArtifact) Build() (*Pipeline, error) {
	if err := checkFeatures(a.Features); err != nil {
		return nil, err
	}
	classes := a.Classes
	if len(classes) == 0 {
		classes = []int{0, 1}
	}
	if len(classes) != 2 || classes[0] != 0 || classes[1] != 1 {
		return nil, fmt.Errorf("%w: classes must be [0 1], got %v", ErrSchemaMismatch, classes)
	}

	encoder, err := NewCategoryEncoder(a.Features, a.Categories)
	if err != nil {
		return nil, err
	}

	var estimator Estimator
	switch a.Type {
	case ModelTypeDecisionTree:
		tree, err := NewDecisionTree(a.Tree, classes)
		if err != nil {
			return nil, err
		}
		for i, node := range a.Tree {
			if !node.IsLeaf && node.FeatureIdx >= encoder.Width() {
				return nil, fmt.Errorf("%w: node %d splits on input %d of %d", ErrSchemaMismatch, i, node.FeatureIdx, encoder.Width())
			}
		}
		estimator = tree
	case ModelTypeLogisticRegression:
		if len(a.Coefficients) != encoder.Width() {
			return nil, fmt.Errorf("%w: %d coefficients for %d inputs", ErrSchemaMismatch, len(a.Coefficients), encoder.Width())
		}
		lr, err := NewLogisticRegression(a.Coefficients, a.Intercept)
		if err != nil {
			return nil, err
		}
		estimator = lr
	default:
		return nil, errors.New("unsupported model type")
	}
	return NewPipeline(encoder, estimator, classes)
}

func checkFeatures(features []string) error {
	if len(features) != len(FeatureNames) {
		return fmt.Errorf("%w: model has %d features, service provides %d", ErrSchemaMismatch, len(features), len(FeatureNames))
	}
	for i, name := range features {
		if name != FeatureNames[i] {
			return fmt.Errorf("%w: feature %d is %q, expected %q", ErrSchemaMismatch, i, name, FeatureNames[i])
		}
	}
	return nil
}

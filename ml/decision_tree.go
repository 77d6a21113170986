package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a CART classifier stored as a flat node list. Node 0 is
// the root and children always follow their parent.
type DecisionTree struct {
	nodes   []TreeNode
	classes []int
}

// TreeNode is one split or leaf. Leaves carry the class distribution.
type TreeNode struct {
	FeatureIdx    int       `json:"feature_idx"`
	Threshold     float64   `json:"threshold"`
	LeftChild     int       `json:"left_child"`
	RightChild    int       `json:"right_child"`
	ClassLabel    int       `json:"class_label"`
	IsLeaf        bool      `json:"is_leaf"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

// NewDecisionTree rebuilds a trained tree from its serialized nodes.
func NewDecisionTree(nodes []TreeNode, classes []int) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	if len(classes) == 0 {
		return nil, errors.New("classes is empty")
	}
	for i, node := range nodes {
		if node.IsLeaf {
			if len(node.Probabilities) != len(classes) {
				return nil, fmt.Errorf("leaf %d has %d probabilities for %d classes", i, len(node.Probabilities), len(classes))
			}
			continue
		}
		if node.FeatureIdx < 0 {
			return nil, fmt.Errorf("node %d has negative feature index", i)
		}
		if node.LeftChild <= i || node.LeftChild >= len(nodes) || node.RightChild <= i || node.RightChild >= len(nodes) {
			return nil, fmt.Errorf("node %d has invalid children", i)
		}
	}
	return &DecisionTree{
		nodes:   append([]TreeNode(nil), nodes...),
		classes: append([]int(nil), classes...),
	}, nil
}

// Proba returns the class distribution of the leaf the vector lands in.
func (dt *DecisionTree) Proba(features []float64) ([]float64, error) {
	leaf, err := dt.leaf(features)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), leaf.Probabilities...), nil
}

func (dt *DecisionTree) leaf(features []float64) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, errors.New("model not trained")
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return TreeNode{}, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
	}
}

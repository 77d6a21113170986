package ml

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrSchemaMismatch  = errors.New("feature schema mismatch")
)

// CategoryEncoder turns a FeatureRow into the numeric vector an estimator
// consumes: categorical columns are one-hot encoded, numeric columns pass
// through unchanged.
type CategoryEncoder struct {
	features   []string
	categories map[string]map[string]int
	width      int
}

// NewCategoryEncoder builds an encoder for the given column order. Every
// column listed in categories is treated as categorical.
func NewCategoryEncoder(features []string, categories map[string][]string) (*CategoryEncoder, error) {
	if len(features) == 0 {
		return nil, errors.New("features is empty")
	}
	e := &CategoryEncoder{
		features:   append([]string(nil), features...),
		categories: make(map[string]map[string]int, len(categories)),
	}

	known := make(map[string]bool, len(features))
	for _, name := range features {
		known[name] = true
	}
	for name, values := range categories {
		if !known[name] {
			return nil, fmt.Errorf("%w: categories for unknown column %q", ErrSchemaMismatch, name)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: column %q has no categories", ErrSchemaMismatch, name)
		}
		index := make(map[string]int, len(values))
		for i, v := range values {
			key := norm.NFC.String(v)
			if _, dup := index[key]; dup {
				return nil, fmt.Errorf("%w: duplicate category %q in column %q", ErrSchemaMismatch, v, name)
			}
			index[key] = i
		}
		e.categories[name] = index
	}

	for _, name := range features {
		if index, ok := e.categories[name]; ok {
			e.width += len(index)
		} else {
			e.width++
		}
	}
	return e, nil
}

// Width is the length of encoded vectors.
func (e *CategoryEncoder) Width() int { return e.width }

// Features returns the column order the encoder was built for.
func (e *CategoryEncoder) Features() []string {
	return append([]string(nil), e.features...)
}

// Encode validates the row against the schema and returns its vector form.
func (e *CategoryEncoder) Encode(row FeatureRow) ([]float64, error) {
	if len(row) != len(e.features) {
		return nil, fmt.Errorf("%w: expected %d columns, got %d", ErrSchemaMismatch, len(e.features), len(row))
	}

	out := make([]float64, 0, e.width)
	for i, cell := range row {
		if cell.Name != e.features[i] {
			return nil, fmt.Errorf("%w: column %d is %q, expected %q", ErrSchemaMismatch, i, cell.Name, e.features[i])
		}
		index, categorical := e.categories[cell.Name]
		switch {
		case categorical && cell.IsText:
			pos, ok := index[norm.NFC.String(cell.Text)]
			if !ok {
				return nil, fmt.Errorf("%w %q in column %q", ErrUnknownCategory, cell.Text, cell.Name)
			}
			onehot := make([]float64, len(index))
			onehot[pos] = 1
			out = append(out, onehot...)
		case !categorical && !cell.IsText:
			out = append(out, cell.Number)
		case categorical:
			return nil, fmt.Errorf("%w: column %q expects a category", ErrSchemaMismatch, cell.Name)
		default:
			return nil, fmt.Errorf("%w: column %q expects a number", ErrSchemaMismatch, cell.Name)
		}
	}
	return out, nil
}

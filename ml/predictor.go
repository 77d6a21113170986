package ml

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	ModeModel    = "model"
	ModeFallback = "fallback"

	FallbackNote = "Using fallback prediction (model not loaded)"
)

// Fallback scoring weights, in percentage points.
const (
	fallbackBase      = 30.0
	fallbackRushHour  = 25.0
	fallbackRainy     = 20.0
	fallbackCrowded   = 15.0
	fallbackWeekend   = -10.0
	fallbackNight     = -15.0
	fallbackMin       = 5.0
	fallbackMax       = 95.0
	crowdedPassengers = 40
	lateThresholdPct  = 50.0
	rainyWeather      = "rainy"
)

// PredictionResult is the outcome of one prediction.
type PredictionResult struct {
	IsLate      int      `json:"is_late"`
	Probability float64  `json:"probability"`
	PeakType    PeakType `json:"peak_type"`
	Note        string   `json:"note,omitempty"`
}

// Predictor produces a delay prediction from derived features.
type Predictor interface {
	Predict(features DerivedFeatures) (PredictionResult, error)
	Mode() string
}

// NewPredictor picks model mode when a classifier is available and falls
// back to the additive rules otherwise.
func NewPredictor(model Classifier) Predictor {
	if model == nil {
		return FallbackPredictor{}
	}
	return &ModelPredictor{model: model}
}

// ModelPredictor delegates to a loaded classifier.
type ModelPredictor struct {
	model Classifier
}

func (p *ModelPredictor) Mode() string { return ModeModel }

func (p *ModelPredictor) Predict(features DerivedFeatures) (PredictionResult, error) {
	row := features.Row()
	label, err := p.model.Predict(row)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("model predict: %w", err)
	}
	proba, err := p.model.PredictProba(row)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("model predict_proba: %w", err)
	}
	if len(proba) != 2 {
		return PredictionResult{}, fmt.Errorf("binary model expected, got %d probabilities", len(proba))
	}
	if label != 0 && label != 1 {
		return PredictionResult{}, fmt.Errorf("model returned label %d, expected 0 or 1", label)
	}
	late := proba[1]
	if math.IsNaN(late) || math.IsInf(late, 0) {
		return PredictionResult{}, errors.New("model returned a non-finite probability")
	}
	return PredictionResult{
		IsLate:      label,
		Probability: RoundProbability(late * 100),
		PeakType:    features.PeakType,
	}, nil
}

// FallbackPredictor scores with fixed additive rules.
type FallbackPredictor struct{}

func (FallbackPredictor) Mode() string { return ModeFallback }

func (FallbackPredictor) Predict(features DerivedFeatures) (PredictionResult, error) {
	p := FallbackProbability(features)
	isLate := 0
	if p > lateThresholdPct {
		isLate = 1
	}
	return PredictionResult{
		IsLate:      isLate,
		Probability: RoundProbability(p),
		PeakType:    features.PeakType,
		Note:        FallbackNote,
	}, nil
}

// FallbackProbability is the rule-based delay probability, clamped to [5, 95].
func FallbackProbability(f DerivedFeatures) float64 {
	p := fallbackBase
	if f.IsRushHour == 1 {
		p += fallbackRushHour
	}
	if f.Weather == rainyWeather {
		p += fallbackRainy
	}
	if f.Passengers > crowdedPassengers {
		p += fallbackCrowded
	}
	if f.IsWeekend == 1 {
		p += fallbackWeekend
	}
	if f.IsNight == 1 {
		p += fallbackNight
	}
	return clampProbability(p)
}

func clampProbability(p float64) float64 {
	return math.Max(fallbackMin, math.Min(fallbackMax, p))
}

// RoundProbability rounds to one decimal place using the correctly rounded
// decimal form of the float, so exact ties go to even.
func RoundProbability(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return p
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(p, 'f', 1, 64), 64)
	if err != nil {
		return p
	}
	return rounded
}

// CachedPredictor memoises successful predictions. Predictions are a pure
// function of the features, so cached and fresh results are identical.
type CachedPredictor struct {
	next  Predictor
	cache *lru.Cache[DerivedFeatures, PredictionResult]
}

// NewCachedPredictor wraps next with an LRU of the given size. A size of
// zero or less returns next unchanged.
func NewCachedPredictor(next Predictor, size int) (Predictor, error) {
	if size <= 0 {
		return next, nil
	}
	cache, err := lru.New[DerivedFeatures, PredictionResult](size)
	if err != nil {
		return nil, err
	}
	return &CachedPredictor{next: next, cache: cache}, nil
}

func (c *CachedPredictor) Mode() string { return c.next.Mode() }

func (c *CachedPredictor) Predict(features DerivedFeatures) (PredictionResult, error) {
	if result, ok := c.cache.Get(features); ok {
		return result, nil
	}
	result, err := c.next.Predict(features)
	if err != nil {
		return PredictionResult{}, err
	}
	if !math.IsNaN(features.Latitude) && !math.IsNaN(features.Longitude) {
		c.cache.Add(features, result)
	}
	return result, nil
}

// Len reports how many results are cached.
func (c *CachedPredictor) Len() int { return c.cache.Len() }

package ml

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackMorningRushScenario(t *testing.T) {
	p := NewPredictor(nil)
	assert.Equal(t, ModeFallback, p.Mode())

	result, err := p.Predict(DeriveFeatures(testRequest("rainy", 8, 1, 50)))
	require.NoError(t, err)
	assert.Equal(t, 90.0, result.Probability)
	assert.Equal(t, 1, result.IsLate)
	assert.Equal(t, MorningPeak, result.PeakType)
	assert.Equal(t, FallbackNote, result.Note)
}

func TestFallbackWeekendNightScenario(t *testing.T) {
	result, err := NewPredictor(nil).Predict(DeriveFeatures(testRequest("clear", 23, 6, 10)))
	require.NoError(t, err)
	assert.Equal(t, 5.0, result.Probability)
	assert.Equal(t, 0, result.IsLate)
	assert.Equal(t, OffPeak, result.PeakType)
}

func TestFallbackProbabilityIsClamped(t *testing.T) {
	weathers := []string{"rainy", "clear", "Rainy"}
	for _, weather := range weathers {
		for hour := 0; hour <= 23; hour++ {
			for day := 0; day <= 6; day++ {
				for _, passengers := range []int{0, 40, 41, 200} {
					p := FallbackProbability(DeriveFeatures(testRequest(weather, hour, day, passengers)))
					assert.GreaterOrEqual(t, p, 5.0)
					assert.LessOrEqual(t, p, 95.0)
				}
			}
		}
	}
}

func TestFallbackClampsAtCeiling(t *testing.T) {
	assert.Equal(t, 90.0, FallbackProbability(DeriveFeatures(testRequest("rainy", 8, 1, 50))))

	boosted := fallbackBase + fallbackRushHour + fallbackRainy + fallbackCrowded + fallbackRushHour
	assert.Greater(t, boosted, fallbackMax)
	assert.Equal(t, 95.0, clampProbability(boosted))
	assert.Equal(t, 5.0, clampProbability(fallbackBase+fallbackWeekend+fallbackNight+fallbackNight))
}

func TestFallbackRainyIsCaseSensitive(t *testing.T) {
	lower := FallbackProbability(DeriveFeatures(testRequest("rainy", 12, 2, 10)))
	upper := FallbackProbability(DeriveFeatures(testRequest("Rainy", 12, 2, 10)))
	assert.Equal(t, 50.0, lower)
	assert.Equal(t, 30.0, upper)
}

func TestFallbackThresholdIsStrict(t *testing.T) {
	result, err := FallbackPredictor{}.Predict(DeriveFeatures(testRequest("rainy", 12, 2, 10)))
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Probability)
	assert.Equal(t, 0, result.IsLate)
}

func TestModelPredictor(t *testing.T) {
	model, err := testArtifact().Build()
	require.NoError(t, err)
	p := NewPredictor(model)
	assert.Equal(t, ModeModel, p.Mode())

	rainy, err := p.Predict(DeriveFeatures(testRequest("rainy", 8, 1, 50)))
	require.NoError(t, err)
	assert.Equal(t, 1, rainy.IsLate)
	assert.Equal(t, 73.1, rainy.Probability)
	assert.Equal(t, MorningPeak, rainy.PeakType)
	assert.Empty(t, rainy.Note)

	dry, err := p.Predict(DeriveFeatures(testRequest("clear", 17, 1, 50)))
	require.NoError(t, err)
	assert.Equal(t, 0, dry.IsLate)
	assert.Equal(t, 26.9, dry.Probability)
	assert.Equal(t, EveningPeak, dry.PeakType)
}

func TestModelPredictorUnknownCategory(t *testing.T) {
	model, err := testArtifact().Build()
	require.NoError(t, err)

	_, err = NewPredictor(model).Predict(DeriveFeatures(testRequest("snowy", 8, 1, 50)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}

type stubClassifier struct {
	label int
	proba []float64
	err   error
}

func (s stubClassifier) Predict(FeatureRow) (int, error)            { return s.label, s.err }
func (s stubClassifier) PredictProba(FeatureRow) ([]float64, error) { return s.proba, s.err }

func TestModelPredictorScalesAndRounds(t *testing.T) {
	p := NewPredictor(stubClassifier{label: 1, proba: []float64{0.12388, 0.87612}})
	result, err := p.Predict(DeriveFeatures(testRequest("clear", 12, 2, 1)))
	require.NoError(t, err)
	assert.Equal(t, 87.6, result.Probability)
	assert.Equal(t, 1, result.IsLate)
}

func TestModelPredictorErrors(t *testing.T) {
	f := DeriveFeatures(testRequest("clear", 12, 2, 1))

	_, err := NewPredictor(stubClassifier{err: errors.New("boom")}).Predict(f)
	assert.ErrorContains(t, err, "boom")

	_, err = NewPredictor(stubClassifier{proba: []float64{1}}).Predict(f)
	assert.Error(t, err)

	_, err = NewPredictor(stubClassifier{label: 7, proba: []float64{0.2, 0.8}}).Predict(f)
	assert.ErrorContains(t, err, "label 7")

	_, err = NewPredictor(stubClassifier{label: 0, proba: []float64{math.NaN(), math.NaN()}}).Predict(f)
	assert.ErrorContains(t, err, "non-finite")
}

func TestRoundProbability(t *testing.T) {
	assert.Equal(t, 12.5, RoundProbability(12.5))
	assert.Equal(t, 23.4, RoundProbability(23.449999))
	assert.Equal(t, 0.0, RoundProbability(0.04))
	assert.Equal(t, 100.0, RoundProbability(99.96))
	// 0.25 is exact in binary, so the tie goes to the even digit.
	assert.Equal(t, 0.2, RoundProbability(0.25))
}

type countingPredictor struct {
	calls int
}

func (c *countingPredictor) Mode() string { return "counting" }

func (c *countingPredictor) Predict(f DerivedFeatures) (PredictionResult, error) {
	c.calls++
	return FallbackPredictor{}.Predict(f)
}

func TestCachedPredictorIsTransparent(t *testing.T) {
	inner := &countingPredictor{}
	p, err := NewCachedPredictor(inner, 8)
	require.NoError(t, err)
	assert.Equal(t, "counting", p.Mode())

	f := DeriveFeatures(testRequest("rainy", 8, 1, 50))
	first, err := p.Predict(f)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Predict(f)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, p.(*CachedPredictor).Len())
}

func TestCachedPredictorDisabled(t *testing.T) {
	inner := &countingPredictor{}
	p, err := NewCachedPredictor(inner, 0)
	require.NoError(t, err)
	assert.Same(t, inner, p)
}

func TestPredictionIsDeterministic(t *testing.T) {
	model, err := testArtifact().Build()
	require.NoError(t, err)
	for _, p := range []Predictor{NewPredictor(nil), NewPredictor(model)} {
		f := DeriveFeatures(testRequest("rainy", 18, 3, 44))
		first, err := p.Predict(f)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := p.Predict(DeriveFeatures(testRequest("rainy", 18, 3, 44)))
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

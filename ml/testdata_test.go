package ml

// testArtifact is a logistic model that only reacts to rainy weather:
// rainy scores sigmoid(1), everything else sigmoid(-1).
func testArtifact() *ModelArtifact {
	coefficients := make([]float64, 16)
	coefficients[3] = 2.0
	return &ModelArtifact{
		Type:     ModelTypeLogisticRegression,
		Features: append([]string(nil), FeatureNames...),
		Categories: map[string][]string{
			ColRoute:    {"R1", "R2"},
			ColWeather:  {"clear", "rainy"},
			ColPeakType: {"evening_peak", "morning_peak", "off_peak"},
		},
		Classes:      []int{0, 1},
		Coefficients: coefficients,
		Intercept:    -1,
	}
}

func testRequest(weather string, hour, day, passengers int) PredictionRequest {
	return PredictionRequest{
		Route:      "R1",
		Weather:    weather,
		Passengers: passengers,
		Hour:       hour,
		Day:        day,
		Latitude:   30.0444,
		Longitude:  31.2357,
	}
}

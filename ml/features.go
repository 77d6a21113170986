package ml

// PeakType classifies the hour of a trip into commute windows.
type PeakType string

const (
	MorningPeak PeakType = "morning_peak"
	EveningPeak PeakType = "evening_peak"
	OffPeak     PeakType = "off_peak"
)

// Column names of the trained schema, in the order the model expects them.
const (
	ColRoute                  = "route_std"
	ColWeather                = "weather_std"
	ColPassengers             = "passenger_clean"
	ColLatitude               = "lat_clean"
	ColLongitude              = "lon_clean"
	ColHour                   = "hour"
	ColDayOfWeek              = "day_of_week"
	ColIsWeekend              = "is_weekend"
	ColIsRushHour             = "is_rush_hour"
	ColIsNight                = "is_night"
	ColPeakType               = "peak_type"
	ColRushWeekendInteraction = "rush_weekend_interaction"
)

// FeatureNames is the column order of a FeatureRow.
var FeatureNames = []string{
	ColRoute,
	ColWeather,
	ColPassengers,
	ColLatitude,
	ColLongitude,
	ColHour,
	ColDayOfWeek,
	ColIsWeekend,
	ColIsRushHour,
	ColIsNight,
	ColPeakType,
	ColRushWeekendInteraction,
}

// PredictionRequest holds the raw fields of a single prediction call.
type PredictionRequest struct {
	Route      string
	Weather    string
	Passengers int
	Hour       int
	Day        int
	Latitude   float64
	Longitude  float64
}

// DerivedFeatures is the request plus the calendar features computed from it.
// It is a comparable value and is never mutated after DeriveFeatures returns.
type DerivedFeatures struct {
	PredictionRequest

	IsWeekend              int
	IsRushHour             int
	IsNight                int
	RushWeekendInteraction int
	PeakType               PeakType
}

// DeriveFeatures computes the derived feature set. Hour and day are not range
// checked: hour=30 yields an off-peak, non-rush, non-night row.
func DeriveFeatures(req PredictionRequest) DerivedFeatures {
	f := DerivedFeatures{PredictionRequest: req}

	if req.Day >= 5 {
		f.IsWeekend = 1
	}
	if isMorningPeak(req.Hour) || isEveningPeak(req.Hour) {
		f.IsRushHour = 1
	}
	if req.Hour >= 22 || req.Hour <= 5 {
		f.IsNight = 1
	}
	f.RushWeekendInteraction = f.IsRushHour * f.IsWeekend

	switch {
	case isMorningPeak(req.Hour):
		f.PeakType = MorningPeak
	case isEveningPeak(req.Hour):
		f.PeakType = EveningPeak
	default:
		f.PeakType = OffPeak
	}
	return f
}

func isMorningPeak(hour int) bool { return hour >= 7 && hour <= 9 }

func isEveningPeak(hour int) bool { return hour >= 16 && hour <= 19 }

// FeatureValue is one cell of a FeatureRow. Text cells are categorical.
type FeatureValue struct {
	Name   string
	Text   string
	Number float64
	IsText bool
}

// FeatureRow is a single-row record laid out in FeatureNames order.
type FeatureRow []FeatureValue

// Row lays the features out in the trained schema order.
func (f DerivedFeatures) Row() FeatureRow {
	return FeatureRow{
		textValue(ColRoute, f.Route),
		textValue(ColWeather, f.Weather),
		numberValue(ColPassengers, float64(f.Passengers)),
		numberValue(ColLatitude, f.Latitude),
		numberValue(ColLongitude, f.Longitude),
		numberValue(ColHour, float64(f.Hour)),
		numberValue(ColDayOfWeek, float64(f.Day)),
		numberValue(ColIsWeekend, float64(f.IsWeekend)),
		numberValue(ColIsRushHour, float64(f.IsRushHour)),
		numberValue(ColIsNight, float64(f.IsNight)),
		textValue(ColPeakType, string(f.PeakType)),
		numberValue(ColRushWeekendInteraction, float64(f.RushWeekendInteraction)),
	}
}

func textValue(name, v string) FeatureValue {
	return FeatureValue{Name: name, Text: v, IsText: true}
}

func numberValue(name string, v float64) FeatureValue {
	return FeatureValue{Name: name, Number: v}
}

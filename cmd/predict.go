package main

import (
	"encoding/json"
	"os"

	"busdelay/config"
	"busdelay/ml"
	"github.com/spf13/cobra"
)

var predictReq ml.PredictionRequest

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Print a single prediction as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg.Log.Level = "error"
		log, _ := newLogger(cfg)
		defer log.Sync()

		predictor, err := buildPredictor(cfg, log)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		result, err := predictor.Predict(ml.DeriveFeatures(predictReq))
		if err != nil {
			enc.Encode(map[string]interface{}{"success": false, "error": err.Error()})
			return err
		}
		return enc.Encode(map[string]interface{}{
			"success":     true,
			"mode":        predictor.Mode(),
			"is_late":     result.IsLate,
			"probability": result.Probability,
			"peak_type":   result.PeakType,
			"note":        result.Note,
		})
	},
}

func init() {
	f := predictCmd.Flags()
	f.StringVar(&predictReq.Route, "route", "", "route identifier")
	f.StringVar(&predictReq.Weather, "weather", "clear", "weather condition")
	f.IntVar(&predictReq.Passengers, "passengers", 0, "passenger count")
	f.IntVar(&predictReq.Hour, "hour", 0, "hour of day (0-23)")
	f.IntVar(&predictReq.Day, "day", 0, "day of week (0-6, 5 and 6 are the weekend)")
	f.Float64Var(&predictReq.Latitude, "lat", 0, "latitude")
	f.Float64Var(&predictReq.Longitude, "lon", 0, "longitude")
}

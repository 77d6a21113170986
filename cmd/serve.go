package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"busdelay/config"
	qhttp "busdelay/http"
	"busdelay/logger"
	"busdelay/ml"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP prediction service",
	RunE:  runServe,
}

func init() {
	// serve is also the root command's default action.
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.HTTP.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, level := newLogger(cfg)
	defer log.Sync()

	predictor, err := buildPredictor(cfg, log)
	if err != nil {
		return err
	}

	metrics := qhttp.NewMetrics()
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		Timeout:        cfg.HTTP.Timeout,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, qhttp.NewHandler(predictor, log, metrics), metrics, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := os.Stat(configPath); err == nil {
		go func() {
			err := config.Watch(ctx, configPath, log, func(next *config.Config) {
				level.SetLevel(logger.ParseLevel(next.Log.Level))
			})
			if err != nil {
				log.Warn("config watcher stopped", zap.Error(err))
			}
		}()
	}

	errc := make(chan error, 1)
	go func() { errc <- server.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	if err := server.Stop(); err != nil {
		log.Error("shutdown", zap.Error(err))
		return err
	}
	log.Info("exiting")
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, zap.AtomicLevel) {
	return logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Debug:      cfg.HTTP.Debug,
	})
}

// buildPredictor loads the model once. A missing or unreadable model is not
// fatal: the service answers with fallback predictions instead.
func buildPredictor(cfg *config.Config, log *zap.Logger) (ml.Predictor, error) {
	var classifier ml.Classifier
	model, err := ml.LoadModel(cfg.Model.Path)
	switch {
	case err == nil:
		classifier = model
		log.Info("model loaded", zap.String("path", cfg.Model.Path))
	case errors.Is(err, os.ErrNotExist):
		log.Warn("model file not found, using fallback predictions", zap.String("path", cfg.Model.Path))
	default:
		log.Warn("model failed to load, using fallback predictions", zap.String("path", cfg.Model.Path), zap.Error(err))
	}
	return ml.NewCachedPredictor(ml.NewPredictor(classifier), cfg.Model.CacheSize)
}

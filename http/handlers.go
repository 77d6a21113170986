package http

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"busdelay/ml"
	"go.uber.org/zap"
)

//go:embed templates/index.html
var templates embed.FS

var homeTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// Handler serves the prediction endpoints. The predictor is chosen once at
// start-up and shared read-only by every request.
type Handler struct {
	predictor ml.Predictor
	log       *zap.Logger
	metrics   *Metrics
}

// NewHandler builds the handler around a predictor chosen at start-up.
func NewHandler(predictor ml.Predictor, log *zap.Logger, metrics *Metrics) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{predictor: predictor, log: log, metrics: metrics}
}

// Register mounts the page and API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleHome)
	mux.HandleFunc("POST /predict", h.handlePredict)
	mux.HandleFunc("GET /api/health", h.handleHealth)
}

type predictResponse struct {
	Success bool `json:"success"`
	ml.PredictionResult
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Mode string }{Mode: h.predictor.Mode()}
	if err := homeTemplate.Execute(w, data); err != nil {
		h.log.Error("render home page", zap.Error(err))
	}
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	mode := h.predictor.Mode()

	result, err := h.predict(r)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ObserveFailure(mode)
		}
		h.log.Debug("prediction rejected",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		respondJSON(w, http.StatusBadRequest, errorResponse{Success: false, Error: err.Error()})
		return
	}

	if h.metrics != nil {
		h.metrics.ObservePrediction(mode, result.Probability)
	}
	h.log.Debug("prediction",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.String("mode", mode),
		zap.Int("is_late", result.IsLate),
		zap.Float64("probability", result.Probability),
		zap.String("peak_type", string(result.PeakType)),
		zap.Duration("elapsed", sinceStart(r)),
	)
	respondJSON(w, http.StatusOK, predictResponse{Success: true, PredictionResult: result})
}

func (h *Handler) predict(r *http.Request) (ml.PredictionResult, error) {
	if !isJSON(r.Header.Get("Content-Type")) {
		return ml.PredictionResult{}, errors.New("request body must be JSON (Content-Type: application/json)")
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ml.PredictionResult{}, errors.New("request body too large")
		}
		return ml.PredictionResult{}, err
	}
	req, err := ml.ParseRequest(body)
	if err != nil {
		return ml.PredictionResult{}, err
	}
	return h.predictor.Predict(ml.DeriveFeatures(req))
}

// isJSON accepts application/json and the application/*+json family.
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"mode":   h.predictor.Mode(),
	})
}

// respondJSON encodes before writing the header so an unencodable value
// still yields a JSON error body.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		payload, _ = json.Marshal(errorResponse{Error: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(payload, '\n'))
}

func sinceStart(r *http.Request) time.Duration {
	start := GetStartTime(r.Context())
	if start.IsZero() {
		return 0
	}
	return time.Since(start)
}

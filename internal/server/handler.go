// internal/server/handler.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"car-price-predictor/internal/cache"
	apperrors "car-price-predictor/internal/common/errors"
	"car-price-predictor/internal/common/logger"
	"car-price-predictor/internal/common/metrics"
	"car-price-predictor/internal/common/observability"
	"car-price-predictor/internal/history"
	"car-price-predictor/internal/insights"
	"car-price-predictor/internal/predictor"
)

// outOfRangeWarning is shown when the model extrapolates to an implausible
// price. The raw value is still returned so the problem stays visible.
const outOfRangeWarning = "Predicted price is outside the plausible range. The inputs are far from the data the model was trained on."

// PredictionResponse is the JSON body returned by POST /predict.
type PredictionResponse struct {
	PredictionID   string            `json:"predictionId"`
	Price          float64           `json:"price"`
	FormattedPrice string            `json:"formattedPrice"`
	OutOfRange     bool              `json:"outOfRange"`
	Warning        string            `json:"warning,omitempty"`
	Cached         bool              `json:"cached"`
	Insights       insights.Insights `json:"insights"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Handler serves the prediction form and the JSON API. The cache and
// recorder are optional; when nil the corresponding feature is off.
type Handler struct {
	predictor *predictor.Service
	analyzer  *insights.Analyzer
	cache     *cache.PredictionCache
	recorder  *history.Recorder
	recent    int
	obs       *observability.Observability
	logger    logger.Logger
}

func NewHandler(
	svc *predictor.Service,
	analyzer *insights.Analyzer,
	predictionCache *cache.PredictionCache,
	recorder *history.Recorder,
	recent int,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	return &Handler{
		predictor: svc,
		analyzer:  analyzer,
		cache:     predictionCache,
		recorder:  recorder,
		recent:    recent,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "server"}),
	}
}

// Index renders the prediction form pre-filled with defaults.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	view := h.formView(defaultFormValues(), nil, nil)
	view.Recent = h.recentRecords(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderIndex(w, view); err != nil {
		h.logger.Error("render index failed", map[string]interface{}{"error": err.Error()})
	}
}

// Predict handles both the browser form and the JSON API. JSON requests get
// a PredictionResponse; form posts re-render the page with the result or the
// per-field errors.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	source := "form"
	if isJSON {
		source = "api"
	}

	raw, values, err := h.decodeInputs(r, isJSON)
	if err != nil {
		h.failRequest(w, r, isJSON, values, apperrors.NewValidationError("body", err.Error()), start)
		return
	}

	if resp, ok := h.cachedResponse(r.Context(), raw); ok {
		metrics.CacheHits.Inc()
		metrics.PredictionsCompleted.WithLabelValues(source).Inc()
		h.obs.RecordRequest(r.Context(), "cached")
		h.writeResponse(w, r, isJSON, values, resp)
		return
	}

	prediction, err := h.predictor.Predict(r.Context(), raw)
	if err != nil {
		h.failRequest(w, r, isJSON, values, err, start)
		return
	}

	vehicle, err := insights.VehicleFromInputs(raw)
	if err != nil {
		h.failRequest(w, r, isJSON, values, err, start)
		return
	}

	resp := &PredictionResponse{
		PredictionID:   prediction.PredictionID,
		Price:          prediction.Price,
		FormattedPrice: formatPounds(prediction.Price),
		OutOfRange:     prediction.OutOfRange,
		Insights:       h.analyzer.Analyze(prediction.Price, vehicle),
	}
	if prediction.OutOfRange {
		resp.Warning = outOfRangeWarning
	}

	h.storeResponse(r.Context(), raw, resp)
	h.recordHistory(r.Context(), prediction, resp.Insights.PriceCategory)

	metrics.PredictionsCompleted.WithLabelValues(source).Inc()
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	metrics.PredictedPrice.Observe(prediction.Price)
	h.obs.RecordRequest(r.Context(), "completed")
	h.obs.RecordRequestDuration(r.Context(), time.Since(start), "completed")

	h.writeResponse(w, r, isJSON, values, resp)
}

// History returns the most recent stored predictions.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Code:    "HISTORY_DISABLED",
			Message: "Prediction history is not enabled",
		})
		return
	}

	records, err := h.recorder.Recent(r.Context(), h.recent)
	if err != nil {
		stdErr, _ := apperrors.AsStandardError(err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Code:    string(stdErr.Code),
			Message: stdErr.Message,
		})
		return
	}

	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// decodeInputs normalizes both input shapes into the raw map the predictor
// expects. Form values arrive as strings; numeric fields are parsed here so
// validation sees real numbers, while unparsable text is passed through for
// the schema to reject with a field error.
func (h *Handler) decodeInputs(r *http.Request, isJSON bool) (map[string]interface{}, map[string]string, error) {
	if isJSON {
		var raw map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return raw, nil, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, nil, fmt.Errorf("invalid form body: %w", err)
	}

	model := h.predictor.Model()
	raw := make(map[string]interface{})
	values := make(map[string]string)

	for _, feature := range model.NumericFeatures() {
		text := strings.TrimSpace(r.FormValue(feature))
		values[feature] = text
		if text == "" {
			continue
		}
		if v, err := strconv.ParseFloat(text, 64); err == nil {
			raw[feature] = v
		} else {
			raw[feature] = text
		}
	}

	for _, feature := range model.CategoricalFeatures() {
		text := strings.TrimSpace(r.FormValue(feature))
		values[feature] = text
		if text != "" {
			raw[feature] = text
		}
	}

	return raw, values, nil
}

func (h *Handler) cachedResponse(ctx context.Context, raw map[string]interface{}) (*PredictionResponse, bool) {
	if h.cache == nil {
		return nil, false
	}

	payload, err := h.cache.Get(ctx, raw)
	if err != nil {
		if err != cache.ErrMiss {
			h.logger.Warn("cache lookup failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}

	var resp PredictionResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, false
	}
	resp.Cached = true
	return &resp, true
}

func (h *Handler) storeResponse(ctx context.Context, raw map[string]interface{}, resp *PredictionResponse) {
	if h.cache == nil {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, raw, payload); err != nil {
		h.logger.Warn("cache store failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) recordHistory(ctx context.Context, p *predictor.Prediction, category string) {
	if h.recorder == nil {
		return
	}

	if err := h.recorder.Save(ctx, p, category); err != nil {
		metrics.HistoryWriteFailures.Inc()
	}
}

// failRequest maps an error to the right status and shape per source. Input
// errors come back as 400 with field detail; everything else is a 500.
func (h *Handler) failRequest(w http.ResponseWriter, r *http.Request, isJSON bool, values map[string]string, err error, start time.Time) {
	stdErr, ok := apperrors.AsStandardError(err)
	if !ok {
		stdErr = apperrors.NewValidationError("request", err.Error())
	}

	metrics.PredictionsFailed.WithLabelValues(string(stdErr.Code)).Inc()
	h.obs.RecordRequest(r.Context(), "failed")
	h.obs.RecordRequestDuration(r.Context(), time.Since(start), "failed")

	status := http.StatusInternalServerError
	if apperrors.IsInputError(stdErr) {
		status = http.StatusBadRequest
	}

	h.logger.Warn("prediction request failed", map[string]interface{}{
		"code":   string(stdErr.Code),
		"field":  stdErr.Field,
		"status": status,
	})

	if isJSON {
		resp := errorResponse{Code: string(stdErr.Code), Message: stdErr.Message}
		if stdErr.Field != "" {
			resp.Fields = map[string]string{stdErr.Field: stdErr.Details}
		}
		writeJSON(w, status, resp)
		return
	}

	fieldErrors := h.fieldErrors(values, stdErr)
	view := h.formView(values, fieldErrors, nil)
	view.Recent = h.recentRecords(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := renderIndex(w, view); err != nil {
		h.logger.Error("render form errors failed", map[string]interface{}{"error": err.Error()})
	}
}

// fieldErrors re-validates the form inputs to surface every field problem at
// once instead of just the first one.
func (h *Handler) fieldErrors(values map[string]string, stdErr *apperrors.StandardError) map[string]string {
	raw := make(map[string]interface{})
	model := h.predictor.Model()
	for _, feature := range model.NumericFeatures() {
		if text := values[feature]; text != "" {
			if v, err := strconv.ParseFloat(text, 64); err == nil {
				raw[feature] = v
			} else {
				raw[feature] = text
			}
		}
	}
	for _, feature := range model.CategoricalFeatures() {
		if text := values[feature]; text != "" {
			raw[feature] = text
		}
	}

	result, err := h.predictor.Validate(raw)
	if err == nil && !result.Valid {
		return result.ErrorMessages()
	}

	if stdErr.Field != "" {
		return map[string]string{stdErr.Field: stdErr.Message}
	}
	return map[string]string{}
}

func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, isJSON bool, values map[string]string, resp *PredictionResponse) {
	if isJSON {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	view := h.formView(values, nil, resp)
	view.Recent = h.recentRecords(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderIndex(w, view); err != nil {
		h.logger.Error("render result failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) formView(values, fieldErrors map[string]string, resp *PredictionResponse) *FormView {
	model := h.predictor.Model()
	if values == nil {
		values = defaultFormValues()
	}

	view := &FormView{
		Models:        model.Categories("model"),
		Transmissions: model.Categories("transmission"),
		FuelTypes:     model.Categories("fuelType"),
		Values:        values,
		Errors:        fieldErrors,
	}

	if resp != nil {
		view.Result = &ResultView{
			FormattedPrice: resp.FormattedPrice,
			OutOfRange:     resp.OutOfRange,
			Warning:        resp.Warning,
			Cached:         resp.Cached,
			Insights:       resp.Insights,
		}
	}

	return view
}

func (h *Handler) recentRecords(ctx context.Context) []history.Record {
	if h.recorder == nil {
		return nil
	}

	records, err := h.recorder.Recent(ctx, h.recent)
	if err != nil {
		h.logger.Warn("recent predictions unavailable", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return records
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// formatPounds renders a price as a display string, e.g. £17,500 or -£430.
func formatPounds(price float64) string {
	sign := ""
	if price < 0 {
		sign = "-"
		price = -price
	}

	n := int64(price + 0.5)
	text := strconv.FormatInt(n, 10)
	for i := len(text) - 3; i > 0; i -= 3 {
		text = text[:i] + "," + text[i:]
	}

	return sign + "£" + text
}

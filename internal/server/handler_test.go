// internal/server/handler_test.go
package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"car-price-predictor/internal/artifact"
	"car-price-predictor/internal/cache"
	"car-price-predictor/internal/common/config"
	"car-price-predictor/internal/common/logger"
	"car-price-predictor/internal/common/observability"
	"car-price-predictor/internal/insights"
	"car-price-predictor/internal/predictor"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createModel(t *testing.T) *artifact.Model {
	m := &artifact.Model{
		Columns: []string{
			"year", "mileage", "tax", "mpg", "engineSize",
			"model_ Fiesta", "model_Focus",
			"transmission_Manual", "transmission_Automatic",
			"fuelType_Petrol", "fuelType_Electric",
		},
		Coefficients: []float64{500, -0.05, 0, 10, 300, 0, 0, 0, 0, 0, 2000},
		Intercept:    -990000,
		Scaler: artifact.Scaler{
			Columns: []string{"year", "mileage", "tax", "mpg", "engineSize"},
			Mean:    []float64{0, 0, 0, 0, 0},
			Scale:   []float64{1, 1, 1, 1, 1},
		},
	}
	require.NoError(t, m.Validate())
	return m
}

type serverOptions struct {
	withCache bool
}

func createServer(t *testing.T, opts serverOptions) (*Server, *miniredis.Miniredis) {
	log := logger.NewTestLogger(t)

	svc, err := predictor.NewService(createModel(t), log)
	require.NoError(t, err)

	analyzer := insights.NewAnalyzer(18000, 5000)

	var predictionCache *cache.PredictionCache
	var mr *miniredis.Miniredis
	if opts.withCache {
		mr = miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		predictionCache = cache.New(client, 10*time.Minute, log)
	}

	obs := observability.New("car-price-predictor-test")
	t.Cleanup(obs.Shutdown)

	handler := NewHandler(svc, analyzer, predictionCache, nil, 10, obs, log)
	srv := New(config.ServerConfig{Address: ":0"}, handler, nil, log)
	return srv, mr
}

func createJSONBody(t *testing.T, overrides map[string]interface{}) *bytes.Buffer {
	body := map[string]interface{}{
		"year":         2018,
		"mileage":      30000,
		"tax":          150,
		"mpg":          50,
		"engineSize":   1.6,
		"model":        "Fiesta",
		"transmission": "Manual",
		"fuelType":     "Petrol",
	}
	for k, v := range overrides {
		if v == nil {
			delete(body, k)
		} else {
			body[k] = v
		}
	}

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	return bytes.NewBuffer(payload)
}

func postJSON(t *testing.T, srv *Server, body *bytes.Buffer) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

// ==========================
// JSON API
// ==========================

func TestPredict_JSON_Success(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	rec := postJSON(t, srv, createJSONBody(t, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PredictionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.PredictionID)
	assert.Greater(t, resp.Price, 0.0)
	assert.False(t, resp.OutOfRange)
	assert.Empty(t, resp.Warning)
	assert.Contains(t, resp.FormattedPrice, "£")
	assert.NotEmpty(t, resp.Insights.PriceCategory)
	assert.True(t, resp.Insights.PopularChoice)
}

func TestPredict_JSON_MissingFeature(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	rec := postJSON(t, srv, createJSONBody(t, map[string]interface{}{"mpg": nil}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MISSING_FEATURE", resp.Code)
	assert.Contains(t, resp.Fields, "mpg")
}

func TestPredict_JSON_UnknownCategory(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	rec := postJSON(t, srv, createJSONBody(t, map[string]interface{}{"fuelType": "Steam"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "UNKNOWN_CATEGORY", resp.Code)
}

func TestPredict_JSON_MalformedBody(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	rec := postJSON(t, srv, bytes.NewBufferString("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredict_JSON_NegativePriceFlagged(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	// Very old low-spec car pushes the linear model below zero.
	rec := postJSON(t, srv, createJSONBody(t, map[string]interface{}{
		"year":       1990,
		"mileage":    300000,
		"mpg":        10,
		"engineSize": 0.1,
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PredictionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Less(t, resp.Price, 0.0)
	assert.True(t, resp.OutOfRange)
	assert.NotEmpty(t, resp.Warning)
	assert.True(t, strings.HasPrefix(resp.FormattedPrice, "-£"))
}

func TestPredict_JSON_CacheRoundTrip(t *testing.T) {
	srv, _ := createServer(t, serverOptions{withCache: true})

	first := postJSON(t, srv, createJSONBody(t, nil))
	require.Equal(t, http.StatusOK, first.Code)
	var firstResp PredictionResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))
	assert.False(t, firstResp.Cached)

	second := postJSON(t, srv, createJSONBody(t, nil))
	require.Equal(t, http.StatusOK, second.Code)
	var secondResp PredictionResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))

	assert.True(t, secondResp.Cached)
	assert.Equal(t, firstResp.PredictionID, secondResp.PredictionID)
	assert.Equal(t, firstResp.Price, secondResp.Price)
}

// ==========================
// Form Flow
// ==========================

func createFormBody(overrides map[string]string) url.Values {
	form := url.Values{}
	for k, v := range map[string]string{
		"year":         "2018",
		"mileage":      "30000",
		"tax":          "150",
		"mpg":          "50",
		"engineSize":   "1.6",
		"model":        "Fiesta",
		"transmission": "Manual",
		"fuelType":     "Petrol",
	} {
		form.Set(k, v)
	}
	for k, v := range overrides {
		if v == "" {
			form.Del(k)
		} else {
			form.Set(k, v)
		}
	}
	return form
}

func postForm(srv *Server, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func TestIndex_RendersForm(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="year"`)
	assert.Contains(t, body, `value="2018"`)
	assert.Contains(t, body, "Fiesta")
	assert.Contains(t, body, "Focus")
}

func TestPredict_Form_Success(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	rec := postForm(srv, createFormBody(nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Estimated Value:")
	assert.Contains(t, body, "£")
	// Submitted values survive the round trip.
	assert.Contains(t, body, `value="30000"`)
}

func TestPredict_Form_MissingField(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	rec := postForm(srv, createFormBody(map[string]string{"mileage": ""}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `class="error"`)
	assert.NotContains(t, body, "Estimated Value:")
}

func TestPredict_Form_NonNumericInput(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	rec := postForm(srv, createFormBody(map[string]string{"mileage": "plenty"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="error"`)
}

// ==========================
// Operational Endpoints
// ==========================

func TestHealth(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestReady_NoChecks(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHistory_Disabled(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := createServer(t, serverOptions{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFormatPounds(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{price: 509000, want: "£509,000"},
		{price: 17543.4, want: "£17,543"},
		{price: 950, want: "£950"},
		{price: 0, want: "£0"},
		{price: -430, want: "-£430"},
		{price: 1234567, want: "£1,234,567"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatPounds(tt.price))
	}
}

// internal/server/server.go
package server

import (
	"context"
	"net/http"
	"time"

	"car-price-predictor/internal/common/config"
	"car-price-predictor/internal/common/logger"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether one dependency is ready to serve.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server owns the HTTP listener and routing.
type Server struct {
	httpServer *http.Server
	handler    *Handler
	checks     []ReadinessCheck
	logger     logger.Logger
}

func New(cfg config.ServerConfig, handler *Handler, checks []ReadinessCheck, log logger.Logger) *Server {
	s := &Server{
		handler: handler,
		checks:  checks,
		logger:  log.WithFields(map[string]interface{}{"component": "http"}),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Routes(),
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}

	return s
}

// Routes wires all endpoints.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handler.Index).Methods(http.MethodGet)
	r.HandleFunc("/predict", s.handler.Predict).Methods(http.MethodPost)
	r.HandleFunc("/api/history", s.handler.History).Methods(http.MethodGet)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.ready).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("http server starting", map[string]interface{}{"address": s.httpServer.Addr})

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down", nil)
	return s.httpServer.Shutdown(ctx)
}

// health reports process liveness. The model is loaded before the server
// starts, so a live process always has a usable model.
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ready pings every registered dependency. Optional features register no
// check, so a cache-less deployment is ready with just the model.
func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for _, check := range s.checks {
		if err := check.Check(ctx); err != nil {
			status[check.Name] = err.Error()
			healthy = false
		} else {
			status[check.Name] = "ok"
		}
	}

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

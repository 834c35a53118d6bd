package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/station-monitor-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 64 << 10

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Renderer renders a station on demand.
type Renderer interface {
	Render(ctx context.Context, id domain.StationID) (domain.StationResult, error)
}

// ThresholdService reads and replaces station thresholds.
type ThresholdService interface {
	Station(id domain.StationID) (map[string]domain.ThresholdPair, error)
	Update(ctx context.Context, id domain.StationID, mapping map[string]domain.ThresholdPair) error
}

// Server exposes health, readiness, metrics and the station API.
type Server struct {
	httpServer *http.Server
	renderer   Renderer
	thresholds ThresholdService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the probe, metrics and /api/v1 routes.
func NewServer(addr string, ready ReadinessChecker, renderer Renderer, thresholds ThresholdService, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		renderer:   renderer,
		thresholds: thresholds,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/stations", s.handleListStations)
	mux.HandleFunc("GET /api/v1/stations/{id}", s.handleRenderStation)
	mux.HandleFunc("GET /api/v1/thresholds/{id}", s.handleGetThresholds)
	mux.HandleFunc("PUT /api/v1/thresholds/{id}", s.handlePutThresholds)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleListStations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"stations": domain.Stations()})
}

func (s *Server) handleRenderStation(w http.ResponseWriter, r *http.Request) {
	id := domain.StationID(r.PathValue("id"))
	result, err := s.renderer.Render(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type thresholdsResponse struct {
	Station    domain.StationID                `json:"station"`
	Thresholds map[string]domain.ThresholdPair `json:"thresholds"`
}

func (s *Server) handleGetThresholds(w http.ResponseWriter, r *http.Request) {
	id := domain.StationID(r.PathValue("id"))
	pairs, err := s.thresholds.Station(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thresholdsResponse{Station: id, Thresholds: pairs})
}

func (s *Server) handlePutThresholds(w http.ResponseWriter, r *http.Request) {
	id := domain.StationID(r.PathValue("id"))
	if _, err := domain.LookupStation(id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	var mapping map[string]domain.ThresholdPair
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&mapping); err != nil {
		writeError(w, http.StatusBadRequest, "invalid thresholds body: "+err.Error())
		return
	}
	if mapping == nil {
		writeError(w, http.StatusBadRequest, "invalid thresholds body: expected an object")
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid thresholds body: unexpected data after object")
		return
	}

	if err := s.thresholds.Update(r.Context(), id, mapping); err != nil {
		s.writeDomainError(w, err)
		return
	}

	pairs, err := s.thresholds.Station(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thresholdsResponse{Station: id, Thresholds: pairs})
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownStation):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnknownParameter):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hhkbp2/go-logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/udawtr/aquaox-go/aquaox"
	"github.com/udawtr/aquaox-go/internal/observability"
)

// Server exposes the saturation and aeration calculations over HTTP, together with
// health, readiness and metrics endpoints.
type Server struct {
	httpServer *http.Server
	metrics    *observability.Metrics
	efficiency float64
	state      atomic.Pointer[state]
}

// state is the loaded table and the calculator built on it.
type state struct {
	table *aquaox.SaturationTable
	pond  *aquaox.ShrimpPond
}

// NewServer creates an HTTP server. Calculation endpoints answer 503 until SetTable
// is called. efficiency is the default for /v1/sotr.
func NewServer(addr string, metrics *observability.Metrics, efficiency float64) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		metrics:    metrics,
		efficiency: efficiency,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/saturation", s.calculation("saturation", handleSaturation))
	mux.HandleFunc("GET /v1/sotr", s.calculation("sotr", s.handleSOTR))
	mux.HandleFunc("POST /v1/aeration", s.calculation("aeration", handleAeration))
	mux.HandleFunc("GET /v1/sizing", s.calculation("sizing", handleSizing))
	mux.HandleFunc("GET /v1/table", s.calculation("table", handleTable))

	return s
}

// SetTable publishes a loaded saturation table and marks the server ready.
func (s *Server) SetTable(table *aquaox.SaturationTable) {
	s.state.Store(&state{table: table, pond: aquaox.NewShrimpPond(table)})
	rows, cols := table.Dims()
	s.metrics.TableCells.Set(float64(rows * cols))
}

// CheckReadiness reports an error until a table has been published.
func (s *Server) CheckReadiness(_ context.Context) error {
	if s.state.Load() == nil {
		return errors.New("saturation table not loaded")
	}
	return nil
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	logging.GetLogger(observability.LoggerName).Infof("http server starting on %s", s.httpServer.Addr)
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

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.CheckReadiness(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type calcFunc func(r *http.Request, st *state) (any, error)

// calculation wraps a calculation handler with readiness, error mapping and metrics.
func (s *Server) calculation(operation string, fn calcFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		st := s.state.Load()
		if st == nil {
			s.metrics.Record(operation, observability.OutcomeError, time.Since(start))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "saturation table not loaded"})
			return
		}

		body, err := fn(r, st)
		var payload []byte
		if err == nil {
			payload, err = encodeJSON(body)
		}
		if err != nil {
			status, outcome := classify(err)
			s.metrics.Record(operation, outcome, time.Since(start))
			if status >= http.StatusInternalServerError {
				logging.GetLogger(observability.LoggerName).Errorf("%s %s: %v", r.Method, r.URL.Path, err)
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		s.metrics.Record(operation, observability.OutcomeSuccess, time.Since(start))
		writeRaw(w, http.StatusOK, payload)
	}
}

// requestError marks a malformed request.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &requestError{err: fmt.Errorf(format, args...)}
}

func classify(err error) (status int, outcome string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, aquaox.ErrOutOfRange),
		errors.Is(err, aquaox.ErrInvalidTestData):
		return http.StatusBadRequest, observability.OutcomeInvalid
	default:
		return http.StatusInternalServerError, observability.OutcomeError
	}
}

func handleSaturation(r *http.Request, st *state) (any, error) {
	temperature, err := queryFloat(r, "temperature")
	if err != nil {
		return nil, err
	}
	salinity, err := queryFloat(r, "salinity")
	if err != nil {
		return nil, err
	}

	cs, err := st.pond.Saturation(temperature, salinity)
	if err != nil {
		return nil, err
	}
	return map[string]any{"saturation": cs, "unit": st.table.Unit()}, nil
}

func (s *Server) handleSOTR(r *http.Request, st *state) (any, error) {
	var args [3]float64
	for i, name := range []string{"temperature", "salinity", "volume"} {
		v, err := queryFloat(r, name)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	efficiency := s.efficiency
	if r.URL.Query().Has("efficiency") {
		v, err := queryFloat(r, "efficiency")
		if err != nil {
			return nil, err
		}
		efficiency = v
	}

	sotr, err := st.pond.BasicSOTR(args[0], args[1], args[2], efficiency)
	if err != nil {
		return nil, err
	}
	return map[string]float64{"sotr": sotr}, nil
}

func handleAeration(r *http.Request, st *state) (any, error) {
	var test aquaox.AerationTest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&test); err != nil {
		return nil, badRequest("decode aeration test: %v", err)
	}

	metrics, err := st.pond.AerationMetrics(test)
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

func handleSizing(r *http.Request, _ *state) (any, error) {
	q := r.URL.Query()
	switch {
	case q.Has("hp") && q.Has("volume"):
		return nil, badRequest("give either hp or volume, not both")
	case q.Has("hp"):
		hp, err := queryFloat(r, "hp")
		if err != nil {
			return nil, err
		}
		return map[string]float64{"ideal_volume": aquaox.IdealVolume(hp)}, nil
	case q.Has("volume"):
		volume, err := queryFloat(r, "volume")
		if err != nil {
			return nil, err
		}
		return map[string]int{"ideal_hp": aquaox.IdealHorsepower(volume)}, nil
	default:
		return nil, badRequest("missing query parameter hp or volume")
	}
}

func handleTable(_ *http.Request, st *state) (any, error) {
	sum := st.table.Summary()
	return map[string]any{
		"rows":             sum.Rows,
		"cols":             sum.Cols,
		"unit":             sum.Unit,
		"temperature_step": sum.TemperatureStep,
		"salinity_step":    sum.SalinityStep,
		"min":              sum.Min,
		"max":              sum.Max,
	}, nil
}

// queryFloat parses a required, finite query parameter.
func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, badRequest("missing query parameter %s", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, badRequest("query parameter %s: %q is not a finite number", name, raw)
	}
	return v, nil
}

// encodeJSON marshals a response body before any header is written, so a value
// that cannot be encoded (such as a non-finite float) still gets an error status.
func encodeJSON(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return append(body, '\n'), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := encodeJSON(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body) //nolint:errcheck // best-effort response
}

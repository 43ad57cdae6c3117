// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/internal/metrics"
	"github.com/RyanBlaney/prosody-analyzer/internal/output"
	"github.com/RyanBlaney/prosody-analyzer/internal/store"
	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody/render"
)

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, in prosody.Input) (*prosody.Session, error)
}

// Sessions persists completed sessions.
type Sessions interface {
	Save(ctx context.Context, s *prosody.Session) error
	Get(ctx context.Context, id string) (*prosody.Session, error)
	List(ctx context.Context, limit int) ([]store.Record, error)
}

// Options configures the HTTP server.
type Options struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
	TempDir        string                // uploads are spooled here
	SampleRate     int                   // default rate of JSON sample buffers
	Features       []prosody.FeatureName // reported when a request names none
	Render         render.Options
}

// HTTPServer provides the analysis API
type HTTPServer struct {
	server   *http.Server
	opts     Options
	analyzer Analyzer
	sessions Sessions
	metrics  *metrics.Metrics
	logger   logging.Logger

	startTime time.Time
}

// samplesRequest is the JSON body of a buffer analysis.
type samplesRequest struct {
	Samples    []float64 `json:"samples"`
	SampleRate int       `json:"sampleRate"`
}

// analysisResponse is returned for a created or fetched session.
type analysisResponse struct {
	Session       *prosody.Session       `json:"session"`
	Summary       prosody.Summary        `json:"summary"`
	Distributions []prosody.Distribution `json:"distributions"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(opts Options, analyzer Analyzer, sessions Sessions, m *metrics.Metrics, logger logging.Logger) *HTTPServer {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if len(opts.Features) == 0 {
		opts.Features = prosody.ScoredFeatures
	}
	if m == nil {
		m = metrics.NewMetrics()
	}

	h := &HTTPServer{
		opts:     opts,
		analyzer: analyzer,
		sessions: sessions,
		metrics:  m,
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "http_server",
		}),
		startTime: time.Now(),
	}

	h.server = &http.Server{
		Addr:         opts.Address,
		Handler:      h.Handler(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// Handler returns the routed API.
func (h *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("POST /v1/analyses", h.withMetrics("/v1/analyses", h.handleCreate))
	mux.HandleFunc("GET /v1/analyses", h.withMetrics("/v1/analyses", h.handleList))
	mux.HandleFunc("GET /v1/analyses/{id}", h.withMetrics("/v1/analyses/{id}", h.handleGet))
	mux.HandleFunc("GET /v1/analyses/{id}/distribution", h.withMetrics("/v1/analyses/{id}/distribution", h.handleDistribution))
	mux.HandleFunc("GET /v1/analyses/{id}/plot.png", h.withMetrics("/v1/analyses/{id}/plot.png", h.handlePlot))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("GET /metrics", h.metrics.Handler())

	return mux
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Create a response writer wrapper to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		h.metrics.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(ww.statusCode), duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// ListenAndServe serves until ctx is cancelled, then shuts down within
// shutdownTimeout.
func (h *HTTPServer) ListenAndServe(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("Starting HTTP API server", logging.Fields{"address": h.server.Addr})
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	h.logger.Info("Stopping HTTP API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.server.Shutdown(shutdownCtx)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
	})
}

// handleCreate analyzes a JSON sample buffer or a raw media upload.
func (h *HTTPServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)

	var (
		in      prosody.Input
		cleanup func()
		err     error
	)
	if isJSON(r.Header.Get("Content-Type")) {
		in, err = h.decodeSamples(r)
	} else {
		in, cleanup, err = h.spoolUpload(r)
	}
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	session, err := h.analyzer.Analyze(r.Context(), in)
	if err != nil {
		h.metrics.RecordAnalysisFailure(err, time.Since(start))
		writeError(w, statusFor(err), err)
		return
	}
	h.metrics.RecordAnalysis(session, time.Since(start))

	if in.IsFile() {
		// the spooled path is meaningless to the caller
		session.Source = "upload"
		if name := r.URL.Query().Get("filename"); name != "" {
			session.Source = name
		}
	}

	if err := h.sessions.Save(r.Context(), session); err != nil {
		h.logger.Error(err, "Failed to store session", logging.Fields{"session_id": session.ID})
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to store session"))
		return
	}
	h.metrics.RecordSessionStored()

	resp, err := h.respond(session, h.opts.Features)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Location", "/v1/analyses/"+session.ID)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *HTTPServer) decodeSamples(r *http.Request) (prosody.Input, error) {
	var req samplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return prosody.Input{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.Samples == nil {
		return prosody.Input{}, fmt.Errorf("samples are required")
	}
	rate := req.SampleRate
	if rate == 0 {
		rate = h.opts.SampleRate
	}
	return prosody.FromSamples(req.Samples, rate), nil
}

// spoolUpload writes the request body to a uniquely named temp file.
func (h *HTTPServer) spoolUpload(r *http.Request) (prosody.Input, func(), error) {
	ext := filepath.Ext(r.URL.Query().Get("filename"))
	path := filepath.Join(h.opts.TempDir, "upload-"+uuid.NewString()+ext)

	f, err := os.Create(path)
	if err != nil {
		return prosody.Input{}, nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.Warn("Failed to remove upload", logging.Fields{"path": path, "error": err.Error()})
		}
	}

	n, err := io.Copy(f, r.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return prosody.Input{}, cleanup, err
	}
	if n == 0 {
		return prosody.Input{}, cleanup, fmt.Errorf("empty upload")
	}

	h.logger.Debug("Upload spooled", logging.Fields{"path": path, "bytes": n})
	return prosody.FromFile(path), cleanup, nil
}

// handleList implements GET /v1/analyses
func (h *HTTPServer) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", s))
			return
		}
		limit = n
	}

	records, err := h.sessions.List(r.Context(), limit)
	if err != nil {
		h.logger.Error(err, "Failed to list sessions")
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to list sessions"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    len(records),
		"analyses": records,
	})
}

// handleGet implements GET /v1/analyses/{id}
func (h *HTTPServer) handleGet(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	resp, err := h.respond(session, h.opts.Features)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDistribution implements GET /v1/analyses/{id}/distribution
func (h *HTTPServer) handleDistribution(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	features, err := h.requestedFeatures(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	dists, err := session.Report(features...)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":            session.ID,
		"gender":        session.Gender,
		"distributions": dists,
	})
}

// handlePlot implements GET /v1/analyses/{id}/plot.png
func (h *HTTPServer) handlePlot(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	features, err := h.requestedFeatures(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	dists, err := session.Report(features...)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	png, err := render.PNG(dists, session.Gender, h.opts.Render)
	if err != nil {
		h.logger.Error(err, "Failed to render plot", logging.Fields{"session_id": session.ID})
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to render plot"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *HTTPServer) lookup(w http.ResponseWriter, r *http.Request) (*prosody.Session, bool) {
	id := r.PathValue("id")
	session, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("analysis %s not found", id))
			return nil, false
		}
		h.logger.Error(err, "Failed to load session", logging.Fields{"session_id": id})
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to load session"))
		return nil, false
	}
	return session, true
}

// requestedFeatures parses repeated or comma-separated feature parameters.
func (h *HTTPServer) requestedFeatures(r *http.Request) ([]prosody.FeatureName, error) {
	var features []prosody.FeatureName
	for _, raw := range r.URL.Query()["feature"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name == "" {
				continue
			}
			f, err := prosody.ParseFeatureName(name)
			if err != nil {
				return nil, err
			}
			features = append(features, f)
		}
	}
	if len(features) == 0 {
		return h.opts.Features, nil
	}
	return features, nil
}

func (h *HTTPServer) respond(session *prosody.Session, features []prosody.FeatureName) (analysisResponse, error) {
	dists, err := session.Report(features...)
	if err != nil {
		return analysisResponse{}, err
	}
	return analysisResponse{
		Session:       session,
		Summary:       session.Summary(),
		Distributions: dists,
	}, nil
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/json")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, prosody.ErrUnsupportedInput), errors.Is(err, prosody.ErrInvalidFeature):
		return http.StatusBadRequest
	case errors.Is(err, prosody.ErrDecode), errors.Is(err, prosody.ErrAnalysis):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(output.Sanitize(body))
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var perr *prosody.Error
	if errors.As(err, &perr) {
		resp.Code = perr.Code
	}
	writeJSON(w, status, resp)
}

// Package server is the HTTP front end: the entry form, barcode upload,
// the recent-entries table and the CSV download.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockparts/internal/entry"
	"github.com/mesh-intelligence/stockparts/internal/scan"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Defaults.
const (
	DefaultRecentRows = 50
	maxUploadBytes    = 10 << 20
	shutdownTimeout   = 5 * time.Second
)

// Config wires the server's collaborators.
type Config struct {
	Service    *entry.Service
	Decoder    scan.Decoder
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
	RecentRows int
}

// Server renders pages and handles submissions.
type Server struct {
	svc      *entry.Service
	decoder  scan.Decoder
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	recent   int
	tmpl     *template.Template
}

// New builds a Server. Service is required; a nil Decoder disables scanning.
func New(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("server: service is required")
	}
	tmpl, err := template.New("index.html.tmpl").
		Funcs(template.FuncMap{"discriminator": discriminator}).
		ParseFS(templateFS, "templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	s := &Server{
		svc:      cfg.Service,
		decoder:  cfg.Decoder,
		gatherer: cfg.Gatherer,
		logger:   cfg.Logger,
		recent:   cfg.RecentRows,
		tmpl:     tmpl,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.recent <= 0 {
		s.recent = DefaultRecentRows
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /entries", s.handleSubmit)
	mux.HandleFunc("GET /scan", s.handleScanStart)
	mux.HandleFunc("POST /scan", s.handleScan)
	mux.HandleFunc("GET /export.csv", s.handleExport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return s.logRequests(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func discriminator(p types.Policy, e types.PartEntry) string {
	if p == types.PolicyDuplicateFlag {
		return e.DuplicateText()
	}
	return strconv.Itoa(e.Sequence)
}

// Package http exposes the ledger, reports and importer over a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/importer"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	"fintrack/internal/reports"
)

// AnnualExporter pushes a finished annual report to an external sheet.
type AnnualExporter interface {
	ExportAnnualReport(ctx context.Context, year int, rows []reports.MonthReport) error
}

type Server struct {
	http.Server

	ledger   ledger.Ledger
	reports  *reports.Engine
	importer *importer.Importer
	exporter AnnualExporter
	logger   *applog.Logger

	// now is swapped in tests to pin report reference dates
	now func() time.Time
}

// Option customizes a Server at construction.
type Option func(*Server)

// WithExporter enables the annual report export endpoint.
func WithExporter(e AnnualExporter) Option {
	return func(s *Server) { s.exporter = e }
}

// WithClock overrides the report reference clock.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, l ledger.Ledger, logger *applog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		ledger:   l,
		reports:  reports.NewEngine(l),
		importer: importer.New(l),
		logger:   logger.WithComponent(applog.ComponentHTTP),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/bills", s.handleListBills)
	mux.HandleFunc("POST /api/bills", s.handleCreateBill)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("POST /api/goals/{id}/apply", s.handleApplyToGoal)
	mux.HandleFunc("POST /api/goals/{id}/toggle", s.handleToggleGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /api/trend", s.handleTrend)
	mux.HandleFunc("GET /api/reports/annual", s.handleAnnualReport)
	mux.HandleFunc("POST /api/reports/annual/export", s.handleExportAnnualReport)

	mux.HandleFunc("POST /api/import", s.handleImport)

	handler := applog.Middleware(logger)(
		applog.WithRequestID(requestID)(
			s.withLogging(mux)))

	s.Server = http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the middleware-wrapped mux for tests.
func (s *Server) Handler() http.Handler {
	return s.Server.Handler
}

// requestID honors an inbound X-Request-ID, minting one otherwise.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger := applog.FromContext(r.Context())
		args := []any{
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
		}
		switch {
		case rw.statusCode >= 500:
			logger.ErrorContext(r.Context(), "Request completed", args...)
		case rw.statusCode >= 400:
			logger.WarnContext(r.Context(), "Request completed", args...)
		default:
			logger.InfoContext(r.Context(), "Request completed", args...)
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/gantt/internal/domain/types"
	"github.com/okian/gantt/internal/engine"
	"github.com/okian/gantt/pkg/logger"
)

const defaultMaxRequestBytes = 8 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Render transforms a request synchronously.
	Render(ctx context.Context, req types.TimelineRequest) (*engine.Result, error)

	// Submit queues a transform job. Returns an error wrapping a backpressure
	// sentinel when the queue is full.
	Submit(ctx context.Context, req types.TimelineRequest, idempotencyKey string) (types.JobAccepted, error)

	// Job reads a job's status.
	Job(ctx context.Context, id string) (types.JobStatus, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	timelineHandler *TimelineHandler
	jobsHandler     *JobsHandler

	maxRequestBytes int64
	timeFormat      string
	loc             *time.Location
	logger          logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxRequestBytes caps request body size.
func WithMaxRequestBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRequestBytes = n
		}
	}
}

// WithTimeFormat sets the Go layout for SVG axis labels.
func WithTimeFormat(layout string) Option {
	return func(s *Server) {
		if layout != "" {
			s.timeFormat = layout
		}
	}
}

// WithLocation sets the zone for SVG axis labels.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxRequestBytes: defaultMaxRequestBytes,
		loc:             time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	s.healthHandler = NewHealthHandler(nil)
	s.statsHandler = NewStatsHandler(statsProvider)
	s.timelineHandler = NewTimelineHandler(deps, s)
	s.jobsHandler = NewJobsHandler(deps, s)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /v1/timeline", MetricsMiddleware(s.timelineHandler.HandleTimeline, "timeline"))
	mux.HandleFunc("POST /v1/render", MetricsMiddleware(s.timelineHandler.HandleRender, "render"))
	mux.HandleFunc("POST /v1/jobs", MetricsMiddleware(s.jobsHandler.HandleSubmit, "jobs_submit"))
	mux.HandleFunc("GET /v1/jobs/{id}", MetricsMiddleware(s.jobsHandler.HandleGet, "jobs_get"))
}

// decode reads a JSON request body, bounded by the configured size. Numbers
// are kept as json.Number so epoch milliseconds stay exact.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxRequestBytes)
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// fail writes the error response for err and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, kind, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, WrapKind(op, kind, err))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before the status line goes out, so a value that
// cannot be encoded becomes a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorResponse{Code: "internal_error", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

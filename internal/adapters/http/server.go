package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/dto"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/grammar"
	"github.com/aretw0/arbor/pkg/lsys"
	"github.com/aretw0/arbor/pkg/species"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// DefaultMaxIterations caps requested generations; growth is exponential.
const DefaultMaxIterations = 12

// DefaultMaxSymbols is the generation length served by the arbor command
// unless --max-symbols says otherwise.
const DefaultMaxSymbols = 1 << 20

const maxBodyBytes = 1 << 20

// Engine defines the tree building operations served over HTTP.
type Engine interface {
	Build(ctx context.Context, sp *species.Species, iterations int) (*arbor.Build, error)
	Evolve(ctx context.Context, sp *species.Species, iterations int) ([]grammar.Symbol, error)
}

// Server serves the arbor engine over HTTP.
type Server struct {
	Engine        Engine
	Logger        *slog.Logger
	MaxIterations int
	metrics       http.Handler
	limiter       *rate.Limiter
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithMaxIterations overrides DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(s *Server) {
		s.MaxIterations = n
	}
}

// WithMetricsHandler mounts h on GET /metrics, e.g. promhttp.HandlerFor(reg, ...).
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithRateLimit throttles POST /build and POST /evolve to r requests per
// second with the given burst. Requests over the limit get 429.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(s *Server) {
		s.limiter = rate.NewLimiter(r, burst)
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:        engine,
		MaxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.Health)
	r.Get("/info", s.Info)
	r.Get("/species", s.ListSpecies)
	r.Group(func(r chi.Router) {
		r.Use(s.throttle)
		r.Post("/build", s.Build)
		r.Post("/evolve", s.Evolve)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// BuildRequest names a premade species or carries an inline species document.
type BuildRequest struct {
	Species    string            `json:"species,omitempty"`
	Document   *species.Document `json:"document,omitempty"`
	Iterations *int              `json:"iterations,omitempty"`
	// Format is "json" (default) or "mermaid".
	Format string `json:"format,omitempty"`
}

// BuildResponse is the JSON result of POST /build.
type BuildResponse struct {
	ID          string   `json:"id"`
	Species     string   `json:"species"`
	Fingerprint string   `json:"fingerprint"`
	Iterations  int      `json:"iterations"`
	Cached      bool     `json:"cached"`
	DurationMS  float64  `json:"duration_ms"`
	Tree        dto.Tree `json:"tree"`
}

// EvolveResponse is the result of POST /evolve.
type EvolveResponse struct {
	Species    string           `json:"species"`
	Iterations int              `json:"iterations"`
	Length     int              `json:"length"`
	Sequence   string           `json:"sequence"`
	Symbols    []grammar.Symbol `json:"symbols"`
}

// SpeciesInfo describes a premade species.
type SpeciesInfo struct {
	Name        string `json:"name"`
	Iterations  int    `json:"iterations"`
	Fingerprint string `json:"fingerprint"`
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info handles GET /info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "arbor",
		"version": strings.TrimSpace(arbor.Version),
	})
}

// ListSpecies handles GET /species.
func (s *Server) ListSpecies(w http.ResponseWriter, r *http.Request) {
	var out []SpeciesInfo
	for _, name := range species.Names() {
		sp, err := species.Lookup(name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out = append(out, SpeciesInfo{
			Name:        sp.Name,
			Iterations:  sp.Iterations,
			Fingerprint: sp.Fingerprint(),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// Build handles POST /build.
func (s *Server) Build(w http.ResponseWriter, r *http.Request) {
	req, sp, iterations, ok := s.decode(w, r)
	if !ok {
		return
	}

	format := strings.ToLower(req.Format)
	if format != "" && format != "json" && format != "mermaid" {
		s.writeError(w, r, &requestError{fmt.Sprintf("unsupported format %q", req.Format)})
		return
	}

	b, err := s.Engine.Build(r.Context(), sp, iterations)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format == "mermaid" {
		chart, err := graph.GenerateMermaid(b.Tree, &graph.Overlay{Leaves: true})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Build-Id", b.ID)
		_, _ = io.WriteString(w, chart)
		return
	}

	tree, err := dto.FromTree(b.Tree)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, BuildResponse{
		ID:          b.ID,
		Species:     b.Species,
		Fingerprint: b.Fingerprint,
		Iterations:  b.Iterations,
		Cached:      b.Cached,
		DurationMS:  float64(b.Duration.Microseconds()) / 1000,
		Tree:        tree,
	})
}

// Evolve handles POST /evolve.
func (s *Server) Evolve(w http.ResponseWriter, r *http.Request) {
	_, sp, iterations, ok := s.decode(w, r)
	if !ok {
		return
	}

	seq, err := s.Engine.Evolve(r.Context(), sp, iterations)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, EvolveResponse{
		Species:    sp.Name,
		Iterations: iterations,
		Length:     len(seq),
		Sequence:   grammar.FormatSequence(seq),
		Symbols:    seq,
	})
}

// requestError is a client mistake reported with 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (BuildRequest, *species.Species, int, bool) {
	var req BuildRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, &requestError{fmt.Sprintf("invalid request body: %v", err)})
		return req, nil, 0, false
	}

	var (
		sp  *species.Species
		err error
	)
	switch {
	case req.Species != "" && req.Document != nil:
		err = &requestError{"set either species or document, not both"}
	case req.Document != nil:
		sp, err = req.Document.Build()
	case req.Species != "":
		sp, err = species.Lookup(req.Species)
	default:
		err = &requestError{"missing species or document"}
	}
	if err != nil {
		s.writeError(w, r, err)
		return req, nil, 0, false
	}

	iterations := sp.Iterations
	if req.Iterations != nil {
		iterations = *req.Iterations
	}
	if iterations > s.MaxIterations {
		s.writeError(w, r, &requestError{fmt.Sprintf("iterations %d exceeds the limit of %d", iterations, s.MaxIterations)})
		return req, nil, 0, false
	}
	return req, sp, iterations, true
}

func statusOf(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, grammar.ErrMalformedGrammar),
		errors.Is(err, lsys.ErrNegativeIterations),
		errors.Is(err, lsys.ErrStackUnderflow),
		errors.Is(err, lsys.ErrUnbalancedStack),
		errors.Is(err, lsys.ErrSequenceTooLong):
		return http.StatusBadRequest
	case errors.Is(err, species.ErrUnknownSpecies):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("response encode failed", "error", err)
	}
}

func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			s.writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

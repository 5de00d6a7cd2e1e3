// Package server exposes the report session over an HTTP/JSON API: panel
// snapshots, pagination steps, filter scope changes, the global time range,
// and batched exports. Pagination steps that walk past the buffered entries
// answer immediately with the loading snapshot while the fetch runs in the
// background; the resulting batch lands in the session and shows up on the
// next snapshot read.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"reportd/internal/collection"
	"reportd/internal/export"
	"reportd/internal/fetch"
	"reportd/internal/observability"
	"reportd/internal/report"
	"reportd/internal/source"
)

// Deps holds everything the HTTP handlers need.
type Deps struct {
	Session  *collection.Session
	Fetcher  *fetch.Fetcher
	Exporter *export.Exporter
	Catalog  *fetch.Catalog
	Auth     source.Auth
	Health   *observability.HealthChecker
	Metrics  *observability.Metrics
	Log      zerolog.Logger
}

// Server is the HTTP front of one report session.
type Server struct {
	session  *collection.Session
	fetcher  *fetch.Fetcher
	exporter *export.Exporter
	catalog  *fetch.Catalog
	auth     source.Auth
	health   *observability.HealthChecker
	metrics  *observability.Metrics
	log      zerolog.Logger
}

func NewServer(deps Deps) *Server {
	return &Server{
		session:  deps.Session,
		fetcher:  deps.Fetcher,
		exporter: deps.Exporter,
		catalog:  deps.Catalog,
		auth:     deps.Auth,
		health:   deps.Health,
		metrics:  deps.Metrics,
		log:      deps.Log,
	}
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.metricsMiddleware)

	r.Get("/healthz", s.health.LivenessHandler)
	r.Get("/readyz", s.health.ReadinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/panels", s.handleListPanels)
		r.Get("/symbols", s.handleSymbols)
		r.Post("/symbols/refresh", s.handleSymbolsRefresh)

		r.Route("/panels/{panel}", func(r chi.Router) {
			r.Get("/", s.handleSnapshot)
			r.Post("/fetch", s.handleFetch)
			r.Post("/next", s.handleNext)
			r.Post("/prev", s.handlePrev)
			r.Post("/jump", s.handleJump)
			r.Post("/refresh", s.handleRefresh)
			r.Put("/filters", s.handleSetFilters)
			r.Post("/filters/add", s.handleAddFilter)
			r.Post("/filters/remove", s.handleRemoveFilter)
		})

		r.Put("/range", s.handleSetRange)
		r.Put("/prefs", s.handleSetPrefs)
		r.Post("/export", s.handleExport)
		r.Get("/export/email", s.handleExportEmail)
		r.Post("/logout", s.handleLogout)
	})

	return r
}

// metricsMiddleware records per-request counters and latency. The chi route
// pattern is used as the path label to keep cardinality bounded.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = r.URL.Path
		}
		s.metrics.ObserveHTTP(r.Method, path, strconv.Itoa(ww.Status()), time.Since(start))
	})
}

// panelParam resolves the {panel} URL segment. Unknown panels are rejected
// here rather than silently falling back, so typos in API calls surface.
func panelParam(r *http.Request) (report.PanelType, bool) {
	p := report.PanelType(chi.URLParam(r, "panel"))
	return p, report.Known(p)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

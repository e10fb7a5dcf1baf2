// Package api serves the transformation pipeline over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dusk-indust/transmute/internal/metrics"
	"github.com/dusk-indust/transmute/internal/service"
)

// MaxUploadBytes bounds a multipart flow upload.
const MaxUploadBytes = 32 << 20

// Options configures a Server.
type Options struct {
	Logger  logr.Logger
	Metrics *metrics.Metrics

	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Server routes API requests to a service.Service.
type Server struct {
	svc    *service.Service
	opts   Options
	router *mux.Router
}

// NewServer creates a Server and registers its routes.
func NewServer(svc *service.Service, opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{svc: svc, opts: opts, router: mux.NewRouter()}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.observe)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/stages", s.handleListStages).Methods(http.MethodGet)
	v1.HandleFunc("/stages/{id}/run", s.handleRunStage).Methods(http.MethodPost)
	v1.HandleFunc("/runs", s.handleRun).Methods(http.MethodPost)
	v1.HandleFunc("/plan", s.handlePlan).Methods(http.MethodPost)
	v1.HandleFunc("/intake", s.handleIntake).Methods(http.MethodPost)
	v1.HandleFunc("/artifacts/parse", s.handleParseArtifacts).Methods(http.MethodPost)
	v1.HandleFunc("/docs", s.handleQueryDocs).Methods(http.MethodGet)
	v1.HandleFunc("/diagram", s.handleDiagram).Methods(http.MethodGet)
	v1.HandleFunc("/bundles", s.handleListBundles).Methods(http.MethodGet)
	v1.HandleFunc("/bundles/{service}", s.handleGetBundle).Methods(http.MethodGet)
	v1.HandleFunc("/bundles/{service}/zip", s.handleBundleZip).Methods(http.MethodGet)
}

// statusRecorder captures the response code for metrics and logs.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// observe logs and counts every request by its route template.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		s.opts.Metrics.ObserveHTTP(r.Method, route, rec.code, elapsed)
		s.opts.Logger.V(1).Info("request", "method", r.Method, "route", route, "code", rec.code, "elapsed", elapsed)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSONResponse(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSONResponse(w, code, errorResponse{Error: msg})
}

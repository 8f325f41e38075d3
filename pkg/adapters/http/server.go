package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/scout"
	presentation "github.com/aretw0/scout/internal/presentation/graph"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/graph"
	"github.com/aretw0/scout/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// Engine is the part of scout.Engine the HTTP API drives.
type Engine interface {
	Sites() []string
	CareerPage(site string) (string, error)
	Run(ctx context.Context, site string) (*domain.State, error)
	Graph() *graph.Graph
	Store() ports.RunStore
}

// Site is one registry entry as served by GET /sites.
type Site struct {
	Name       string `json:"name"`
	CareerPage string `json:"career_page"`
}

// Server serves the scout HTTP API.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	Metrics http.Handler
	Logger  *slog.Logger
}

// Option configures the handler built by NewHandler.
type Option func(*Server)

// WithStreams shares a stream manager whose Hooks feed the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.Logger)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/sites", s.ListSites)
	r.Post("/sites/{site}/runs", s.StartRun)
	r.Get("/runs", s.ListRuns)
	r.Get("/runs/{id}", s.GetRun)
	r.Get("/runs/{id}/state", s.GetRunState)
	r.Get("/runs/{id}/graph", s.GetRunGraph)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "scout-http",
		"version": strings.TrimSpace(scout.Version),
	})
}

// ListSites handles GET /sites.
func (s *Server) ListSites(w http.ResponseWriter, r *http.Request) {
	names := s.Engine.Sites()
	out := make([]Site, 0, len(names))
	for _, name := range names {
		url, err := s.Engine.CareerPage(name)
		if err != nil {
			continue
		}
		out = append(out, Site{Name: name, CareerPage: url})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// StartRun handles POST /sites/{site}/runs. The run is synchronous: the
// response carries the summary of the terminated run.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")
	final, err := s.Engine.Run(r.Context(), site)
	switch {
	case errors.Is(err, domain.ErrUnknownSite):
		s.writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, domain.ErrSiteLocked):
		s.writeError(w, http.StatusConflict, err)
		return
	case err != nil && final == nil:
		s.Logger.Error("StartRun failed", "site", site, "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	case err != nil:
		s.Logger.Error("StartRun: run aborted", "site", site, "run_id", final.RunID, "error", err)
		s.writeJSON(w, http.StatusBadGateway, domain.Summarize(*final))
		return
	}
	s.writeJSON(w, http.StatusOK, domain.Summarize(*final))
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w)
	if !ok {
		return
	}
	ids, err := store.List(r.Context())
	if err != nil {
		s.Logger.Error("ListRuns failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	if st, ok := s.loadRun(w, r); ok {
		s.writeJSON(w, http.StatusOK, domain.Summarize(*st))
	}
}

// GetRunState handles GET /runs/{id}/state, the full persisted state.
func (s *Server) GetRunState(w http.ResponseWriter, r *http.Request) {
	if st, ok := s.loadRun(w, r); ok {
		s.writeJSON(w, http.StatusOK, st)
	}
}

// GetRunGraph handles GET /runs/{id}/graph: the workflow with the run's path highlighted.
func (s *Server) GetRunGraph(w http.ResponseWriter, r *http.Request) {
	if st, ok := s.loadRun(w, r); ok {
		s.writeMermaid(w, presentation.OverlayFromState(*st))
	}
}

// GetGraph handles GET /graph. Mermaid by default, ?format=json for the raw description.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "json" {
		s.writeJSON(w, http.StatusOK, s.Engine.Graph().Describe())
		return
	}
	s.writeMermaid(w, nil)
}

// SubscribeEvents handles GET /events (SSE). ?site= narrows the stream to one site.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	site := r.URL.Query().Get("site")
	if site != AllSites {
		if _, err := s.Engine.CareerPage(site); err != nil {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(site)
	defer cancel()
	s.Logger.Info("SSE: client subscribed", "site", site)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: client disconnected", "site", site)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		}
	}
}

func (s *Server) store(w http.ResponseWriter) (ports.RunStore, bool) {
	store := s.Engine.Store()
	if store == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("no run store configured"))
		return nil, false
	}
	return store, true
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*domain.State, bool) {
	store, ok := s.store(w)
	if !ok {
		return nil, false
	}
	st, err := store.Load(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrRunNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	if err != nil {
		s.Logger.Error("Load run failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return st, true
}

func (s *Server) writeMermaid(w http.ResponseWriter, overlay *presentation.GraphOverlay) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, presentation.GenerateMermaid(s.Engine.Graph().Describe(), overlay))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

package stationd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/queueworks/station-sim/internal/export"
	"github.com/queueworks/station-sim/internal/metrics"
	"github.com/queueworks/station-sim/internal/replicate"
	"github.com/queueworks/station-sim/pkg/config"
	"github.com/queueworks/station-sim/pkg/logger"
)

// Server bundles the HTTP surface over the run store and executor.
type Server struct {
	store     *RunStore
	executor  *RunExecutor
	hub       *Hub
	collector *metrics.Collector
	upgrader  websocket.Upgrader
}

// NewServer wires the daemon components together.
func NewServer() *Server {
	store := NewRunStore()
	hub := NewHub()
	collector := metrics.New()
	return &Server{
		store:     store,
		executor:  NewRunExecutor(store, hub, collector),
		hub:       hub,
		collector: collector,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.collector.Registry(), promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/replicate", s.handleReplicate)
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", s.handleCreateRun)
			r.Get("/", s.handleListRuns)
			r.Route("/{runID}", func(r chi.Router) {
				r.Get("/", s.handleGetRun)
				r.Delete("/", s.handleDeleteRun)
				r.Post("/start", s.handleStartRun)
				r.Post("/stop", s.handleStopRun)
				r.Get("/snapshot", s.handleSnapshot)
				r.Get("/log.csv", s.handleLogCSV)
				r.Get("/stream", s.handleStream)
				r.Get("/events", s.handleEvents)
			})
		})
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRunRequest struct {
	RunID          string  `json:"run_id,omitempty"`
	ConfigYAML     string  `json:"config_yaml"`
	Speed          float64 `json:"speed,omitempty"`
	HorizonMinutes float64 `json:"horizon_minutes,omitempty"`
	Seed           int64   `json:"seed,omitempty"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	cfg, err := config.ParseYAMLString(req.ConfigYAML)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.store.Create(req.RunID, *cfg, req.Speed, req.HorizonMinutes, req.Seed)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	logger.Info("run created", "run_id", rec.Run.ID, "model", cfg.Model)
	writeJSON(w, http.StatusCreated, rec.Run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	recs := s.store.List(0)
	runs := make([]any, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, rec.Run)
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.store.Get(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrRunNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec.Run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if !s.store.Delete(runID) {
		writeError(w, http.StatusNotFound, ErrRunNotFound)
		return
	}
	s.executor.Forget(runID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.executor.Start(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, statusForRunError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec.Run)
}

func (s *Server) handleStopRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.executor.Stop(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, statusForRunError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec.Run)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	snap, ok := s.store.Snapshot(runID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no snapshot for run %s", runID))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLogCSV(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	rows, err := s.executor.CompletedLog(runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", runID+".csv"))
	if err := export.WriteCSV(w, rows); err != nil {
		logger.Error("failed to write csv", "run_id", runID, "error", err)
	}
}

// handleStream serves snapshots over SSE until the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, ok := s.store.Get(runID); !ok {
		writeError(w, http.StatusNotFound, ErrRunNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsubscribe := s.hub.Subscribe(runID)
	defer unsubscribe()

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case payload := <-ch:
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// handleEvents serves the same snapshot stream over a websocket.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, ok := s.store.Get(runID); !ok {
		writeError(w, http.StatusNotFound, ErrRunNotFound)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "run_id", runID, "error", err)
		return
	}
	defer conn.Close()

	ch, unsubscribe := s.hub.Subscribe(runID)
	defer unsubscribe()

	// Drain client frames so pings and close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload := <-ch:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

type replicateRequest struct {
	ConfigYAML     string  `json:"config_yaml"`
	Replications   int     `json:"replications"`
	HorizonMinutes float64 `json:"horizon_minutes,omitempty"`
	TickMinutes    float64 `json:"tick_minutes,omitempty"`
	BaseSeed       int64   `json:"base_seed,omitempty"`
}

// handleReplicate runs a replication study synchronously. Intended for
// small studies; the request context cancels long ones.
func (s *Server) handleReplicate(w http.ResponseWriter, r *http.Request) {
	var req replicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	cfg, err := config.ParseYAMLString(req.ConfigYAML)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := replicate.Run(r.Context(), *cfg, replicate.Params{
		Replications:   req.Replications,
		HorizonMinutes: req.HorizonMinutes,
		TickMinutes:    req.TickMinutes,
		BaseSeed:       req.BaseSeed,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func statusForRunError(err error) int {
	switch {
	case errors.Is(err, ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRunTerminal):
		return http.StatusConflict
	case errors.Is(err, ErrRunIDMissing):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

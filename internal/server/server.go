// Package server exposes the control plane around the extraction engine:
// start/stop a run, poll its status, stream its log, download the CSV.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/spritetj/fb-scraper/internal/app"
	"github.com/spritetj/fb-scraper/internal/export"
	"github.com/spritetj/fb-scraper/internal/run"
	"github.com/spritetj/fb-scraper/internal/scrape"
)

// StartRequest is the POST /api/start payload. Option overrides fall back
// to the server's configuration when omitted.
type StartRequest struct {
	URLs    []string        `json:"urls"`
	Cookies json.RawMessage `json:"cookies,omitempty"`

	Viewport                *app.ViewportConfig `json:"viewport,omitempty"`
	MaxCyclesPerTarget      int                 `json:"max_cycles_per_target,omitempty"`
	NoProgressCycleLimit    int                 `json:"no_progress_cycle_limit,omitempty"`
	InterTargetDelaySeconds float64             `json:"inter_target_delay_seconds,omitempty"`
	MaxReplyDepth           int                 `json:"max_reply_depth,omitempty"`
}

// Runner executes one full scraping run. It is injected so the server can
// be exercised without a browser.
type Runner func(ctx context.Context, req StartRequest, cfg *app.Config, state *run.State) ([]scrape.TargetResult, error)

// Server holds the current (or last) run. One run at a time.
type Server struct {
	cfg    *app.Config
	runner Runner

	mu      sync.Mutex
	state   *run.State
	results []scrape.TargetResult
	running bool
}

func New(cfg *app.Config, runner Runner) *Server {
	return &Server{
		cfg:    cfg,
		runner: runner,
		state:  run.NewState(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/stop", s.handleStop)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /api/download", s.handleDownload)
	return mux
}

// applyOverrides merges request options onto a copy of the base config.
func applyOverrides(base *app.Config, req StartRequest) *app.Config {
	cfg := *base
	if req.Viewport != nil {
		cfg.Browser.Viewport = *req.Viewport
	}
	if req.MaxCyclesPerTarget > 0 {
		cfg.Scrape.MaxCycles = req.MaxCyclesPerTarget
	}
	if req.NoProgressCycleLimit > 0 {
		cfg.Scrape.NoProgressLimit = req.NoProgressCycleLimit
	}
	if req.InterTargetDelaySeconds > 0 {
		cfg.Scrape.InterTargetDelay = time.Duration(req.InterTargetDelaySeconds * float64(time.Second))
	}
	if req.MaxReplyDepth > 0 {
		cfg.Scrape.MaxReplyDepth = req.MaxReplyDepth
	}
	return &cfg
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.URLs) == 0 {
		http.Error(w, "no urls given", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		http.Error(w, "a run is already in progress", http.StatusConflict)
		return
	}
	state := run.NewState()
	s.state = state
	s.results = nil
	s.running = true
	s.mu.Unlock()

	cfg := applyOverrides(s.cfg, req)

	go func() {
		// The run outlives the start request on purpose; it is stopped
		// cooperatively via /api/stop.
		results, err := s.runner(context.Background(), req, cfg, state)
		if err != nil {
			slog.Error("run failed", "error", err)
		}

		s.mu.Lock()
		s.results = results
		s.running = false
		s.mu.Unlock()
	}()

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"accepted": true, "targets": len(req.URLs)})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	state.RequestStop()
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"stopping": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state.Snapshot())
}

// handleLogs streams the run log as server-sent events: first a replay of
// everything logged so far, then new lines as they are appended.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	id, ch, replay := state.Subscribe()
	defer state.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for _, line := range replay {
		fmt.Fprintf(w, "data: %s\n\n", line)
	}
	flusher.Flush()

	for {
		select {
		case line, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", line)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	results := s.results
	running := s.running
	s.mu.Unlock()

	if running {
		http.Error(w, "run still in progress", http.StatusConflict)
		return
	}
	if export.TotalRecords(results) == 0 {
		http.Error(w, "no results available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(time.Now())))
	if err := export.Write(w, results); err != nil {
		slog.Error("writing CSV response", "error", err)
	}
}

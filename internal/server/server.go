// Package server exposes the transcript pipeline over HTTP JSON and a
// WebSocket push channel, for the browser-facing viewer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ppiankov/runlens/internal/event"
	"github.com/ppiankov/runlens/internal/logfile"
	"github.com/ppiankov/runlens/internal/outline"
	"github.com/ppiankov/runlens/internal/tree"
	"github.com/ppiankov/runlens/internal/viewstate"
)

// Config holds HTTP server configuration.
type Config struct {
	Addr      string
	LogDir    string
	CacheSize int
	View      string
	Policy    outline.Policy
	StateDir  string
}

// Server serves the viewer API.
type Server struct {
	cfg      Config
	store    *viewstate.Store
	cache    *viewstate.Cache
	mux      *http.ServeMux
	upgrader websocket.Upgrader

	httpServer *http.Server
}

// Row is one line of a rendered view, flattened for the browser.
type Row struct {
	ID           string  `json:"id"`
	Depth        int     `json:"depth"`
	Kind         string  `json:"kind"`
	Label        string  `json:"label"`
	HasChildren  bool    `json:"has_children"`
	Collapsed    bool    `json:"collapsed"`
	Timestamp    string  `json:"timestamp,omitempty"`
	WorkingStart float64 `json:"working_start,omitempty"`
}

// New creates a Server with its view-state store and cache ready.
func New(cfg Config) (*Server, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 64
	}
	if cfg.View == "" {
		cfg.View = "outline"
	}
	stateDir := cfg.StateDir
	if stateDir == "" {
		stateDir = viewstate.DefaultDir()
	}
	store, err := viewstate.NewStore(stateDir)
	if err != nil {
		return nil, fmt.Errorf("open view-state store: %w", err)
	}
	cache, err := viewstate.NewCache(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create view cache: %w", err)
	}

	s := &Server{
		cfg:   cfg,
		store: store,
		cache: cache,
		mux:   http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /api/logs", s.handleLogs)
	s.mux.HandleFunc("GET /api/logs/{name}/transcript", s.handleTranscript)
	s.mux.HandleFunc("POST /api/logs/{name}/collapse", s.handleCollapse)
	s.mux.HandleFunc("GET /api/logs/{name}/events", s.handleEvents)
	return s, nil
}

// Handler returns the HTTP handler. For testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on the configured address and serves until ctx is
// canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.httpServer = &http.Server{Handler: s.mux}

	errc := make(chan error, 1)
	go func() { errc <- s.httpServer.Serve(lis) }()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(context.Background())
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := logfile.List(s.cfg.LogDir)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	if logs == nil {
		logs = []string{}
	}
	writeJSON(w, map[string]any{"logs": logs})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	path, err := logfile.Resolve(s.cfg.LogDir, name)
	if err != nil {
		httpError(w, resolveStatus(err), err)
		return
	}

	view := r.URL.Query().Get("view")
	if view == "" {
		view = s.cfg.View
	}
	if view != "outline" && view != "full" {
		httpError(w, http.StatusBadRequest, fmt.Errorf("unknown view %q", view))
		return
	}
	running := r.URL.Query().Get("running") == "1"

	events, skipped, err := logfile.Read(path)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}

	rows, collapsed, err := s.rows(name, events, view, running)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, map[string]any{
		"log":     name,
		"view":    view,
		"skipped": skipped,
		"rows":    toRows(rows, collapsed),
	})
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, err := logfile.Resolve(s.cfg.LogDir, name); err != nil {
		httpError(w, resolveStatus(err), err)
		return
	}
	var req struct {
		ID        string `json:"id"`
		Collapsed bool   `json:"collapsed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.ID == "" {
		httpError(w, http.StatusBadRequest, fmt.Errorf("node id is required"))
		return
	}
	if err := s.store.Set(name, req.ID, req.Collapsed); err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, map[string]any{"id": req.ID, "collapsed": req.Collapsed})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	path, err := logfile.Resolve(s.cfg.LogDir, name)
	if err != nil {
		httpError(w, resolveStatus(err), err)
		return
	}
	view := r.URL.Query().Get("view")
	if view != "outline" && view != "full" {
		view = s.cfg.View
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: its only job is noticing the client went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	tail := logfile.NewTail(path, func(events []event.Event) {
		rows, collapsed, err := s.rows(name, events, view, true)
		if err != nil {
			return
		}
		msg := map[string]any{
			"log":  name,
			"view": view,
			"rows": toRows(rows, collapsed),
		}
		if err := conn.WriteJSON(msg); err != nil {
			cancel()
		}
	})
	_ = tail.Run(ctx)
}

// rows computes the flattened view for a log, seeding collapse state on
// first sight and memoizing on (log, event count, revision, view).
func (s *Server) rows(name string, events []event.Event, view string, running bool) ([]*tree.Node, map[string]bool, error) {
	collapsed, err := s.store.Collapsed(name)
	if err != nil {
		return nil, nil, err
	}
	if collapsed == nil {
		collapsed = outline.DefaultCollapsed(outline.Forest(events, running), s.cfg.Policy)
		if err := s.store.Seed(name, collapsed); err != nil {
			return nil, nil, err
		}
	}

	key := viewstate.CacheKey{
		Log:      name,
		Events:   len(events),
		Revision: s.store.Revision(name),
		View:     view,
	}
	if running {
		key.View += "+running"
	}
	if rows, ok := s.cache.Get(key); ok {
		return rows, collapsed, nil
	}

	var rows []*tree.Node
	if view == "full" {
		rows = outline.Transcript(events, running, collapsed)
	} else {
		rows = outline.Outline(events, running, collapsed)
	}
	s.cache.Put(key, rows)
	return rows, collapsed, nil
}

func toRows(nodes []*tree.Node, collapsed map[string]bool) []Row {
	rows := make([]Row, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, Row{
			ID:           n.ID,
			Depth:        n.Depth,
			Kind:         string(n.Event.Kind),
			Label:        n.Event.Summary(),
			HasChildren:  len(n.Children) > 0,
			Collapsed:    len(n.Children) > 0 && collapsed[n.ID],
			Timestamp:    n.Event.Timestamp,
			WorkingStart: n.Event.WorkingStart,
		})
	}
	return rows
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func resolveStatus(err error) int {
	if errors.Is(err, logfile.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func httpError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// Package server provides the HTTP server for GestureOS: the REST API, the
// recognizer and feed websockets, and the static web UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/gestureos/internal/plugin"
	"github.com/ayusman/gestureos/internal/server/api"
	"github.com/ayusman/gestureos/internal/store"
)

// Config holds the server configuration. Nil components leave their routes
// unregistered.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Plugins    *plugin.Manager
	Engine     api.Toggle
	Recognizer *RecognizerHandler
	Feed       *Feed
	Keys       KeyHandler
	// MaxHoldCount caps hold_count on bindings, normally the window size.
	MaxHoldCount int
	// OnBindingsChanged runs after the bindings API mutates the store.
	OnBindingsChanged func()
	Logger            *zap.SugaredLogger
}

// Server represents the HTTP server for the GestureOS application.
type Server struct {
	config Config
	logger *zap.SugaredLogger
	mux    *http.ServeMux
	start  time.Time

	mu      sync.Mutex
	httpSrv *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		config: config,
		logger: logger,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		bindings := api.NewBindingHandler(s.config.Store, s.config.Plugins, s.config.OnBindingsChanged).
			LimitHoldCount(s.config.MaxHoldCount)
		s.mux.Handle("/api/bindings", bindings)
		s.mux.Handle("/api/bindings/", bindings)
	}

	if s.config.Plugins != nil {
		s.mux.Handle("/api/plugins", api.NewPluginHandler(s.config.Plugins))
	}

	if s.config.Engine != nil {
		s.mux.Handle("/api/engine", api.NewEngineHandler(s.config.Engine))
	}

	if s.config.Recognizer != nil {
		s.mux.Handle("/api/recognizer", s.config.Recognizer)
	}

	if s.config.Feed != nil {
		s.mux.Handle("/api/feed", s.config.Feed)
	}

	if s.config.Keys != nil {
		s.mux.Handle("/api/keyboard", keyboardHandler{keys: s.config.Keys})
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Recognizer != nil {
		response["recognizers"] = s.config.Recognizer.Connections()
	}
	if s.config.Feed != nil {
		response["subscribers"] = s.config.Feed.Clients()
	}

	writeJSON(w, http.StatusOK, response)
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until Shutdown is called or the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	s.logger.Infow("HTTP server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and closes open feed websockets.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.config.Feed != nil {
		s.config.Feed.Close()
	}

	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

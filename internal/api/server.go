package api

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/arsalan924/trajlens/internal/store"
	"github.com/arsalan924/trajlens/internal/trajectory"
	"github.com/arsalan924/trajlens/pkg/types"
)

// Server serves a trajectory directory over HTTP and websocket.
type Server struct {
	config *types.Config
	store  *store.Store
	hub    *Hub
	logger *zap.Logger

	httpServer *http.Server

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewServer creates a server over the configured trajectory directory.
func NewServer(config *types.Config, logger *zap.Logger) (*Server, error) {
	config.Normalize()
	if logger == nil {
		logger = zap.NewNop()
	}

	st, err := store.New(config.TrajDir, logger)
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}

	hub := NewHub()
	handler := NewHandler(hub, st, trajectory.RenderOptions{MarkDemo: config.ShowDemo}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Write([]byte(`{"status":"running"}`))
	})
	handler.RegisterRoutes(mux)

	return &Server{
		config: config,
		store:  st,
		hub:    hub,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("127.0.0.1:%d", config.APIPort),
			Handler: mux,
		},
		stopChan: make(chan struct{}),
	}, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the server until Stop is called. Directory changes are pushed
// to websocket clients as they happen.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	go s.hub.Run()

	if err := s.store.Watch(func(name string) {
		s.hub.Broadcast(Event{Type: "changed", Name: name})
	}); err != nil {
		s.logger.Warn("trajectory watch unavailable", zap.Error(err))
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.logger.Info("API server listening",
		zap.String("addr", s.httpServer.Addr),
		zap.String("dir", s.store.Dir()))

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server: %w", err)
		}
	}()

	select {
	case <-s.stopChan:
		return nil
	case err := <-errChan:
		return err
	}
}

// Stop shuts the server down.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)

	if s.httpServer != nil {
		s.httpServer.Close()
	}
	s.store.Close()
}

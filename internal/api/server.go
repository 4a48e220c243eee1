package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bomb-arena/internal/command"
	"bomb-arena/internal/config"
	"bomb-arena/internal/game"
)

// Server is the HTTP API server with the WebSocket relay.
// It owns the command pipeline that feeds player input into the engine.
type Server struct {
	engine      *game.Engine
	hub         *Hub
	handler     *command.Handler
	queue       *command.Queue
	router      *chi.Mux
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
	cfg         config.AppConfig
	stopStats   chan struct{}
}

// NewServer wires the relay around engine. The engine must have been created
// with hub.Callbacks() so that arena events reach the connections.
//
// Background workers do NOT start until Start() is called.
func NewServer(engine *game.Engine, hub *Hub, cfg config.AppConfig) *Server {
	s := &Server{
		engine:    engine,
		hub:       hub,
		cfg:       cfg,
		stopStats: make(chan struct{}),
	}

	s.handler = command.NewHandler(engine, command.RateLimitConfig{
		PerSecond: cfg.Relay.CommandsPerSec,
		Burst:     cfg.Relay.CommandBurst,
	})
	s.queue = command.NewQueue(s.handler, command.QueueConfig{
		BufferSize: cfg.Relay.CommandQueueSize,
		OnDrop:     RecordCommandDropped,
	})
	hub.Attach(s.queue)

	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Commands:    s.queue,
		Hub:         hub,
		RateLimiter: s.rateLimiter,
		Origins:     NewOriginChecker(cfg.Server.PublicURL),
		PublicURL:   cfg.Server.PublicURL,
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start launches the relay workers and serves HTTP until Shutdown.
// It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.queue.Start()
	go s.hub.Run()
	s.hub.StartBroadcastLoop(s.engine, s.cfg.Relay.ViewFPS)
	go s.eventLogStatsLoop()

	log.Printf("🌐 API server starting on %s", s.httpServer.Addr)
	log.Printf("🎮 Join at %s (player socket /ws/player, view socket /ws/view)", s.cfg.Server.PublicURL)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Router returns the HTTP handler for use with httptest
func (s *Server) Router() http.Handler {
	return s.router
}

// Queue exposes the command queue, mainly for tests
func (s *Server) Queue() *command.Queue {
	return s.queue
}

// Shutdown stops accepting requests, closes every connection and drains the command queue
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.hub.Stop()
	close(s.stopStats)
	s.queue.Stop()
	s.handler.Close()
	s.rateLimiter.Stop()

	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) eventLogStatsLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopStats:
			return
		case <-ticker.C:
			UpdateEventLogStats(s.engine.EventLogCounts())
		}
	}
}

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bomb-arena/internal/game"
	"bomb-arena/internal/render"
)

// EngineInterface defines the arena methods used by the API.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// Snapshot returns the latest lock-free immutable snapshot
	Snapshot() *game.ArenaSnapshot
	// Leaderboard returns the high score rows
	Leaderboard() []game.ScoreRow
	// Field returns the arena layout
	Field() *game.Field
	// Player returns a registered player
	Player(id string) (game.PlayerSnapshot, bool)
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine:   mockEngine,
//	    Commands: mockQueue,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the arena (required)
	Engine EngineInterface

	// Commands receives player commands and leaves (required)
	Commands CommandSink

	// Hub serves /ws/player and /ws/view when set
	Hub *Hub

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// Origins decides CORS origins. If nil, only loopback origins are allowed.
	Origins *OriginChecker

	// PublicURL is encoded into the join QR code
	PublicURL string

	// MinimapCellSize is the pixel size of a cell in /api/arena.png
	MinimapCellSize int

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	engine    EngineInterface
	commands  CommandSink
	minimap   *render.Minimap
	publicURL string
}

// NewRouter constructs the HTTP router with all middleware and routes.
// It opens no listeners, so it is safe to use with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Order matters: metrics must see the status written by every later handler
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}

	origins := cfg.Origins
	if origins == nil {
		origins = NewOriginChecker(cfg.PublicURL)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins.Origins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		engine:    cfg.Engine,
		commands:  cfg.Commands,
		minimap:   render.NewMinimap(cfg.Engine.Field(), cfg.MinimapCellSize),
		publicURL: cfg.PublicURL,
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimiter.Middleware)

		// Arena state
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/leaderboard", h.handleGetLeaderboard)
		r.Get("/arena", h.handleGetArena)
		r.Get("/arena.png", h.handleGetArenaPNG)
		r.Get("/join-qr.png", h.handleGetJoinQR)

		// Players
		r.Post("/player/join", h.handlePlayerJoin)
		r.Post("/player/command", h.handlePlayerCommand)
		r.Post("/player/leave", h.handlePlayerLeave)
		r.Get("/player/{id}", h.handleGetPlayer)
	})

	// Long-lived connections are capped per IP by the hub, not the request limiter
	if cfg.Hub != nil {
		r.Get("/ws/player", cfg.Hub.HandlePlayer)
		r.Get("/ws/view", cfg.Hub.HandleView)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return r
}

// metricsMiddleware records latency per route pattern
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values are drawn from fixed sets; player ids never become labels.
var (
	// Arena metrics
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent in arena step",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025},
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_player_count",
		Help: "Current number of registered players",
	})

	aiPlayerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_ai_player_count",
		Help: "Current number of AI players",
	})

	bombCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_bomb_count",
		Help: "Bombs currently armed or exploding",
	})

	killsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_kills_total",
		Help: "Players killed by explosions",
	}, []string{"kind"}) // Bounded: "kill", "self"

	bombsPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_bombs_placed_total",
		Help: "Bombs placed",
	})

	// Command relay metrics
	commandsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_commands_dropped_total",
		Help: "Commands dropped because the inbound queue was full",
	})

	// Event log metrics
	eventLogWritten = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_written",
		Help: "Events written to the audit log",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_dropped",
		Help: "Events the audit log could not write",
	})

	// Rejections at the HTTP and WebSocket edges
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Requests and upgrades refused at the edge",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	// HTTP
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the full URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served",
	}, []string{"method", "endpoint", "status"})

	// WebSocket
	wsConnectionsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Open WebSocket connections by role",
	}, []string{"role"}) // Bounded: "player", "view"

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages queued for sending",
	})
)

// DebugConfig configures the side server that exposes pprof and /metrics.
// It carries profiling endpoints, so it stays on loopback unless
// ALLOW_DEBUG_EXTERNAL=true.
type DebugConfig struct {
	Enabled    bool
	ListenAddr string
	User       string // Basic auth is off when empty
	Pass       string
}

// DefaultDebugConfig listens on 127.0.0.1:6060
func DefaultDebugConfig() DebugConfig {
	return DebugConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// DebugHandler serves /debug/pprof/*, /metrics and /health
func DebugHandler(cfg DebugConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	if cfg.User == "" {
		return mux
	}
	return requireBasicAuth(cfg.User, cfg.Pass, mux)
}

// StartDebugServer serves DebugHandler in the background.
// A non-loopback address is rewritten to 127.0.0.1 on the same port.
func StartDebugServer(cfg DebugConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if !isLoopback(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		_, port, err := net.SplitHostPort(cfg.ListenAddr)
		if err != nil || port == "" {
			port = "6060"
		}
		cfg.ListenAddr = net.JoinHostPort("127.0.0.1", port)
		log.Printf("⚠️ Debug server rebound to %s", cfg.ListenAddr)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           DebugHandler(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("📊 Debug server on http://%s (pprof at /debug/pprof/, metrics at /metrics)", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ Debug server stopped: %v", err)
		}
	}()

	return nil
}

func requireBasicAuth(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if ok && u == user && p == pass {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="arena-debug"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

// RecordTick records step timing and arena gauges
func RecordTick(duration time.Duration, players, aiPlayers, bombs int) {
	tickDuration.Observe(duration.Seconds())
	playerCount.Set(float64(players))
	aiPlayerCount.Set(float64(aiPlayers))
	bombCount.Set(float64(bombs))
}

// RecordKill counts a death; self marks a player caught in their own blast
func RecordKill(self bool) {
	if self {
		killsTotal.WithLabelValues("self").Inc()
		return
	}
	killsTotal.WithLabelValues("kill").Inc()
}

// RecordBombPlaced counts a placed bomb
func RecordBombPlaced() {
	bombsPlacedTotal.Inc()
}

// RecordCommandDropped counts a command the relay could not queue
func RecordCommandDropped() {
	commandsDropped.Inc()
}

// UpdateEventLogStats mirrors the event log counters
func UpdateEventLogStats(written, dropped uint64) {
	eventLogWritten.Set(float64(written))
	eventLogDropped.Set(float64(dropped))
}

// RecordConnectionRejected counts a refused request or upgrade by reason
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest observes one HTTP request against its route pattern
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates the WebSocket connection gauge for role
func UpdateWSConnections(role string, count int) {
	wsConnectionsActive.WithLabelValues(role).Set(float64(count))
}

// IncrementWSMessages counts a frame queued to a client
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

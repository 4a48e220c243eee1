// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for arena tuning and server settings.
//
// Defaults live here; environment variables and an optional YAML arena file
// override them.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// ARENA CONFIGURATION
// =============================================================================

// ArenaConfig holds the simulation tuning for one arena instance.
type ArenaConfig struct {
	TickRate        int           // Simulation steps per second
	TargetAI        int           // AI population the engine replenishes to
	MaxPlayers      int           // Hard cap on players in the arena (humans + AI)
	MaxBombs        int           // Concurrent bombs per player
	BlastRadius     int           // Cells cast per direction, <= 0 is unlimited
	BombFuse        time.Duration // Countdown before detonation
	ExplosionDecay  time.Duration // How long an explosion stays on the field
	DeathDecay      time.Duration // How long a dead player stays before removal
	PlayerSpeed     float64       // Cells per second
	SpawnAttempts   int           // Random cells tried when placing a player
	LeaderboardSize int           // High score rows kept
	AIBombChance    float64       // Chance of an extra bomb after an AI path
	AIPathSteps     int           // Path steps queued per AI decision
	Seed            int64         // RNG seed, 0 picks a time based seed

	// Layout rows; ' ' is open floor. Empty means the built-in arena.
	Layout []string
}

// DefaultArena returns the stock arena tuning.
func DefaultArena() ArenaConfig {
	return ArenaConfig{
		TickRate:        60,
		TargetAI:        3,
		MaxPlayers:      100,
		MaxBombs:        3,
		BlastRadius:     5,
		BombFuse:        3 * time.Second,
		ExplosionDecay:  1 * time.Second,
		DeathDecay:      1 * time.Second,
		PlayerSpeed:     5, // 0.005 cells per millisecond
		SpawnAttempts:   500,
		LeaderboardSize: 10,
		AIBombChance:    0.02,
		AIPathSteps:     4,
	}
}

// ArenaFromEnv returns arena configuration with environment variable overrides.
func ArenaFromEnv() ArenaConfig {
	cfg := DefaultArena()

	if v := getEnvInt("ARENA_TICK_RATE", 0); v > 0 {
		cfg.TickRate = v
	}
	if v := getEnvInt("ARENA_TARGET_AI", -1); v >= 0 {
		cfg.TargetAI = v
	}
	if v := getEnvInt("ARENA_MAX_PLAYERS", 0); v > 0 {
		cfg.MaxPlayers = v
	}
	if v := getEnvInt("ARENA_MAX_BOMBS", 0); v > 0 {
		cfg.MaxBombs = v
	}
	if v, ok := lookupEnvInt("ARENA_BLAST_RADIUS"); ok {
		cfg.BlastRadius = v
	}
	if v := getEnvDuration("ARENA_BOMB_FUSE", 0); v > 0 {
		cfg.BombFuse = v
	}
	if v := getEnvFloat("ARENA_PLAYER_SPEED", 0); v > 0 {
		cfg.PlayerSpeed = v
	}
	if v := getEnvFloat("ARENA_AI_BOMB_CHANCE", -1); v >= 0 {
		cfg.AIBombChance = v
	}
	if v, ok := lookupEnvInt("ARENA_SEED"); ok {
		cfg.Seed = int64(v)
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int
	DebugPort    int    // Localhost-only pprof and metrics, 0 disables
	EventLogPath string // JSON-lines audit log, empty disables
	PublicURL    string // Base URL encoded into the join QR code
	ArenaFile    string // Optional YAML arena override
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:      3000,
		DebugPort: 6060,
		PublicURL: "http://localhost:3000",
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if p, ok := lookupEnvInt("DEBUG_PORT"); ok {
		cfg.DebugPort = p
	}
	if v := os.Getenv("EVENT_LOG"); v != "" {
		cfg.EventLogPath = v
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		cfg.PublicURL = v
	}
	if v := os.Getenv("ARENA_FILE"); v != "" {
		cfg.ArenaFile = v
	}

	return cfg
}

// =============================================================================
// RELAY CONFIGURATION
// =============================================================================

// RelayConfig holds the websocket relay and command pipeline settings.
type RelayConfig struct {
	ViewFPS          int     // State frames per second pushed to views
	SendBuffer       int     // Outbound messages buffered per connection
	MaxMessageSize   int64   // Largest inbound websocket frame
	CommandsPerSec   float64 // Sustained command rate per player
	CommandBurst     int     // Command burst per player
	CommandQueueSize int     // Inbound command buffer before dropping
	MaxConnsPerIP    int     // Concurrent websocket connections per IP
}

// DefaultRelay returns the default relay configuration.
func DefaultRelay() RelayConfig {
	return RelayConfig{
		ViewFPS:          10,
		SendBuffer:       64,
		MaxMessageSize:   512,
		CommandsPerSec:   30,
		CommandBurst:     10,
		CommandQueueSize: 1000,
		MaxConnsPerIP:    8,
	}
}

// RelayFromEnv returns relay configuration with environment variable overrides.
func RelayFromEnv() RelayConfig {
	cfg := DefaultRelay()

	if v := getEnvInt("VIEW_FPS", 0); v > 0 {
		cfg.ViewFPS = v
	}
	if v := getEnvFloat("COMMANDS_PER_SEC", 0); v > 0 {
		cfg.CommandsPerSec = v
	}
	if v := getEnvInt("COMMAND_BURST", 0); v > 0 {
		cfg.CommandBurst = v
	}
	if v := getEnvInt("MAX_CONNS_PER_IP", 0); v > 0 {
		cfg.MaxConnsPerIP = v
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Arena  ArenaConfig
	Server ServerConfig
	Relay  RelayConfig
}

// Load returns the complete configuration with environment overrides.
// The arena file named by ARENA_FILE is not read here, see LoadArenaFile.
func Load() AppConfig {
	return AppConfig{
		Arena:  ArenaFromEnv(),
		Server: ServerFromEnv(),
		Relay:  RelayFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func lookupEnvInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

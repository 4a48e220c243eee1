package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bomb-arena/internal/api"
	"bomb-arena/internal/config"
	"bomb-arena/internal/game"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  BOMB ARENA")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	if path := appConfig.Server.ArenaFile; path != "" {
		if err := config.LoadArenaFile(path, &appConfig.Arena); err != nil {
			log.Fatalf("❌ %v", err)
		}
		log.Printf("🗺️ Arena file: %s", path)
	}

	arenaCfg := appConfig.Arena
	log.Printf("🎮 Config: %d TPS, %d AI, %d bombs/player, blast %d, fuse %v",
		arenaCfg.TickRate, arenaCfg.TargetAI, arenaCfg.MaxBombs, arenaCfg.BlastRadius, arenaCfg.BombFuse)

	hub := api.NewHub(appConfig.Relay, api.NewOriginChecker(appConfig.Server.PublicURL))

	engine, err := game.NewEngine(game.EngineConfig{
		Arena:     arenaCfg,
		Callbacks: hub.Callbacks(),
	})
	if err != nil {
		log.Fatalf("❌ Failed to create engine: %v", err)
	}

	if path := appConfig.Server.EventLogPath; path != "" {
		if err := engine.StartEventLog(path); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", path)
		}
	}

	// Start debug server
	if appConfig.Server.DebugPort > 0 && os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		debugCfg := api.DefaultDebugConfig()
		debugCfg.ListenAddr = fmt.Sprintf("127.0.0.1:%d", appConfig.Server.DebugPort)
		debugCfg.User = os.Getenv("DEBUG_USER")
		debugCfg.Pass = os.Getenv("DEBUG_PASS")
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	server := api.NewServer(engine, hub, appConfig)

	engine.Start()
	log.Println("✅ Arena engine started")

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ %v", err)
	}
	engine.Stop()
	engine.StopEventLog()
	log.Println("👋 Goodbye!")
}

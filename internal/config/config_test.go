package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestArenaFromEnv(t *testing.T) {
	t.Setenv("ARENA_TARGET_AI", "0")
	t.Setenv("ARENA_BLAST_RADIUS", "0")
	t.Setenv("ARENA_BOMB_FUSE", "1500ms")
	t.Setenv("ARENA_PLAYER_SPEED", "7.5")
	t.Setenv("ARENA_SEED", "42")
	t.Setenv("ARENA_MAX_BOMBS", "garbage")

	cfg := ArenaFromEnv()

	if cfg.TargetAI != 0 {
		t.Errorf("TargetAI = %d, want 0", cfg.TargetAI)
	}
	if cfg.BlastRadius != 0 {
		t.Errorf("BlastRadius = %d, want 0 (unlimited)", cfg.BlastRadius)
	}
	if cfg.BombFuse != 1500*time.Millisecond {
		t.Errorf("BombFuse = %v, want 1.5s", cfg.BombFuse)
	}
	if cfg.PlayerSpeed != 7.5 {
		t.Errorf("PlayerSpeed = %v, want 7.5", cfg.PlayerSpeed)
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}
	if cfg.MaxBombs != DefaultArena().MaxBombs {
		t.Errorf("MaxBombs = %d, unparsable values should keep the default", cfg.MaxBombs)
	}
}

func TestServerAndRelayFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DEBUG_PORT", "0")
	t.Setenv("PUBLIC_URL", "https://arena.example.com")
	t.Setenv("COMMANDS_PER_SEC", "12.5")

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.DebugPort != 0 {
		t.Errorf("DebugPort = %d, want 0 (disabled)", cfg.Server.DebugPort)
	}
	if cfg.Server.PublicURL != "https://arena.example.com" {
		t.Errorf("PublicURL = %q", cfg.Server.PublicURL)
	}
	if cfg.Relay.CommandsPerSec != 12.5 {
		t.Errorf("CommandsPerSec = %v, want 12.5", cfg.Relay.CommandsPerSec)
	}
	if cfg.Relay.ViewFPS != DefaultRelay().ViewFPS {
		t.Errorf("ViewFPS = %d, want default", cfg.Relay.ViewFPS)
	}
}

func TestLoadArenaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.yaml")
	data := []byte(`
target_ai: 1
blast_radius: 2
bomb_fuse: 2s
ai_bomb_chance: 0.5
layout:
  - "#####"
  - "#   #"
  - "#####"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultArena()
	if err := LoadArenaFile(path, &cfg); err != nil {
		t.Fatalf("LoadArenaFile() error = %v", err)
	}

	if cfg.TargetAI != 1 || cfg.BlastRadius != 2 {
		t.Errorf("TargetAI/BlastRadius = %d/%d, want 1/2", cfg.TargetAI, cfg.BlastRadius)
	}
	if cfg.BombFuse != 2*time.Second {
		t.Errorf("BombFuse = %v, want 2s", cfg.BombFuse)
	}
	if cfg.AIBombChance != 0.5 {
		t.Errorf("AIBombChance = %v, want 0.5", cfg.AIBombChance)
	}
	if len(cfg.Layout) != 3 || cfg.Layout[1] != "#   #" {
		t.Errorf("Layout = %q", cfg.Layout)
	}

	// Absent keys keep their previous values
	if cfg.MaxBombs != DefaultArena().MaxBombs || cfg.ExplosionDecay != time.Second {
		t.Errorf("unset fields changed: %+v", cfg)
	}
}

func TestLoadArenaFileErrors(t *testing.T) {
	cfg := DefaultArena()

	err := LoadArenaFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file error = %v, want fs.ErrNotExist", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("bomb_fuse: [not, a, duration]"), 0o644)
	if err := LoadArenaFile(bad, &cfg); err == nil {
		t.Error("malformed file should fail")
	}
}

func TestShippedArenaFile(t *testing.T) {
	cfg := DefaultArena()
	if err := LoadArenaFile(filepath.Join("..", "..", "configs", "arena.yaml"), &cfg); err != nil {
		t.Fatalf("configs/arena.yaml: %v", err)
	}
	if len(cfg.Layout) == 0 {
		t.Fatal("shipped arena should define a layout")
	}
	for i, row := range cfg.Layout {
		if len(row) != len(cfg.Layout[0]) {
			t.Errorf("row %d has length %d, want %d", i, len(row), len(cfg.Layout[0]))
		}
	}
}

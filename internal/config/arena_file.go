package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ArenaFile is the on-disk shape of an arena override. Absent keys keep the
// value they already had.
type ArenaFile struct {
	TargetAI        *int           `yaml:"target_ai"`
	MaxPlayers      *int           `yaml:"max_players"`
	MaxBombs        *int           `yaml:"max_bombs"`
	BlastRadius     *int           `yaml:"blast_radius"`
	BombFuse        *time.Duration `yaml:"bomb_fuse"`
	ExplosionDecay  *time.Duration `yaml:"explosion_decay"`
	DeathDecay      *time.Duration `yaml:"death_decay"`
	PlayerSpeed     *float64       `yaml:"player_speed"`
	SpawnAttempts   *int           `yaml:"spawn_attempts"`
	LeaderboardSize *int           `yaml:"leaderboard_size"`
	AIBombChance    *float64       `yaml:"ai_bomb_chance"`
	AIPathSteps     *int           `yaml:"ai_path_steps"`
	Seed            *int64         `yaml:"seed"`
	Layout          []string       `yaml:"layout"`
}

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, out)
}

// LoadArenaFile reads path and applies it on top of cfg.
func LoadArenaFile(path string, cfg *ArenaConfig) error {
	var f ArenaFile
	if err := loadYAML(path, &f); err != nil {
		return fmt.Errorf("load arena file %s: %w", path, err)
	}
	f.Apply(cfg)
	return nil
}

// Apply copies every set field onto cfg.
func (f *ArenaFile) Apply(cfg *ArenaConfig) {
	setInt(&cfg.TargetAI, f.TargetAI)
	setInt(&cfg.MaxPlayers, f.MaxPlayers)
	setInt(&cfg.MaxBombs, f.MaxBombs)
	setInt(&cfg.BlastRadius, f.BlastRadius)
	setInt(&cfg.SpawnAttempts, f.SpawnAttempts)
	setInt(&cfg.LeaderboardSize, f.LeaderboardSize)
	setInt(&cfg.AIPathSteps, f.AIPathSteps)

	if f.BombFuse != nil {
		cfg.BombFuse = *f.BombFuse
	}
	if f.ExplosionDecay != nil {
		cfg.ExplosionDecay = *f.ExplosionDecay
	}
	if f.DeathDecay != nil {
		cfg.DeathDecay = *f.DeathDecay
	}
	if f.PlayerSpeed != nil {
		cfg.PlayerSpeed = *f.PlayerSpeed
	}
	if f.AIBombChance != nil {
		cfg.AIBombChance = *f.AIBombChance
	}
	if f.Seed != nil {
		cfg.Seed = *f.Seed
	}
	if len(f.Layout) > 0 {
		cfg.Layout = append([]string(nil), f.Layout...)
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

package game

import (
	"sync/atomic"
	"time"
)

// PlayerSnapshot is an immutable copy of player state for readers outside the tick
type PlayerSnapshot struct {
	ID          string  `json:"id" msgpack:"id"`
	Name        string  `json:"name" msgpack:"name"`
	Color       string  `json:"color" msgpack:"color"`
	X           float64 `json:"x" msgpack:"x"`
	Y           float64 `json:"y" msgpack:"y"`
	Points      int     `json:"points" msgpack:"points"`
	BombsPlaced int     `json:"bombsPlaced" msgpack:"bombsPlaced"`
	IsAI        bool    `json:"isAi" msgpack:"isAi"`
	Died        bool    `json:"died" msgpack:"died"`
	Moving      bool    `json:"moving" msgpack:"moving"`
	Queued      int     `json:"queued" msgpack:"queued"`
}

// BombSnapshot is an immutable copy of a bomb
type BombSnapshot struct {
	ID          uint64     `json:"id" msgpack:"id"`
	OwnerID     string     `json:"ownerId" msgpack:"ownerId"`
	OwnerName   string     `json:"ownerName" msgpack:"ownerName"`
	X           int        `json:"x" msgpack:"x"`
	Y           int        `json:"y" msgpack:"y"`
	Range       BlastRange `json:"range" msgpack:"range"`
	Exploded    bool       `json:"exploded" msgpack:"exploded"`
	RemainingMs int64      `json:"remainingMs" msgpack:"remainingMs"`
}

// ArenaSnapshot is a complete immutable arena state.
// A published snapshot is never written again; readers may keep it.
type ArenaSnapshot struct {
	Sequence   uint64    `json:"sequence" msgpack:"sequence"`
	Timestamp  time.Time `json:"timestamp" msgpack:"timestamp"`
	TickNumber uint64    `json:"tick" msgpack:"tick"`

	Width  int `json:"width" msgpack:"width"`
	Height int `json:"height" msgpack:"height"`

	Players     []PlayerSnapshot `json:"players" msgpack:"players"`
	Bombs       []BombSnapshot   `json:"bombs" msgpack:"bombs"`
	Leaderboard []ScoreRow       `json:"leaderboard" msgpack:"leaderboard"`

	PlayerCount int `json:"playerCount" msgpack:"playerCount"`
	AliveCount  int `json:"aliveCount" msgpack:"aliveCount"`
	AICount     int `json:"aiCount" msgpack:"aiCount"`
	TotalKills  int `json:"totalKills" msgpack:"totalKills"`
}

// Player returns the snapshot of the player with id, if present
func (s *ArenaSnapshot) Player(id string) (PlayerSnapshot, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerSnapshot{}, false
}

// snapshotStore publishes whole snapshots through an atomic pointer.
// The producer (tick) builds a fresh value; consumers never see a partial write.
type snapshotStore struct {
	current  atomic.Pointer[ArenaSnapshot]
	sequence atomic.Uint64
}

func (s *snapshotStore) publish(snap *ArenaSnapshot) {
	snap.Sequence = s.sequence.Add(1)
	snap.Timestamp = time.Now()
	s.current.Store(snap)
}

func (s *snapshotStore) load() *ArenaSnapshot {
	return s.current.Load()
}

func snapshotPlayer(p *Player) PlayerSnapshot {
	return PlayerSnapshot{
		ID:          p.ID,
		Name:        p.Name,
		Color:       p.Color,
		X:           p.X,
		Y:           p.Y,
		Points:      p.Points,
		BombsPlaced: p.BombsPlaced,
		IsAI:        p.IsAI,
		Died:        p.IsDied(),
		Moving:      p.State() == StateMoving,
		Queued:      p.QueueLen(),
	}
}

func snapshotBomb(b *Bomb) BombSnapshot {
	return BombSnapshot{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		OwnerName:   b.OwnerName,
		X:           b.X,
		Y:           b.Y,
		Range:       b.Range,
		Exploded:    b.IsExploded(),
		RemainingMs: b.Remaining().Milliseconds(),
	}
}

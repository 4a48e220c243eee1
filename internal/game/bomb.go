package game

import (
	"time"

	"bomb-arena/internal/game/spatial"
)

const (
	DefaultBombFuse       = 3 * time.Second
	DefaultExplosionDecay = 1 * time.Second
	DefaultBlastRadius    = 5
)

// BombSpec holds the per-arena bomb tuning.
type BombSpec struct {
	Radius int           // Cells cast in each direction, <= 0 means unlimited
	Fuse   time.Duration // Countdown before detonation
	Decay  time.Duration // Explosion lifetime before removal
}

// DefaultBombSpec returns the stock bomb tuning.
func DefaultBombSpec() BombSpec {
	return BombSpec{
		Radius: DefaultBlastRadius,
		Fuse:   DefaultBombFuse,
		Decay:  DefaultExplosionDecay,
	}
}

// BlastRange is the plus-shaped area a bomb damages, fixed at plant time.
type BlastRange struct {
	MinX int `json:"minX" msgpack:"minX"`
	MaxX int `json:"maxX" msgpack:"maxX"`
	MinY int `json:"minY" msgpack:"minY"`
	MaxY int `json:"maxY" msgpack:"maxY"`
}

// Bomb is a planted bomb. The owner is referenced by id only.
type Bomb struct {
	ID        uint64
	OwnerID   string
	OwnerName string
	X, Y      int
	Range     BlastRange

	remaining   time.Duration
	exploded    bool
	decay       time.Duration
	ownerSerial uint64
}

// NewBomb plants a bomb at cell at and computes its blast range against field.
func NewBomb(id uint64, ownerID, ownerName string, at Cell, field *Field, spec BombSpec) *Bomb {
	b := &Bomb{
		ID:        id,
		OwnerID:   ownerID,
		OwnerName: ownerName,
		X:         at.X,
		Y:         at.Y,
		remaining: spec.Fuse,
		decay:     spec.Decay,
	}

	limit := spec.Radius
	if limit <= 0 {
		// Never further than the arena is wide or tall
		limit = field.Width() + field.Height()
	}

	b.Range = BlastRange{
		MinX: at.X - cast(field, at, Cell{X: -1}, limit),
		MaxX: at.X + cast(field, at, Cell{X: 1}, limit),
		MinY: at.Y - cast(field, at, Cell{Y: -1}, limit),
		MaxY: at.Y + cast(field, at, Cell{Y: 1}, limit),
	}
	return b
}

// cast counts open cells from origin along dir, stopping before the first wall.
func cast(field *Field, origin, dir Cell, limit int) int {
	if !field.IsOpen(origin) {
		return 0
	}
	n := 0
	c := origin
	for n < limit {
		c = c.Add(dir)
		if !field.IsOpen(c) {
			break
		}
		n++
	}
	return n
}

// Tick advances the bomb timers. It returns true exactly once, on the tick the
// fuse runs out.
func (b *Bomb) Tick(dt time.Duration) bool {
	b.remaining -= dt
	if b.exploded || b.remaining > 0 {
		return false
	}

	b.exploded = true
	b.remaining = b.decay
	return true
}

// IsInRange reports whether the cell nearest to (x, y) is inside the blast area.
func (b *Bomb) IsInRange(x, y float64) bool {
	return b.Covers(spatial.RoundCell(x, y))
}

// Covers reports whether c lies on the bomb's row or column within range.
func (b *Bomb) Covers(c Cell) bool {
	if c.X == b.X && c.Y >= b.Range.MinY && c.Y <= b.Range.MaxY {
		return true
	}
	return c.Y == b.Y && c.X >= b.Range.MinX && c.X <= b.Range.MaxX
}

// IsPlayerInRange reports whether p is alive and inside the blast area.
func (b *Bomb) IsPlayerInRange(p *Player) bool {
	return !p.IsDied() && b.IsInRange(p.X, p.Y)
}

// IsExploded reports whether the bomb has detonated.
func (b *Bomb) IsExploded() bool { return b.exploded }

// IsExpired reports whether the explosion has fully decayed.
func (b *Bomb) IsExpired() bool {
	return b.exploded && b.remaining < 0
}

// Remaining returns the fuse time left, or the decay time left once exploded.
func (b *Bomb) Remaining() time.Duration { return b.remaining }

// Cell returns the plant cell.
func (b *Bomb) Cell() Cell { return Cell{X: b.X, Y: b.Y} }

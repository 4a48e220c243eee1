package game

import (
	"time"

	"bomb-arena/internal/game/spatial"
)

const (
	// DefaultPlayerSpeed is in cells per second.
	DefaultPlayerSpeed = 5.0
	DefaultDeathDecay  = 1 * time.Second
	DefaultMaxBombs    = 3
)

// PlayerState represents the player's movement/lifecycle state
type PlayerState int

const (
	StateIdle   PlayerState = iota // Standing on a cell, ready for the next command
	StateMoving                    // Interpolating toward an adjacent cell
	StateDied                      // Killed, waiting for removal
)

func (s PlayerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMoving:
		return "moving"
	case StateDied:
		return "died"
	default:
		return "unknown"
	}
}

// moveTarget is the single in-flight step of a moving player.
type moveTarget struct {
	dir  Command
	dest Cell
}

// stepHost is what a player needs from the arena while stepping.
// Cross-entity effects are requested through it, never applied directly.
type stepHost interface {
	canEnter(c Cell) bool
	requestBombPlacement(p *Player) bool
}

// Player is an arena participant, human or AI.
type Player struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Points int     `json:"points"`
	IsAI   bool    `json:"isAi"`

	// Bombs currently on the field owned by this player
	BombsPlaced int `json:"bombsPlaced"`

	serial        uint64 // engine-assigned, distinguishes re-joins under the same id
	speed         float64
	died          bool
	diedRemaining time.Duration
	target        *moveTarget
	queue         []Command
}

// NewPlayer creates an idle player at cell at.
func NewPlayer(id, name, color string, at Cell) *Player {
	return &Player{
		ID:            id,
		Name:          name,
		Color:         color,
		X:             float64(at.X),
		Y:             float64(at.Y),
		speed:         DefaultPlayerSpeed,
		diedRemaining: DefaultDeathDecay,
	}
}

// SetSpeed overrides the movement speed in cells per second.
func (p *Player) SetSpeed(cellsPerSecond float64) {
	if cellsPerSecond > 0 {
		p.speed = cellsPerSecond
	}
}

// SetDeathDecay overrides how long a killed player lingers before removal.
func (p *Player) SetDeathDecay(d time.Duration) {
	if !p.died {
		p.diedRemaining = d
	}
}

// AddCommand appends a command to the queue.
func (p *Player) AddCommand(c Command) {
	if p.died {
		return
	}
	p.queue = append(p.queue, c)
}

// PrependCommand puts a command at the head of the queue.
func (p *Player) PrependCommand(c Command) {
	if p.died {
		return
	}
	p.queue = append(p.queue, 0)
	copy(p.queue[1:], p.queue)
	p.queue[0] = c
}

// ClearCommands drops queued directional commands and keeps queued bombs.
func (p *Player) ClearCommands() {
	n := 0
	for _, c := range p.queue {
		if c == CmdBomb {
			p.queue[n] = c
			n++
		}
	}
	p.queue = p.queue[:n]
}

// SetMoveCommand replaces the directional stream with a long run of dir,
// modelling a held direction key. Queued bombs are kept.
func (p *Player) SetMoveCommand(dir Command) {
	if p.died || !dir.IsDirection() {
		return
	}
	p.ClearCommands()
	for i := 0; i < ContinuousMoveRepeat; i++ {
		p.queue = append(p.queue, dir)
	}
}

// Commands returns a copy of the pending queue.
func (p *Player) Commands() []Command {
	out := make([]Command, len(p.queue))
	copy(out, p.queue)
	return out
}

// QueueLen returns the number of pending commands.
func (p *Player) QueueLen() int { return len(p.queue) }

// Kill moves the player to the died state. Calling it again has no effect.
func (p *Player) Kill() {
	if p.died {
		return
	}
	p.died = true
	p.queue = nil
	p.target = nil
}

// IsDied reports whether the player has been killed.
func (p *Player) IsDied() bool { return p.died }

// IsDisposed reports whether the death decay has elapsed.
func (p *Player) IsDisposed() bool {
	return p.died && p.diedRemaining < 0
}

// State returns the current state.
func (p *Player) State() PlayerState {
	switch {
	case p.died:
		return StateDied
	case p.target != nil:
		return StateMoving
	default:
		return StateIdle
	}
}

// Cell returns the cell nearest to the player's position.
func (p *Player) Cell() Cell {
	return spatial.RoundCell(p.X, p.Y)
}

// Destination returns the cell being moved to, if any.
func (p *Player) Destination() (Cell, bool) {
	if p.target == nil {
		return Cell{}, false
	}
	return p.target.dest, true
}

// Step advances the player by dt.
//
// A moving player only interpolates. An idle player takes exactly one command
// per step: a bomb requests placement, a legal move starts moving and a
// blocked move is discarded.
func (p *Player) Step(dt time.Duration, host stepHost) {
	if p.died {
		p.diedRemaining -= dt
		return
	}

	if p.target != nil {
		p.advance(dt)
		return
	}

	if len(p.queue) == 0 {
		return
	}
	cmd := p.queue[0]
	p.queue = p.queue[1:]

	if cmd == CmdBomb {
		host.requestBombPlacement(p)
		return
	}
	if !cmd.IsDirection() {
		return
	}

	dest := p.Cell().Add(cmd.Delta())
	if host.canEnter(dest) {
		p.target = &moveTarget{dir: cmd, dest: dest}
	}
}

// advance interpolates along the single active axis and snaps on arrival.
func (p *Player) advance(dt time.Duration) {
	delta := dt.Seconds() * p.speed
	t := p.target

	arrived := false
	switch t.dir {
	case CmdUp:
		p.Y -= delta
		arrived = p.Y <= float64(t.dest.Y)
	case CmdDown:
		p.Y += delta
		arrived = p.Y >= float64(t.dest.Y)
	case CmdLeft:
		p.X -= delta
		arrived = p.X <= float64(t.dest.X)
	case CmdRight:
		p.X += delta
		arrived = p.X >= float64(t.dest.X)
	}

	if arrived {
		p.X = float64(t.dest.X)
		p.Y = float64(t.dest.Y)
		p.target = nil
	}
}

package game

import (
	"bomb-arena/internal/game/spatial"
)

const (
	// DefaultAIPathSteps is how many path steps an AI queues per decision
	DefaultAIPathSteps = 4
	// DefaultAIBombChance is the chance of a bomb after each queued path
	DefaultAIBombChance = 0.02
)

// AIController drives one AI player. It holds no state beyond the binding;
// every decision is recomputed from the arena.
type AIController struct {
	PlayerID string
}

// NewAIController binds a controller to the player with the given id
func NewAIController(playerID string) *AIController {
	return &AIController{PlayerID: playerID}
}

// Step makes one decision for the bound player. The caller holds the engine lock.
//
// In order: flee when standing in a blast area, bomb an adjacent opponent,
// otherwise chase the nearest opponent. Nothing happens while the player is
// dead or still has queued commands.
func (ai *AIController) Step(e *Engine) {
	p := e.players[ai.PlayerID]
	if p == nil || p.IsDied() || p.QueueLen() > 0 {
		return
	}

	here := p.Cell()
	var path []Cell

	if e.inAnyBlast(here) {
		path = spatial.FindPath(here, e.field.IsOpen, func(c Cell) bool {
			return !e.inAnyBlast(c)
		}, e.rng)
	} else {
		target := ai.closestOpponent(e, here)
		if target == nil {
			return
		}

		goal := target.Cell()
		if here.Manhattan(goal) <= 1 {
			p.AddCommand(CmdBomb)
			return
		}

		path = spatial.FindPath(here, e.field.IsOpen, func(c Cell) bool {
			return c.Manhattan(goal) == 1
		}, e.rng)
	}

	if len(path) == 0 {
		return
	}

	steps := e.cfg.AIPathSteps
	if steps <= 0 {
		steps = DefaultAIPathSteps
	}

	current := here
	for i := 0; i < len(path) && i < steps; i++ {
		if dir, ok := DirectionTo(current, path[i]); ok {
			p.AddCommand(dir)
		}
		current = path[i]
	}

	if e.rng.Float64() < e.cfg.AIBombChance {
		p.AddCommand(CmdBomb)
	}
}

// closestOpponent returns the nearest living player other than the bound one.
// The first player in join order wins ties.
func (ai *AIController) closestOpponent(e *Engine, from Cell) *Player {
	var (
		closest *Player
		best    int
	)
	for _, other := range e.order {
		if other.ID == ai.PlayerID || other.IsDied() {
			continue
		}
		d := from.Manhattan(other.Cell())
		if closest == nil || d < best {
			closest, best = other, d
		}
	}
	return closest
}

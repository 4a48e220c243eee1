package game

import (
	"testing"

	"bomb-arena/internal/config"
)

var openArena = []string{
	"       ",
	"       ",
	"       ",
	"       ",
	"       ",
	"       ",
	"       ",
}

// replay walks the queued directions from start and fails on a blocked step
func replay(t *testing.T, f *Field, start Cell, cmds []Command) Cell {
	t.Helper()
	at := start
	for _, c := range cmds {
		if !c.IsDirection() {
			continue
		}
		at = at.Add(c.Delta())
		if !f.IsOpen(at) {
			t.Fatalf("queued path walks into wall at %v", at)
		}
	}
	return at
}

// An AI next to a target at its bomb limit still decides to bomb, but no bomb is created
func TestAIAtBombLimitCannotPlace(t *testing.T) {
	e := newTestEngine(t, []string{"      "}, nil)
	bot := placeAt(e, "bot", Cell{X: 1, Y: 0}, true)
	placeAt(e, "target", Cell{X: 2, Y: 0}, false)
	bot.BombsPlaced = e.cfg.MaxBombs

	e.ais[0].Step(e)
	if got := queueString(bot); got != "b" {
		t.Fatalf("queue = %q, want a single bomb", got)
	}

	if e.requestBombPlacement(bot) {
		t.Error("placement should be denied at the limit")
	}

	bot.AddCommand(CmdBomb)
	e.Step(frame)
	if len(e.bombs) != 0 {
		t.Errorf("bombs = %d, want 0", len(e.bombs))
	}
	if bot.BombsPlaced != e.cfg.MaxBombs {
		t.Errorf("BombsPlaced = %d, want %d", bot.BombsPlaced, e.cfg.MaxBombs)
	}
}

func TestAIBombsAdjacentTarget(t *testing.T) {
	e := newTestEngine(t, openArena, nil)
	bot := placeAt(e, "bot", Cell{X: 3, Y: 3}, true)
	placeAt(e, "target", Cell{X: 3, Y: 2}, false)

	e.Step(frame)

	if len(e.bombs) != 1 || e.bombs[0].Cell() != (Cell{X: 3, Y: 3}) {
		t.Fatalf("expected one bomb under the AI, got %d", len(e.bombs))
	}
	if bot.BombsPlaced != 1 {
		t.Errorf("BombsPlaced = %d, want 1", bot.BombsPlaced)
	}
}

func TestAIChasesClosestTarget(t *testing.T) {
	e := newTestEngine(t, openArena, nil)
	bot := placeAt(e, "bot", Cell{X: 0, Y: 0}, true)
	near := placeAt(e, "near", Cell{X: 5, Y: 0}, false)
	placeAt(e, "far", Cell{X: 6, Y: 6}, false)

	e.ais[0].Step(e)

	cmds := bot.Commands()
	if len(cmds) != DefaultAIPathSteps {
		t.Fatalf("queued %d steps, want %d", len(cmds), DefaultAIPathSteps)
	}
	end := replay(t, e.field, bot.Cell(), cmds)
	if d := end.Manhattan(near.Cell()); d != 1 {
		t.Errorf("path ends at %v, distance %d from target, want 1", end, d)
	}
}

func TestAIQueuesAtMostPathSteps(t *testing.T) {
	e := newTestEngine(t, openArena, func(cfg *config.ArenaConfig) { cfg.AIPathSteps = 2 })
	bot := placeAt(e, "bot", Cell{X: 0, Y: 0}, true)
	placeAt(e, "target", Cell{X: 6, Y: 6}, false)

	e.ais[0].Step(e)
	if bot.QueueLen() != 2 {
		t.Errorf("queued %d steps, want 2", bot.QueueLen())
	}
}

func TestAIFleesBlast(t *testing.T) {
	e := newTestEngine(t, openArena, func(cfg *config.ArenaConfig) { cfg.BlastRadius = 0 })
	bot := placeAt(e, "bot", Cell{X: 3, Y: 3}, true)
	placeAt(e, "target", Cell{X: 3, Y: 2}, false)
	if !e.requestBombPlacement(bot) {
		t.Fatal("bomb placement failed")
	}

	e.ais[0].Step(e)

	cmds := bot.Commands()
	if len(cmds) == 0 {
		t.Fatal("AI in a blast should flee")
	}
	for _, c := range cmds {
		if c == CmdBomb {
			t.Fatal("fleeing AI should not bomb with zero bomb chance")
		}
	}
	end := replay(t, e.field, bot.Cell(), cmds)
	if e.inAnyBlast(end) {
		t.Errorf("flight ends at %v, still inside the blast", end)
	}
	// Nearest safe cell is one diagonal away
	if len(cmds) != 2 {
		t.Errorf("flight length = %d, want 2", len(cmds))
	}
}

func TestAISkipsTurn(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *Engine, bot *Player)
	}{
		{"queue not empty", func(e *Engine, bot *Player) {
			placeAt(e, "target", Cell{X: 6, Y: 6}, false)
			bot.AddCommand(CmdLeft)
		}},
		{"dead", func(e *Engine, bot *Player) {
			placeAt(e, "target", Cell{X: 6, Y: 6}, false)
			bot.Kill()
		}},
		{"no opponents", func(e *Engine, bot *Player) {}},
		{"only dead opponents", func(e *Engine, bot *Player) {
			placeAt(e, "target", Cell{X: 6, Y: 6}, false).Kill()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, openArena, nil)
			bot := placeAt(e, "bot", Cell{X: 0, Y: 0}, true)
			tt.setup(e, bot)
			before := queueString(bot)

			e.ais[0].Step(e)

			if got := queueString(bot); got != before {
				t.Errorf("queue changed from %q to %q", before, got)
			}
		})
	}
}

func TestAIUnreachableTargetQueuesNothing(t *testing.T) {
	e := newTestEngine(t, []string{
		"  w  ",
		"  w  ",
	}, nil)
	bot := placeAt(e, "bot", Cell{X: 0, Y: 0}, true)
	placeAt(e, "target", Cell{X: 4, Y: 1}, false)

	e.ais[0].Step(e)
	if bot.QueueLen() != 0 {
		t.Errorf("queue = %q, want empty", queueString(bot))
	}
}

func TestAIAlwaysBombsWithFullChance(t *testing.T) {
	e := newTestEngine(t, openArena, func(cfg *config.ArenaConfig) { cfg.AIBombChance = 1 })
	bot := placeAt(e, "bot", Cell{X: 0, Y: 0}, true)
	placeAt(e, "target", Cell{X: 6, Y: 6}, false)

	e.ais[0].Step(e)
	cmds := bot.Commands()
	if len(cmds) == 0 || cmds[len(cmds)-1] != CmdBomb {
		t.Errorf("queue = %q, want path followed by a bomb", queueString(bot))
	}
}

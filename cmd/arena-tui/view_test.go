package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"bomb-arena/internal/game"
)

func newSimView(t *testing.T) (*view, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)

	field := game.MustField([]string{
		"#####",
		"#   #",
		"#####",
	})
	return &view{screen: screen, field: field, selfID: "me"}, screen
}

func runeAt(screen tcell.SimulationScreen, x, y int) rune {
	r, _, _, _ := screen.GetContent(x, y)
	return r
}

func TestViewDrawsPlayersAndBombs(t *testing.T) {
	v, screen := newSimView(t)

	snap := &game.ArenaSnapshot{
		Players: []game.PlayerSnapshot{
			{ID: "me", Name: "Me", Color: "#ff5733", X: 1, Y: 1},
			{ID: "ai-1", Name: "AI 1", Color: "#33ff57", X: 3.4, Y: 1},
		},
		Bombs: []game.BombSnapshot{{X: 2, Y: 1}},
	}
	v.draw(snap, nil, nil)

	if got := runeAt(screen, 1*cellWidth, 1); got != '@' {
		t.Errorf("self = %q, want '@'", got)
	}
	if got := runeAt(screen, 3*cellWidth, 1); got != 'A' {
		t.Errorf("opponent = %q, want 'A'", got)
	}
	if got := runeAt(screen, 2*cellWidth, 1); got != 'o' {
		t.Errorf("bomb = %q, want 'o'", got)
	}
}

func TestViewDrawsExplosionAndDead(t *testing.T) {
	v, screen := newSimView(t)

	snap := &game.ArenaSnapshot{
		Players: []game.PlayerSnapshot{{ID: "p", Name: "P", X: 3, Y: 1, Died: true}},
		Bombs: []game.BombSnapshot{{
			X: 2, Y: 1, Exploded: true,
			Range: game.BlastRange{MinX: 1, MaxX: 2, MinY: 1, MaxY: 1},
		}},
	}
	v.draw(snap, nil, nil)

	for _, x := range []int{1, 2} {
		if got := runeAt(screen, x*cellWidth, 1); got != '*' {
			t.Errorf("cell %d = %q, want '*'", x, got)
		}
	}
	if got := runeAt(screen, 3*cellWidth, 1); got != 'x' {
		t.Errorf("dead player = %q, want 'x'", got)
	}
}

func TestViewPanelListsScoringRows(t *testing.T) {
	v, screen := newSimView(t)

	rows := []game.ScoreRow{{Name: "Zed", Points: 2, Color: "#ffffff"}, {Name: "Nil", Points: 0}}
	v.draw(&game.ArenaSnapshot{}, rows, []game.LogEntry{{Text: "Zed joined the game."}})

	px := v.field.Width()*cellWidth + panelGap
	if got := runeAt(screen, px, 1); got != 'Z' {
		t.Errorf("first high score row starts with %q, want 'Z'", got)
	}
	// Zero-point rows are skipped, so the IN GAME header follows after a gap
	if got := runeAt(screen, px, 3); got != 'I' {
		t.Errorf("IN GAME header at row 3 starts with %q", got)
	}
	if got := runeAt(screen, 0, v.field.Height()+1); got != 'Z' {
		t.Errorf("log line starts with %q, want 'Z'", got)
	}
}

func TestKeyToken(t *testing.T) {
	tests := []struct {
		name string
		key  *tcell.EventKey
		want string
		ok   bool
	}{
		{"arrow up", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), "u", true},
		{"arrow right", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), "r", true},
		{"wasd a", tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), "l", true},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), "b", true},
		{"stop", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), "null", true},
		{"quit is not a token", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := keyToken(tt.key)
			if got != tt.want || ok != tt.ok {
				t.Errorf("keyToken() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLogBufferKeepsTail(t *testing.T) {
	lb := &logBuffer{}
	for i := 0; i < maxLog+3; i++ {
		lb.Append(game.LogEntry{Text: string(rune('a' + i))})
	}
	lines := lb.Lines()
	if len(lines) != maxLog || lines[0].Text != "d" {
		t.Errorf("lines = %v", lines)
	}
}

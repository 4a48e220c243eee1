package game

import (
	"testing"
	"time"
)

// stubHost is a minimal arena for stepping a player in isolation
type stubHost struct {
	field    *Field
	accept   bool
	requests int
}

func (h *stubHost) canEnter(c Cell) bool {
	if h.field == nil {
		return true
	}
	return h.field.IsOpen(c)
}

func (h *stubHost) requestBombPlacement(p *Player) bool {
	h.requests++
	return h.accept
}

func queueString(p *Player) string {
	b := make([]byte, 0, p.QueueLen())
	for _, c := range p.Commands() {
		b = append(b, byte(c))
	}
	return string(b)
}

func TestNewPlayer(t *testing.T) {
	p := NewPlayer("id-1", "Alice", "#ff5733", Cell{X: 3, Y: 4})

	if p.X != 3 || p.Y != 4 {
		t.Errorf("position = (%v,%v), want (3,4)", p.X, p.Y)
	}
	if p.State() != StateIdle {
		t.Errorf("State() = %v, want idle", p.State())
	}
	if p.IsDied() || p.IsDisposed() {
		t.Error("new player should be alive")
	}
	if p.QueueLen() != 0 || p.Points != 0 || p.BombsPlaced != 0 {
		t.Error("new player should start empty")
	}
}

func TestPlayerQueueOperations(t *testing.T) {
	tests := []struct {
		name  string
		apply func(p *Player)
		want  string
	}{
		{
			name: "append keeps order",
			apply: func(p *Player) {
				p.AddCommand(CmdUp)
				p.AddCommand(CmdLeft)
				p.AddCommand(CmdBomb)
			},
			want: "ulb",
		},
		{
			name: "prepend jumps the queue",
			apply: func(p *Player) {
				p.AddCommand(CmdUp)
				p.AddCommand(CmdLeft)
				p.PrependCommand(CmdBomb)
			},
			want: "bul",
		},
		{
			name: "clear keeps bombs",
			apply: func(p *Player) {
				p.AddCommand(CmdUp)
				p.AddCommand(CmdBomb)
				p.AddCommand(CmdRight)
				p.AddCommand(CmdBomb)
				p.ClearCommands()
			},
			want: "bb",
		},
		{
			name: "set move then clear leaves only earlier bombs",
			apply: func(p *Player) {
				p.AddCommand(CmdBomb)
				p.AddCommand(CmdUp)
				p.SetMoveCommand(CmdDown)
				p.ClearCommands()
			},
			want: "b",
		},
		{
			name: "set move ignores bomb",
			apply: func(p *Player) {
				p.SetMoveCommand(CmdBomb)
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer("p", "P", "#fff", Cell{})
			tt.apply(p)
			if got := queueString(p); got != tt.want {
				t.Errorf("queue = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetMoveCommandReplacesDirectionalStream(t *testing.T) {
	p := NewPlayer("p", "P", "#fff", Cell{})
	p.AddCommand(CmdBomb)
	p.SetMoveCommand(CmdUp)
	p.SetMoveCommand(CmdRight)

	cmds := p.Commands()
	if len(cmds) != ContinuousMoveRepeat+1 {
		t.Fatalf("queue length = %d, want %d", len(cmds), ContinuousMoveRepeat+1)
	}
	if cmds[0] != CmdBomb {
		t.Errorf("queued bomb should survive, got %v first", cmds[0])
	}
	for i, c := range cmds[1:] {
		if c != CmdRight {
			t.Fatalf("cmds[%d] = %v, want right", i+1, c)
		}
	}
}

func TestPlayerMovementInterpolates(t *testing.T) {
	host := &stubHost{}
	p := NewPlayer("p", "P", "#fff", Cell{X: 0, Y: 0})
	p.AddCommand(CmdRight)

	p.Step(0, host)
	if p.State() != StateMoving {
		t.Fatalf("State() = %v, want moving", p.State())
	}
	if dest, ok := p.Destination(); !ok || dest != (Cell{X: 1, Y: 0}) {
		t.Fatalf("Destination() = %v %v, want (1,0)", dest, ok)
	}

	// 120ms at 5 cells/s is 0.6 cells
	p.Step(120*time.Millisecond, host)
	if p.X <= 0 || p.X >= 1 || p.Y != 0 {
		t.Fatalf("mid-move position = (%v,%v), want strictly between 0 and 1 on x", p.X, p.Y)
	}

	p.Step(120*time.Millisecond, host)
	if p.X != 1 || p.Y != 0 {
		t.Fatalf("position after arrival = (%v,%v), want snapped to (1,0)", p.X, p.Y)
	}
	if p.State() != StateIdle {
		t.Errorf("State() = %v, want idle after arrival", p.State())
	}
}

func TestPlayerMovesInEveryDirection(t *testing.T) {
	tests := []struct {
		cmd  Command
		want Cell
	}{
		{CmdUp, Cell{X: 2, Y: 1}},
		{CmdDown, Cell{X: 2, Y: 3}},
		{CmdLeft, Cell{X: 1, Y: 2}},
		{CmdRight, Cell{X: 3, Y: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			p := NewPlayer("p", "P", "#fff", Cell{X: 2, Y: 2})
			p.AddCommand(tt.cmd)
			host := &stubHost{}

			for i := 0; i < 10 && (i == 0 || p.State() == StateMoving); i++ {
				p.Step(50*time.Millisecond, host)
			}
			if p.Cell() != tt.want || p.State() != StateIdle {
				t.Errorf("ended at %v in %v, want %v idle", p.Cell(), p.State(), tt.want)
			}
			if p.X != float64(tt.want.X) || p.Y != float64(tt.want.Y) {
				t.Errorf("position (%v,%v) is not integral", p.X, p.Y)
			}
		})
	}
}

// Queue [u, b, u] with a wall above: the first up is dropped, the bomb is
// requested in the same step, the last up waits for the next step.
func TestBlockedMoveThenBomb(t *testing.T) {
	host := &stubHost{field: MustField([]string{
		"www",
		"w w",
		"www",
	})}
	p := NewPlayer("p", "P", "#fff", Cell{X: 1, Y: 1})
	p.AddCommand(CmdUp)
	p.AddCommand(CmdBomb)
	p.AddCommand(CmdUp)

	steps := []struct {
		wantQueue    string
		wantRequests int
	}{
		{"bu", 0}, // blocked up is discarded
		{"u", 1},  // bomb placement requested
		{"", 1},   // second up is discarded too
	}

	for i, st := range steps {
		p.Step(16*time.Millisecond, host)
		if got := queueString(p); got != st.wantQueue {
			t.Errorf("step %d: queue = %q, want %q", i+1, got, st.wantQueue)
		}
		if host.requests != st.wantRequests {
			t.Errorf("step %d: bomb requests = %d, want %d", i+1, host.requests, st.wantRequests)
		}
		if p.Cell() != (Cell{X: 1, Y: 1}) || p.State() != StateIdle {
			t.Errorf("step %d: blocked player moved to %v (%v)", i+1, p.Cell(), p.State())
		}
	}
}

func TestOneCommandPerStep(t *testing.T) {
	host := &stubHost{field: MustField([]string{
		"www",
		"w  ",
		"www",
	})}
	p := NewPlayer("p", "P", "#fff", Cell{X: 1, Y: 1})
	p.AddCommand(CmdUp)
	p.AddCommand(CmdLeft)
	p.AddCommand(CmdRight)
	p.AddCommand(CmdDown)

	p.Step(0, host)
	p.Step(0, host)
	if p.State() != StateIdle || queueString(p) != "rd" {
		t.Fatalf("after two blocked moves: state %v, queue %q; want idle, %q", p.State(), queueString(p), "rd")
	}

	p.Step(0, host)
	if p.State() != StateMoving {
		t.Fatalf("State() = %v, want moving", p.State())
	}
	if dest, _ := p.Destination(); dest != (Cell{X: 2, Y: 1}) {
		t.Errorf("Destination() = %v, want (2,1)", dest)
	}
	if got := queueString(p); got != "d" {
		t.Errorf("queue = %q, want %q", got, "d")
	}
}

func TestHeldDirectionIntoWallDrainsOnePerStep(t *testing.T) {
	host := &stubHost{field: MustField([]string{
		"www",
		"w w",
		"www",
	})}
	p := NewPlayer("p", "P", "#fff", Cell{X: 1, Y: 1})
	p.SetMoveCommand(CmdUp)

	p.Step(frame, host)
	if got := p.QueueLen(); got != ContinuousMoveRepeat-1 {
		t.Errorf("QueueLen() = %d, want %d", got, ContinuousMoveRepeat-1)
	}
}

func TestMovingPlayerIgnoresQueueUntilArrival(t *testing.T) {
	host := &stubHost{accept: true}
	p := NewPlayer("p", "P", "#fff", Cell{})
	p.AddCommand(CmdRight)
	p.AddCommand(CmdBomb)

	p.Step(0, host)
	p.Step(100*time.Millisecond, host)
	if host.requests != 0 {
		t.Fatal("bomb requested while moving")
	}

	p.Step(200*time.Millisecond, host) // arrives
	p.Step(0, host)
	if host.requests != 1 {
		t.Errorf("bomb requests = %d, want 1 after arrival", host.requests)
	}
}

func TestKillClearsQueueAndIsIdempotent(t *testing.T) {
	host := &stubHost{}
	p := NewPlayer("p", "P", "#fff", Cell{X: 5, Y: 5})
	p.AddCommand(CmdRight)
	p.Step(0, host)
	p.Step(100*time.Millisecond, host)
	p.AddCommand(CmdBomb)

	x, y := p.X, p.Y
	p.Kill()
	p.Kill()

	if !p.IsDied() || p.State() != StateDied {
		t.Fatal("player should be died")
	}
	if p.QueueLen() != 0 {
		t.Errorf("queue after kill = %q, want empty", queueString(p))
	}
	if _, moving := p.Destination(); moving {
		t.Error("in-flight target should be cleared")
	}

	p.AddCommand(CmdUp)
	p.PrependCommand(CmdBomb)
	p.SetMoveCommand(CmdLeft)
	p.Step(100*time.Millisecond, host)

	if p.QueueLen() != 0 {
		t.Errorf("queue must stay empty after death, got %q", queueString(p))
	}
	if p.X != x || p.Y != y {
		t.Errorf("dead player moved from (%v,%v) to (%v,%v)", x, y, p.X, p.Y)
	}
	if host.requests != 0 {
		t.Error("dead player requested a bomb")
	}
}

func TestDeathDecay(t *testing.T) {
	host := &stubHost{}
	p := NewPlayer("p", "P", "#fff", Cell{})
	p.Kill()

	p.Step(DefaultDeathDecay, host)
	if p.IsDisposed() {
		t.Fatal("decay timer at zero is not disposed yet")
	}

	p.Step(time.Millisecond, host)
	for i := 0; i < 3; i++ {
		if !p.IsDisposed() {
			t.Fatal("IsDisposed() should be true and stable once the decay elapsed")
		}
	}
}

func TestSetDeathDecayIgnoredAfterKill(t *testing.T) {
	p := NewPlayer("p", "P", "#fff", Cell{})
	p.SetDeathDecay(10 * time.Millisecond)
	p.Kill()
	p.SetDeathDecay(time.Hour)

	p.Step(11*time.Millisecond, &stubHost{})
	if !p.IsDisposed() {
		t.Error("decay set before the kill should apply")
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		token string
		want  Command
		ok    bool
	}{
		{"u", CmdUp, true},
		{"d", CmdDown, true},
		{"l", CmdLeft, true},
		{"r", CmdRight, true},
		{"b", CmdBomb, true},
		{"x", 0, false},
		{"", 0, false},
		{"up", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseCommand(tt.token)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCommand(%q) = %v, %v; want %v, %v", tt.token, got, ok, tt.want, tt.ok)
		}
	}
}

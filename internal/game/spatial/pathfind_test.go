package spatial

import (
	"math/rand"
	"reflect"
	"testing"
)

// grid builds a passable predicate from text rows, ' ' is open
func grid(rows ...string) Passable {
	return func(c Cell) bool {
		if c.Y < 0 || c.Y >= len(rows) || c.X < 0 || c.X >= len(rows[c.Y]) {
			return false
		}
		return rows[c.Y][c.X] == ' '
	}
}

func at(target Cell) Goal {
	return func(c Cell) bool { return c == target }
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.49, 0},
		{0.5, 1},
		{1.5, 2},
		{2.51, 3},
		{-0.4, 0},
		{-0.5, 0},
		{-0.6, -1},
	}
	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFindPathCorridor(t *testing.T) {
	passable := grid("     ")
	path := FindPath(Cell{0, 0}, passable, at(Cell{4, 0}), rand.New(rand.NewSource(1)))

	want := []Cell{{1, 0}, {2, 0}, {3, 0}, {4, 0}}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("path = %v, want %v", path, want)
	}
}

func TestFindPathStartSatisfiesGoal(t *testing.T) {
	path := FindPath(Cell{1, 0}, grid("   "), at(Cell{1, 0}), nil)
	if len(path) != 0 {
		t.Errorf("path = %v, want empty", path)
	}
}

func TestFindPathUnsatisfiable(t *testing.T) {
	tests := []struct {
		name string
		goal Goal
	}{
		{"walled off", at(Cell{4, 0})},
		{"never true", func(Cell) bool { return false }},
		{"goal is a wall", at(Cell{2, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := FindPath(Cell{0, 0}, grid("  w  "), tt.goal, rand.New(rand.NewSource(1)))
			if len(path) != 0 {
				t.Errorf("path = %v, want empty", path)
			}
		})
	}
}

func TestFindPathIsShortestAndAvoidsWalls(t *testing.T) {
	rows := []string{
		"       ",
		" wwwww ",
		"     w ",
		"wwww w ",
		"       ",
	}
	passable := grid(rows...)

	for seed := int64(0); seed < 20; seed++ {
		path := FindPath(Cell{0, 2}, passable, at(Cell{0, 4}), rand.New(rand.NewSource(seed)))
		if len(path) != 10 {
			t.Fatalf("seed %d: path length = %d, want 10: %v", seed, len(path), path)
		}

		prev := Cell{0, 2}
		for _, c := range path {
			if !passable(c) {
				t.Fatalf("seed %d: path crosses wall at %v", seed, c)
			}
			if prev.Manhattan(c) != 1 {
				t.Fatalf("seed %d: path jumps from %v to %v", seed, prev, c)
			}
			prev = c
		}
		if prev != (Cell{0, 4}) {
			t.Fatalf("seed %d: path ends at %v", seed, prev)
		}
	}
}

func TestFindPathSeeded(t *testing.T) {
	passable := grid(
		"     ",
		"     ",
		"     ",
	)
	goal := at(Cell{4, 2})

	a := FindPath(Cell{0, 0}, passable, goal, rand.New(rand.NewSource(7)))
	b := FindPath(Cell{0, 0}, passable, goal, rand.New(rand.NewSource(7)))
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed gave different paths: %v vs %v", a, b)
	}
}

func TestRoundCellAndManhattan(t *testing.T) {
	c := RoundCell(2.5, 3.49)
	if c != (Cell{3, 3}) {
		t.Errorf("RoundCell = %v, want (3,3)", c)
	}
	if d := c.Manhattan(Cell{0, 5}); d != 5 {
		t.Errorf("Manhattan = %d, want 5", d)
	}
}

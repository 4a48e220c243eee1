package game

import (
	"errors"
	"testing"
)

func TestNewFieldRejectsBadLayouts(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want error
	}{
		{"no rows", nil, ErrEmptyLayout},
		{"empty row", []string{""}, ErrEmptyLayout},
		{"ragged", []string{"www", "w w", "ww"}, ErrRaggedLayout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewField(tt.rows)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewField() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDefaultLayout(t *testing.T) {
	f := MustField(DefaultLayout)

	if f.Width() != 39 || f.Height() != 25 {
		t.Fatalf("default arena is %dx%d, want 39x25", f.Width(), f.Height())
	}
	if f.IsOpen(Cell{X: 0, Y: 0}) {
		t.Error("corner should be a wall")
	}
	if !f.IsOpen(Cell{X: 1, Y: 1}) {
		t.Error("(1,1) should be open")
	}
	// 'g' blocks are walls too
	if f.IsOpen(Cell{X: 11, Y: 4}) {
		t.Error("green block should be a wall")
	}
}

func TestCanMoveTo(t *testing.T) {
	f := MustField([]string{
		"wwww",
		"w  w",
		"wwww",
	})

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"open cell", 1, 1, true},
		{"second open cell", 2, 1, true},
		{"wall", 0, 0, false},
		{"rounds up into open", 0.6, 1, true},
		{"rounds down into wall", 0.4, 1, false},
		{"half rounds up", 2.5, 1, false},
		{"half rounds up into open", 1.5, 1, true},
		{"negative out of bounds", -1, 1, false},
		{"beyond width", 4, 1, false},
		{"beyond height", 1, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.CanMoveTo(tt.x, tt.y)
			if got != tt.want {
				t.Errorf("CanMoveTo(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
			// Pure function of the static field
			if again := f.CanMoveTo(tt.x, tt.y); again != got {
				t.Errorf("CanMoveTo(%v, %v) changed between calls", tt.x, tt.y)
			}
		})
	}
}

func TestFieldRowsIsACopy(t *testing.T) {
	f := MustField([]string{"w w"})
	rows := f.Rows()
	rows[0] = "www"

	if !f.IsOpen(Cell{X: 1, Y: 0}) {
		t.Error("mutating Rows() must not change the field")
	}
	if f.Rows()[0] != "w w" {
		t.Errorf("Rows()[0] = %q, want %q", f.Rows()[0], "w w")
	}
	if f.OpenCells() != 1 {
		t.Errorf("OpenCells() = %d, want 1", f.OpenCells())
	}
}

// Package spatial provides the grid primitives shared by the arena simulation:
// integer cells and breadth-first pathfinding over a walkability predicate.
package spatial

import (
	"math"
	"math/rand"
)

// Cell is an integral grid coordinate.
type Cell struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// Add returns c offset by d.
func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

// Manhattan returns the 4-connected distance between two cells.
func (c Cell) Manhattan(o Cell) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

// RoundCell snaps a real-valued position to the nearest cell.
// Halves round up, matching how interpolating positions are snapped.
func RoundCell(x, y float64) Cell {
	return Cell{X: Round(x), Y: Round(y)}
}

// Round rounds half up.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Neighbors4 lists the four axis directions.
var Neighbors4 = [4]Cell{{X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: 0, Y: 1}}

// Passable reports whether a cell may be entered.
type Passable func(c Cell) bool

// Goal reports whether a cell satisfies the search.
type Goal func(c Cell) bool

// FindPath runs a breadth-first search from start over passable
// 4-neighbours and returns the first discovered path to a goal cell.
//
// The returned path excludes start and ends at the goal cell. It is empty when
// start already satisfies goal or no goal cell is reachable.
//
// Neighbour order is shuffled once per call using rng so identical agents in
// identical situations do not all pick the same route. A nil rng keeps the
// fixed order.
//
// Time complexity: O(cells) per call.
func FindPath(start Cell, passable Passable, goal Goal, rng *rand.Rand) []Cell {
	if goal(start) {
		return nil
	}

	dirs := Neighbors4
	if rng != nil {
		rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })
	}

	// parent doubles as the visited set
	parent := map[Cell]Cell{start: start}
	queue := []Cell{start}

	for head := 0; head < len(queue); head++ {
		current := queue[head]

		for _, d := range dirs {
			next := current.Add(d)
			if _, seen := parent[next]; seen {
				continue
			}
			if !passable(next) {
				continue
			}
			parent[next] = current

			if goal(next) {
				return unwind(parent, start, next)
			}
			queue = append(queue, next)
		}
	}

	return nil
}

// unwind rebuilds the path from start (exclusive) to end (inclusive).
func unwind(parent map[Cell]Cell, start, end Cell) []Cell {
	n := 0
	for c := end; c != start; c = parent[c] {
		n++
	}

	path := make([]Cell, n)
	for c := end; c != start; c = parent[c] {
		n--
		path[n] = c
	}
	return path
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

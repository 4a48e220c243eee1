package game

import (
	"sort"
)

// DefaultLeaderboardSize is how many high score rows are retained
const DefaultLeaderboardSize = 10

// ScoreRow is a single leaderboard line
type ScoreRow struct {
	Name   string `json:"name" msgpack:"name"`
	Points int    `json:"points" msgpack:"points"`
	Color  string `json:"color" msgpack:"color"`
}

// Leaderboard is the high score table keyed by display name.
//
// Rows survive their players: a name keeps its last reported points until it
// falls out of the top N. Not safe for concurrent use; the engine owns it.
type Leaderboard struct {
	rows []ScoreRow
	size int
}

// NewLeaderboard creates a table that keeps the best size rows
func NewLeaderboard(size int) *Leaderboard {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	return &Leaderboard{
		rows: make([]ScoreRow, 0, size+1),
		size: size,
	}
}

// Merge overwrites the rows for every given player name, then re-sorts by
// points descending and truncates. Ties keep their previous relative order.
func (lb *Leaderboard) Merge(current []ScoreRow) {
	for _, cur := range current {
		found := false
		for i := range lb.rows {
			if lb.rows[i].Name == cur.Name {
				lb.rows[i].Points = cur.Points
				lb.rows[i].Color = cur.Color
				found = true
				break
			}
		}
		if !found {
			lb.rows = append(lb.rows, cur)
		}
	}

	sort.SliceStable(lb.rows, func(i, j int) bool {
		return lb.rows[i].Points > lb.rows[j].Points
	})

	if len(lb.rows) > lb.size {
		lb.rows = lb.rows[:lb.size]
	}
}

// Top returns a copy of the table in rank order
func (lb *Leaderboard) Top() []ScoreRow {
	out := make([]ScoreRow, len(lb.rows))
	copy(out, lb.rows)
	return out
}

// Scoring returns the rows with at least one point, as the HIGH SCORE panel shows them
func (lb *Leaderboard) Scoring() []ScoreRow {
	out := make([]ScoreRow, 0, len(lb.rows))
	for _, r := range lb.rows {
		if r.Points > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Rank returns the 1-based position of name, or 0 when it is not listed
func (lb *Leaderboard) Rank(name string) int {
	for i, r := range lb.rows {
		if r.Name == name {
			return i + 1
		}
	}
	return 0
}

// Len returns the number of rows
func (lb *Leaderboard) Len() int {
	return len(lb.rows)
}

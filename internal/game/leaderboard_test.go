package game

import (
	"reflect"
	"testing"
)

func TestLeaderboardMerge(t *testing.T) {
	lb := NewLeaderboard(3)

	lb.Merge([]ScoreRow{
		{Name: "a", Points: 1, Color: "#1"},
		{Name: "b", Points: 3, Color: "#2"},
		{Name: "c", Points: 1, Color: "#3"},
	})
	want := []ScoreRow{
		{Name: "b", Points: 3, Color: "#2"},
		{Name: "a", Points: 1, Color: "#1"},
		{Name: "c", Points: 1, Color: "#3"},
	}
	if got := lb.Top(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Top() = %+v, want %+v", got, want)
	}

	// "b" left the arena: its row stays. "c" improves, "d" is new and truncated away.
	lb.Merge([]ScoreRow{
		{Name: "a", Points: 1, Color: "#1"},
		{Name: "c", Points: 4, Color: "#9"},
		{Name: "d", Points: 0, Color: "#4"},
	})
	want = []ScoreRow{
		{Name: "c", Points: 4, Color: "#9"},
		{Name: "b", Points: 3, Color: "#2"},
		{Name: "a", Points: 1, Color: "#1"},
	}
	if got := lb.Top(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Top() = %+v, want %+v", got, want)
	}

	if lb.Rank("c") != 1 || lb.Rank("d") != 0 {
		t.Errorf("Rank(c) = %d, Rank(d) = %d; want 1, 0", lb.Rank("c"), lb.Rank("d"))
	}
}

func TestLeaderboardScoringFiltersZeroes(t *testing.T) {
	lb := NewLeaderboard(0)
	lb.Merge([]ScoreRow{{Name: "a", Points: 2}, {Name: "b", Points: 0}})

	if lb.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", lb.Len())
	}
	rows := lb.Scoring()
	if len(rows) != 1 || rows[0].Name != "a" {
		t.Errorf("Scoring() = %+v, want only a", rows)
	}
}

func TestLeaderboardTopIsACopy(t *testing.T) {
	lb := NewLeaderboard(5)
	lb.Merge([]ScoreRow{{Name: "a", Points: 2}})

	rows := lb.Top()
	rows[0].Points = 100

	if lb.Top()[0].Points != 2 {
		t.Error("mutating Top() changed the table")
	}
}

package quiz

import (
	"testing"
)

func TestCalculateWinners(t *testing.T) {
	players := []Player{
		{ID: "a", Points: 10, GamesPlayed: 1},
		{ID: "b", Points: 30, GamesPlayed: 2},
		{ID: "c", Points: 0, GamesPlayed: 0},
		{ID: "d", Points: 10, GamesPlayed: 1},
		{ID: "e", Points: 5, GamesPlayed: 1},
	}
	ranked := CalculateWinners(players)
	if len(ranked) != 4 {
		t.Fatalf("players who never played should be excluded, got %d", len(ranked))
	}
	order := []string{"b", "a", "d", "e"}
	for i, id := range order {
		if ranked[i].ID != id {
			t.Fatalf("position %d should be %s, got %s", i, id, ranked[i].ID)
		}
	}
	top := TopWinners(ranked, PodiumSize)
	if len(top) != 3 || top[2].ID != "d" {
		t.Fatalf("podium should be the top three, got %v", top)
	}
	if len(TopWinners(ranked[:1], PodiumSize)) != 1 {
		t.Fatalf("short rankings should not be padded")
	}
}

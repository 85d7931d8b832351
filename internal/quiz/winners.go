package quiz

import (
	"sort"
)

const PodiumSize = 3

// CalculateWinners ranks players who have played at least once by points,
// highest first. Ties keep the input order.
func CalculateWinners(players []Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if p.GamesPlayed > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Points > out[j].Points
	})
	return out
}

func TopWinners(ranked []Player, n int) []Player {
	if n > len(ranked) {
		n = len(ranked)
	}
	return append([]Player(nil), ranked[:n]...)
}

package quiz

import (
	"math/rand"
	"strings"
)

// allows reports whether a question of difficulty d passes the filter.
// Filters are cumulative: "medium" keeps easy and medium questions.
func allows(filter string, d Difficulty) bool {
	switch strings.ToLower(filter) {
	case string(DifficultyEasy):
		return d.rank() <= DifficultyEasy.rank()
	case string(DifficultyMedium):
		return d.rank() <= DifficultyMedium.rank()
	default:
		return true
	}
}

// Select draws up to count questions of gameType without replacement.
// The difficulty filter is applied before truncation so the requested count is
// honored whenever enough questions pass it. Returned questions are copies
// carrying a 1-based Rank and the session's timeLimit.
func (b Bank) Select(gameType string, count int, filter string, timeLimit int, rng *rand.Rand) []Question {
	_, catalog := b.Catalog(gameType)

	pool := make([]Question, 0, len(catalog))
	for _, q := range catalog {
		if allows(filter, q.Difficulty) {
			pool = append(pool, q)
		}
	}

	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	if count < 0 {
		count = 0
	}
	if count < len(pool) {
		pool = pool[:count]
	}

	out := make([]Question, len(pool))
	for i, q := range pool {
		q.Answers = append([]string(nil), q.Answers...)
		q.Rank = i + 1
		if timeLimit > 0 {
			q.TimeLimit = timeLimit
		}
		out[i] = q
	}
	return out
}

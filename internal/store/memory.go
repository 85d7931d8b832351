package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
)

// Memory is an in-process store shared by every viewer of one server.
type Memory struct {
	mu      sync.RWMutex
	current *quiz.GameSession
	players map[string]quiz.Player
	order   []string // insertion order, for stable rankings
}

func NewMemory() *Memory {
	return &Memory{players: make(map[string]quiz.Player)}
}

func (m *Memory) GetCurrentGame(ctx context.Context) (*quiz.GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone(), nil
}

func (m *Memory) SaveCurrentGame(ctx context.Context, s *quiz.GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s.Clone()
	return nil
}

func (m *Memory) GetPlayers(ctx context.Context) ([]quiz.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]quiz.Player, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.players[id])
	}
	return out, nil
}

func (m *Memory) SavePlayer(ctx context.Context, p quiz.Player) (quiz.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.LastActive.IsZero() {
		p.LastActive = time.Now().UTC()
	}
	existing, ok := m.players[p.ID]
	if !ok {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = p.LastActive
		}
		m.players[p.ID] = p
		m.order = append(m.order, p.ID)
		return p, nil
	}
	existing.Name = p.Name
	existing.Phone = p.Phone
	existing.Email = p.Email
	existing.LastActive = p.LastActive
	m.players[p.ID] = existing
	return existing, nil
}

func (m *Memory) UpdatePlayerScore(ctx context.Context, playerID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return quiz.ErrUnknownPlayer
	}
	p.Points += delta
	p.GamesPlayed++
	m.players[playerID] = p
	return nil
}

// Ranking is a convenience for read-only surfaces.
func Ranking(ctx context.Context, ps quiz.PlayerStore) ([]quiz.Player, error) {
	players, err := ps.GetPlayers(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(players, func(i, j int) bool { return players[i].CreatedAt.Before(players[j].CreatedAt) })
	return quiz.CalculateWinners(players), nil
}

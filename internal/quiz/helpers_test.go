package quiz

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

var testStart = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

type fakeGames struct {
	mu    sync.Mutex
	s     *GameSession
	err   error
	saves int
}

func (f *fakeGames) GetCurrentGame(ctx context.Context) (*GameSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.s.Clone(), nil
}

func (f *fakeGames) SaveCurrentGame(ctx context.Context, s *GameSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.s = s.Clone()
	f.saves++
	return nil
}

func (f *fakeGames) current() *GameSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s.Clone()
}

type fakePlayers struct {
	mu      sync.Mutex
	players map[string]Player
	order   []string
	err     error
}

func newFakePlayers() *fakePlayers {
	return &fakePlayers{players: make(map[string]Player)}
}

func (f *fakePlayers) GetPlayers(ctx context.Context) ([]Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Player, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.players[id])
	}
	return out, nil
}

func (f *fakePlayers) SavePlayer(ctx context.Context, p Player) (Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Player{}, f.err
	}
	if old, ok := f.players[p.ID]; ok {
		p.Points, p.GamesPlayed, p.CreatedAt = old.Points, old.GamesPlayed, old.CreatedAt
	} else {
		f.order = append(f.order, p.ID)
	}
	f.players[p.ID] = p
	return p, nil
}

func (f *fakePlayers) UpdatePlayerScore(ctx context.Context, playerID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	p, ok := f.players[playerID]
	if !ok {
		return ErrUnknownPlayer
	}
	p.Points += delta
	p.GamesPlayed++
	f.players[playerID] = p
	return nil
}

func (f *fakePlayers) get(id string) Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.players[id]
}

type memLocal struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemLocal() *memLocal { return &memLocal{data: make(map[string][]byte)} }

func (m *memLocal) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memLocal) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memLocal) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memLocal) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

type fakeChat struct {
	mu        sync.Mutex
	msgs      []string
	greetings []string
}

func (f *fakeChat) SendChatMessage(ctx context.Context, text string, typ MessageType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if typ == MessageGreeting {
		f.greetings = append(f.greetings, text)
		return nil
	}
	f.msgs = append(f.msgs, text)
	return nil
}

type fakeAuth struct{}

func (fakeAuth) LoginAdmin(ctx context.Context, email, password string) (string, error) {
	if password != "secreto" {
		return "", ErrUnauthorized
	}
	return "Locutora", nil
}

type recPresenter struct {
	NopPresenter
	mu       sync.Mutex
	timeUps  []string
	winners  [][]Player
	notifies []string
	ranking  []Player
}

func (r *recPresenter) TimeUp(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeUps = append(r.timeUps, id)
}

func (r *recPresenter) Winners(top []Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.winners = append(r.winners, top)
}

func (r *recPresenter) Notify(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifies = append(r.notifies, level)
}

func (r *recPresenter) Ranking(players []Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranking = players
}

type env struct {
	clock   *clockwork.FakeClock
	games   *fakeGames
	players *fakePlayers
	chat    *fakeChat
}

func newEnv() *env {
	return &env{
		clock:   clockwork.NewFakeClockAt(testStart),
		games:   &fakeGames{},
		players: newFakePlayers(),
		chat:    &fakeChat{},
	}
}

func (e *env) client(t *testing.T, p Presenter, mods ...func(*Deps)) *Client {
	t.Helper()
	deps := Deps{
		Games:       e.games,
		Players:     e.players,
		Local:       newMemLocal(),
		Chat:        e.chat,
		Auth:        fakeAuth{},
		Presenter:   p,
		Clock:       e.clock,
		Rand:        rand.New(rand.NewSource(1)),
		ManualTicks: true,
	}
	for _, mod := range mods {
		mod(&deps)
	}
	c := NewClient(deps)
	t.Cleanup(c.Close)
	return c
}

func (e *env) admin(t *testing.T, mods ...func(*Deps)) *Client {
	t.Helper()
	c := e.client(t, nil, mods...)
	if _, err := c.LoginAdmin(context.Background(), "radio@example.org", "secreto"); err != nil {
		t.Fatalf("login: %v", err)
	}
	return c
}

func ticks(c *Client, n int) {
	for i := 0; i < n; i++ {
		c.Tick()
	}
}

func register(t *testing.T, c *Client, name string) Player {
	t.Helper()
	p, err := c.Register(context.Background(), RegistrationInput{Name: name})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return p
}

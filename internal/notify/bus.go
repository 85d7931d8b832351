package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
	"github.com/rs/zerolog/log"
)

const (
	Subject  = "radiotrivia.game.current"
	Exchange = "radiotrivia.game"
)

// Bus pushes every saved session to the other replicas so followers do not
// wait for the next poll.
type Bus interface {
	Publish(ctx context.Context, s *quiz.GameSession) error
	Subscribe(ctx context.Context, fn func(*quiz.GameSession)) error
	Close() error
}

func encode(s *quiz.GameSession) ([]byte, error) {
	return json.Marshal(s)
}

func decode(data []byte) (*quiz.GameSession, bool) {
	var s quiz.GameSession
	if err := json.Unmarshal(data, &s); err != nil {
		log.Warn().Err(err).Msg("dropping malformed game event")
		return nil, false
	}
	return &s, true
}

// Local is an in-process bus for a single replica.
type Local struct {
	mu   sync.RWMutex
	subs []func(*quiz.GameSession)
}

func NewLocal() *Local { return &Local{} }

func (l *Local) Publish(ctx context.Context, s *quiz.GameSession) error {
	l.mu.RLock()
	subs := append(([]func(*quiz.GameSession))(nil), l.subs...)
	l.mu.RUnlock()
	for _, fn := range subs {
		fn(s.Clone())
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context, fn func(*quiz.GameSession)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, fn)
	return nil
}

func (l *Local) Close() error { return nil }

// PublishingStore publishes every saved session on the bus. A failed publish
// is logged and never fails the save.
type PublishingStore struct {
	quiz.GameStore
	Bus Bus
}

func (p PublishingStore) SaveCurrentGame(ctx context.Context, s *quiz.GameSession) error {
	if err := p.GameStore.SaveCurrentGame(ctx, s); err != nil {
		return err
	}
	if err := p.Bus.Publish(ctx, s); err != nil {
		log.Error().Err(err).Str("game", s.ID).Msg("failed to publish game")
	}
	return nil
}

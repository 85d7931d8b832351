package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/ondacomunitaria/radiotrivia/internal/notify"
	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
	"github.com/rs/zerolog/log"
)

var ErrUnknownViewer = errors.New("unknown viewer")

// DefaultIdleTimeout is how long a viewer with no attached socket and no
// requests stays loaded.
const DefaultIdleTimeout = 10 * time.Minute

// StateProvider hands out one private LocalState per viewer token.
type StateProvider interface {
	Namespace(ns string) quiz.LocalState
	Drop(ns string) error
}

// Emitter delivers presenter events to whatever is showing a viewer.
type Emitter interface {
	Emit(token, event string, payload any)
}

type Options struct {
	Games        quiz.GameStore
	Players      quiz.PlayerStore
	Local        StateProvider
	Chat         quiz.Chat
	Auth         quiz.Authenticator
	Bank         quiz.Bank
	Bus          notify.Bus
	Clock        clockwork.Clock
	ActiveWindow time.Duration
	ExportFile   string
	ManualTicks  bool
	IdleTimeout  time.Duration
}

// Hub owns every viewing context of this process and runs the follower
// loops they share.
type Hub struct {
	opts Options

	mu      sync.RWMutex
	viewers map[string]*viewer
	emitter Emitter

	pushes chan *quiz.GameSession
}

type viewer struct {
	client   *quiz.Client
	lastSeen time.Time
	sockets  int
}

func New(opts Options) *Hub {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Bank == nil {
		opts.Bank = quiz.DefaultBank()
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	return &Hub{
		opts:    opts,
		viewers: make(map[string]*viewer),
		pushes:  make(chan *quiz.GameSession, 16),
	}
}

func (h *Hub) SetEmitter(e Emitter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emitter = e
}

func (h *Hub) emit(token, event string, payload any) {
	h.mu.RLock()
	e := h.emitter
	h.mu.RUnlock()
	if e != nil {
		e.Emit(token, event, payload)
	}
}

// Open returns the viewer for token, creating it when needed. An empty token
// opens a fresh viewer; a known token that is not loaded (after a restart)
// is restored from its persisted local state.
func (h *Hub) Open(ctx context.Context, token string) (string, *quiz.Client, error) {
	if token == "" {
		token = uuid.NewString()
	} else if _, err := uuid.Parse(token); err != nil {
		return "", nil, ErrUnknownViewer
	}

	h.mu.Lock()
	if v, ok := h.viewers[token]; ok {
		v.lastSeen = h.opts.Clock.Now()
		h.mu.Unlock()
		return token, v.client, nil
	}
	c := quiz.NewClient(quiz.Deps{
		ViewerID:     token,
		Games:        h.opts.Games,
		Players:      h.opts.Players,
		Local:        h.opts.Local.Namespace(token),
		Chat:         h.opts.Chat,
		Auth:         h.opts.Auth,
		Presenter:    &presenter{token: token, hub: h},
		Bank:         h.opts.Bank,
		Clock:        h.opts.Clock,
		ActiveWindow: h.opts.ActiveWindow,
		ExportFile:   h.opts.ExportFile,
		ManualTicks:  h.opts.ManualTicks,
	})
	h.viewers[token] = &viewer{client: c, lastSeen: h.opts.Clock.Now()}
	count := len(h.viewers)
	h.mu.Unlock()

	log.Info().Str("viewer", token).Int("viewers", count).Msg("viewer opened")
	// Catch up right away instead of waiting for the next poll.
	_ = c.Poll(ctx)
	return token, c, nil
}

// Get returns a loaded viewer and marks it as seen.
func (h *Hub) Get(token string) (*quiz.Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.viewers[token]
	if !ok {
		return nil, ErrUnknownViewer
	}
	v.lastSeen = h.opts.Clock.Now()
	return v.client, nil
}

// Attach counts a socket showing the viewer. Attached viewers are never idle.
func (h *Hub) Attach(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.viewers[token]; ok {
		v.sockets++
		v.lastSeen = h.opts.Clock.Now()
	}
}

// Detach undoes Attach. The idle timeout starts from the last detach.
func (h *Hub) Detach(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.viewers[token]; ok && v.sockets > 0 {
		v.sockets--
		v.lastSeen = h.opts.Clock.Now()
	}
}

// CloseIdle stops viewers with no attached socket that were not seen for the
// idle timeout. Their persisted local state is kept so the tab can come back.
func (h *Hub) CloseIdle() int {
	now := h.opts.Clock.Now()
	var idle []*quiz.Client
	h.mu.Lock()
	for token, v := range h.viewers {
		if v.sockets == 0 && now.Sub(v.lastSeen) >= h.opts.IdleTimeout {
			idle = append(idle, v.client)
			delete(h.viewers, token)
		}
	}
	count := len(h.viewers)
	h.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}
	if len(idle) > 0 {
		log.Info().Int("closed", len(idle)).Int("viewers", count).Msg("idle viewers closed")
	}
	return len(idle)
}

// Close stops a viewer and forgets its local state.
func (h *Hub) Close(token string) error {
	h.mu.Lock()
	v, ok := h.viewers[token]
	delete(h.viewers, token)
	h.mu.Unlock()
	if !ok {
		return ErrUnknownViewer
	}
	v.client.Close()
	if err := h.opts.Local.Drop(token); err != nil {
		log.Error().Err(err).Str("viewer", token).Msg("failed to drop viewer state")
	}
	log.Info().Str("viewer", token).Msg("viewer closed")
	return nil
}

// CloseAll stops every viewer. Persisted local state is kept for the next start.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	viewers := h.viewers
	h.viewers = make(map[string]*viewer)
	h.mu.Unlock()
	for _, v := range viewers {
		v.client.Close()
	}
	log.Info().Int("viewers", len(viewers)).Msg("all viewers closed")
}

func (h *Hub) clients() []*quiz.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*quiz.Client, 0, len(h.viewers))
	for _, v := range h.viewers {
		out = append(out, v.client)
	}
	return out
}

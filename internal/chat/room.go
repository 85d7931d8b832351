package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
	"github.com/rs/zerolog/log"
)

const (
	SystemAuthor   = "Sistema"
	DefaultHistory = 100
	maxBodyLength  = 500
)

// Room is the single chat of the broadcast. It keeps a bounded history and
// delivers every message to subscribers in arrival order.
type Room struct {
	clock clockwork.Clock
	limit int

	mu      sync.Mutex // serializes Send so subscribers see one order
	subMu   sync.RWMutex
	history []quiz.ChatMessage
	subs    map[int]func(quiz.ChatMessage)
	nextSub int
}

func NewRoom(clock clockwork.Clock, historyLimit int) *Room {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistory
	}
	return &Room{clock: clock, limit: historyLimit, subs: make(map[int]func(quiz.ChatMessage))}
}

// Send stamps the message and delivers it.
func (r *Room) Send(ctx context.Context, m quiz.ChatMessage) (quiz.ChatMessage, error) {
	m.Author = strings.TrimSpace(m.Author)
	m.Body = strings.TrimSpace(m.Body)
	if m.Body == "" {
		return quiz.ChatMessage{}, quiz.ErrValidation
	}
	if runes := []rune(m.Body); len(runes) > maxBodyLength {
		m.Body = string(runes[:maxBodyLength])
	}
	if m.Type == "" {
		m.Type = quiz.MessageChat
	}
	if m.Author == "" {
		m.Author = "Anónimo"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	m.Time = r.clock.Now().UTC()

	r.subMu.Lock()
	r.history = append(r.history, m)
	if over := len(r.history) - r.limit; over > 0 {
		r.history = append([]quiz.ChatMessage(nil), r.history[over:]...)
	}
	subs := make([]func(quiz.ChatMessage), 0, len(r.subs))
	for i := 0; i < r.nextSub; i++ {
		if fn, ok := r.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	r.subMu.Unlock()

	for _, fn := range subs {
		fn(m)
	}
	log.Debug().Str("author", m.Author).Str("type", string(m.Type)).Msg("chat message")
	return m, nil
}

// SendChatMessage posts a message from the system author.
func (r *Room) SendChatMessage(ctx context.Context, text string, typ quiz.MessageType) error {
	_, err := r.Send(ctx, quiz.ChatMessage{Author: SystemAuthor, Body: text, Type: typ})
	return err
}

// Post sends body as the viewer's player. Unregistered viewers cannot chat.
func (r *Room) Post(ctx context.Context, client *quiz.Client, body string) (quiz.ChatMessage, error) {
	p := client.CurrentPlayer()
	if p == nil {
		return quiz.ChatMessage{}, quiz.ErrNotRegistered
	}
	client.Touch(ctx)
	return r.Send(ctx, quiz.ChatMessage{Author: p.Name, Body: body, Type: quiz.MessageChat})
}

// History returns up to n most recent messages, oldest first. n <= 0 means all.
func (r *Room) History(n int) []quiz.ChatMessage {
	r.subMu.RLock()
	defer r.subMu.RUnlock()
	h := r.history
	if n > 0 && n < len(h) {
		h = h[len(h)-n:]
	}
	return append([]quiz.ChatMessage(nil), h...)
}

// Subscribe registers fn for every future message. The returned func cancels it.
func (r *Room) Subscribe(fn func(quiz.ChatMessage)) (cancel func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		delete(r.subs, id)
	}
}

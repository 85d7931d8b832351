package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
)

func TestRoomDeliversInOrder(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC))
	r := NewRoom(clock, 2)
	ctx := context.Background()

	var got []string
	cancel := r.Subscribe(func(m quiz.ChatMessage) { got = append(got, m.Body) })

	for _, body := range []string{"uno", "dos", "tres"} {
		if _, err := r.Send(ctx, quiz.ChatMessage{Author: "Ana", Body: body}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	cancel()
	_, _ = r.Send(ctx, quiz.ChatMessage{Author: "Ana", Body: "cuatro"})

	if len(got) != 3 || got[0] != "uno" || got[2] != "tres" {
		t.Fatalf("subscriber should see messages in order until cancel, got %v", got)
	}
	h := r.History(0)
	if len(h) != 2 || h[0].Body != "tres" || h[1].Body != "cuatro" {
		t.Fatalf("history should keep the last two, got %v", h)
	}
	if !h[0].Time.Equal(clock.Now()) || h[0].Type != quiz.MessageChat {
		t.Fatalf("message should be stamped with time and default type, got %+v", h[0])
	}
}

func TestRoomRejectsEmpty(t *testing.T) {
	r := NewRoom(nil, 0)
	if _, err := r.Send(context.Background(), quiz.ChatMessage{Body: "   "}); !errors.Is(err, quiz.ErrValidation) {
		t.Fatalf("empty message should be rejected, got %v", err)
	}
}

func TestRoomSystemMessages(t *testing.T) {
	r := NewRoom(nil, 0)
	if err := r.SendChatMessage(context.Background(), "¡Comienza la trivia!", quiz.MessageSystem); err != nil {
		t.Fatalf("send: %v", err)
	}
	h := r.History(1)
	if h[0].Author != SystemAuthor || h[0].Type != quiz.MessageSystem {
		t.Fatalf("system message should come from the system author, got %+v", h[0])
	}
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func TestTelegramMirrorForwardsSystemMessages(t *testing.T) {
	r := NewRoom(nil, 0)
	api := &fakeSender{}
	m := newTelegramMirror(api, 42)
	m.Attach(r)

	ctx := context.Background()
	_, _ = r.Send(ctx, quiz.ChatMessage{Author: "Ana", Body: "hola"})
	_ = r.SendChatMessage(ctx, "¡Terminó la trivia!", quiz.MessageSystem)
	m.Close()

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.sent) != 1 || api.sent[0] != "¡Terminó la trivia!" {
		t.Fatalf("only system messages should be mirrored, got %v", api.sent)
	}
}

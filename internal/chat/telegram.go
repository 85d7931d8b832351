package chat

import (
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
	"github.com/rs/zerolog/log"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramMirror forwards system announcements of a Room to a Telegram chat.
type TelegramMirror struct {
	api    telegramSender
	chatID int64
	queue  chan string
	cancel func()
	done   chan struct{}
	once   sync.Once
}

func NewTelegramMirror(token string, chatID int64) (*TelegramMirror, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	log.Info().Str("bot", api.Self.UserName).Int64("chat", chatID).Msg("telegram mirror ready")
	return newTelegramMirror(api, chatID), nil
}

func newTelegramMirror(api telegramSender, chatID int64) *TelegramMirror {
	return &TelegramMirror{
		api:    api,
		chatID: chatID,
		queue:  make(chan string, 64),
		done:   make(chan struct{}),
	}
}

// Attach starts mirroring the room. Network sends never block the room.
func (m *TelegramMirror) Attach(r *Room) {
	m.cancel = r.Subscribe(func(msg quiz.ChatMessage) {
		if msg.Type != quiz.MessageSystem {
			return
		}
		select {
		case m.queue <- msg.Body:
		default:
			log.Warn().Msg("telegram mirror queue full, dropping message")
		}
	})
	go m.run()
}

func (m *TelegramMirror) run() {
	defer close(m.done)
	for text := range m.queue {
		if _, err := m.api.Send(tgbotapi.NewMessage(m.chatID, text)); err != nil {
			log.Error().Err(err).Int64("chat", m.chatID).Msg("failed to mirror message to telegram")
		}
	}
}

// Close stops mirroring and waits for queued messages to be sent.
func (m *TelegramMirror) Close() {
	m.once.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		close(m.queue)
		if m.cancel != nil {
			<-m.done
		}
	})
}

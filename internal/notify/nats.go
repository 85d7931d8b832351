package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
	"github.com/rs/zerolog/log"
)

const (
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
)

type NATS struct {
	nc   *nats.Conn
	subs []*nats.Subscription
}

func NewNATS(url string) (*NATS, error) {
	opts := []nats.Option{
		nats.Name("radiotrivia"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	log.Info().Str("url", nc.ConnectedUrl()).Msg("connected to NATS")
	return &NATS{nc: nc}, nil
}

func (n *NATS) Publish(ctx context.Context, s *quiz.GameSession) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	return n.nc.Publish(Subject, data)
}

func (n *NATS) Subscribe(ctx context.Context, fn func(*quiz.GameSession)) error {
	sub, err := n.nc.Subscribe(Subject, func(msg *nats.Msg) {
		if s, ok := decode(msg.Data); ok {
			fn(s)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", Subject, err)
	}
	n.subs = append(n.subs, sub)
	return nil
}

func (n *NATS) Close() error {
	for _, sub := range n.subs {
		_ = sub.Unsubscribe()
	}
	return n.nc.Drain()
}

package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// AMQP fans sessions out through a RabbitMQ exchange. Every subscriber gets
// its own exclusive queue, so every replica sees every session.
type AMQP struct {
	conn *amqp.Connection
	mu   sync.Mutex // amqp channels are not safe for concurrent publishing
	ch   *amqp.Channel
}

func NewAMQP(url string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		Exchange, // name
		"fanout", // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	log.Info().Str("exchange", Exchange).Msg("connected to RabbitMQ")
	return &AMQP{conn: conn, ch: ch}, nil
}

func (a *AMQP) Publish(ctx context.Context, s *quiz.GameSession) error {
	body, err := encode(s)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ch.PublishWithContext(ctx,
		Exchange,
		"",
		false,
		false, amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
}

func (a *AMQP) Subscribe(ctx context.Context, fn func(*quiz.GameSession)) error {
	ch, err := a.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", Exchange, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("bind queue: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("consume: %w", err)
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					log.Warn().Str("queue", q.Name).Msg("RabbitMQ deliveries closed")
					return
				}
				if s, ok := decode(d.Body); ok {
					fn(s)
				}
			}
		}
	}()
	return nil
}

func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ch.Close()
	return a.conn.Close()
}

// Package push: antrean push notification (dikonsumsi worker push terpisah).
package push

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const RoutingKeyUsers = "push.users"

type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Job: payload yang diterbitkan ke exchange.
type Job struct {
	UserIDs []uuid.UUID `json:"user_ids"`
	Message Message     `json:"message"`
}

type Publisher interface {
	Publish(ctx context.Context, userIDs []uuid.UUID, msg Message) error
	Close() error
}

type AMQPPublisher struct {
	mu       sync.Mutex // amqp.Channel tidak aman dipakai paralel
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, userIDs []uuid.UUID, msg Message) error {
	if len(userIDs) == 0 {
		return nil
	}
	b, err := sonic.Marshal(Job{UserIDs: userIDs, Message: msg})
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, RoutingKeyUsers, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher: fallback kalau AMQP_URL kosong, hanya mencatat ke log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, userIDs []uuid.UUID, msg Message) error {
	log.Printf("[Push] (log only) %d user: %s", len(userIDs), msg.Title)
	return nil
}

func (LogPublisher) Close() error { return nil }

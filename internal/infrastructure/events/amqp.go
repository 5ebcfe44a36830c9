// Package events publishes match lifecycle events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"resume-match/internal/config"
	"resume-match/internal/domain/match"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const RoutingKeyMatchCompleted = "match.completed"

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       Channel
	exchange string
	log      logrus.FieldLogger
}

// Dial connects to the broker and declares the topic exchange. An empty URL
// returns a nil publisher, which drops events.
func Dial(cfg config.AMQPConfig, logger logrus.FieldLogger) (*Publisher, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	p, err := NewPublisher(ch, cfg.Exchange, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func NewPublisher(ch Channel, exchange string, logger logrus.FieldLogger) (*Publisher, error) {
	if ch == nil {
		return nil, errors.New("amqp channel is nil")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		exchange = "resume_match.events"
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange, log: logger}, nil
}

// NotifyMatchCompleted publishes the event for r. Errors are logged, never returned.
func (p *Publisher) NotifyMatchCompleted(ctx context.Context, r match.Record) {
	if p == nil {
		return
	}
	body, err := json.Marshal(match.NewCompletedEvent(r))
	if err != nil {
		p.log.WithError(err).Warn("encode match event failed")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKeyMatchCompleted, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    r.ID.String(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.log.WithError(err).WithField("match_id", r.ID.String()).Warn("publish match event failed")
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	if p.ch != nil {
		first = p.ch.Close()
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

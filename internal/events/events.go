// Package events publishes job lifecycle events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/streadway/amqp"
)

// Event types.
const (
	JobCreated       = "job.created"
	JobStatusChanged = "job.status_changed"
	JobDeleted       = "job.deleted"
)

// DefaultExchange is the topic exchange job events are published to.
const DefaultExchange = "job_events"

// JobEvent is the message body for every job event.
type JobEvent struct {
	Type           string          `json:"type"`
	JobID          uuid.UUID       `json:"jobId"`
	UserID         uuid.UUID       `json:"userId"`
	Status         types.JobStatus `json:"status,omitempty"`
	PreviousStatus types.JobStatus `json:"previousStatus,omitempty"`
	OccurredAt     time.Time       `json:"occurredAt"`
}

// RoutingKey returns "<type>.<userID>" so consumers can bind per user.
func (e JobEvent) RoutingKey() string {
	return fmt.Sprintf("%s.%s", e.Type, e.UserID)
}

// Publisher delivers job events.
type Publisher interface {
	Publish(ctx context.Context, event JobEvent) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, JobEvent) error { return nil }

func (Noop) Close() error { return nil }

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes events to a topic exchange.
type AMQP struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// DialAMQP connects to the broker and declares the exchange.
func DialAMQP(url, exchange string) (*AMQP, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQP{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends event as JSON. amqp publishing is not context aware, so ctx
// is only checked before sending.
func (p *AMQP) Publish(ctx context.Context, event JobEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(p.exchange, event.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *AMQP) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// PublishQuietly publishes and logs failures instead of returning them.
func PublishQuietly(ctx context.Context, p Publisher, event JobEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		log.Printf("[events] %v", err)
	}
}

// Package service holds outbound adapters used by the seating engine.
// Publish failures are logged and returned so callers can ignore them
// without interrupting the request that triggered the event.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/wedding-seating/internal/config"
	q "github.com/iliyamo/wedding-seating/internal/queue"
	"github.com/iliyamo/wedding-seating/internal/seating"
)

// RabbitPublisher sends seating events to a durable RabbitMQ queue.  Each
// publish dials its own connection, which is fine at wedding-planner
// traffic and keeps the publisher stateless.
type RabbitPublisher struct {
	url    string
	queue  string
	logger *slog.Logger
}

func NewRabbitPublisher(cfg config.QueueConfig, logger *slog.Logger) *RabbitPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RabbitPublisher{url: cfg.URL, queue: cfg.Queue, logger: logger}
}

// PublishSeating marshals ev and publishes it as a persistent message
// routed to the configured queue through the default exchange.
func (p *RabbitPublisher) PublishSeating(ctx context.Context, ev q.SeatingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warn("rabbitmq: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn("rabbitmq: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		p.logger.Warn("rabbitmq: queue declare failed", "queue", p.queue, "error", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.logger.Warn("rabbitmq: publish failed", "queue", p.queue, "error", err)
		return err
	}
	return nil
}

// LogPublisher writes events to the structured log instead of a broker.
// It is used when the queue is disabled.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishSeating(ctx context.Context, ev q.SeatingEvent) error {
	p.logger.LogAttrs(ctx, slog.LevelInfo, "seating event",
		slog.String("type", ev.Type),
		slog.String("guest_id", ev.GuestID),
		slog.Int("table", ev.TableNumber),
		slog.Any("seats", ev.Seats),
		slog.String("path", ev.Path),
	)
	return nil
}

// NewPublisher picks the broker publisher when the queue is enabled.
func NewPublisher(cfg config.QueueConfig, logger *slog.Logger) seating.EventPublisher {
	if cfg.Enabled {
		return NewRabbitPublisher(cfg, logger)
	}
	return NewLogPublisher(logger)
}

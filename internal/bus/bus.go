// Package bus wraps NATS JetStream publishing and durable-consumer
// subscription for the three streams the pipeline stages hand work off on:
// scraped articles, parsed events, and scored risk signals.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nextier/signal-engine/internal/config"
)

// Bus owns the JetStream connection and the three durable streams the
// pipeline publishes to and consumes from.
type Bus struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	cfg  config.BusConfig
	log  *slog.Logger
}

// Connect dials NATS and ensures the configured streams exist, creating
// any that are missing.
func Connect(cfg config.BusConfig, log *slog.Logger) (*Bus, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name(cfg.ClientName), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("acquire jetstream context: %w", err)
	}

	b := &Bus{conn: conn, js: js, cfg: cfg, log: log}

	for _, stream := range []struct {
		name    string
		subject string
	}{
		{cfg.StreamArticles, subjectArticles},
		{cfg.StreamEvents, subjectEvents},
		{cfg.StreamSignals, subjectSignals},
	} {
		if err := b.ensureStream(stream.name, stream.subject); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return b, nil
}

const (
	subjectArticles = "signal-engine.articles"
	subjectEvents   = "signal-engine.events"
	subjectSignals  = "signal-engine.signals"

	// DLQ subjects catch messages that exhausted retries on their stage.
	subjectArticlesDLQ = subjectArticles + ".dlq"
	subjectEventsDLQ   = subjectEvents + ".dlq"

	maxRedeliveries = 5
)

func (b *Bus) ensureStream(name, subject string) error {
	_, err := b.js.StreamInfo(name)
	if err == nil {
		return nil
	}

	_, err = b.js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  []string{subject, subject + ".dlq"},
		Retention: nats.WorkQueuePolicy,
		Storage:   nats.FileStorage,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", name, err)
	}
	return nil
}

// Close closes the underlying NATS connection without draining it.
func (b *Bus) Close() {
	b.conn.Close()
}

// PublishArticle publishes a scraped-article message for the classifier to
// pick up.
func (b *Bus) PublishArticle(ctx context.Context, articleID string) error {
	return b.publish(ctx, subjectArticles, articleMessage{ArticleID: articleID})
}

// PublishEvent publishes a parsed-event message for the risk engine to
// score.
func (b *Bus) PublishEvent(ctx context.Context, eventID string) error {
	return b.publish(ctx, subjectEvents, eventMessage{EventID: eventID})
}

// PublishSignal publishes a scored risk-signal message for downstream
// consumers (alerting, the live map) to observe.
func (b *Bus) PublishSignal(ctx context.Context, signalID string, isSurge bool) error {
	return b.publish(ctx, subjectSignals, signalMessage{SignalID: signalID, IsSurge: isSurge})
}

func (b *Bus) publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal bus message: %w", err)
	}
	_, err = b.js.Publish(subject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

type articleMessage struct {
	ArticleID string `json:"article_id"`
}

type eventMessage struct {
	EventID string `json:"event_id"`
}

type signalMessage struct {
	SignalID string `json:"signal_id"`
	IsSurge  bool   `json:"is_surge"`
}

// ArticleHandler processes one scraped-article message. Returning an error
// causes the message to be redelivered until it has been delivered
// maxRedeliveries times in total, after which it is routed to the
// dead-letter subject.
type ArticleHandler func(ctx context.Context, articleID string) error

// EventHandler processes one parsed-event message.
type EventHandler func(ctx context.Context, eventID string) error

// SubscribeArticles starts a durable push-based consumer over the articles
// stream, dispatching each message to handler.
func (b *Bus) SubscribeArticles(ctx context.Context, durableName string, handler ArticleHandler) (*nats.Subscription, error) {
	return b.subscribe(ctx, b.cfg.StreamArticles, subjectArticles, subjectArticlesDLQ, durableName, func(data []byte) error {
		var msg articleMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("unmarshal article message: %w", err)
		}
		return handler(ctx, msg.ArticleID)
	})
}

// SubscribeEvents starts a durable push-based consumer over the parsed-event
// stream, dispatching each message to handler.
func (b *Bus) SubscribeEvents(ctx context.Context, durableName string, handler EventHandler) (*nats.Subscription, error) {
	return b.subscribe(ctx, b.cfg.StreamEvents, subjectEvents, subjectEventsDLQ, durableName, func(data []byte) error {
		var msg eventMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("unmarshal event message: %w", err)
		}
		return handler(ctx, msg.EventID)
	})
}

func (b *Bus) subscribe(ctx context.Context, stream, subject, dlqSubject, durableName string, process func(data []byte) error) (*nats.Subscription, error) {
	return b.js.Subscribe(subject, func(msg *nats.Msg) {
		if err := process(msg.Data); err != nil {
			b.handleFailure(msg, dlqSubject, err)
			return
		}
		if err := msg.Ack(); err != nil {
			b.log.Warn("failed to ack message", "error", err, "subject", subject)
		}
	}, nats.Durable(durableName), nats.ManualAck(), nats.AckWait(30*time.Second))
}

func (b *Bus) handleFailure(msg *nats.Msg, dlqSubject string, cause error) {
	meta, err := msg.Metadata()
	delivered := uint64(1)
	if err == nil {
		delivered = meta.NumDelivered
	}

	if delivered >= maxRedeliveries {
		b.log.Error("message exhausted redeliveries, routing to dead letter", "error", cause, "subject", dlqSubject)
		if _, pubErr := b.js.Publish(dlqSubject, msg.Data); pubErr != nil {
			b.log.Error("dead letter publish failed", "error", pubErr)
		}
		_ = msg.Ack()
		return
	}

	b.log.Warn("message processing failed, will redeliver", "error", cause, "attempt", delivered)
	_ = msg.Nak()
}

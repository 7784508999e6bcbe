// Package events announces vote and balance activity over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
	Flush() error
	Close()
}

// Publisher encodes events as JSON and publishes them.
type Publisher struct {
	conn   Conn
	cfg    config
	closed atomic.Bool
}

// Connect dials a NATS server and returns a publisher on it.
func Connect(url string, opts ...Option) (*Publisher, error) {
	if url == "" {
		return nil, ErrNoURL
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.logger.Named("events")

	nc, err := nats.Connect(url,
		nats.Name(cfg.name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(cfg.maxReconnects),
		nats.ReconnectWait(cfg.reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn(context.Background(), "nats disconnected", logger.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info(context.Background(), "nats reconnected", logger.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return NewPublisher(nc, opts...), nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, opts ...Option) *Publisher {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.logger = cfg.logger.Named("events")
	return &Publisher{conn: conn, cfg: cfg}
}

// PublishVoteRecorded announces a stored vote.
func (p *Publisher) PublishVoteRecorded(ctx context.Context, v model.Vote) error { //nolint:gocritic // hugeParam: Vote mirrors worker.Publisher
	at := v.UpdatedAt
	if at.IsZero() {
		at = p.cfg.now()
	}
	return p.publish(ctx, SubjectVoteRecorded, VoteRecorded{
		VoteID:     v.ID,
		Voter:      v.Voter,
		Player:     v.Player,
		Ratings:    v.Ratings,
		RecordedAt: at,
	})
}

// PublishBalanceCompleted announces the outcome of a balance run.
func (p *Publisher) PublishBalanceCompleted(ctx context.Context, e BalanceCompleted) error { //nolint:gocritic // hugeParam
	if e.CompletedAt.IsZero() {
		e.CompletedAt = p.cfg.now()
	}
	return p.publish(ctx, SubjectBalanceCompleted, e)
}

func (p *Publisher) publish(ctx context.Context, subject string, payload any) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		metrics.RecordEventPublished(subject, err)
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	err = p.conn.Publish(subject, data)
	metrics.RecordEventPublished(subject, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.cfg.logger.Debug(ctx, "event published", logger.String("subject", subject), logger.Int("bytes", len(data)))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.conn.Flush()
	p.conn.Close()
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishVoteRecorded(context.Context, model.Vote) error { return nil }

func (Nop) PublishBalanceCompleted(context.Context, BalanceCompleted) error { return nil }

func (Nop) Close() error { return nil }

package events

import (
	"time"

	"github.com/okian/lineup/pkg/logger"
)

const (
	defaultMaxReconnects = 60
	defaultReconnectWait = 2 * time.Second
)

type config struct {
	name          string
	maxReconnects int
	reconnectWait time.Duration
	logger        logger.Logger
	now           func() time.Time
}

func defaultConfig() config {
	return config{
		name:          "lineup",
		maxReconnects: defaultMaxReconnects,
		reconnectWait: defaultReconnectWait,
		logger:        logger.Nop(),
		now:           time.Now,
	}
}

// Option configures a Publisher.
type Option func(*config)

// WithName sets the client name reported to the server.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithReconnect tunes reconnect attempts and the wait between them.
func WithReconnect(maxReconnects int, wait time.Duration) Option {
	return func(c *config) {
		c.maxReconnects = maxReconnects
		if wait > 0 {
			c.reconnectWait = wait
		}
	}
}

// WithLogger sets the publisher logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the timestamp source of emitted events.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

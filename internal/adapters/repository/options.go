package repository

import "time"

type config struct {
	now func() time.Time
}

func defaultConfig() config {
	return config{now: func() time.Time { return time.Now().UTC() }}
}

// Option configures a Store.
type Option func(*config)

// WithClock replaces the time source used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

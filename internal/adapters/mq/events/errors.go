package events

import "errors"

var (
	// ErrNoURL is returned when connecting without a server URL.
	ErrNoURL = errors.New("events: nats url is empty")
	// ErrClosed is returned when publishing after Close.
	ErrClosed = errors.New("events: publisher closed")
)

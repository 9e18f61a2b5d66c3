package events

import "errors"

var (
	// ErrClosed indicates a publish after the dispatcher stopped accepting events.
	ErrClosed = errors.New("dispatcher closed")
	// ErrQueueFull indicates the queue stayed full for the whole publish timeout.
	ErrQueueFull = errors.New("event queue full")
)

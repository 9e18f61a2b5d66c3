package events

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/JaimeStill/strongbox/pkg/repository"
)

// Outbox holds the events of one unit of work until it commits.
// It is flushed or discarded exactly once; later calls are no-ops.
type Outbox struct {
	mu     sync.Mutex
	events []Event
	done   bool
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Attach creates an outbox bound to u: it flushes to p after commit and is
// discarded on rollback. Flush failures are logged; the commit stands.
func Attach(u *repository.Unit, p Publisher, logger *slog.Logger) *Outbox {
	o := NewOutbox()
	u.OnCommit(func() {
		if err := o.Flush(p); err != nil {
			logger.Error("event flush failed", "error", err)
		}
	})
	u.OnRollback(o.Discard)
	return o
}

// Add appends events. Events added after Flush or Discard are dropped.
func (o *Outbox) Add(events ...Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done {
		return
	}
	o.events = append(o.events, events...)
}

// Pending returns a copy of the events not yet flushed.
func (o *Outbox) Pending() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.events)
}

// Flush publishes the pending events once.
func (o *Outbox) Flush(p Publisher) error {
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return nil
	}
	pending := o.events
	o.events = nil
	o.done = true
	o.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	return p.Publish(pending...)
}

// Discard drops the pending events.
func (o *Outbox) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = nil
	o.done = true
}

// Package events carries file and document change notifications from request
// handling to asynchronous consumers.
//
// Requests collect events in an Outbox bound to their unit of work. The
// outbox is flushed to a Publisher only after the transaction commits, and a
// Dispatcher delivers published events to consumers on a worker pool.
package events

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Kind identifies the change an event reports.
type Kind string

const (
	FileChanged     Kind = "file.changed"
	FileDeleted     Kind = "file.deleted"
	DocumentChanged Kind = "document.changed"
)

// Event is a change notification. Unset ids are uuid.Nil. FreedBytes is only
// meaningful for FileDeleted.
type Event struct {
	Kind       Kind      `json:"kind"`
	UserID     string    `json:"user_id"`
	OwnerID    string    `json:"owner_id,omitempty"`
	FileID     uuid.UUID `json:"file_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Language   string    `json:"language,omitempty"`
	FreedBytes int64     `json:"freed_bytes,omitempty"`
}

// Publisher accepts committed events for delivery.
type Publisher interface {
	Publish(events ...Event) error
}

// Consumer handles delivered events. Handle is retried on error and must be
// idempotent per (file id, kind). Consumers return nil for kinds they ignore.
type Consumer interface {
	Name() string
	Handle(ctx context.Context, e Event) error
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

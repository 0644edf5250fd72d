package ports

import (
	"context"
	"time"

	"github.com/99minutos/service-requests/internal/core/domain"
)

// EventPublisher hands lifecycle events to the notification pipeline. It
// must not block the caller.
type EventPublisher interface {
	Publish(event domain.RequestEvent)
}

// EventSink delivers one event to the front end.
type EventSink interface {
	Deliver(ctx context.Context, event domain.RequestEvent) error
}

// IdempotencyStore remembers which request a client draft produced, so a
// redelivered submission returns the original id.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (requestID int64, found bool, err error)
	Remember(ctx context.Context, key string, requestID int64, ttl time.Duration) error
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
)

const DefaultChannel = "requests.events"

// EventPublisher delivers lifecycle events as JSON on a pub/sub channel. The
// chat front end subscribes and turns them into messages for the parties
// named in the event.
type EventPublisher struct {
	client  *redis.Client
	channel string
}

var _ ports.EventSink = (*EventPublisher)(nil)

func NewEventPublisher(client *redis.Client, channel string) *EventPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &EventPublisher{client: client, channel: channel}
}

// Deliver publishes one event.
func (p *EventPublisher) Deliver(ctx context.Context, event domain.RequestEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/99minutos/service-requests/internal/core/domain"
)

// LogSink writes events to the log. It stands in for the Redis publisher
// when no broker is configured.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Deliver(_ context.Context, event domain.RequestEvent) error {
	ev := s.log.Info().
		Int64("request_id", event.RequestID).
		Int64("client_id", event.ClientID).
		Str("action", string(event.Action)).
		Str("to", string(event.To)).
		Int64("actor_id", event.ActorID)
	if event.AssignedTo != nil {
		ev = ev.Int64("assigned_to", *event.AssignedTo)
	}
	ev.Msg("request event")
	return nil
}

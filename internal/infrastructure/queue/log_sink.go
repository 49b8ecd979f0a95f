package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

// LogSink is the event sink used when no broker is configured.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Publish(_ context.Context, e domain.CatalogEvent) error {
	s.log.Info().
		Str("event_type", string(e.Type)).
		Str("listing_id", e.ListingID).
		Str("user_id", e.UserID).
		Str("kind", string(e.Kind)).
		Str("actor_id", e.ActorID).
		Time("at", e.At).
		Msg("catalog event")
	return nil
}

// Package broadcast fans queue events out to delivery sinks. Delivery is
// best effort: a sink failure is logged and swallowed so that the mutation
// that triggered the event is never rolled back or retried because of it.
package broadcast

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clinicops/clinicops/internal/platform/websocket"
)

// Publisher delivers an event to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, event websocket.Event) error
}

// Composite publishes to every configured sink. It always reports success;
// individual sink failures are logged at warn level and dropped.
type Composite struct {
	sinks  []Publisher
	logger zerolog.Logger
}

func NewComposite(logger zerolog.Logger, sinks ...Publisher) *Composite {
	return &Composite{sinks: sinks, logger: logger}
}

func (c *Composite) Publish(ctx context.Context, event websocket.Event) error {
	for _, sink := range c.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			c.logger.Warn().
				Err(err).
				Str("topic", event.Topic).
				Str("event_type", event.Type).
				Msg("broadcast sink failed")
		}
	}
	return nil
}

package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/clinicops/internal/domain/appointment"
	"github.com/clinicops/clinicops/internal/platform/broadcast"
	"github.com/clinicops/clinicops/internal/platform/websocket"
)

// Publisher recomputes a clinic's queue snapshot and broadcasts it after a
// committed mutation. It satisfies the QueueNotifier interfaces of the
// appointment and room services. Publishing is fire-and-forget: every
// failure is logged and swallowed so the triggering mutation never sees it.
type Publisher struct {
	composer *Composer
	sink     broadcast.Publisher
	logger   zerolog.Logger
}

func NewPublisher(composer *Composer, sink broadcast.Publisher, logger zerolog.Logger) *Publisher {
	return &Publisher{composer: composer, sink: sink, logger: logger}
}

// QueueChanged publishes the clinic's current full snapshot to its queue
// topic.
func (p *Publisher) QueueChanged(ctx context.Context, clinicID uuid.UUID) {
	snapshot, err := p.composer.Compose(ctx, clinicID, appointment.Filters{}, Options{})
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("clinic_id", clinicID.String()).
			Msg("queue snapshot composition failed, broadcast skipped")
		return
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("clinic_id", clinicID.String()).
			Msg("queue snapshot marshal failed, broadcast skipped")
		return
	}

	event := websocket.Event{
		Type:      "queueUpdate",
		Topic:     websocket.QueueTopic(clinicID),
		ClinicID:  clinicID.String(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	if err := p.sink.Publish(ctx, event); err != nil {
		p.logger.Warn().
			Err(err).
			Str("clinic_id", clinicID.String()).
			Msg("queue broadcast failed")
	}
}

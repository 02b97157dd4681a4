package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/clinicops/internal/domain/appointment"
	"github.com/clinicops/clinicops/internal/domain/room"
	"github.com/clinicops/clinicops/internal/platform/websocket"
)

type recordingSink struct {
	events []websocket.Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, event websocket.Event) error {
	s.events = append(s.events, event)
	return s.err
}

func TestQueueChangedPublishesSnapshot(t *testing.T) {
	clinicID := uuid.New()
	r1 := newRoom(clinicID, "Consult 1", room.StatusOpen)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	a1 := newAppt(clinicID, &r1.ID, timePtr(base), appointment.StatusCheckedIn, base)

	composer := NewComposer(
		&mockApptRepo{appts: []*appointment.Appointment{a1}},
		&mockRoomRepo{rooms: []*room.Room{r1}},
	)
	sink := &recordingSink{}
	pub := NewPublisher(composer, sink, zerolog.Nop())

	pub.QueueChanged(context.Background(), clinicID)

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(sink.events))
	}
	event := sink.events[0]
	if event.Type != "queueUpdate" {
		t.Errorf("expected type queueUpdate, got %s", event.Type)
	}
	if event.Topic != websocket.QueueTopic(clinicID) {
		t.Errorf("unexpected topic %s", event.Topic)
	}

	var snap Snapshot
	if err := json.Unmarshal(event.Data, &snap); err != nil {
		t.Fatalf("payload must be a snapshot: %v", err)
	}
	if snap.ClinicID != clinicID {
		t.Errorf("expected snapshot for %s, got %s", clinicID, snap.ClinicID)
	}
	if len(snap.Rooms) != 1 || snap.Rooms[0].QueueLength != 1 {
		t.Error("expected the full room queue in the payload")
	}
}

func TestQueueChangedSwallowsSinkFailure(t *testing.T) {
	clinicID := uuid.New()
	composer := NewComposer(&mockApptRepo{}, &mockRoomRepo{})
	sink := &recordingSink{err: errors.New("broker down")}
	pub := NewPublisher(composer, sink, zerolog.Nop())

	// Must not panic or propagate anything.
	pub.QueueChanged(context.Background(), clinicID)

	if len(sink.events) != 1 {
		t.Fatalf("expected the attempt to be made, got %d", len(sink.events))
	}
}

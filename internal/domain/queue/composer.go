// Package queue derives ordered per-room waiting lists from appointment
// state and publishes full snapshots of them whenever that state changes.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinicops/internal/domain/appointment"
	"github.com/clinicops/clinicops/internal/domain/room"
)

// RoomQueue is one room's ordered waiting list. Appointments are sorted by
// appointment time ascending with unscheduled ones last, ties broken by
// creation order.
type RoomQueue struct {
	RoomID       uuid.UUID                  `json:"room_id"`
	RoomName     string                     `json:"room_name"`
	RoomStatus   room.Status                `json:"room_status"`
	Appointments []*appointment.Appointment `json:"appointments"`
	QueueLength  int                        `json:"queue_length"`
	Next         *appointment.Appointment   `json:"next,omitempty"`
}

// Snapshot is the full queue state of a clinic at one point in time. It is
// always published whole, never as a delta.
type Snapshot struct {
	ClinicID    uuid.UUID                  `json:"clinic_id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Rooms       []RoomQueue                `json:"rooms"`
	Unassigned  []*appointment.Appointment `json:"unassigned,omitempty"`
}

// Options tunes snapshot composition.
type Options struct {
	// SuppressNext clears the next-appointment preview for rooms that are
	// not OPEN. The queue itself is always reported in full.
	SuppressNext bool
}

// Composer builds queue snapshots from current appointment and room state.
type Composer struct {
	appts appointment.Repository
	rooms room.Repository
}

func NewComposer(appts appointment.Repository, rooms room.Repository) *Composer {
	return &Composer{appts: appts, rooms: rooms}
}

// Compose returns the clinic's queue snapshot. Filters narrow which
// appointments are considered; only waiting states (SCHEDULED, CHECKED_IN)
// ever count toward a queue. Appointments without a room are reported under
// Unassigned. Room status never filters queue membership.
func (c *Composer) Compose(ctx context.Context, clinicID uuid.UUID, f appointment.Filters, opts Options) (*Snapshot, error) {
	rooms, err := c.rooms.List(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	waiting, err := c.appts.ListWaiting(ctx, clinicID, f)
	if err != nil {
		return nil, err
	}

	// The repository returns appointments already in queue order; grouping
	// preserves it.
	byRoom := make(map[uuid.UUID][]*appointment.Appointment)
	var unassigned []*appointment.Appointment
	for _, a := range waiting {
		if a.RoomID == nil {
			unassigned = append(unassigned, a)
			continue
		}
		byRoom[*a.RoomID] = append(byRoom[*a.RoomID], a)
	}

	snapshot := &Snapshot{
		ClinicID:    clinicID,
		GeneratedAt: time.Now().UTC(),
		Unassigned:  unassigned,
	}

	for _, rm := range rooms {
		if f.RoomID != nil && rm.ID != *f.RoomID {
			continue
		}

		appts := byRoom[rm.ID]
		rq := RoomQueue{
			RoomID:       rm.ID,
			RoomName:     rm.Name,
			RoomStatus:   rm.Status,
			Appointments: appts,
			QueueLength:  len(appts),
		}
		if len(appts) > 0 && (!opts.SuppressNext || rm.Status == room.StatusOpen) {
			rq.Next = appts[0]
		}
		snapshot.Rooms = append(snapshot.Rooms, rq)
	}

	return snapshot, nil
}

package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filters narrows appointment listings. Nil fields match everything.
type Filters struct {
	RoomID   *uuid.UUID
	DoctorID *uuid.UUID
	Status   *Status
	Date     *time.Time // matches appointments whose appointment_time falls on this day
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, clinicID uuid.UUID, f Filters, limit, offset int) ([]*Appointment, int, error)
	// ListWaiting returns appointments in waiting states ordered for queue
	// composition: appointment_time ascending with NULLs last, then
	// creation order.
	ListWaiting(ctx context.Context, clinicID uuid.UUID, f Filters) ([]*Appointment, error)
}

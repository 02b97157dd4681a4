package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinicops/internal/platform/apperr"
)

// QueueNotifier is told after any committed mutation that can change a room
// queue. Notification is best effort and must never fail the mutation.
type QueueNotifier interface {
	QueueChanged(ctx context.Context, clinicID uuid.UUID)
}

type Service struct {
	repo     Repository
	notifier QueueNotifier
}

func NewService(repo Repository, notifier QueueNotifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

func (s *Service) notifyQueueChanged(ctx context.Context, clinicID uuid.UUID) {
	if s.notifier != nil {
		s.notifier.QueueChanged(ctx, clinicID)
	}
}

// CreateInput carries the booking fields for a new appointment.
type CreateInput struct {
	PatientID       uuid.UUID
	DoctorID        *uuid.UUID
	RoomID          *uuid.UUID
	AppointmentTime *time.Time
	Source          Source
	Note            *string
}

// Create books a new appointment in SCHEDULED state.
func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, in CreateInput) (*Appointment, error) {
	if in.PatientID == uuid.Nil {
		return nil, apperr.E(apperr.ErrValidation, "patient_id is required")
	}
	if in.Source == "" {
		in.Source = SourceWalkIn
	}
	if !ValidSource(in.Source) {
		return nil, apperr.E(apperr.ErrValidation, "invalid source: %s", in.Source)
	}

	a := &Appointment{
		ClinicID:        clinicID,
		PatientID:       in.PatientID,
		DoctorID:        in.DoctorID,
		RoomID:          in.RoomID,
		AppointmentTime: in.AppointmentTime,
		Status:          StatusScheduled,
		Source:          in.Source,
		Note:            in.Note,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.notifyQueueChanged(ctx, clinicID)
	return a, nil
}

func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, clinicID, id)
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, f Filters, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, clinicID, f, limit, offset)
}

// Transition moves an appointment to target along the lifecycle graph. On
// first entry into CHECKED_IN, IN_PROGRESS and COMPLETED the corresponding
// timestamp is set; an already-set timestamp is never overwritten. A reason
// given with a cancellation is appended to the note.
func (s *Service) Transition(ctx context.Context, clinicID, id uuid.UUID, target Status, reason *string) (*Appointment, error) {
	if !ValidStatus(target) {
		return nil, apperr.E(apperr.ErrValidation, "invalid status: %s", target)
	}

	a, err := s.repo.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if !a.Status.CanTransitionTo(target) {
		return nil, apperr.E(apperr.ErrInvalidTransition,
			"cannot transition from %s to %s", a.Status, target)
	}

	now := time.Now().UTC()
	a.Status = target
	switch target {
	case StatusCheckedIn:
		if a.CheckinTime == nil {
			a.CheckinTime = &now
		}
	case StatusInProgress:
		if a.StartTime == nil {
			a.StartTime = &now
		}
	case StatusCompleted:
		if a.EndTime == nil {
			a.EndTime = &now
		}
	}

	if target == StatusCancelled && reason != nil && *reason != "" {
		note := "cancelled: " + *reason
		if a.Note != nil && *a.Note != "" {
			note = *a.Note + "; " + note
		}
		a.Note = &note
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.notifyQueueChanged(ctx, clinicID)
	return a, nil
}

// UpdateInput carries a partial update of non-lifecycle fields. Nil fields
// are left unchanged.
type UpdateInput struct {
	DoctorID        *uuid.UUID
	RoomID          *uuid.UUID
	AppointmentTime *time.Time
	Note            *string
}

// Update changes booking fields. Status is out of reach here; it only moves
// through Transition.
func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, in UpdateInput) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	queueRelevant := false
	if in.DoctorID != nil {
		a.DoctorID = in.DoctorID
	}
	if in.RoomID != nil {
		a.RoomID = in.RoomID
		queueRelevant = true
	}
	if in.AppointmentTime != nil {
		a.AppointmentTime = in.AppointmentTime
		queueRelevant = true
	}
	if in.Note != nil {
		a.Note = in.Note
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	if queueRelevant {
		s.notifyQueueChanged(ctx, clinicID)
	}
	return a, nil
}

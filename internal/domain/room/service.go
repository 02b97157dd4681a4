package room

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicops/clinicops/internal/platform/apperr"
)

// QueueNotifier is told after a committed room change so subscribers see the
// room's new status alongside its queue.
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

func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, name string, description *string) (*Room, error) {
	if name == "" {
		return nil, apperr.E(apperr.ErrValidation, "name is required")
	}

	rm := &Room{
		ClinicID:    clinicID,
		Name:        name,
		Description: description,
		Status:      StatusOpen,
	}
	if err := s.repo.Create(ctx, rm); err != nil {
		return nil, err
	}

	s.notifyQueueChanged(ctx, clinicID)
	return rm, nil
}

func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*Room, error) {
	return s.repo.GetByID(ctx, clinicID, id)
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID) ([]*Room, error) {
	return s.repo.List(ctx, clinicID)
}

// UpdateInput carries a partial room update. Nil fields are left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
}

func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, in UpdateInput) (*Room, error) {
	rm, err := s.repo.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	renamed := false
	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperr.E(apperr.ErrValidation, "name cannot be empty")
		}
		renamed = rm.Name != *in.Name
		rm.Name = *in.Name
	}
	if in.Description != nil {
		rm.Description = in.Description
	}

	if err := s.repo.Update(ctx, rm); err != nil {
		return nil, err
	}

	// The room name is part of every queue snapshot, so a rename must reach
	// subscribers. Description is not published.
	if renamed {
		s.notifyQueueChanged(ctx, clinicID)
	}
	return rm, nil
}

// SetStatus changes a room's availability. The room keeps its queue in any
// state; status is reported alongside queue content, not used to filter it.
func (s *Service) SetStatus(ctx context.Context, clinicID, id uuid.UUID, status Status) (*Room, error) {
	if !ValidStatus(status) {
		return nil, apperr.E(apperr.ErrValidation, "invalid room status: %s", status)
	}

	rm, err := s.repo.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	rm.Status = status
	if err := s.repo.Update(ctx, rm); err != nil {
		return nil, err
	}

	s.notifyQueueChanged(ctx, clinicID)
	return rm, nil
}

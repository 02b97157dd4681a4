package membership

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clinicops/clinicops/internal/platform/apperr"
	"github.com/clinicops/clinicops/internal/platform/auth"
)

// Service owns role assignments and implements auth.RoleResolver. Every
// clinic must keep at least one CLINIC_ADMIN; mutations that would leave a
// clinic without one fail with Conflict, including changes a clinic admin
// makes to their own role.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EffectiveRole resolves the role a user holds for a clinic: the global
// ADMIN row wins, then the clinic-scoped row. The empty role means the user
// has no access to the clinic.
func (s *Service) EffectiveRole(ctx context.Context, userID, clinicID uuid.UUID) (auth.Role, error) {
	global, err := s.repo.GetGlobal(ctx, userID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return "", err
	}
	if err == nil && global.Role == auth.RoleAdmin {
		return auth.RoleAdmin, nil
	}

	m, err := s.repo.Get(ctx, userID, clinicID)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

// Grant assigns or changes a user's role in a clinic.
func (s *Service) Grant(ctx context.Context, clinicID, userID uuid.UUID, role auth.Role) (*Membership, error) {
	if !auth.ValidRole(role) {
		return nil, apperr.E(apperr.ErrValidation, "invalid role: %s", role)
	}
	if role == auth.RoleAdmin {
		return nil, apperr.E(apperr.ErrValidation, "ADMIN is a global role and cannot be granted per clinic")
	}

	existing, err := s.repo.Get(ctx, userID, clinicID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	// Demoting the clinic's only CLINIC_ADMIN would orphan the clinic.
	if existing != nil && existing.Role == auth.RoleClinicAdmin && role != auth.RoleClinicAdmin {
		if err := s.checkLastAdmin(ctx, clinicID, userID); err != nil {
			return nil, err
		}
	}

	m := &Membership{UserID: userID, ClinicID: &clinicID, Role: role}
	if existing != nil {
		m.ID = existing.ID
	}
	if err := s.repo.Upsert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Revoke removes a user's role in a clinic.
func (s *Service) Revoke(ctx context.Context, clinicID, userID uuid.UUID) error {
	existing, err := s.repo.Get(ctx, userID, clinicID)
	if err != nil {
		return err
	}

	if existing.Role == auth.RoleClinicAdmin {
		if err := s.checkLastAdmin(ctx, clinicID, userID); err != nil {
			return err
		}
	}

	return s.repo.Delete(ctx, userID, clinicID)
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID) ([]*Membership, error) {
	return s.repo.ListByClinic(ctx, clinicID)
}

// checkLastAdmin fails with Conflict when removing userID's CLINIC_ADMIN role
// would leave the clinic without one.
func (s *Service) checkLastAdmin(ctx context.Context, clinicID, userID uuid.UUID) error {
	remaining, err := s.repo.CountClinicAdmins(ctx, clinicID, userID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		return apperr.E(apperr.ErrConflict, "clinic %s must retain at least one CLINIC_ADMIN", clinicID)
	}
	return nil
}

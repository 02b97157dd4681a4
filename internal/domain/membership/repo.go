package membership

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Get returns the user's role row for a clinic. apperr.ErrNotFound when
	// no row exists.
	Get(ctx context.Context, userID, clinicID uuid.UUID) (*Membership, error)
	// GetGlobal returns the user's global (nil clinic) role row, if any.
	GetGlobal(ctx context.Context, userID uuid.UUID) (*Membership, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*Membership, error)
	// Upsert inserts the role row or replaces the role on the existing
	// (user, clinic) pair.
	Upsert(ctx context.Context, m *Membership) error
	Delete(ctx context.Context, userID, clinicID uuid.UUID) error
	// CountClinicAdmins counts CLINIC_ADMIN rows in the clinic, ignoring
	// excludeUserID. Used by the last-admin guard to evaluate the state a
	// role change would leave behind.
	CountClinicAdmins(ctx context.Context, clinicID, excludeUserID uuid.UUID) (int, error)
}

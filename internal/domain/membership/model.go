package membership

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinicops/internal/platform/auth"
)

// Membership maps to the user_clinic_role table. A row with a nil ClinicID
// grants the global ADMIN role; every other row scopes a role to one clinic.
// A user may hold different roles in different clinics.
type Membership struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	ClinicID  *uuid.UUID `db:"clinic_id" json:"clinic_id,omitempty"`
	Role      auth.Role  `db:"role" json:"role"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

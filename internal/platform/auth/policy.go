package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/clinicops/internal/platform/apperr"
)

// Role is a permission level held by a user. RoleAdmin is global scope;
// every other role is held per clinic.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleClinicAdmin  Role = "CLINIC_ADMIN"
	RoleDoctor       Role = "DOCTOR"
	RoleNurse        Role = "NURSE"
	RoleReceptionist Role = "RECEPTIONIST"
	RoleStaff        Role = "STAFF"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleClinicAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RoleStaff:
		return true
	}
	return false
}

// Operation names a clinic-scoped action gated by the policy table.
type Operation string

const (
	OpAppointmentCreate     Operation = "appointment:create"
	OpAppointmentRead       Operation = "appointment:read"
	OpAppointmentUpdate     Operation = "appointment:update"
	OpAppointmentTransition Operation = "appointment:transition"
	OpQueueRead             Operation = "queue:read"
	OpRoomCreate            Operation = "room:create"
	OpRoomRead              Operation = "room:read"
	OpRoomUpdate            Operation = "room:update"
	OpMemberRead            Operation = "member:read"
	OpMemberManage          Operation = "member:manage"
)

// Policy maps every operation to the clinic roles allowed to perform it.
// RoleAdmin is implicit everywhere and intentionally absent from the sets.
type Policy map[Operation][]Role

// DefaultPolicy is the production role matrix consulted before every
// clinic-scoped operation.
func DefaultPolicy() Policy {
	clinicStaff := []Role{RoleClinicAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RoleStaff}
	schedulers := []Role{RoleClinicAdmin, RoleDoctor, RoleNurse, RoleReceptionist}

	return Policy{
		OpAppointmentCreate:     schedulers,
		OpAppointmentRead:       clinicStaff,
		OpAppointmentUpdate:     schedulers,
		OpAppointmentTransition: schedulers,
		OpQueueRead:             clinicStaff,
		OpRoomCreate:            []Role{RoleClinicAdmin},
		OpRoomRead:              clinicStaff,
		OpRoomUpdate:            []Role{RoleClinicAdmin, RoleDoctor, RoleNurse},
		OpMemberRead:            []Role{RoleClinicAdmin},
		OpMemberManage:          []Role{RoleClinicAdmin},
	}
}

// RoleResolver resolves the effective role a user holds in a clinic.
// Implementations return RoleAdmin when the user holds global admin,
// the clinic-scoped role otherwise, and the empty Role when the user has
// no role in that clinic.
type RoleResolver interface {
	EffectiveRole(ctx context.Context, userID, clinicID uuid.UUID) (Role, error)
}

// Authorizer is the single entry point gating clinic-scoped operations: the
// policy table is consulted uniformly instead of per-handler annotations.
type Authorizer struct {
	policy   Policy
	resolver RoleResolver
}

func NewAuthorizer(policy Policy, resolver RoleResolver) *Authorizer {
	return &Authorizer{policy: policy, resolver: resolver}
}

// Authorize checks that the caller may perform op within clinicID.
// Token-borne global admin passes without a role lookup; otherwise the
// caller's clinic role must be in the operation's allowed set.
func (a *Authorizer) Authorize(ctx context.Context, op Operation) error {
	clinicID := ClinicFromContext(ctx)
	if clinicID == uuid.Nil {
		return apperr.E(apperr.ErrMissingClinicContext, "operation %s requires a clinic", op)
	}

	for _, r := range RolesFromContext(ctx) {
		if Role(r) == RoleAdmin {
			return nil
		}
	}

	rawUserID := UserIDFromContext(ctx)
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return apperr.E(apperr.ErrClinicAccessDenied, "unknown subject")
	}

	role, err := a.resolver.EffectiveRole(ctx, userID, clinicID)
	if err != nil {
		return err
	}
	if role == "" {
		return apperr.E(apperr.ErrClinicAccessDenied, "no role in clinic")
	}
	if role == RoleAdmin {
		return nil
	}

	for _, allowed := range a.policy[op] {
		if role == allowed {
			return nil
		}
	}
	return apperr.E(apperr.ErrInsufficientRole, "role %s may not perform %s", role, op)
}

// Require returns middleware enforcing the policy table for op.
func (a *Authorizer) Require(op Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := a.Authorize(c.Request().Context(), op); err != nil {
				return apperr.HTTPError(err)
			}
			return next(c)
		}
	}
}

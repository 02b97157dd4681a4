package membership

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinicops/internal/platform/apperr"
	"github.com/clinicops/clinicops/internal/platform/auth"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const memberCols = `id, user_id, clinic_id, role, created_at, updated_at`

func scanMembership(row pgx.Row) (*Membership, error) {
	var m Membership
	err := row.Scan(&m.ID, &m.UserID, &m.ClinicID, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *repoPG) Get(ctx context.Context, userID, clinicID uuid.UUID) (*Membership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx,
		`SELECT `+memberCols+` FROM user_clinic_role WHERE user_id = $1 AND clinic_id = $2`,
		userID, clinicID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.E(apperr.ErrNotFound, "no role for user %s in clinic %s", userID, clinicID)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repoPG) GetGlobal(ctx context.Context, userID uuid.UUID) (*Membership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx,
		`SELECT `+memberCols+` FROM user_clinic_role WHERE user_id = $1 AND clinic_id IS NULL`,
		userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.E(apperr.ErrNotFound, "no global role for user %s", userID)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*Membership, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+memberCols+` FROM user_clinic_role WHERE clinic_id = $1 ORDER BY created_at ASC`,
		clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *repoPG) Upsert(ctx context.Context, m *Membership) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_clinic_role (id, user_id, clinic_id, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, clinic_id) DO UPDATE
			SET role = EXCLUDED.role, updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		m.ID, m.UserID, m.ClinicID, m.Role)
	return row.Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *repoPG) Delete(ctx context.Context, userID, clinicID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_clinic_role WHERE user_id = $1 AND clinic_id = $2`, userID, clinicID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.ErrNotFound, "no role for user %s in clinic %s", userID, clinicID)
	}
	return nil
}

func (r *repoPG) CountClinicAdmins(ctx context.Context, clinicID, excludeUserID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM user_clinic_role
		WHERE clinic_id = $1 AND role = $2 AND user_id <> $3`,
		clinicID, auth.RoleClinicAdmin, excludeUserID).Scan(&count)
	return count, err
}

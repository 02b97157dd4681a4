package room

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinicops/internal/platform/apperr"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const roomCols = `id, clinic_id, name, description, status, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	var r Room
	err := row.Scan(&r.ID, &r.ClinicID, &r.Name, &r.Description, &r.Status,
		&r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (r *repoPG) Create(ctx context.Context, rm *Room) error {
	rm.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO room (id, clinic_id, name, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		rm.ID, rm.ClinicID, rm.Name, rm.Description, rm.Status)
	return row.Scan(&rm.CreatedAt, &rm.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Room, error) {
	rm, err := scanRoom(r.pool.QueryRow(ctx,
		`SELECT `+roomCols+` FROM room WHERE id = $1 AND clinic_id = $2`, id, clinicID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.E(apperr.ErrNotFound, "room %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return rm, nil
}

func (r *repoPG) Update(ctx context.Context, rm *Room) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE room SET name = $3, description = $4, status = $5, updated_at = NOW()
		WHERE id = $1 AND clinic_id = $2`,
		rm.ID, rm.ClinicID, rm.Name, rm.Description, rm.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.ErrNotFound, "room %s not found", rm.ID)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID) ([]*Room, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+roomCols+` FROM room WHERE clinic_id = $1 ORDER BY name ASC`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rm)
	}
	return items, rows.Err()
}

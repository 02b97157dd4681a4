package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinicops/internal/platform/apperr"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const apptCols = `id, clinic_id, patient_id, doctor_id, room_id, appointment_number,
	appointment_time, checkin_time, start_time, end_time, status, source, note,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.ClinicID, &a.PatientID, &a.DoctorID, &a.RoomID,
		&a.AppointmentNumber, &a.AppointmentTime, &a.CheckinTime, &a.StartTime,
		&a.EndTime, &a.Status, &a.Source, &a.Note, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	// The display number restarts each day per clinic. Concurrent inserts can
	// collide on it; it is a display aid, not a key.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointment (id, clinic_id, patient_id, doctor_id, room_id,
			appointment_number, appointment_time, status, source, note)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(appointment_number), 0) + 1
			   FROM appointment
			  WHERE clinic_id = $2 AND created_at::date = CURRENT_DATE),
			$6, $7, $8, $9)
		RETURNING appointment_number, created_at, updated_at`,
		a.ID, a.ClinicID, a.PatientID, a.DoctorID, a.RoomID,
		a.AppointmentTime, a.Status, a.Source, a.Note)
	return row.Scan(&a.AppointmentNumber, &a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1 AND clinic_id = $2`, id, clinicID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.E(apperr.ErrNotFound, "appointment %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	// COALESCE keeps lifecycle timestamps first-write-only even if two
	// transitions race on the same row.
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointment SET
			doctor_id = $3, room_id = $4, appointment_time = $5, status = $6, note = $7,
			checkin_time = COALESCE(checkin_time, $8),
			start_time = COALESCE(start_time, $9),
			end_time = COALESCE(end_time, $10),
			updated_at = NOW()
		WHERE id = $1 AND clinic_id = $2`,
		a.ID, a.ClinicID, a.DoctorID, a.RoomID, a.AppointmentTime, a.Status, a.Note,
		a.CheckinTime, a.StartTime, a.EndTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.ErrNotFound, "appointment %s not found", a.ID)
	}
	return nil
}

func filterClauses(f Filters, startIdx int) (string, []interface{}) {
	clause := ""
	var args []interface{}
	idx := startIdx

	if f.RoomID != nil {
		clause += fmt.Sprintf(` AND room_id = $%d`, idx)
		args = append(args, *f.RoomID)
		idx++
	}
	if f.DoctorID != nil {
		clause += fmt.Sprintf(` AND doctor_id = $%d`, idx)
		args = append(args, *f.DoctorID)
		idx++
	}
	if f.Status != nil {
		clause += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, *f.Status)
		idx++
	}
	if f.Date != nil {
		clause += fmt.Sprintf(` AND appointment_time::date = $%d::date`, idx)
		args = append(args, *f.Date)
	}
	return clause, args
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, f Filters, limit, offset int) ([]*Appointment, int, error) {
	where := `WHERE clinic_id = $1`
	args := []interface{}{clinicID}
	clause, filterArgs := filterClauses(f, 2)
	where += clause
	args = append(args, filterArgs...)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointment `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM appointment %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		apptCols, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListWaiting(ctx context.Context, clinicID uuid.UUID, f Filters) ([]*Appointment, error) {
	where := `WHERE clinic_id = $1 AND status IN ('SCHEDULED', 'CHECKED_IN')`
	args := []interface{}{clinicID}
	clause, filterArgs := filterClauses(f, 2)
	where += clause
	args = append(args, filterArgs...)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM appointment %s ORDER BY appointment_time ASC NULLS LAST, created_at ASC`,
		apptCols, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

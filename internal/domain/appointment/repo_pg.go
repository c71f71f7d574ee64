package appointment

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medisched/medisched/internal/platform/db"
)

// activeSlotIndex is the partial unique index on
// (doctor_id, appointment_date, appointment_time) WHERE status <> 'cancelled'.
const activeSlotIndex = "appointments_active_slot_key"

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const appointmentCols = `id, patient_id, doctor_id,
	to_char(appointment_date, 'YYYY-MM-DD'), to_char(appointment_time, 'HH24:MI'),
	status, reason, notes, created_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time,
		&a.Status, &a.Reason, &a.Notes, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, appointment_date, appointment_time, status, reason)
		VALUES ($1, $2, $3::date, $4::time, $5, $6)
		RETURNING id, created_at`,
		a.PatientID, a.DoctorID, a.Date, a.Time, a.Status, a.Reason,
	).Scan(&a.ID, &a.CreatedAt)
	if db.IsUniqueViolation(err, activeSlotIndex) {
		return ErrSlotUnavailable
	}
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %d: %w", id, err)
	}
	return a, nil
}

func (r *appointmentRepoPG) HasActive(ctx context.Context, slot Slot) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND appointment_date = $2::date AND appointment_time = $3::time
			  AND status <> 'cancelled'
		)`, slot.DoctorID, slot.Date, slot.Time).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slot %s: %w", slot, err)
	}
	return exists, nil
}

func (r *appointmentRepoPG) BookedTimes(ctx context.Context, doctorID int64, date string) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT to_char(appointment_time, 'HH24:MI') FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2::date AND status <> 'cancelled'
		ORDER BY appointment_time`, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("booked times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan booked time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *appointmentRepoPG) list(ctx context.Context, column string, id int64, limit, offset int) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+appointmentCols+` FROM appointments
		WHERE `+column+` = $1
		ORDER BY appointment_date DESC, appointment_time DESC, id DESC
		LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by %s: %w", column, err)
	}
	defer rows.Close()

	items := []*Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Appointment, error) {
	return r.list(ctx, "patient_id", patientID, limit, offset)
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*Appointment, error) {
	return r.list(ctx, "doctor_id", doctorID, limit, offset)
}

func (r *appointmentRepoPG) Transition(ctx context.Context, id int64, from []Status, to Status, notes *string) (*Appointment, error) {
	fromText := make([]string, len(from))
	for i, s := range from {
		fromText[i] = string(s)
	}

	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments
		SET status = $2, notes = COALESCE($3, notes)
		WHERE id = $1 AND status = ANY($4)
		RETURNING `+appointmentCols,
		id, to, notes, fromText))
	if err == nil {
		return a, nil
	}
	if !db.IsNoRows(err) {
		return nil, fmt.Errorf("update appointment %d: %w", id, err)
	}

	// Nothing matched: either the id is unknown or the status forbids the change.
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}

package record

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medisched/medisched/internal/platform/apperr"
	"github.com/medisched/medisched/internal/platform/db"
)

var ErrNotFound = apperr.New(apperr.NotFound, "medical record not found")

type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id int64) (*Record, error)
	ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Record, error)
	ListByDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*Record, error)
	Update(ctx context.Context, r *Record) error
}

type recordRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const recordCols = `id, patient_id, doctor_id, appointment_id, diagnosis, prescription, lab_results, notes,
	to_char(record_date, 'YYYY-MM-DD'), created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.AppointmentID, &rec.Diagnosis,
		&rec.Prescription, &rec.LabResults, &rec.Notes, &rec.RecordDate, &rec.CreatedAt)
	return &rec, err
}

func (r *recordRepoPG) Create(ctx context.Context, rec *Record) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_records (patient_id, doctor_id, appointment_id, diagnosis, prescription, lab_results, notes, record_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date)
		RETURNING id, created_at`,
		rec.PatientID, rec.DoctorID, rec.AppointmentID, rec.Diagnosis, rec.Prescription, rec.LabResults, rec.Notes, rec.RecordDate,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert medical record: %w", err)
	}
	return nil
}

func (r *recordRepoPG) GetByID(ctx context.Context, id int64) (*Record, error) {
	rec, err := scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM medical_records WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get medical record %d: %w", id, err)
	}
	return rec, nil
}

func (r *recordRepoPG) list(ctx context.Context, column string, id int64, limit, offset int) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+recordCols+` FROM medical_records
		WHERE `+column+` = $1
		ORDER BY record_date DESC, id DESC
		LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list medical records by %s: %w", column, err)
	}
	defer rows.Close()

	items := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medical record: %w", err)
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (r *recordRepoPG) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Record, error) {
	return r.list(ctx, "patient_id", patientID, limit, offset)
}

func (r *recordRepoPG) ListByDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*Record, error) {
	return r.list(ctx, "doctor_id", doctorID, limit, offset)
}

func (r *recordRepoPG) Update(ctx context.Context, rec *Record) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_records
		SET diagnosis = $2, prescription = $3, lab_results = $4, notes = $5, record_date = $6::date
		WHERE id = $1`,
		rec.ID, rec.Diagnosis, rec.Prescription, rec.LabResults, rec.Notes, rec.RecordDate)
	if err != nil {
		return fmt.Errorf("update medical record %d: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package billing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medisched/medisched/internal/platform/db"
)

type invoiceRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &invoiceRepoPG{pool: pool}
}

func (r *invoiceRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const invoiceCols = `id, patient_id, appointment_id, amount::float8, description, status,
	to_char(invoice_date, 'YYYY-MM-DD'), to_char(due_date, 'YYYY-MM-DD'), to_char(paid_date, 'YYYY-MM-DD'), created_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.PatientID, &inv.AppointmentID, &inv.Amount, &inv.Description, &inv.Status,
		&inv.InvoiceDate, &inv.DueDate, &inv.PaidDate, &inv.CreatedAt)
	return &inv, err
}

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO invoices (patient_id, appointment_id, amount, description, status, invoice_date, due_date)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7::date)
		RETURNING id, created_at`,
		inv.PatientID, inv.AppointmentID, inv.Amount, inv.Description, inv.Status, inv.InvoiceDate, inv.DueDate,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return inv, nil
}

func (r *invoiceRepoPG) ListByPatient(ctx context.Context, patientID int64, status Status, limit, offset int) ([]*Invoice, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+invoiceCols+` FROM invoices
		WHERE patient_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY invoice_date DESC, id DESC
		LIMIT $3 OFFSET $4`, patientID, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	items := []*Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		items = append(items, inv)
	}
	return items, rows.Err()
}

func (r *invoiceRepoPG) MarkPaid(ctx context.Context, id int64, paidDate string) (*Invoice, error) {
	var inv *Invoice
	err := db.InTx(ctx, r.pool, func(ctx context.Context) error {
		current, err := scanInvoice(r.conn(ctx).QueryRow(ctx,
			`SELECT `+invoiceCols+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
		if db.IsNoRows(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock invoice %d: %w", id, err)
		}
		if current.Status == StatusPaid {
			return ErrAlreadyPaid
		}

		inv, err = scanInvoice(r.conn(ctx).QueryRow(ctx, `
			UPDATE invoices SET status = $2, paid_date = $3::date
			WHERE id = $1
			RETURNING `+invoiceCols, id, StatusPaid, paidDate))
		if err != nil {
			return fmt.Errorf("mark invoice %d paid: %w", id, err)
		}
		return nil
	})
	return inv, err
}

func (r *invoiceRepoPG) Summary(ctx context.Context) (*Summary, error) {
	var s Summary
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)::float8,
			COUNT(*) FILTER (WHERE status = 'paid'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0)::float8,
			COALESCE(SUM(amount), 0)::float8
		FROM invoices`,
	).Scan(&s.PendingInvoices, &s.PendingAmount, &s.PaidInvoices, &s.PaidAmount, &s.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("invoice summary: %w", err)
	}
	return &s, nil
}

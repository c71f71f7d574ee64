package billing

import (
	"time"

	"github.com/medisched/medisched/internal/platform/apperr"
)

const DateLayout = "2006-01-02"

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

type Invoice struct {
	ID            int64     `json:"id"`
	PatientID     int64     `json:"patient_id"`
	AppointmentID *int64    `json:"appointment_id"`
	Amount        float64   `json:"amount"`
	Description   *string   `json:"description"`
	Status        Status    `json:"status"`
	InvoiceDate   string    `json:"invoice_date"`
	DueDate       *string   `json:"due_date"`
	PaidDate      *string   `json:"paid_date"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateRequest struct {
	PatientID     int64   `json:"patient_id"`
	AppointmentID *int64  `json:"appointment_id"`
	Amount        float64 `json:"amount"`
	Description   *string `json:"description"`
	DueDate       *string `json:"due_date"`
}

// Summary aggregates invoice amounts by status.
type Summary struct {
	PendingInvoices int     `json:"pending_invoices"`
	PendingAmount   float64 `json:"pending_amount"`
	PaidInvoices    int     `json:"paid_invoices"`
	PaidAmount      float64 `json:"paid_amount"`
	TotalAmount     float64 `json:"total_amount"`
}

func parseDate(field, s string) (string, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", apperr.New(apperr.InvalidInput, field+" must be YYYY-MM-DD")
	}
	return d.Format(DateLayout), nil
}

package billing

import (
	"context"

	"github.com/medisched/medisched/internal/platform/apperr"
)

var (
	ErrNotFound    = apperr.New(apperr.NotFound, "invoice not found")
	ErrAlreadyPaid = apperr.New(apperr.InvalidInput, "invoice already paid")
)

type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id int64) (*Invoice, error)
	// ListByPatient filters by status when status is non-empty.
	ListByPatient(ctx context.Context, patientID int64, status Status, limit, offset int) ([]*Invoice, error)
	// MarkPaid moves a pending invoice to paid.
	MarkPaid(ctx context.Context, id int64, paidDate string) (*Invoice, error)
	Summary(ctx context.Context) (*Summary, error)
}

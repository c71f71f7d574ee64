package billing

import (
	"context"
	"time"

	"github.com/medisched/medisched/internal/platform/apperr"
	"github.com/medisched/medisched/internal/platform/auth"
)

var (
	staffRule   = auth.RoleOnly(auth.RoleAdmin, auth.RoleDoctor)
	readRule    = auth.SelfOrRole(auth.RoleAdmin, auth.RoleDoctor)
	payRule     = auth.SelfOrRole(auth.RoleAdmin)
	summaryRule = auth.RoleOnly(auth.RoleAdmin)
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) today() string { return s.now().Format(DateLayout) }

// Create issues a pending invoice dated today.
func (s *Service) Create(ctx context.Context, p *auth.Principal, req *CreateRequest) (*Invoice, error) {
	if err := staffRule.Authorize(p, 0); err != nil {
		return nil, err
	}
	if req.PatientID <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "patient_id is required")
	}
	if req.Amount <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "amount must be positive")
	}

	inv := &Invoice{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Amount:        req.Amount,
		Description:   req.Description,
		Status:        StatusPending,
		InvoiceDate:   s.today(),
	}
	if req.DueDate != nil {
		due, err := parseDate("due_date", *req.DueDate)
		if err != nil {
			return nil, err
		}
		if due < inv.InvoiceDate {
			return nil, apperr.New(apperr.InvalidInput, "due_date is before the invoice date")
		}
		inv.DueDate = &due
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := readRule.Authorize(p, inv.PatientID); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListMine returns the caller's invoices, optionally filtered by status.
func (s *Service) ListMine(ctx context.Context, p *auth.Principal, status string, limit, offset int) ([]*Invoice, error) {
	st := Status(status)
	if st != "" && !st.Valid() {
		return nil, apperr.New(apperr.InvalidInput, "status must be pending or paid")
	}
	return s.repo.ListByPatient(ctx, p.SubjectID, st, limit, offset)
}

func (s *Service) ListForPatient(ctx context.Context, p *auth.Principal, patientID int64, limit, offset int) ([]*Invoice, error) {
	if err := staffRule.Authorize(p, 0); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID, "", limit, offset)
}

// Pay marks the invoice paid on paidDate, or today when paidDate is empty.
func (s *Service) Pay(ctx context.Context, p *auth.Principal, id int64, paidDate string) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := payRule.Authorize(p, inv.PatientID); err != nil {
		return nil, err
	}

	date := s.today()
	if paidDate != "" {
		if date, err = parseDate("paid_date", paidDate); err != nil {
			return nil, err
		}
	}
	return s.repo.MarkPaid(ctx, id, date)
}

func (s *Service) Summary(ctx context.Context, p *auth.Principal) (*Summary, error) {
	if err := summaryRule.Authorize(p, 0); err != nil {
		return nil, err
	}
	return s.repo.Summary(ctx)
}

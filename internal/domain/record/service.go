package record

import (
	"context"
	"time"

	"github.com/medisched/medisched/internal/platform/apperr"
	"github.com/medisched/medisched/internal/platform/auth"
)

var (
	writeRule = auth.RoleOnly(auth.RoleDoctor, auth.RoleAdmin)
	readRule  = auth.SelfOrRole(auth.RoleDoctor, auth.RoleAdmin)
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create files a record authored by the calling doctor.
func (s *Service) Create(ctx context.Context, p *auth.Principal, req *CreateRequest) (*Record, error) {
	if err := writeRule.Authorize(p, 0); err != nil {
		return nil, err
	}
	if req.PatientID <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "patient_id is required")
	}
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}
	rec := &Record{PatientID: req.PatientID, DoctorID: p.SubjectID, AppointmentID: req.AppointmentID}
	req.apply(rec)
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := readRule.Authorize(p, rec.PatientID); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) ListForPatient(ctx context.Context, p *auth.Principal, patientID int64, limit, offset int) ([]*Record, error) {
	if err := readRule.Authorize(p, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// ListAuthored returns the records written by the calling doctor.
func (s *Service) ListAuthored(ctx context.Context, p *auth.Principal, limit, offset int) ([]*Record, error) {
	if err := writeRule.Authorize(p, 0); err != nil {
		return nil, err
	}
	return s.repo.ListByDoctor(ctx, p.SubjectID, limit, offset)
}

// Update replaces the record's content. Doctors may only edit their own
// records.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, c *Content) (*Record, error) {
	if err := writeRule.Authorize(p, 0); err != nil {
		return nil, err
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role != auth.RoleAdmin && rec.DoctorID != p.SubjectID {
		return nil, auth.ErrForbidden
	}
	if err := c.Validate(s.now()); err != nil {
		return nil, err
	}
	c.apply(rec)
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

package patient

import (
	"context"

	"github.com/medisched/medisched/internal/platform/auth"
)

var (
	readRule   = auth.SelfOrRole(auth.RoleDoctor, auth.RoleAdmin)
	listRule   = auth.RoleOnly(auth.RoleDoctor, auth.RoleAdmin)
	updateRule = auth.SelfOrRole(auth.RoleDoctor, auth.RoleAdmin)
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers the caller's own profile.
func (s *Service) Create(ctx context.Context, p *auth.Principal, in *ProfileInput) (*Patient, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	pt := &Patient{UserID: p.SubjectID}
	in.apply(pt)
	if err := s.repo.Create(ctx, pt); err != nil {
		return nil, err
	}
	return pt, nil
}

func (s *Service) Me(ctx context.Context, p *auth.Principal) (*Patient, error) {
	return s.repo.GetByUserID(ctx, p.SubjectID)
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*Patient, error) {
	pt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := readRule.Authorize(p, pt.UserID); err != nil {
		return nil, err
	}
	return pt, nil
}

func (s *Service) List(ctx context.Context, p *auth.Principal, limit, offset int) ([]*Patient, error) {
	if err := listRule.Authorize(p, 0); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, limit, offset)
}

// Update overwrites every editable field of the profile.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, in *ProfileInput) (*Patient, error) {
	pt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := updateRule.Authorize(p, pt.UserID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.apply(pt)
	if err := s.repo.Update(ctx, pt); err != nil {
		return nil, err
	}
	return pt, nil
}

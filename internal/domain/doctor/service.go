package doctor

import (
	"context"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Doctor, error) {
	d, err := req.Doctor()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, specialization string, limit, offset int) ([]*Doctor, error) {
	return s.repo.List(ctx, strings.TrimSpace(specialization), limit, offset)
}

func (s *Service) Specializations(ctx context.Context) ([]string, error) {
	return s.repo.Specializations(ctx)
}

// Update applies u to the doctor. Callers are admins; the route enforces it.
func (s *Service) Update(ctx context.Context, id int64, u *Update) (*Doctor, error) {
	cols, err := u.Columns()
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, cols)
}

package patient

import (
	"context"

	"github.com/medisched/medisched/internal/platform/apperr"
)

var (
	ErrNotFound      = apperr.New(apperr.NotFound, "patient not found")
	ErrProfileExists = apperr.New(apperr.AlreadyExists, "patient profile already exists")
)

type Repository interface {
	// Create returns ErrProfileExists when the user already has a profile.
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	GetByUserID(ctx context.Context, userID int64) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error
}

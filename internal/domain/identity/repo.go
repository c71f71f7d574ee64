package identity

import (
	"context"

	"github.com/medisched/medisched/internal/platform/apperr"
)

var (
	ErrUserExists = apperr.New(apperr.AlreadyExists, "username or email already exists")
	ErrNotFound   = apperr.New(apperr.NotFound, "user not found")
)

// UserRepository is the credential store. Create returns ErrUserExists when
// the username or the email is taken.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// FindByLogin returns every user whose username or email equals login.
	FindByLogin(ctx context.Context, login string) ([]*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
}

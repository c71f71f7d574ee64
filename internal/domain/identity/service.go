package identity

import (
	"context"
	"strings"

	"github.com/medisched/medisched/internal/platform/apperr"
	"github.com/medisched/medisched/internal/platform/auth"
)

// Service is the identity authority: it owns the credential store and the
// token signer.
type Service struct {
	users  UserRepository
	signer *auth.Signer
	hasher *PasswordHasher
}

func NewService(users UserRepository, signer *auth.Signer, hasher *PasswordHasher) *Service {
	return &Service{users: users, signer: signer, hasher: hasher}
}

// Register creates a user and signs a token for it.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" {
		return nil, apperr.New(apperr.InvalidInput, "username is required")
	}
	if req.Password == "" {
		return nil, apperr.New(apperr.InvalidInput, "password is required")
	}
	if req.Email == "" {
		return nil, apperr.New(apperr.InvalidInput, "email is required")
	}
	if req.Role == "" {
		req.Role = auth.RolePatient
	}
	if !req.Role.Valid() {
		return nil, apperr.New(apperr.InvalidInput, "role must be one of patient, doctor, admin")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Login accepts a username or an email. Unknown users and wrong passwords
// fail identically.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	candidates, err := s.users.FindByLogin(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	for _, u := range candidates {
		if s.hasher.Compare(u.PasswordHash, req.Password) {
			return s.issue(u)
		}
	}
	return nil, auth.ErrInvalidCredentials
}

// Verify checks a token without consulting the credential store.
func (s *Service) Verify(token string) (*auth.Claims, error) {
	return s.signer.Verify(token)
}

// LookupUsername resolves a username for other services.
func (s *Service) LookupUsername(ctx context.Context, username string) (*auth.UserInfo, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return u.Info(), nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *Service) issue(u *User) (*TokenResponse, error) {
	token, _, err := s.signer.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      u.ID,
		Role:        u.Role,
	}, nil
}

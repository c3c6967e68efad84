package ports

import (
	"context"

	"github.com/chapterzero/bookstore/internal/core/domain"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email       string
	FullName    string
	TaxID       string
	PhoneNumber string
	Password    string
	RoleID      *int
}

// UpdateProfileInput holds optional profile changes; nil fields are left as is.
type UpdateProfileInput struct {
	FullName    *string
	TaxID       *string
	PhoneNumber *string
}

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type IdentityService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*TokenPair, error)
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int64, current, next string) error
}

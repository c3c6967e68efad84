package ports

import "github.com/chapterzero/bookstore/internal/core/domain"

const TokenTypeBearer = "bearer"

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// TokenVerifier checks bearer tokens presented by clients.
type TokenVerifier interface {
	Verify(token string) (*domain.Principal, error)
}

package ports

import (
	"context"

	"github.com/chapterzero/bookstore/internal/core/domain"
)

// CredentialStore is the persistence boundary for user records.
//
// Implementations normalize the email they are given, return
// domain.ErrUserNotFound for missing records, domain.ErrDuplicateIdentity when
// the storage-level unique constraint on email rejects an insert, and wrap
// every I/O failure in a domain.StoreError.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Insert assigns the id, and created_at/updated_at when they are zero.
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
	// Update persists the mutable profile fields and the password hash and
	// refreshes updated_at.
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
}

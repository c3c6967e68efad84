package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/chapterzero/bookstore/internal/core/domain"
)

// DefaultBcryptCost matches the work factor the bookstore used before the
// rewrite, so legacy digests and new ones cost the same to verify.
const DefaultBcryptCost = 12

// bcrypt ignores everything past 72 bytes.
const bcryptMaxBytes = 72

type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher validates cost; 0 selects DefaultBcryptCost.
func NewBcryptHasher(cost int) (BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return BcryptHasher{}, fmt.Errorf("password: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return BcryptHasher{Cost: cost}, nil
}

func (b BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > bcryptMaxBytes {
		return "", fmt.Errorf("%w: password longer than %d bytes", domain.ErrMalformedInput, bcryptMaxBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// Verify refuses anything Hash would have refused; bcrypt would otherwise
// match on the first 72 bytes alone.
func (b BcryptHasher) Verify(plaintext, digest string) bool {
	if len(plaintext) > bcryptMaxBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// Package password hashes and verifies user secrets with slow, salted KDFs.
//
// Digests are self-describing: bcrypt digests start with "$2", argon2id
// digests with "$argon2id$". Verify picks the algorithm from the digest, so
// switching the configured algorithm keeps existing accounts working.
package password

import (
	"context"
	"fmt"
	"strings"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// Config selects the algorithm used for new digests.
type Config struct {
	Algorithm  string
	BcryptCost int
	Argon2id   Argon2idParams
}

// Hasher implements ports.PasswordHasher.
type Hasher struct {
	primary  string
	bcrypt   BcryptHasher
	argon2id Argon2idHasher
}

// New builds a Hasher. Zero values in cfg fall back to defaults.
func New(cfg Config) (*Hasher, error) {
	algo := strings.ToLower(strings.TrimSpace(cfg.Algorithm))
	if algo == "" {
		algo = AlgorithmBcrypt
	}
	if algo != AlgorithmBcrypt && algo != AlgorithmArgon2id {
		return nil, fmt.Errorf("password: unsupported algorithm %q", cfg.Algorithm)
	}

	bh, err := NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	params := cfg.Argon2id
	if params == (Argon2idParams{}) {
		params = DefaultArgon2idParams()
	}

	return &Hasher{
		primary:  algo,
		bcrypt:   bh,
		argon2id: Argon2idHasher{Params: params},
	}, nil
}

// Algorithm reports the algorithm used for new digests.
func (h *Hasher) Algorithm() string { return h.primary }

// Hash derives a digest with the configured algorithm. The KDF runs on its own
// goroutine so that a cancelled ctx returns immediately.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if h.primary == AlgorithmArgon2id {
		return hashContext(ctx, func() (string, error) { return h.argon2id.Hash(plaintext) })
	}
	return hashContext(ctx, func() (string, error) { return h.bcrypt.Hash(plaintext) })
}

// Verify reports whether plaintext matches digest under the algorithm the
// digest was produced with.
func (h *Hasher) Verify(plaintext, digest string) bool {
	switch {
	case strings.HasPrefix(digest, argon2idPrefix):
		return h.argon2id.Verify(plaintext, digest)
	case strings.HasPrefix(digest, "$2"):
		return h.bcrypt.Verify(plaintext, digest)
	default:
		return false
	}
}

type hashResult struct {
	digest string
	err    error
}

func hashContext(ctx context.Context, fn func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ch := make(chan hashResult, 1)
	go func() {
		d, err := fn()
		ch <- hashResult{digest: d, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.digest, r.err
	}
}

package ports

import "context"

// PasswordHasher hashes and verifies plaintext secrets.
type PasswordHasher interface {
	// Hash returns a salted digest; two calls with the same plaintext differ.
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify reports whether plaintext is the preimage of digest. Malformed
	// digests yield false.
	Verify(plaintext, digest string) bool
}

package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chapterzero/bookstore/internal/core/domain"
)

func testUser() *domain.User {
	created := time.Date(2024, 11, 3, 10, 30, 0, 0, time.UTC)
	return &domain.User{
		ID:        42,
		Email:     "a@b.com",
		FullName:  "A B",
		Role:      &domain.Role{ID: 2, Name: domain.RoleCustomer},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func newService(t *testing.T, secret string, ttl time.Duration) *JWTService {
	t.Helper()
	s, err := NewJWTService(Config{Secret: secret, Issuer: "bookstore-test", TTL: ttl})
	require.NoError(t, err)
	return s
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(Config{})
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, err = NewJWTService(Config{Secret: "s", TTL: -time.Second})
	assert.Error(t, err)
}

func TestIssue_RoundTrip(t *testing.T) {
	s := newService(t, "secret", time.Hour)
	user := testUser()

	tok, err := s.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	p, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.Equal(t, user.Email, p.Email)
	assert.Equal(t, domain.RoleCustomer, p.Role)
	assert.False(t, p.IssuedAt.IsZero())
}

func TestIssue_TextualTimestamps(t *testing.T) {
	s := newService(t, "secret", time.Hour)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	tok, err := s.Issue(testUser())
	require.NoError(t, err)

	raw := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, raw)
	require.NoError(t, err)

	assert.Equal(t, "2025-01-02T03:04:05Z", raw["issued_at"])
	assert.Equal(t, "2024-11-03T10:30:00Z", raw["created_at"])
	assert.Equal(t, "2024-11-03T10:30:00Z", raw["updated_at"])
	assert.Equal(t, "42", raw["sub"])
	assert.NotEmpty(t, raw["jti"])
	assert.NotContains(t, raw, "password_hash")
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := newService(t, "secret", time.Hour).Issue(testUser())
	require.NoError(t, err)

	_, err = newService(t, "other", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	s := newService(t, "secret", time.Minute)
	issued := time.Now().UTC().Add(-time.Hour)
	s.now = func() time.Time { return issued }
	tok, err := s.Issue(testUser())
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().UTC() }
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_NoExpiryWhenTTLZero(t *testing.T) {
	s := newService(t, "secret", 0)
	tok, err := s.Issue(testUser())
	require.NoError(t, err)

	claims, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{"user_id": 1, "email": "a@b.com", "iss": "bookstore-test"}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	s := newService(t, "secret", time.Hour)
	for _, tok := range []string{none, hs512, "not-a-token", ""} {
		_, err := s.Verify(tok)
		assert.True(t, errors.Is(err, ErrInvalidToken), "token %q", tok)
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	other, err := NewJWTService(Config{Secret: "secret", Issuer: "someone-else", TTL: time.Hour})
	require.NoError(t, err)
	tok, err := other.Issue(testUser())
	require.NoError(t, err)

	_, err = newService(t, "secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 3, len(strings.Split(tok, ".")))
}

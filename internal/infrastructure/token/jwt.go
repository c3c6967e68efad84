package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/chapterzero/bookstore/internal/core/domain"
)

// TimeFormat is the textual date-time layout used for every timestamp in the payload.
const TimeFormat = time.RFC3339

var (
	ErrEmptySecret  = errors.New("token: signing secret is required")
	ErrInvalidToken = errors.New("token: invalid token")
)

// Claims is the signed payload of an access token.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	Role      string `json:"role,omitempty"`
	IssuedAt  string `json:"issued_at"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	jwt.RegisteredClaims
}

// Config holds the process-wide signing settings.
type Config struct {
	Secret string
	Issuer string
	// TTL of zero issues tokens without an exp claim.
	TTL time.Duration
}

// JWTService issues and verifies HS256 access tokens.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(cfg Config) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, ErrEmptySecret
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("token: negative ttl %s", cfg.TTL)
	}
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue signs a token for user.
func (s *JWTService) Issue(user *domain.User) (string, error) {
	if user == nil {
		return "", errors.New("token: nil user")
	}

	now := s.now().Truncate(time.Second)
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.RoleName(),
		IssuedAt:  now.Format(TimeFormat),
		CreatedAt: formatTime(user.CreatedAt),
		UpdatedAt: formatTime(user.UpdatedAt),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify checks signature, algorithm, issuer and expiry.
func (s *JWTService) Verify(tokenString string) (*domain.Principal, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}

	issuedAt, _ := time.Parse(TimeFormat, claims.IssuedAt)
	return &domain.Principal{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Role:     claims.Role,
		IssuedAt: issuedAt,
	}, nil
}

// Parse returns the full claim set of a valid token.
func (s *JWTService) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuedAt(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == 0 || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}
	return claims, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeFormat)
}

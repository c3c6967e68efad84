package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chapterzero/bookstore/internal/core/domain"
	"github.com/chapterzero/bookstore/internal/core/ports"
	"github.com/chapterzero/bookstore/internal/pkg/metrics"
)

// decoyPassword is hashed once so that lookups of unknown emails still pay for
// a password verification.
const decoyPassword = "chapterzero-timing-decoy"

// IdentityService implements registration, authentication and profile upkeep.
type IdentityService struct {
	store   ports.CredentialStore
	hasher  ports.PasswordHasher
	issuer  ports.TokenIssuer
	limiter ports.AttemptLimiter
	logger  zerolog.Logger
	now     func() time.Time

	decoyOnce   sync.Once
	decoyDigest string
}

// Option customizes an IdentityService.
type Option func(*IdentityService)

// WithAttemptLimiter enables login throttling.
func WithAttemptLimiter(l ports.AttemptLimiter) Option {
	return func(s *IdentityService) {
		if l != nil {
			s.limiter = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *IdentityService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewIdentityService(store ports.CredentialStore, hasher ports.PasswordHasher, issuer ports.TokenIssuer, logger zerolog.Logger, opts ...Option) *IdentityService {
	s := &IdentityService{
		store:   store,
		hasher:  hasher,
		issuer:  issuer,
		limiter: ports.NoopLimiter{},
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account. The email is checked for uniqueness before
// hashing; the store's unique constraint settles concurrent registrations.
func (s *IdentityService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" || strings.TrimSpace(in.FullName) == "" {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrMalformedInput
	}

	roleID := domain.DefaultRoleID
	if in.RoleID != nil {
		roleID = *in.RoleID
	}
	role, err := domain.RoleByID(roleID)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	existing, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		return nil, domain.ErrDuplicateIdentity
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	hash, err := s.hash(ctx, in.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	now := s.now()
	created, err := s.store.Insert(ctx, &domain.User{
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		TaxID:        strings.TrimSpace(in.TaxID),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, domain.ErrDuplicateIdentity
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	s.logger.Info().Int64("user_id", created.ID).Str("role", created.RoleName()).Msg("user registered")
	return created, nil
}

// Authenticate verifies credentials and issues a bearer token. Unknown emails
// and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*ports.TokenPair, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.AuthenticationsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !s.allow(ctx, email) {
		metrics.AuthenticationsTotal.WithLabelValues("throttled").Inc()
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.decoy())
			return nil, s.failAuthentication(ctx, email)
		}
		metrics.AuthenticationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.failAuthentication(ctx, email)
	}

	s.resetAttempts(ctx, email)

	token, err := s.issuer.Issue(user)
	if err != nil {
		metrics.AuthenticationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.AuthenticationsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Int64("user_id", user.ID).Msg("token issued")
	return &ports.TokenPair{AccessToken: token, TokenType: ports.TokenTypeBearer}, nil
}

// Profile returns the user with the given id.
func (s *IdentityService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.store.FindByID(ctx, userID)
}

// UpdateProfile applies the non-nil fields of in.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID int64, in ports.UpdateProfileInput) (*domain.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, domain.ErrMalformedInput
		}
		user.FullName = name
	}
	if in.TaxID != nil {
		user.TaxID = strings.TrimSpace(*in.TaxID)
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}
	user.UpdatedAt = s.now()

	return s.store.Update(ctx, user)
}

// ChangePassword replaces the stored digest after checking the current password.
// Wrong guesses count against the same attempt budget as failed logins, so a
// leaked token cannot be used to brute-force the current password.
func (s *IdentityService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if next == "" {
		return domain.ErrMalformedInput
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.allow(ctx, user.Email) {
		return domain.ErrTooManyAttempts
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		s.recordFailure(ctx, user.Email)
		return domain.ErrInvalidCredentials
	}
	s.resetAttempts(ctx, user.Email)

	hash, err := s.hash(ctx, next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()

	if _, err := s.store.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", userID).Msg("password changed")
	return nil
}

func (s *IdentityService) hash(ctx context.Context, plaintext string) (string, error) {
	start := time.Now()
	digest, err := s.hasher.Hash(ctx, plaintext)
	metrics.PasswordHashDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return digest, nil
}

// allow consults the attempt limiter. The limiter is auxiliary; an outage
// must not lock everybody out.
func (s *IdentityService) allow(ctx context.Context, email string) bool {
	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		s.logger.Warn().Err(err).Msg("attempt limiter unavailable")
		return true
	}
	return allowed
}

func (s *IdentityService) recordFailure(ctx context.Context, email string) {
	if err := s.limiter.RecordFailure(ctx, email); err != nil {
		s.logger.Warn().Err(err).Msg("record failed attempt")
	}
}

func (s *IdentityService) resetAttempts(ctx context.Context, email string) {
	if err := s.limiter.Reset(ctx, email); err != nil {
		s.logger.Warn().Err(err).Msg("reset attempts")
	}
}

func (s *IdentityService) failAuthentication(ctx context.Context, email string) error {
	s.recordFailure(ctx, email)
	metrics.AuthenticationsTotal.WithLabelValues("invalid_credentials").Inc()
	return domain.ErrInvalidCredentials
}

func (s *IdentityService) decoy() string {
	s.decoyOnce.Do(func() {
		digest, err := s.hasher.Hash(context.Background(), decoyPassword)
		if err != nil {
			s.logger.Warn().Err(err).Msg("timing decoy digest")
			return
		}
		s.decoyDigest = digest
	})
	return s.decoyDigest
}

var _ ports.IdentityService = (*IdentityService)(nil)

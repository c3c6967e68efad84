package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chapterzero/bookstore/internal/core/domain"
	"github.com/chapterzero/bookstore/internal/core/ports"
)

const uniqueViolation = "23505"

const userColumns = `user_id, email, full_name, tax_id, phone_number, password, role_id, created_at, updated_at`

// UserRepository implements ports.CredentialStore over PostgreSQL.
// The pool is owned by the caller.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, full_name, tax_id, phone_number, password, role_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		domain.NormalizeEmail(user.Email),
		user.FullName,
		user.TaxID,
		user.PhoneNumber,
		user.PasswordHash,
		user.RoleID(),
		createdAt.UTC(),
		updatedAt.UTC(),
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, mapError("postgres.Insert", err)
	}
	return created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, domain.NormalizeEmail(email))
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError("postgres.FindByEmail", err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError("postgres.FindByID", err)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET full_name = $1,
			tax_id = $2,
			phone_number = $3,
			password = $4,
			role_id = $5,
			updated_at = $6
		WHERE user_id = $7
		RETURNING `+userColumns,
		user.FullName,
		user.TaxID,
		user.PhoneNumber,
		user.PasswordHash,
		user.RoleID(),
		updatedAt.UTC(),
		user.ID,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError("postgres.Update", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u      domain.User
		roleID *int32
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.TaxID,
		&u.PhoneNumber,
		&u.PasswordHash,
		&roleID,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	if roleID != nil {
		if role, err := domain.RoleByID(int(*roleID)); err == nil {
			u.Role = role
		}
	}
	return &u, nil
}

func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateIdentity
	}
	return domain.NewStoreError(op, err)
}

var _ ports.CredentialStore = (*UserRepository)(nil)

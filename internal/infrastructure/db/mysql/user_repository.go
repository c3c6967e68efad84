package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/chapterzero/bookstore/internal/core/domain"
	"github.com/chapterzero/bookstore/internal/core/ports"
)

type roleRow struct {
	ID   int    `gorm:"column:role_id;primaryKey;autoIncrement:false"`
	Name string `gorm:"column:role_name;size:20;uniqueIndex;not null"`
}

func (roleRow) TableName() string { return "roles" }

type userRow struct {
	ID           int64     `gorm:"column:user_id;primaryKey;autoIncrement"`
	FullName     string    `gorm:"column:full_name;size:100;not null"`
	Email        string    `gorm:"column:email;size:100;uniqueIndex:users_email_unique;not null"`
	TaxID        string    `gorm:"column:tax_id;size:50"`
	PhoneNumber  string    `gorm:"column:phone_number;size:20"`
	PasswordHash string    `gorm:"column:password;size:255;not null"`
	RoleID       *int      `gorm:"column:role_id;index"`
	Role         *roleRow  `gorm:"foreignKey:RoleID;references:ID"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userRow) TableName() string { return "users" }

func seedRoles() []roleRow {
	roles := domain.Roles()
	rows := make([]roleRow, 0, len(roles))
	for _, r := range roles {
		rows = append(rows, roleRow{ID: r.ID, Name: r.Name})
	}
	return rows
}

// UserRepository is the GORM-backed credential store. The auto-increment
// primary key never reuses an id.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := toUserRow(user)
	row.ID = 0
	row.Email = domain.NormalizeEmail(row.Email)

	if err := r.db.WithContext(ctx).Omit("Role").Create(&row).Error; err != nil {
		return nil, mapError("mysql.Insert", err)
	}
	return fromUserRow(row), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Where("email = ?", domain.NormalizeEmail(email)).First(&row).Error
	if err != nil {
		return nil, mapError("mysql.FindByEmail", err)
	}
	return fromUserRow(row), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, mapError("mysql.FindByID", err)
	}
	return fromUserRow(row), nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	res := r.db.WithContext(ctx).Model(&userRow{}).Where("user_id = ?", user.ID).Updates(map[string]any{
		"full_name":    user.FullName,
		"tax_id":       user.TaxID,
		"phone_number": user.PhoneNumber,
		"password":     user.PasswordHash,
		"role_id":      user.RoleID(),
		"updated_at":   updatedAt.UTC(),
	})
	if res.Error != nil {
		return nil, mapError("mysql.Update", res.Error)
	}
	// MySQL reports zero affected rows for no-op updates, so existence is
	// settled by reading the row back.
	return r.FindByID(ctx, user.ID)
}

func mapError(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrDuplicateIdentity
	default:
		return domain.NewStoreError(op, err)
	}
}

func toUserRow(u *domain.User) userRow {
	return userRow{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		TaxID:        u.TaxID,
		PhoneNumber:  u.PhoneNumber,
		PasswordHash: u.PasswordHash,
		RoleID:       u.RoleID(),
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func fromUserRow(row userRow) *domain.User {
	u := &domain.User{
		ID:           row.ID,
		Email:        row.Email,
		FullName:     row.FullName,
		TaxID:        row.TaxID,
		PhoneNumber:  row.PhoneNumber,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.RoleID != nil {
		if role, err := domain.RoleByID(*row.RoleID); err == nil {
			u.Role = role
		}
	}
	return u
}

var _ ports.CredentialStore = (*UserRepository)(nil)

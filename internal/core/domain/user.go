package domain

import "time"

// User models a registered bookstore account.
type User struct {
	ID           int64     `json:"user_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	TaxID        string    `json:"tax_id,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	PasswordHash string    `json:"-"`
	Role         *Role     `json:"role,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleName returns the role name or "" when the user has none.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// RoleID returns a pointer to the role id, nil when the user has no role.
func (u *User) RoleID() *int {
	if u == nil || u.Role == nil {
		return nil
	}
	id := u.Role.ID
	return &id
}

// Principal is the identity carried by a verified bearer token.
type Principal struct {
	UserID   int64
	Email    string
	Role     string
	IssuedAt time.Time
}

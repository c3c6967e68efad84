package handler

import (
	"time"

	"github.com/chapterzero/bookstore/internal/core/domain"
)

// --- Request types ---

// Length limits mirror the users table columns (see the MySQL row and the
// Postgres migration) so over-long input is a 400 here, not a store error.

type registerRequest struct {
	Email       string `json:"email"        validate:"required,email,max=100"`
	FullName    string `json:"full_name"    validate:"required,max=100"`
	TaxID       string `json:"tax_id"       validate:"max=50"`
	PhoneNumber string `json:"phone_number" validate:"max=20"`
	Password    string `json:"password"     validate:"required,maxbytes=72"`
	RoleID      *int   `json:"role_id"`
}

// tokenRequest follows the OAuth2 password grant form: the email travels as
// "username".
type tokenRequest struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

type updateProfileRequest struct {
	FullName    *string `json:"full_name"    validate:"omitempty,max=100"`
	TaxID       *string `json:"tax_id"       validate:"omitempty,max=50"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,maxbytes=72"`
}

// --- Response types ---

type roleResponse struct {
	ID   int    `json:"role_id"`
	Name string `json:"role_name"`
}

// userResponse is the only outward shape of a user. It has no hash field.
type userResponse struct {
	ID          int64         `json:"user_id"`
	Email       string        `json:"email"`
	FullName    string        `json:"full_name"`
	TaxID       string        `json:"tax_id"`
	PhoneNumber string        `json:"phone_number"`
	Role        *roleResponse `json:"role,omitempty"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

type registerResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Mapping ---

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		TaxID:       u.TaxID,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if u.Role != nil {
		resp.Role = &roleResponse{ID: u.Role.ID, Name: u.Role.Name}
	}
	return resp
}

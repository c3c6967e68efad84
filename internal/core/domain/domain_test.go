package domain

import (
	"context"
	"errors"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  A@B.com ":         "a@b.com",
		"Alice@Example.COM":  "alice@example.com",
		"":                   "",
		"   ":                "",
		"already@lower.case": "already@lower.case",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeEmail_Idempotent(t *testing.T) {
	once := NormalizeEmail("MiXeD@Case.ORG")
	if twice := NormalizeEmail(once); twice != once {
		t.Fatalf("expected idempotent normalization, got %q then %q", once, twice)
	}
}

func TestRoleByID(t *testing.T) {
	r, err := RoleByID(1)
	if err != nil {
		t.Fatalf("RoleByID(1) error: %v", err)
	}
	if r.Name != RoleAdmin {
		t.Fatalf("expected admin, got %s", r.Name)
	}

	if _, err := RoleByID(99); !errors.Is(err, ErrUnknownRole) || !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrUnknownRole wrapping ErrMalformedInput, got %v", err)
	}

	if got := len(Roles()); got != 4 {
		t.Fatalf("expected 4 roles, got %d", got)
	}
}

func TestStoreError_Unwrap(t *testing.T) {
	err := NewStoreError("mongo.FindByEmail", context.DeadlineExceeded)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if NewStoreError("op", nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
}

func TestUser_RoleAccessors(t *testing.T) {
	var u *User
	if u.RoleName() != "" || u.RoleID() != nil {
		t.Fatalf("nil user should have no role")
	}
	u = &User{Role: &Role{ID: 3, Name: RoleProductManager}}
	if u.RoleName() != RoleProductManager || *u.RoleID() != 3 {
		t.Fatalf("unexpected role accessors: %s %v", u.RoleName(), u.RoleID())
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chapterzero/bookstore/internal/api/middleware"
	"github.com/chapterzero/bookstore/internal/core/domain"
	"github.com/chapterzero/bookstore/internal/core/ports"
)

type stubIdentityService struct {
	registerFn       func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	authenticateFn   func(ctx context.Context, email, password string) (*ports.TokenPair, error)
	profileFn        func(ctx context.Context, userID int64) (*domain.User, error)
	updateProfileFn  func(ctx context.Context, userID int64, in ports.UpdateProfileInput) (*domain.User, error)
	changePasswordFn func(ctx context.Context, userID int64, current, next string) error
}

func (s *stubIdentityService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubIdentityService) Authenticate(ctx context.Context, email, password string) (*ports.TokenPair, error) {
	return s.authenticateFn(ctx, email, password)
}

func (s *stubIdentityService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.profileFn(ctx, userID)
}

func (s *stubIdentityService) UpdateProfile(ctx context.Context, userID int64, in ports.UpdateProfileInput) (*domain.User, error) {
	return s.updateProfileFn(ctx, userID, in)
}

func (s *stubIdentityService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	return s.changePasswordFn(ctx, userID, current, next)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func sampleUser() *domain.User {
	role, _ := domain.RoleByID(domain.DefaultRoleID)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.User{
		ID:           1,
		Email:        "a@b.com",
		FullName:     "A B",
		PasswordHash: "$2a$04$secret-digest",
		Role:         role,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestIdentityHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubIdentityService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Email != "a@b.com" || in.FullName != "A B" || in.Password != "secret123" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.RoleID != nil {
				t.Fatalf("expected no role id, got %d", *in.RoleID)
			}
			return sampleUser(), nil
		},
	}
	h := NewIdentityHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/users", `{"email":" a@b.com ","password":"secret123","full_name":"A B"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] != "User registered successfully" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user object, got %v", resp["user"])
	}
	if user["email"] != "a@b.com" || user["created_at"] != "2024-05-01T12:00:00Z" {
		t.Fatalf("unexpected user payload: %v", user)
	}
	if strings.Contains(rec.Body.String(), "secret-digest") || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response leaks password material: %s", rec.Body.String())
	}
}

func TestIdentityHandler_Register_ValidationFailsBeforeService(t *testing.T) {
	e := newEcho()
	stub := &stubIdentityService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	h := NewIdentityHandler(stub)

	bodies := []string{
		`{"password":"x","full_name":"A"}`,
		`{"email":"not-an-email","password":"x","full_name":"A"}`,
		`{"email":"a@b.com","full_name":"A"}`,
		`{"email":"a@b.com","password":"x"}`,
		`{not json`,
	}
	for _, body := range bodies {
		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/api/users", body), rec)
		err := h.Register(c)
		if got := httpStatus(t, err); got != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, got)
		}
	}
}

func TestIdentityHandler_Register_PropagatesDomainError(t *testing.T) {
	e := newEcho()
	stub := &stubIdentityService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrDuplicateIdentity
		},
	}
	h := NewIdentityHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/users", `{"email":"a@b.com","password":"x","full_name":"A"}`), rec)
	if err := h.Register(c); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestIdentityHandler_Register_PassesRoleID(t *testing.T) {
	e := newEcho()
	stub := &stubIdentityService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.RoleID == nil || *in.RoleID != 4 {
				t.Fatalf("expected role id 4, got %v", in.RoleID)
			}
			return sampleUser(), nil
		},
	}
	h := NewIdentityHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/users", `{"email":"a@b.com","password":"x","full_name":"A","role_id":4}`), rec)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestIdentityHandler_Token_Success(t *testing.T) {
	e := newEcho()
	stub := &stubIdentityService{
		authenticateFn: func(_ context.Context, email, password string) (*ports.TokenPair, error) {
			if email != "a@b.com" || password != "secret123" {
				t.Fatalf("unexpected credentials: %s / %s", email, password)
			}
			return &ports.TokenPair{AccessToken: "tkn", TokenType: ports.TokenTypeBearer}, nil
		},
	}
	h := NewIdentityHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(formRequest("/api/token", url.Values{"username": {"a@b.com"}, "password": {"secret123"}}), rec)
	if err := h.Token(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "tkn" || resp["token_type"] != "bearer" {
		t.Fatalf("unexpected response: %v", resp)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("expected no-store cache header")
	}
}

func TestIdentityHandler_Token_MissingFields(t *testing.T) {
	e := newEcho()
	h := NewIdentityHandler(&stubIdentityService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(formRequest("/api/token", url.Values{"username": {"a@b.com"}}), rec)
	if got := httpStatus(t, h.Token(c)); got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}
}

func TestIdentityHandler_Token_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubIdentityService{
		authenticateFn: func(context.Context, string, string) (*ports.TokenPair, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewIdentityHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(formRequest("/api/token", url.Values{"username": {"a@b.com"}, "password": {"wrong"}}), rec)
	if err := h.Token(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func withPrincipal(c echo.Context, userID int64, role string) {
	c.Set(middleware.PrincipalKey, &domain.Principal{UserID: userID, Email: "a@b.com", Role: role})
}

func TestUserHandler_Me(t *testing.T) {
	e := newEcho()
	stub := &stubIdentityService{
		profileFn: func(_ context.Context, id int64) (*domain.User, error) {
			if id != 1 {
				t.Fatalf("unexpected id %d", id)
			}
			return sampleUser(), nil
		},
	}
	h := NewUserHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), rec)
	withPrincipal(c, 1, domain.RoleCustomer)

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret-digest") {
		t.Fatalf("response leaks hash: %s", rec.Body.String())
	}
}

func TestUserHandler_Me_WithoutPrincipal(t *testing.T) {
	e := newEcho()
	h := NewUserHandler(&stubIdentityService{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), httptest.NewRecorder())
	if got := httpStatus(t, h.Me(c)); got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
}

func TestUserHandler_UpdateMe(t *testing.T) {
	e := newEcho()
	stub := &stubIdentityService{
		updateProfileFn: func(_ context.Context, id int64, in ports.UpdateProfileInput) (*domain.User, error) {
			if in.FullName == nil || *in.FullName != "New Name" {
				t.Fatalf("expected full_name to be set, got %+v", in)
			}
			if in.TaxID != nil || in.PhoneNumber != nil {
				t.Fatalf("expected untouched fields to stay nil, got %+v", in)
			}
			u := sampleUser()
			u.FullName = *in.FullName
			return u, nil
		},
	}
	h := NewUserHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, "/api/users/me", `{"full_name":"New Name"}`), rec)
	withPrincipal(c, 1, domain.RoleCustomer)

	if err := h.UpdateMe(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "New Name") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUserHandler_ChangePassword(t *testing.T) {
	e := newEcho()
	stub := &stubIdentityService{
		changePasswordFn: func(_ context.Context, id int64, current, next string) error {
			if id != 1 || current != "old" || next != "new" {
				t.Fatalf("unexpected args: %d %s %s", id, current, next)
			}
			return nil
		},
	}
	h := NewUserHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/api/users/me/password", `{"current_password":"old","new_password":"new"}`), rec)
	withPrincipal(c, 1, domain.RoleCustomer)

	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_Get_InvalidID(t *testing.T) {
	e := newEcho()
	h := NewUserHandler(&stubIdentityService{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if got := httpStatus(t, h.Get(c)); got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	e := newEcho()
	stub := &stubIdentityService{
		profileFn: func(context.Context, int64) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	h := NewUserHandler(stub)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("42")

	if err := h.Get(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

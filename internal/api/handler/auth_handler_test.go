package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/supplytrace/provenance/internal/api/middleware"
	"github.com/supplytrace/provenance/internal/core/domain"
	"github.com/supplytrace/provenance/internal/core/ports"
)

type stubAuthService struct {
	registerFn  func(ctx context.Context, username, password string, profile domain.Profile) (*domain.User, error)
	addSellerFn func(ctx context.Context, caller domain.Caller, username, password string, profile domain.SellerProfile) (*domain.User, error)
	loginFn     func(ctx context.Context, username, password string, role domain.Role) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, username, password string, profile domain.Profile) (*domain.User, error) {
	return s.registerFn(ctx, username, password, profile)
}

func (s *stubAuthService) AddSeller(ctx context.Context, caller domain.Caller, username, password string, profile domain.SellerProfile) (*domain.User, error) {
	return s.addSellerFn(ctx, caller, username, password, profile)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string, role domain.Role) (string, *domain.User, error) {
	return s.loginFn(ctx, username, password, role)
}

// passResolver accepts any known role in the session.
type passResolver struct{}

func (passResolver) ResolveCaller(s ports.Session) (domain.Caller, error) {
	role, err := domain.ParseRole(s.Role)
	if err != nil {
		return domain.Caller{}, domain.ErrUnauthorized
	}
	return domain.Caller{Username: s.Username, Role: role}, nil
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Manufacturer(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, username, password string, profile domain.Profile) (*domain.User, error) {
			mp, ok := profile.(domain.ManufacturerProfile)
			if !ok {
				t.Fatalf("expected manufacturer profile, got %T", profile)
			}
			if username != "alice" || password != "secret" || mp.CompanyName != "Acme" || mp.Phone != "555" {
				t.Fatalf("unexpected args: %s %s %+v", username, password, mp)
			}
			return &domain.User{Username: username, Role: domain.RoleManufacturer}, nil
		},
	}
	h := NewAuthHandler(stub, passResolver{}, time.Hour, false)

	c, rec := jsonRequest(e, http.MethodPost, "/api/users/register",
		`{"username":"alice","password":"secret","userType":"Manufacturer","phone":"555","address":"1 Main St",
		  "companyName":"Acme","licenseNumber":"L-1","manager":"Bob","brand":"AcmeBrand"}`)

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
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["username"] != "alice" || user["role"] != "Manufacturer" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
}

func TestAuthHandler_Register_CustomerProfile(t *testing.T) {
	e := newTestEcho()
	var got domain.Profile
	stub := &stubAuthService{
		registerFn: func(_ context.Context, username, _ string, profile domain.Profile) (*domain.User, error) {
			got = profile
			return &domain.User{Username: username, Role: profile.Role()}, nil
		},
	}
	h := NewAuthHandler(stub, passResolver{}, time.Hour, false)

	c, _ := jsonRequest(e, http.MethodPost, "/api/users/register",
		`{"username":"carol","password":"pw","userType":"Customer","phone":"1","address":"a","fullName":"Carol C"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	cp, ok := got.(domain.CustomerProfile)
	if !ok || cp.FullName != "Carol C" {
		t.Fatalf("unexpected profile: %#v", got)
	}
}

func TestAuthHandler_Register_RejectsSellerUserType(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, passResolver{}, time.Hour, false)

	c, rec := jsonRequest(e, http.MethodPost, "/api/users/register",
		`{"username":"sam","password":"pw","userType":"Seller"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "role") {
		t.Fatalf("expected message naming role, got %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_RoleKey(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, username, _ string, profile domain.Profile) (*domain.User, error) {
			if profile.Role() != domain.RoleManufacturer {
				t.Fatalf("expected manufacturer profile, got %T", profile)
			}
			return &domain.User{Username: username, Role: profile.Role()}, nil
		},
	}
	h := NewAuthHandler(stub, passResolver{}, time.Hour, false)

	c, rec := jsonRequest(e, http.MethodPost, "/api/users/register",
		`{"username":"alice","password":"secret","role":"Manufacturer","phone":"555","address":"a","companyName":"Acme"}`)
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
	if resp["username"] != "alice" || resp["role"] != "Manufacturer" {
		t.Fatalf("expected top-level username and role, got %+v", resp)
	}
}

func TestAuthHandler_Register_MissingRole(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, passResolver{}, time.Hour, false)

	c, rec := jsonRequest(e, http.MethodPost, "/api/users/register",
		`{"username":"sam","password":"pw"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_ServiceError(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, string, string, domain.Profile) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewAuthHandler(stub, passResolver{}, time.Hour, false)

	c, _ := jsonRequest(e, http.MethodPost, "/api/users/register",
		`{"username":"carol","password":"pw","userType":"Customer","phone":"1","address":"a","fullName":"C"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Login_SetsSessionCookie(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, username, password string, role domain.Role) (string, *domain.User, error) {
			if username != "bob" || password != "pw" || role != domain.RoleSeller {
				t.Fatalf("unexpected args: %s %s %s", username, password, role)
			}
			return "tok-123", &domain.User{Username: username, Role: role}, nil
		},
	}
	h := NewAuthHandler(stub, passResolver{}, time.Hour, false)

	c, rec := jsonRequest(e, http.MethodPost, "/api/users/login",
		`{"username":"bob","password":"pw","userType":"Seller"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.SessionCookie || cookies[0].Value != "tok-123" {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "tok-123" {
		t.Fatalf("expected token in body, got %+v", resp)
	}
}

func TestAuthHandler_Login_RoleKey(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, username, _ string, role domain.Role) (string, *domain.User, error) {
			if role != domain.RoleSeller {
				t.Fatalf("expected Seller, got %s", role)
			}
			return "tok-9", &domain.User{Username: username, Role: role}, nil
		},
	}
	h := NewAuthHandler(stub, passResolver{}, time.Hour, false)

	c, rec := jsonRequest(e, http.MethodPost, "/api/users/login",
		`{"username":"bob","password":"pw","role":"Seller"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "bob" || resp["role"] != "Seller" || resp["token"] != "tok-9" {
		t.Fatalf("unexpected login payload: %+v", resp)
	}
}

func TestAuthHandler_Login_RoleKeyWinsOverUserType(t *testing.T) {
	e := newTestEcho()
	var got domain.Role
	stub := &stubAuthService{
		loginFn: func(_ context.Context, username, _ string, role domain.Role) (string, *domain.User, error) {
			got = role
			return "tok", &domain.User{Username: username, Role: role}, nil
		},
	}
	h := NewAuthHandler(stub, passResolver{}, time.Hour, false)

	c, _ := jsonRequest(e, http.MethodPost, "/api/users/login",
		`{"username":"bob","password":"pw","role":"Customer","userType":"Seller"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != domain.RoleCustomer {
		t.Fatalf("expected Customer, got %s", got)
	}
}

func TestAuthHandler_Login_UnknownRole(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, passResolver{}, time.Hour, false)

	c, _ := jsonRequest(e, http.MethodPost, "/api/users/login",
		`{"username":"bob","password":"pw","userType":"Admin"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string, domain.Role) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, passResolver{}, time.Hour, false)

	c, rec := jsonRequest(e, http.MethodPost, "/api/users/login",
		`{"username":"bob","password":"bad","userType":"Seller"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("no cookie expected on failed login")
	}
}

func TestAuthHandler_AddSeller_UsesCaller(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		addSellerFn: func(_ context.Context, caller domain.Caller, username, _ string, p domain.SellerProfile) (*domain.User, error) {
			if caller.Username != "alice" || caller.Role != domain.RoleManufacturer {
				t.Fatalf("unexpected caller: %+v", caller)
			}
			if username != "bob" || p.Brand != "B" {
				t.Fatalf("unexpected seller: %s %+v", username, p)
			}
			return &domain.User{Username: username, Role: domain.RoleSeller}, nil
		},
	}
	h := NewAuthHandler(stub, passResolver{}, time.Hour, false)

	c, rec := jsonRequest(e, http.MethodPost, "/api/users/add-seller",
		`{"username":"bob","password":"pw","phone":"1","address":"a","companyName":"Shop","manager":"M","brand":"B"}`)
	c.Set("username", "alice")
	c.Set("role", "Manufacturer")

	if err := h.AddSeller(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestAuthHandler_AddSeller_MissingClaims(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, passResolver{}, time.Hour, false)

	c, _ := jsonRequest(e, http.MethodPost, "/api/users/add-seller", `{}`)
	err := h.AddSeller(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

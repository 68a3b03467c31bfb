package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/supplytrace/provenance/internal/core/domain"
)

func manufacturerProfile() domain.ManufacturerProfile {
	return domain.ManufacturerProfile{
		Contact:       domain.Contact{Phone: "555-0100", Address: "1 Factory Rd"},
		CompanyName:   "Acme",
		LicenseNumber: "LIC-1",
		Manager:       "Ann",
		Brand:         "AcmeCo",
	}
}

func sellerProfile() domain.SellerProfile {
	return domain.SellerProfile{
		Contact:     domain.Contact{Phone: "555-0200", Address: "2 Market St"},
		CompanyName: "Shop",
		Manager:     "Sam",
		Brand:       "ShopCo",
	}
}

func customerProfile() domain.CustomerProfile {
	return domain.CustomerProfile{
		Contact:  domain.Contact{Phone: "555-0300", Address: "3 Home Ln"},
		FullName: "Carol C",
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubIdentityStore()
	svc := NewAuthService(repo, "secret", time.Hour)

	user, err := svc.Register(context.Background(), "alice", "pass123", manufacturerProfile())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user == nil {
		t.Fatalf("expected user, got nil")
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleManufacturer {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if user.Phone != "555-0100" || user.Address != "1 Factory Rd" {
		t.Fatalf("contact not stored: %+v", user)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(user.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if meta["licenseNumber"] != "LIC-1" || meta["brand"] != "AcmeCo" {
		t.Fatalf("unexpected metadata: %v", meta)
	}
}

func TestAuthService_Register_Customer(t *testing.T) {
	svc := NewAuthService(newStubIdentityStore(), "secret", time.Hour)

	user, err := svc.Register(context.Background(), "carol", "pw", customerProfile())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != domain.RoleCustomer {
		t.Fatalf("unexpected role: %s", user.Role)
	}
}

func TestAuthService_Register_SellerNotSelfService(t *testing.T) {
	svc := NewAuthService(newStubIdentityStore(), "secret", time.Hour)

	_, err := svc.Register(context.Background(), "bob", "pw", sellerProfile())
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := NewAuthService(newStubIdentityStore(), "secret", time.Hour)
	ctx := context.Background()

	tests := []struct {
		name      string
		username  string
		password  string
		profile   domain.Profile
		wantField string
	}{
		{"no username", "", "pw", customerProfile(), "username"},
		{"no password", "carol", "", customerProfile(), "password"},
		{"no profile", "carol", "pw", nil, "role"},
		{"no phone", "carol", "pw", func() domain.Profile { p := customerProfile(); p.Phone = ""; return p }(), "phone"},
		{"no full name", "carol", "pw", func() domain.Profile { p := customerProfile(); p.FullName = ""; return p }(), "fullName"},
		{"no license", "alice", "pw", func() domain.Profile { p := manufacturerProfile(); p.LicenseNumber = ""; return p }(), "licenseNumber"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.password, tt.profile)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, ve.Field)
			}
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := NewAuthService(newStubIdentityStore(), "secret", time.Hour)

	_, _ = svc.Register(context.Background(), "bob", "pass", customerProfile())
	if _, err := svc.Register(context.Background(), "bob", "pass2", manufacturerProfile()); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_AddSeller(t *testing.T) {
	repo := newStubIdentityStore()
	svc := NewAuthService(repo, "secret", time.Hour)
	caller := domain.Caller{Username: "alice", Role: domain.RoleManufacturer}

	user, err := svc.AddSeller(context.Background(), caller, "bob", "pw", sellerProfile())
	if err != nil {
		t.Fatalf("AddSeller returned error: %v", err)
	}
	if user.Role != domain.RoleSeller {
		t.Fatalf("unexpected role: %s", user.Role)
	}

	var meta map[string]string
	_ = json.Unmarshal([]byte(user.Metadata), &meta)
	if meta["manufacturer"] != "alice" {
		t.Fatalf("expected onboarding manufacturer in metadata, got %v", meta)
	}
}

func TestAuthService_AddSeller_RequiresManufacturer(t *testing.T) {
	svc := NewAuthService(newStubIdentityStore(), "secret", time.Hour)

	for _, role := range []domain.Role{domain.RoleSeller, domain.RoleCustomer} {
		caller := domain.Caller{Username: "x", Role: role}
		if _, err := svc.AddSeller(context.Background(), caller, "bob", "pw", sellerProfile()); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s: expected ErrForbidden, got %v", role, err)
		}
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := NewAuthService(newStubIdentityStore(), "secret", time.Hour)

	if _, err := svc.Register(context.Background(), "carol", "s3cret", customerProfile()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "carol", "s3cret", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user == nil || user.Username != "carol" {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["username"] != "carol" || claims["role"] != "Customer" {
		t.Fatalf("unexpected claims: %v", claims)
	}
}

func TestAuthService_Login_WrongRole(t *testing.T) {
	svc := NewAuthService(newStubIdentityStore(), "secret", time.Hour)
	_, _ = svc.Register(context.Background(), "carol", "s3cret", customerProfile())

	if _, _, err := svc.Login(context.Background(), "carol", "s3cret", domain.RoleManufacturer); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc := NewAuthService(newStubIdentityStore(), "secret", time.Hour)
	_, _ = svc.Register(context.Background(), "dave", "correct", customerProfile())

	if _, _, err := svc.Login(context.Background(), "dave", "wrong", domain.RoleCustomer); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	svc := NewAuthService(newStubIdentityStore(), "secret", time.Hour)

	if _, _, err := svc.Login(context.Background(), "ghost", "pass", domain.RoleCustomer); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_StoreDown(t *testing.T) {
	repo := newStubIdentityStore()
	repo.findErr = domain.ErrIdentityUnavailable
	svc := NewAuthService(repo, "secret", time.Hour)

	if _, _, err := svc.Login(context.Background(), "carol", "pw", domain.RoleCustomer); !errors.Is(err, domain.ErrIdentityUnavailable) {
		t.Fatalf("expected ErrIdentityUnavailable, got %v", err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/supplytrace/provenance/internal/core/domain"
	"github.com/supplytrace/provenance/internal/core/ports"
)

// AuthService implements account registration, seller onboarding and login.
type AuthService struct {
	store     ports.IdentityStore
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(store ports.IdentityStore, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{store: store, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Register self-registers a Manufacturer or Customer. Sellers are onboarded
// through AddSeller.
func (s *AuthService) Register(ctx context.Context, username, password string, profile domain.Profile) (*domain.User, error) {
	if profile == nil {
		return nil, &domain.ValidationError{Field: "role"}
	}
	if profile.Role() == domain.RoleSeller {
		return nil, &domain.DenyError{Reason: "sellers are onboarded by a manufacturer"}
	}
	return s.create(ctx, username, password, profile)
}

// AddSeller onboards a Seller. Only a Manufacturer may call it.
func (s *AuthService) AddSeller(ctx context.Context, caller domain.Caller, username, password string, profile domain.SellerProfile) (*domain.User, error) {
	if caller.Role != domain.RoleManufacturer {
		return nil, &domain.DenyError{Reason: "only manufacturers can add sellers"}
	}
	profile.OnboardedBy = caller.Username
	return s.create(ctx, username, password, profile)
}

func (s *AuthService) create(ctx context.Context, username, password string, profile domain.Profile) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &domain.ValidationError{Field: "username"}
	}
	if password == "" {
		return nil, &domain.ValidationError{Field: "password"}
	}
	if err := domain.Validate(profile); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	metadata, err := domain.EncodeMetadata(profile)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	contact := profile.ContactInfo()
	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         profile.Role(),
		Phone:        contact.Phone,
		Address:      contact.Address,
		Metadata:     metadata,
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Login checks the password of username under role and issues a session token.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string, role domain.Role) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.store.FindUser(ctx, username, role)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// TokenTTL is how long issued tokens stay valid.
func (s *AuthService) TokenTTL() time.Duration { return s.tokenTTL }

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

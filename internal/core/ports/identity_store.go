package ports

import (
	"context"

	"github.com/supplytrace/provenance/internal/core/domain"
)

// IdentityStore is the relational registry of onboarded users.
//
// FindUser returns domain.ErrUserNotFound when no user has that username
// and role. Connectivity failures are returned wrapped in
// domain.ErrIdentityUnavailable so they are never mistaken for "not found".
type IdentityStore interface {
	FindUser(ctx context.Context, username string, role domain.Role) (*domain.User, error)
	// CreateUser returns domain.ErrUserExists on a username collision.
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	Ping(ctx context.Context) error
}

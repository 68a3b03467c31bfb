package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/supplytrace/provenance/internal/core/domain"
	"github.com/supplytrace/provenance/internal/core/ports"
)

// IdentityGateway is the core's read-only view of the Identity Store. It
// answers one question: does a user with this username exist under this role.
type IdentityGateway struct {
	store ports.IdentityStore
}

func NewIdentityGateway(store ports.IdentityStore) *IdentityGateway {
	return &IdentityGateway{store: store}
}

// ResolveCaller turns session claims into a Caller. A missing username or an
// unknown role is ErrUnauthorized.
func (g *IdentityGateway) ResolveCaller(s ports.Session) (domain.Caller, error) {
	username := strings.TrimSpace(s.Username)
	if username == "" {
		return domain.Caller{}, fmt.Errorf("resolve caller: %w", domain.ErrUnauthorized)
	}
	role, err := domain.ParseRole(s.Role)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("resolve caller: %w", domain.ErrUnauthorized)
	}
	return domain.Caller{Username: username, Role: role}, nil
}

// Lookup returns domain.ErrUserNotFound when no such user exists. Any other
// store failure is reported as domain.ErrIdentityUnavailable.
func (g *IdentityGateway) Lookup(ctx context.Context, username string, role domain.Role) (*domain.User, error) {
	u, err := g.store.FindUser(ctx, username, role)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrIdentityUnavailable):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", domain.ErrIdentityUnavailable, err)
	}
}

// Exists is Lookup reduced to a predicate.
func (g *IdentityGateway) Exists(ctx context.Context, username string, role domain.Role) (bool, error) {
	_, err := g.Lookup(ctx, username, role)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/supplytrace/provenance/internal/core/domain"
	"github.com/supplytrace/provenance/internal/core/ports"
)

func TestIdentityGateway_ResolveCaller(t *testing.T) {
	g := NewIdentityGateway(newStubIdentityStore())

	tests := []struct {
		name    string
		session ports.Session
		want    domain.Caller
		wantErr bool
	}{
		{"manufacturer", ports.Session{Username: "alice", Role: "Manufacturer"}, domain.Caller{Username: "alice", Role: domain.RoleManufacturer}, false},
		{"trims username", ports.Session{Username: " bob ", Role: "Seller"}, domain.Caller{Username: "bob", Role: domain.RoleSeller}, false},
		{"empty username", ports.Session{Role: "Seller"}, domain.Caller{}, true},
		{"unknown role", ports.Session{Username: "eve", Role: "admin"}, domain.Caller{}, true},
		{"lowercase role", ports.Session{Username: "eve", Role: "seller"}, domain.Caller{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.ResolveCaller(tt.session)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrUnauthorized) {
					t.Fatalf("expected ErrUnauthorized, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIdentityGateway_Lookup(t *testing.T) {
	store := newStubIdentityStore(user("alice", domain.RoleManufacturer))
	g := NewIdentityGateway(store)
	ctx := context.Background()

	if u, err := g.Lookup(ctx, "alice", domain.RoleManufacturer); err != nil || u.Username != "alice" {
		t.Fatalf("expected alice, got %+v, %v", u, err)
	}
	if _, err := g.Lookup(ctx, "alice", domain.RoleSeller); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for wrong role, got %v", err)
	}

	store.findErr = errors.New("dial tcp: connection refused")
	_, err := g.Lookup(ctx, "alice", domain.RoleManufacturer)
	if !errors.Is(err, domain.ErrIdentityUnavailable) {
		t.Fatalf("expected ErrIdentityUnavailable, got %v", err)
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		t.Fatal("connectivity failure must never read as not found")
	}
}

func TestIdentityGateway_Exists(t *testing.T) {
	store := newStubIdentityStore(user("bob", domain.RoleSeller))
	g := NewIdentityGateway(store)
	ctx := context.Background()

	ok, err := g.Exists(ctx, "bob", domain.RoleSeller)
	if err != nil || !ok {
		t.Fatalf("expected bob to exist, got %v, %v", ok, err)
	}
	ok, err = g.Exists(ctx, "ghost", domain.RoleSeller)
	if err != nil || ok {
		t.Fatalf("expected ghost to be absent, got %v, %v", ok, err)
	}

	store.findErr = domain.ErrIdentityUnavailable
	if _, err := g.Exists(ctx, "bob", domain.RoleSeller); !errors.Is(err, domain.ErrIdentityUnavailable) {
		t.Fatalf("expected ErrIdentityUnavailable, got %v", err)
	}
}

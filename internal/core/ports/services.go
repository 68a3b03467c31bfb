package ports

import (
	"context"

	"github.com/supplytrace/provenance/internal/core/domain"
)

// Session is what the session token asserts about the caller, before it is
// checked against the known roles.
type Session struct {
	Username string
	Role     string
}

// TransferInput carries a custody transfer request.
type TransferInput struct {
	ProductID  string
	ToUsername string
	ToRole     domain.Role
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	ProductID    string
	TxHash       string
	ArtifactPath string
}

// TransferResult is returned by a successful transfer.
type TransferResult struct {
	ProductID string
	TxHash    string
	From      string
	To        string
}

// ProvenanceService runs the Register, Transfer and Verify flows.
type ProvenanceService interface {
	Register(ctx context.Context, caller domain.Caller, attrs domain.ProductAttributes) (*RegisterResult, error)
	Transfer(ctx context.Context, caller domain.Caller, in TransferInput) (*TransferResult, error)
	Verify(ctx context.Context, productID string) (*domain.Verification, error)
	Artifact(ctx context.Context, productID string) (ArtifactHandle, error)
	History(ctx context.Context, productID string) ([]ProvenanceEvent, error)
}

// AuthService registers accounts and issues session tokens.
type AuthService interface {
	// Register self-registers a Manufacturer or Customer.
	Register(ctx context.Context, username, password string, profile domain.Profile) (*domain.User, error)
	// AddSeller onboards a Seller on behalf of the calling Manufacturer.
	AddSeller(ctx context.Context, caller domain.Caller, username, password string, profile domain.SellerProfile) (*domain.User, error)
	Login(ctx context.Context, username, password string, role domain.Role) (string, *domain.User, error)
}

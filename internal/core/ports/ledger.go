package ports

import (
	"context"

	"github.com/supplytrace/provenance/internal/core/domain"
)

// Ledger is the product contract surface. Register and Transfer block until
// the transaction is confirmed. Errors are *domain.RevertError for contract
// rejections, *domain.PendingTxError when the confirmation wait expired, or
// wrap domain.ErrNetworkUnavailable / domain.ErrSubmissionRejected.
type Ledger interface {
	Register(ctx context.Context, p domain.EncryptedProduct) (domain.TxReceipt, error)
	Transfer(ctx context.Context, productID, fromLabel, toLabel string) (domain.TxReceipt, error)
	// Verify returns domain.ErrProductNotFound for unknown products.
	Verify(ctx context.Context, productID string) (domain.Ownership, error)
}

// FieldCipher encrypts sensitive attributes before they leave the process.
type FieldCipher interface {
	Encrypt(plaintext string) (domain.EncryptedField, error)
	Decrypt(field domain.EncryptedField) (string, error)
}

// ArtifactGenerator renders the scannable proof-of-identity image for a
// product. Generate is idempotent and overwrites any prior artifact.
type ArtifactGenerator interface {
	Generate(ctx context.Context, productID string) (ArtifactHandle, error)
	Path(productID string) string
	Exists(productID string) bool
}

// ArtifactHandle locates a generated artifact.
type ArtifactHandle struct {
	ProductID string
	Path      string
}

// ArtifactRetrier queues a later attempt at generating an artifact.
type ArtifactRetrier interface {
	Enqueue(productID string)
}

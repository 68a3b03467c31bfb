package ports

import (
	"context"
	"time"
)

// TxJournal remembers transactions whose confirmation was not observed, so a
// flow never blindly resubmits a write that may already be on the ledger.
type TxJournal interface {
	// Pending returns the hash of an unconfirmed transaction for the
	// operation and product, or "" when none is recorded.
	Pending(ctx context.Context, op, productID string) (string, error)
	MarkPending(ctx context.Context, op, productID, txHash string) error
	Clear(ctx context.Context, op, productID string) error
}

// EventKind labels an audit entry.
type EventKind string

const (
	EventRegistered  EventKind = "registered"
	EventTransferred EventKind = "transferred"
)

// ProvenanceEvent is an off-chain audit entry mirroring a confirmed ledger write.
type ProvenanceEvent struct {
	ID         string
	ProductID  string
	Kind       EventKind
	Actor      string
	Target     string
	TxHash     string
	RecordedAt time.Time
}

// AuditLog appends provenance events.
type AuditLog interface {
	Record(ctx context.Context, event ProvenanceEvent) error
	ListByProduct(ctx context.Context, productID string) ([]ProvenanceEvent, error)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/supplytrace/provenance/internal/core/domain"
	"github.com/supplytrace/provenance/internal/core/ports"
	"github.com/supplytrace/provenance/internal/pkg/metrics"
)

const (
	opRegister = "register"
	opTransfer = "transfer"

	journalWriteTimeout = 5 * time.Second

	msgProductNotFound      = "Product not found"
	msgManufacturerUnknown  = "Manufacturer not registered"
	msgVerifiedSuccessfully = "Product verified"
)

// ProvenanceOption attaches an optional collaborator.
type ProvenanceOption func(*provenanceService)

// WithJournal records unconfirmed transactions so they are never resubmitted blindly.
func WithJournal(j ports.TxJournal) ProvenanceOption {
	return func(s *provenanceService) { s.journal = j }
}

// WithAudit mirrors confirmed ledger writes into an off-chain audit log.
func WithAudit(a ports.AuditLog) ProvenanceOption {
	return func(s *provenanceService) { s.audit = a }
}

// WithArtifactRetry queues artifacts that failed to render after a successful registration.
func WithArtifactRetry(r ports.ArtifactRetrier) ProvenanceOption {
	return func(s *provenanceService) { s.retrier = r }
}

type provenanceService struct {
	identities *IdentityGateway
	cipher     ports.FieldCipher
	ledger     ports.Ledger
	artifacts  ports.ArtifactGenerator
	journal    ports.TxJournal
	audit      ports.AuditLog
	retrier    ports.ArtifactRetrier
	now        func() time.Time
	log        zerolog.Logger
}

// NewProvenanceService returns the Provenance Coordinator.
func NewProvenanceService(
	identities *IdentityGateway,
	cipher ports.FieldCipher,
	ledger ports.Ledger,
	artifacts ports.ArtifactGenerator,
	log zerolog.Logger,
	opts ...ProvenanceOption,
) ports.ProvenanceService {
	s := &provenanceService{
		identities: identities,
		cipher:     cipher,
		ledger:     ledger,
		artifacts:  artifacts,
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register records a new product on the ledger on behalf of a Manufacturer.
func (s *provenanceService) Register(ctx context.Context, caller domain.Caller, attrs domain.ProductAttributes) (res *ports.RegisterResult, err error) {
	defer func() { observeFlow(opRegister, err) }()

	// 1. Role gate, no I/O.
	if caller.Role != domain.RoleManufacturer {
		return nil, fmt.Errorf("register: %w", domain.ErrUnauthorized)
	}

	// 2. Required fields.
	attrs = domain.TrimAttributes(attrs)
	if err := domain.Validate(attrs); err != nil {
		return nil, err
	}
	log := s.log.With().Str("product_id", attrs.ProductID).Str("caller", caller.Username).Logger()

	// 3. The manufacturer must be onboarded under that role.
	if _, err := s.identities.Lookup(ctx, caller.Username, domain.RoleManufacturer); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("register: manufacturer %q: %w", caller.Username, domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	// 4. A registration whose confirmation was never observed may already be on the ledger.
	if hash := s.pendingTx(ctx, opRegister, attrs.ProductID); hash != "" {
		return nil, fmt.Errorf("register %s: %w (tx %s)", attrs.ProductID, domain.ErrTransactionPending, hash)
	}

	// 5. Encrypt every sensitive field independently.
	enc, err := s.encrypt(attrs, caller)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	// 6. Submit and wait for confirmation.
	rcpt, err := s.ledger.Register(ctx, enc)
	if err != nil {
		return nil, s.ledgerFailure(ctx, log, opRegister, attrs.ProductID, err)
	}
	log.Info().Str("tx_hash", rcpt.TxHash).Uint64("block", rcpt.BlockNumber).Msg("product registered")

	s.clearPending(ctx, opRegister, attrs.ProductID)
	s.record(ctx, ports.ProvenanceEvent{
		ProductID: attrs.ProductID,
		Kind:      ports.EventRegistered,
		Actor:     enc.CurrentOwner,
		TxHash:    rcpt.TxHash,
	})

	res = &ports.RegisterResult{ProductID: attrs.ProductID, TxHash: rcpt.TxHash}

	// 7. The ledger write is final; an artifact failure is logged and retried later.
	h, err := s.artifacts.Generate(ctx, attrs.ProductID)
	if err != nil {
		log.Error().Err(err).Msg("artifact generation failed after registration")
		if s.retrier != nil {
			s.retrier.Enqueue(attrs.ProductID)
		}
		return res, nil
	}
	res.ArtifactPath = h.Path
	return res, nil
}

// Transfer hands custody of a product to another onboarded identity.
func (s *provenanceService) Transfer(ctx context.Context, caller domain.Caller, in ports.TransferInput) (res *ports.TransferResult, err error) {
	defer func() { observeFlow(opTransfer, err) }()

	if err := domain.AuthorizeTransfer(caller.Role, in.ToRole); err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}

	in.ProductID = strings.TrimSpace(in.ProductID)
	in.ToUsername = strings.TrimSpace(in.ToUsername)
	if in.ProductID == "" {
		return nil, &domain.ValidationError{Field: "productId"}
	}
	if in.ToUsername == "" {
		return nil, &domain.ValidationError{Field: "toUsername"}
	}
	log := s.log.With().Str("product_id", in.ProductID).Str("caller", caller.Username).Logger()

	// The target must exist under the claimed role before anything irreversible happens.
	if _, err := s.identities.Lookup(ctx, in.ToUsername, in.ToRole); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("transfer to %s: %w", domain.Label(in.ToUsername, in.ToRole), domain.ErrIdentityNotFound)
		}
		return nil, fmt.Errorf("transfer: %w", err)
	}

	// A transfer whose confirmation was never observed may already be on the ledger.
	if hash := s.pendingTx(ctx, opTransfer, in.ProductID); hash != "" {
		return nil, fmt.Errorf("transfer %s: %w (tx %s)", in.ProductID, domain.ErrTransactionPending, hash)
	}

	from := caller.Label()
	to := domain.Label(in.ToUsername, in.ToRole)

	rcpt, err := s.ledger.Transfer(ctx, in.ProductID, from, to)
	if err != nil {
		return nil, s.ledgerFailure(ctx, log, opTransfer, in.ProductID, err)
	}
	log.Info().Str("tx_hash", rcpt.TxHash).Str("to", to).Msg("product transferred")

	s.clearPending(ctx, opTransfer, in.ProductID)

	s.record(ctx, ports.ProvenanceEvent{
		ProductID: in.ProductID,
		Kind:      ports.EventTransferred,
		Actor:     from,
		Target:    to,
		TxHash:    rcpt.TxHash,
	})

	return &ports.TransferResult{ProductID: in.ProductID, TxHash: rcpt.TxHash, From: from, To: to}, nil
}

// Verify checks a product's on-ledger record against the Identity Store.
// Unknown products and unknown manufacturers are negative results, not errors.
func (s *provenanceService) Verify(ctx context.Context, productID string) (v *domain.Verification, err error) {
	defer func() {
		outcome := "ok"
		if err == nil && !v.Valid {
			outcome = "invalid"
		}
		if err != nil {
			outcome = outcomeOf(err)
		}
		metrics.FlowsTotal.WithLabelValues("verify", outcome).Inc()
	}()

	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, &domain.ValidationError{Field: "productId"}
	}

	own, err := s.ledger.Verify(ctx, productID)
	if errors.Is(err, domain.ErrProductNotFound) {
		return &domain.Verification{Valid: false, ProductID: productID, Message: msgProductNotFound}, nil
	}
	if err != nil {
		s.log.Error().Err(err).Str("product_id", productID).Msg("ledger verify failed")
		return nil, fmt.Errorf("verify %s: %w: %w", productID, domain.ErrLedger, err)
	}

	known, err := s.identities.Exists(ctx, own.Manufacturer, domain.RoleManufacturer)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", productID, err)
	}
	if !known {
		s.log.Warn().Str("product_id", productID).Str("manufacturer", own.Manufacturer).Msg("ledger names an unknown manufacturer")
		return &domain.Verification{
			Valid:        false,
			ProductID:    productID,
			Manufacturer: own.Manufacturer,
			CurrentOwner: own.CurrentOwner,
			Message:      msgManufacturerUnknown,
		}, nil
	}

	return &domain.Verification{
		Valid:        true,
		ProductID:    productID,
		Manufacturer: own.Manufacturer,
		CurrentOwner: own.CurrentOwner,
		Message:      msgVerifiedSuccessfully,
	}, nil
}

// Artifact returns the image for a registered product, rendering it if absent.
func (s *provenanceService) Artifact(ctx context.Context, productID string) (ports.ArtifactHandle, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ports.ArtifactHandle{}, &domain.ValidationError{Field: "productId"}
	}
	if s.artifacts.Exists(productID) {
		return ports.ArtifactHandle{ProductID: productID, Path: s.artifacts.Path(productID)}, nil
	}

	if _, err := s.ledger.Verify(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return ports.ArtifactHandle{}, err
		}
		return ports.ArtifactHandle{}, fmt.Errorf("artifact %s: %w: %w", productID, domain.ErrLedger, err)
	}
	return s.artifacts.Generate(ctx, productID)
}

// History lists the audit trail of a product, oldest first. It is empty when
// no audit log is configured.
func (s *provenanceService) History(ctx context.Context, productID string) ([]ports.ProvenanceEvent, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, &domain.ValidationError{Field: "productId"}
	}
	if s.audit == nil {
		return []ports.ProvenanceEvent{}, nil
	}
	events, err := s.audit.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", productID, err)
	}
	return events, nil
}

func (s *provenanceService) encrypt(a domain.ProductAttributes, caller domain.Caller) (domain.EncryptedProduct, error) {
	out := domain.EncryptedProduct{
		ProductID:    a.ProductID,
		Manufacturer: caller.Username,
		CurrentOwner: domain.Label(caller.Username, domain.RoleManufacturer),
	}
	fields := []struct {
		name  string
		plain string
		dst   *domain.EncryptedField
	}{
		{"name", a.Name, &out.Name},
		{"batchNumber", a.BatchNumber, &out.BatchNumber},
		{"manufacturingDate", a.ManufacturingDate, &out.ManufacturingDate},
		{"description", a.Description, &out.Description},
		{"price", a.Price, &out.Price},
	}
	for _, f := range fields {
		ct, err := s.cipher.Encrypt(f.plain)
		if err != nil {
			return domain.EncryptedProduct{}, fmt.Errorf("encrypt %s: %w", f.name, err)
		}
		*f.dst = ct
	}
	return out, nil
}

// ledgerFailure translates a ledger error into the flow's error taxonomy.
func (s *provenanceService) ledgerFailure(ctx context.Context, log zerolog.Logger, op, productID string, err error) error {
	var (
		revert  *domain.RevertError
		pending *domain.PendingTxError
	)
	switch {
	case errors.As(err, &revert) && revert.Duplicate() && op == opRegister:
		log.Info().Str("reason", revert.Reason).Msg("duplicate registration rejected by ledger")
		return fmt.Errorf("%s %s: %w", op, productID, domain.ErrConflict)
	case errors.As(err, &revert) && revert.NotFound():
		return fmt.Errorf("%s %s: %w", op, productID, domain.ErrProductNotFound)
	case errors.Is(err, domain.ErrProductNotFound):
		return fmt.Errorf("%s %s: %w", op, productID, err)
	case errors.As(err, &pending):
		log.Error().Err(err).Str("tx_hash", pending.TxHash).Msg("ledger confirmation timed out")
		if s.journal != nil {
			jctx, cancel := journalContext(ctx)
			defer cancel()
			if jerr := s.journal.MarkPending(jctx, op, productID, pending.TxHash); jerr != nil {
				log.Warn().Err(jerr).Msg("failed to journal pending transaction")
			}
		}
	default:
		log.Error().Err(err).Msg("ledger submission failed")
	}
	return fmt.Errorf("%s %s: %w: %w", op, productID, domain.ErrLedger, err)
}

// journalContext detaches journal writes from the request: a confirmation
// wait that failed because the client went away must still be recorded.
func journalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), journalWriteTimeout)
}

func (s *provenanceService) pendingTx(ctx context.Context, op, productID string) string {
	if s.journal == nil {
		return ""
	}
	hash, err := s.journal.Pending(ctx, op, productID)
	if err != nil {
		s.log.Warn().Err(err).Str("product_id", productID).Msg("journal lookup failed, continuing")
		return ""
	}
	return hash
}

func (s *provenanceService) clearPending(ctx context.Context, op, productID string) {
	if s.journal == nil {
		return
	}
	jctx, cancel := journalContext(ctx)
	defer cancel()
	if err := s.journal.Clear(jctx, op, productID); err != nil {
		s.log.Warn().Err(err).Str("product_id", productID).Msg("failed to clear journal entry")
	}
}

// record appends to the audit log. Failures are non-fatal: the ledger is authoritative.
func (s *provenanceService) record(ctx context.Context, e ports.ProvenanceEvent) {
	if s.audit == nil {
		return
	}
	e.RecordedAt = s.now().UTC()
	if err := s.audit.Record(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("product_id", e.ProductID).Str("tx_hash", e.TxHash).Msg("failed to record provenance event")
	}
}

func observeFlow(flow string, err error) {
	metrics.FlowsTotal.WithLabelValues(flow, outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrTransactionPending):
		return "pending"
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrIdentityNotFound):
		return "not_found"
	default:
		return "error"
	}
}

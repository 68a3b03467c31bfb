package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/supplytrace/provenance/internal/core/domain"
	"github.com/supplytrace/provenance/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Identity store
// ---------------------------------------------------------------------------

type stubIdentityStore struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	findErr error
	finds   int
}

func newStubIdentityStore(users ...*domain.User) *stubIdentityStore {
	s := &stubIdentityStore{users: make(map[string]*domain.User)}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

func (s *stubIdentityStore) FindUser(_ context.Context, username string, role domain.Role) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if s.findErr != nil {
		return nil, s.findErr
	}
	u, ok := s.users[username]
	if !ok || u.Role != role {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *stubIdentityStore) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	clone := *user
	if clone.ID == "" {
		clone.ID = fmt.Sprintf("%d", len(s.users)+1)
	}
	s.users[clone.Username] = &clone
	out := clone
	return &out, nil
}

func (s *stubIdentityStore) Ping(context.Context) error { return s.findErr }

func user(name string, role domain.Role) *domain.User {
	return &domain.User{ID: name, Username: name, Role: role}
}

// ---------------------------------------------------------------------------
// Ledger: an in-memory registry that rejects duplicates the way the contract does.
// ---------------------------------------------------------------------------

type stubLedger struct {
	mu          sync.Mutex
	products    map[string]domain.EncryptedProduct
	registers   int
	transfers   int
	verifies    int
	registerErr error
	transferErr error
	verifyErr   error
	lastFrom    string
	lastTo      string
	// onRegister runs inside Register, before the result is returned.
	onRegister  func()
}

func newStubLedger() *stubLedger {
	return &stubLedger{products: make(map[string]domain.EncryptedProduct)}
}

func (l *stubLedger) Register(_ context.Context, p domain.EncryptedProduct) (domain.TxReceipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registers++
	if l.onRegister != nil {
		l.onRegister()
	}
	if l.registerErr != nil {
		return domain.TxReceipt{}, l.registerErr
	}
	if _, exists := l.products[p.ProductID]; exists {
		return domain.TxReceipt{}, &domain.RevertError{Method: "registerProduct", Reason: "Product already registered"}
	}
	l.products[p.ProductID] = p
	return domain.TxReceipt{TxHash: fmt.Sprintf("0xreg%d", l.registers), BlockNumber: uint64(l.registers)}, nil
}

func (l *stubLedger) Transfer(_ context.Context, productID, from, to string) (domain.TxReceipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transfers++
	l.lastFrom, l.lastTo = from, to
	if l.transferErr != nil {
		return domain.TxReceipt{}, l.transferErr
	}
	p, ok := l.products[productID]
	if !ok {
		return domain.TxReceipt{}, &domain.RevertError{Method: "transferProduct", Reason: "Product not found"}
	}
	p.CurrentOwner = to
	l.products[productID] = p
	return domain.TxReceipt{TxHash: fmt.Sprintf("0xtx%d", l.transfers)}, nil
}

func (l *stubLedger) Verify(_ context.Context, productID string) (domain.Ownership, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verifies++
	if l.verifyErr != nil {
		return domain.Ownership{}, l.verifyErr
	}
	p, ok := l.products[productID]
	if !ok {
		return domain.Ownership{}, domain.ErrProductNotFound
	}
	return domain.Ownership{Manufacturer: p.Manufacturer, CurrentOwner: p.CurrentOwner}, nil
}

func (l *stubLedger) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registers + l.transfers
}

// ---------------------------------------------------------------------------
// Cipher, artifacts, journal, audit, retrier
// ---------------------------------------------------------------------------

type stubCipher struct {
	mu    sync.Mutex
	n     int
	plain []string
	err   error
}

func (c *stubCipher) Encrypt(plaintext string) (domain.EncryptedField, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.n++
	c.plain = append(c.plain, plaintext)
	return domain.EncryptedField(fmt.Sprintf("iv%d:%s", c.n, plaintext)), nil
}

func (c *stubCipher) Decrypt(f domain.EncryptedField) (string, error) {
	_, ct, _ := f.Split()
	return ct, nil
}

type stubArtifacts struct {
	mu        sync.Mutex
	err       error
	generated []string
	existing  map[string]bool
}

func (a *stubArtifacts) Generate(_ context.Context, productID string) (ports.ArtifactHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return ports.ArtifactHandle{}, a.err
	}
	a.generated = append(a.generated, productID)
	return ports.ArtifactHandle{ProductID: productID, Path: a.Path(productID)}, nil
}

func (a *stubArtifacts) Path(productID string) string { return "qr/" + productID + ".png" }

func (a *stubArtifacts) Exists(productID string) bool { return a.existing[productID] }

type stubJournal struct {
	mu      sync.Mutex
	pending map[string]string
	getErr  error
	cleared []string
}

func newStubJournal() *stubJournal { return &stubJournal{pending: make(map[string]string)} }

func (j *stubJournal) Pending(_ context.Context, op, productID string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.getErr != nil {
		return "", j.getErr
	}
	return j.pending[op+":"+productID], nil
}

// MarkPending and Clear fail on a done context, as a network client would.
func (j *stubJournal) MarkPending(ctx context.Context, op, productID, txHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pending[op+":"+productID] = txHash
	return nil
}

func (j *stubJournal) Clear(ctx context.Context, op, productID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.pending, op+":"+productID)
	j.cleared = append(j.cleared, op+":"+productID)
	return nil
}

type stubAudit struct {
	mu        sync.Mutex
	recordErr error
	events    []ports.ProvenanceEvent
}

func (a *stubAudit) Record(_ context.Context, e ports.ProvenanceEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.recordErr != nil {
		return a.recordErr
	}
	a.events = append(a.events, e)
	return nil
}

func (a *stubAudit) ListByProduct(_ context.Context, productID string) ([]ports.ProvenanceEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []ports.ProvenanceEvent
	for _, e := range a.events {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubRetrier struct {
	queued []string
}

func (r *stubRetrier) Enqueue(productID string) { r.queued = append(r.queued, productID) }

package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("product already registered")
	ErrProductNotFound     = errors.New("product not found")
	ErrIdentityNotFound    = errors.New("target identity not found")
	ErrUserExists          = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrLedger              = errors.New("ledger error")
	ErrSubmissionRejected  = errors.New("ledger submission rejected")
	ErrNetworkUnavailable  = errors.New("ledger network unavailable")
	ErrIdentityUnavailable = errors.New("identity store unavailable")
	ErrArtifactWrite       = errors.New("artifact write failed")
	ErrCipherConfig        = errors.New("invalid cipher configuration")
	ErrTransactionPending  = errors.New("transaction pending confirmation")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return "missing field: " + e.Field
	}
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DenyError is a Transfer Authorizer refusal.
type DenyError struct {
	Reason string
}

func (e *DenyError) Error() string { return e.Reason }

func (e *DenyError) Is(target error) bool { return target == ErrForbidden }

// RevertError is a ledger-side rejection carrying the contract's revert reason.
type RevertError struct {
	Method string
	Reason string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("%s reverted: %s", e.Method, e.Reason)
}

func (e *RevertError) Is(target error) bool { return target == ErrSubmissionRejected }

// Duplicate reports whether the contract refused because the record exists.
func (e *RevertError) Duplicate() bool {
	r := strings.ToLower(e.Reason)
	return strings.Contains(r, "already") || strings.Contains(r, "exists")
}

// NotFound reports whether the contract refused because the product is unknown.
func (e *RevertError) NotFound() bool {
	r := strings.ToLower(e.Reason)
	return strings.Contains(r, "not found") || strings.Contains(r, "does not exist")
}

// PendingTxError is returned when a transaction was broadcast but its
// confirmation was not observed in time. The transaction may still be mined.
type PendingTxError struct {
	Method string
	TxHash string
	Err    error
}

func (e *PendingTxError) Error() string {
	return fmt.Sprintf("%s: tx %s not confirmed: %v", e.Method, e.TxHash, e.Err)
}

func (e *PendingTxError) Unwrap() []error { return []error{ErrNetworkUnavailable, e.Err} }

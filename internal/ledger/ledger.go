// Package ledger defines the contract between the settlement engine and the
// ledger that holds escrows and issued balances.
package ledger

import (
	"context"
	"errors"
	"fmt"
)

// Client submits transactions to a ledger and reads balances from it.
// Implementations must be safe for concurrent use.
type Client interface {
	// SubmitEscrowCreate submits a time-locked escrow. Submitting the same
	// escrow twice must not create a second escrow.
	SubmitEscrowCreate(ctx context.Context, escrow EscrowCreate) (Receipt, error)

	// SubmitEscrowFinish releases the escrow created by txHash to its payee
	// and returns the hash of the finish transaction.
	SubmitEscrowFinish(ctx context.Context, txHash string) (string, error)

	// SubmitEscrowCancel returns the escrow created by txHash to its payer.
	SubmitEscrowCancel(ctx context.Context, txHash string) (string, error)

	// QueryBalance returns holder's balance of the issuance.
	QueryBalance(ctx context.Context, holder, issuanceID string) (float64, error)

	// Mint issues amount to holder and returns the transaction hash.
	Mint(ctx context.Context, issuer, holder string, amount float64, issuanceID string) (string, error)

	// Burn removes amount from holder and returns the transaction hash.
	Burn(ctx context.Context, issuer, holder string, amount float64, issuanceID string) (string, error)
}

// Receipt is the ledger's answer to an escrow-create submission.
type Receipt struct {
	TxHash    string
	Confirmed bool
}

// Kind classifies ledger failures.
type Kind string

const (
	KindUnknown           Kind = "unknown"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindPermissionDenied  Kind = "permission_denied"
	KindNotFound          Kind = "not_found"
	KindExpired           Kind = "expired"
	KindUnavailable       Kind = "unavailable"
)

// Error is returned by Client implementations for every failed operation.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// NewError builds an Error for op.
func NewError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ledger %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("ledger %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the same operation may succeed.
func (e *Error) Temporary() bool {
	return e.Kind == KindUnavailable || e.Kind == KindUnknown
}

// AsError converts err to *Error. Errors that did not come from a ledger
// (context cancellation, transport failures) are wrapped as KindUnavailable.
func AsError(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	return NewError(op, KindUnavailable, err)
}

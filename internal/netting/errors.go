package netting

import "errors"

var (
	// ErrInvalidInput is returned for malformed arguments. No state changes.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned for an unknown proposal.
	ErrNotFound = errors.New("not found")

	// ErrNoBalances is returned when a group has no net balances at all.
	ErrNoBalances = errors.New("group has no balances")

	// ErrAlreadySettled is returned when a group has nobody left to pay or
	// nobody left to be paid.
	ErrAlreadySettled = errors.New("group is already settled")

	// ErrNotReady is returned when broadcasting a proposal that is neither
	// ready_to_broadcast nor broadcast.
	ErrNotReady = errors.New("proposal is not ready to broadcast")

	// ErrNotBroadcast is returned when executing escrows of a proposal that
	// was not broadcast.
	ErrNotBroadcast = errors.New("proposal has not been broadcast")

	// ErrProposalClosed is returned when changing a completed or failed
	// proposal.
	ErrProposalClosed = errors.New("proposal is closed")

	// ErrUnauthorizedSigner is returned when a signer is not on the group's
	// signer list.
	ErrUnauthorizedSigner = errors.New("signer is not allowed to sign for this group")

	// ErrNotFailed is returned when canceling escrows of a proposal that has
	// not failed.
	ErrNotFailed = errors.New("proposal has not failed")
)

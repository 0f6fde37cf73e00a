package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/netting"
	"github.com/mmynk/splitledger/internal/storage"
)

// connectError maps an engine, storage or ledger error to a Connect error.
func connectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	return connect.NewError(errorCode(err), err)
}

func errorCode(err error) connect.Code {
	var ledgerErr *ledger.Error
	switch {
	case errors.Is(err, netting.ErrInvalidInput), errors.Is(err, auth.ErrWeakPassword):
		return connect.CodeInvalidArgument
	case errors.Is(err, netting.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, netting.ErrNoBalances),
		errors.Is(err, netting.ErrAlreadySettled),
		errors.Is(err, netting.ErrNotReady),
		errors.Is(err, netting.ErrNotBroadcast),
		errors.Is(err, netting.ErrProposalClosed),
		errors.Is(err, netting.ErrNotFailed):
		return connect.CodeFailedPrecondition
	case errors.Is(err, netting.ErrUnauthorizedSigner):
		return connect.CodePermissionDenied
	case errors.Is(err, auth.ErrEmailExists):
		return connect.CodeAlreadyExists
	case errors.Is(err, storage.ErrVersionConflict):
		return connect.CodeAborted
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.As(err, &ledgerErr):
		return ledgerCode(ledgerErr.Kind)
	}
	return connect.CodeInternal
}

func ledgerCode(kind ledger.Kind) connect.Code {
	switch kind {
	case ledger.KindInsufficientFunds, ledger.KindExpired:
		return connect.CodeFailedPrecondition
	case ledger.KindPermissionDenied:
		return connect.CodePermissionDenied
	case ledger.KindNotFound:
		return connect.CodeNotFound
	}
	return connect.CodeUnavailable
}

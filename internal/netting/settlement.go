package netting

import (
	"context"
	"fmt"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

// BroadcastResult is the outcome of one broadcast pass.
type BroadcastResult struct {
	Proposal *models.SettlementProposal

	// Submitted holds the tx hashes of escrows submitted in this pass.
	Submitted []string
}

// BroadcastSettlement submits every unconfirmed escrow of a proposal to the
// ledger. It may be called again on a broadcast proposal to resubmit escrows
// that are still unconfirmed.
//
// A ledger failure stops the pass. The escrow's attempt count and error are
// recorded, progress made so far is kept and the *ledger.Error is returned.
// An escrow reaching MaxBroadcastAttempts fails the proposal.
func (e *Engine) BroadcastSettlement(ctx context.Context, proposalID string) (*BroadcastResult, error) {
	if proposalID == "" {
		return nil, fmt.Errorf("%w: proposal is required", ErrInvalidInput)
	}

	unlock := e.proposalLocks.Lock(proposalID)
	defer unlock()

	p, err := e.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.StatusReadyToBroadcast && p.Status != models.StatusBroadcast {
		return nil, fmt.Errorf("proposal %s is %s: %w", proposalID, p.Status, ErrNotReady)
	}

	var submitted []string
	var submitErr error
	for i := range p.Escrows {
		esc := &p.Escrows[i]
		if esc.Confirmed {
			continue
		}

		create, err := ledger.DecodeEscrowCreate(esc.Payload)
		if err != nil {
			return nil, fmt.Errorf("proposal %s escrow %d: %w", proposalID, i, err)
		}

		callCtx, cancel := e.ledgerContext(ctx)
		receipt, err := e.ledger.SubmitEscrowCreate(callCtx, create)
		cancel()
		if err != nil {
			esc.Attempts++
			esc.LastError = err.Error()
			submitErr = fmt.Errorf("broadcast proposal %s escrow %d: %w", proposalID, i, ledger.AsError("escrow create", err))
			e.logger.Error("Escrow submission failed",
				"proposal_id", proposalID,
				"payer", esc.Payment.Payer,
				"payee", esc.Payment.Payee,
				"attempts", esc.Attempts,
				"error", err,
			)
			if esc.Attempts >= e.cfg.MaxBroadcastAttempts {
				p.Status = models.StatusFailed
				p.FailureReason = fmt.Sprintf("escrow %s -> %s failed %d times: %v",
					esc.Payment.Payer, esc.Payment.Payee, esc.Attempts, err)
			}
			break
		}

		esc.TxHash = receipt.TxHash
		esc.Confirmed = receipt.Confirmed
		esc.LastError = ""
		submitted = append(submitted, receipt.TxHash)
	}

	before := p.Status
	if p.Status != models.StatusFailed && (submitErr == nil || anySubmitted(p)) {
		p.Status = models.StatusBroadcast
	}

	if err := e.saveProposal(ctx, p); err != nil {
		return nil, err
	}
	if p.Status != before {
		e.metrics.ObserveTransition(string(p.Status))
	}

	e.logger.Info("Settlement broadcast",
		"proposal_id", proposalID,
		"submitted", len(submitted),
		"status", p.Status,
	)
	result := &BroadcastResult{Proposal: p.Clone(), Submitted: submitted}
	if submitErr != nil {
		return result, submitErr
	}
	return result, nil
}

// ExecuteEscrows finishes every submitted escrow of a broadcast proposal and
// returns the finish transaction hashes. The proposal completes once every
// escrow is finished. A ledger failure stops the pass; escrows finished
// before it stay finished.
func (e *Engine) ExecuteEscrows(ctx context.Context, proposalID string) ([]string, error) {
	if proposalID == "" {
		return nil, fmt.Errorf("%w: proposal is required", ErrInvalidInput)
	}

	unlock := e.proposalLocks.Lock(proposalID)
	defer unlock()

	p, err := e.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.StatusBroadcast {
		return nil, fmt.Errorf("proposal %s is %s: %w", proposalID, p.Status, ErrNotBroadcast)
	}

	var hashes []string
	var finishErr error
	for i := range p.Escrows {
		esc := &p.Escrows[i]
		if esc.TxHash == "" || esc.Executed || esc.Canceled {
			continue
		}

		callCtx, cancel := e.ledgerContext(ctx)
		hash, err := e.ledger.SubmitEscrowFinish(callCtx, esc.TxHash)
		cancel()
		if err != nil {
			finishErr = fmt.Errorf("execute proposal %s escrow %d: %w", proposalID, i, ledger.AsError("escrow finish", err))
			e.logger.Error("Escrow finish failed", "proposal_id", proposalID, "tx_hash", esc.TxHash, "error", err)
			break
		}
		esc.Executed = true
		hashes = append(hashes, hash)
	}

	completed := finishErr == nil && p.AllExecuted()
	if completed {
		p.Status = models.StatusCompleted
	}
	if err := e.saveProposal(ctx, p); err != nil {
		return nil, err
	}
	if finishErr != nil {
		return hashes, finishErr
	}

	e.logger.Info("Escrows executed", "proposal_id", proposalID, "executed", len(hashes), "status", p.Status)
	if completed {
		e.metrics.ObserveTransition(string(p.Status))
		if e.cfg.ApplyCompletedSettlements {
			if err := e.applySettlement(ctx, p); err != nil {
				return hashes, err
			}
		}
	}
	return hashes, nil
}

// FailSettlement moves a proposal that is not yet completed or failed to
// failed. callerID must be on the group's signer list when it has one.
func (e *Engine) FailSettlement(ctx context.Context, callerID, proposalID, reason string) (*models.SettlementProposal, error) {
	if callerID == "" || proposalID == "" {
		return nil, fmt.Errorf("%w: caller and proposal are required", ErrInvalidInput)
	}

	unlock := e.proposalLocks.Lock(proposalID)
	defer unlock()

	p, err := e.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if err := e.authorizeSigner(ctx, p.GroupID, callerID); err != nil {
		return nil, err
	}
	if !p.Status.CanAdvanceTo(models.StatusFailed) {
		return nil, fmt.Errorf("proposal %s is %s: %w", proposalID, p.Status, ErrProposalClosed)
	}

	p.Status = models.StatusFailed
	p.FailureReason = reason
	if err := e.saveProposal(ctx, p); err != nil {
		return nil, err
	}

	e.metrics.ObserveTransition(string(p.Status))
	e.logger.Warn("Settlement failed", "proposal_id", proposalID, "caller_id", callerID, "reason", reason)
	return p.Clone(), nil
}

// CancelEscrows returns the funds of every submitted, unfinished escrow of a
// failed proposal to their payers and returns the cancel transaction hashes.
// The ledger only accepts a cancel once the escrow's hold has expired.
// callerID must be on the group's signer list when it has one.
func (e *Engine) CancelEscrows(ctx context.Context, callerID, proposalID string) ([]string, error) {
	if callerID == "" || proposalID == "" {
		return nil, fmt.Errorf("%w: caller and proposal are required", ErrInvalidInput)
	}

	unlock := e.proposalLocks.Lock(proposalID)
	defer unlock()

	p, err := e.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if err := e.authorizeSigner(ctx, p.GroupID, callerID); err != nil {
		return nil, err
	}
	if p.Status != models.StatusFailed {
		return nil, fmt.Errorf("proposal %s is %s: %w", proposalID, p.Status, ErrNotFailed)
	}

	var hashes []string
	var cancelErr error
	for i := range p.Escrows {
		esc := &p.Escrows[i]
		if esc.TxHash == "" || esc.Executed || esc.Canceled {
			continue
		}

		callCtx, cancel := e.ledgerContext(ctx)
		hash, err := e.ledger.SubmitEscrowCancel(callCtx, esc.TxHash)
		cancel()
		if err != nil {
			cancelErr = fmt.Errorf("cancel proposal %s escrow %d: %w", proposalID, i, ledger.AsError("escrow cancel", err))
			e.logger.Error("Escrow cancel failed", "proposal_id", proposalID, "tx_hash", esc.TxHash, "error", err)
			break
		}
		esc.Canceled = true
		hashes = append(hashes, hash)
	}

	if len(hashes) > 0 {
		if err := e.saveProposal(ctx, p); err != nil {
			return nil, err
		}
	}
	if cancelErr != nil {
		return hashes, cancelErr
	}

	e.logger.Info("Escrows canceled", "proposal_id", proposalID, "canceled", len(hashes))
	return hashes, nil
}

// applySettlement records the executed payments in the group's graph: each
// payee now owes the payer what was paid, which cancels the debt the payment
// settled.
func (e *Engine) applySettlement(ctx context.Context, p *models.SettlementProposal) error {
	edges := make([]models.Edge, 0, len(p.Payments))
	for _, pay := range p.Payments {
		edges = append(edges, models.Edge{Debtor: pay.Payee, Creditor: pay.Payer, Amount: pay.Amount})
	}

	unlock := e.groupLocks.Lock(p.GroupID)
	nets, err := e.applyEdges(ctx, p.GroupID, edges)
	unlock()
	if err != nil {
		e.logger.Error("Failed to record settlement in graph", "proposal_id", p.ID, "group_id", p.GroupID, "error", err)
		return fmt.Errorf("record settlement %s: %w", p.ID, err)
	}

	e.logger.Info("Settlement recorded in graph", "proposal_id", p.ID, "group_id", p.GroupID)
	e.triggerAutoSync(p.GroupID, nets)
	return nil
}

func anySubmitted(p *models.SettlementProposal) bool {
	for _, esc := range p.Escrows {
		if esc.TxHash != "" {
			return true
		}
	}
	return false
}

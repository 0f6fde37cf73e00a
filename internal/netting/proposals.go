package netting

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// ProposeSettlement plans the payments that clear the group's nets and
// stores them as a new proposal awaiting signatures. Every payment is backed
// by an escrow that may be canceled once EscrowHold has passed.
func (e *Engine) ProposeSettlement(ctx context.Context, groupID string) (*models.SettlementProposal, error) {
	nets, err := e.GetGroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(nets) == 0 {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNoBalances)
	}

	payments := calculator.PlanPayments(nets)
	if payments == nil {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrAlreadySettled)
	}

	now := e.now()
	cancelAfter := now.Add(e.cfg.EscrowHold).Unix()
	memo := "group:" + groupID

	escrows := make([]models.EscrowInstruction, len(payments))
	for i, p := range payments {
		create, err := ledger.NewEscrowCreate(p.Payer, p.Payee, p.Amount, cancelAfter, memo)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		payload, err := ledger.EncodeEscrowCreate(create)
		if err != nil {
			return nil, fmt.Errorf("encode escrow for %s -> %s: %w", p.Payer, p.Payee, err)
		}
		escrows[i] = models.EscrowInstruction{
			Payment:     p,
			Payload:     payload,
			CancelAfter: cancelAfter,
		}
	}

	proposal := &models.SettlementProposal{
		ID:         e.newID(),
		GroupID:    groupID,
		Payments:   payments,
		Escrows:    escrows,
		Signatures: make(map[string]string),
		Status:     models.StatusPendingSignatures,
		CreatedAt:  now.UnixNano(),
		UpdatedAt:  now.UnixNano(),
	}
	if err := e.store.CreateProposal(ctx, proposal); err != nil {
		return nil, fmt.Errorf("store proposal: %w", err)
	}

	e.metrics.ObserveTransition(string(proposal.Status))
	e.logger.Info("Settlement proposed",
		"proposal_id", proposal.ID,
		"group_id", groupID,
		"payments", len(payments),
	)
	return proposal.Clone(), nil
}

// GetProposal returns a proposal by ID.
func (e *Engine) GetProposal(ctx context.Context, proposalID string) (*models.SettlementProposal, error) {
	if proposalID == "" {
		return nil, fmt.Errorf("%w: proposal is required", ErrInvalidInput)
	}
	return e.loadProposal(ctx, proposalID)
}

// ListProposals returns the group's proposals, newest first.
func (e *Engine) ListProposals(ctx context.Context, groupID string) ([]*models.SettlementProposal, error) {
	if groupID == "" {
		return nil, fmt.Errorf("%w: group is required", ErrInvalidInput)
	}
	proposals, err := e.store.ListProposalsByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list proposals of %s: %w", groupID, err)
	}
	return proposals, nil
}

// AddSignature records signerID's signature on the proposal. Re-signing
// replaces the earlier signature. The proposal becomes ready to broadcast
// when RequiredSignatures distinct signers have signed.
func (e *Engine) AddSignature(ctx context.Context, proposalID, signerID, signature string) (*models.SettlementProposal, error) {
	if proposalID == "" || signerID == "" || signature == "" {
		return nil, fmt.Errorf("%w: proposal, signer and signature are required", ErrInvalidInput)
	}

	unlock := e.proposalLocks.Lock(proposalID)
	defer unlock()

	p, err := e.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		return nil, fmt.Errorf("proposal %s is %s: %w", proposalID, p.Status, ErrProposalClosed)
	}

	if err := e.authorizeSigner(ctx, p.GroupID, signerID); err != nil {
		return nil, err
	}

	p.Signatures[signerID] = signature
	advanced := false
	if p.Status == models.StatusPendingSignatures && len(p.Signatures) >= e.cfg.RequiredSignatures {
		p.Status = models.StatusReadyToBroadcast
		advanced = true
	}

	if err := e.saveProposal(ctx, p); err != nil {
		return nil, err
	}

	e.logger.Info("Signature added",
		"proposal_id", proposalID,
		"signer_id", signerID,
		"signatures", len(p.Signatures),
		"status", p.Status,
	)
	if advanced {
		e.metrics.ObserveTransition(string(p.Status))
	}
	return p.Clone(), nil
}

// SetGroupSigners restricts who may sign the group's proposals. Every ID must
// belong to a registered signer. An empty list lifts the restriction.
// Once the group has a list, only a signer on it may replace it.
func (e *Engine) SetGroupSigners(ctx context.Context, callerID, groupID string, signerIDs []string) error {
	if callerID == "" || groupID == "" {
		return fmt.Errorf("%w: caller and group are required", ErrInvalidInput)
	}

	unlock := e.groupLocks.Lock(groupID)
	defer unlock()

	if err := e.authorizeSigner(ctx, groupID, callerID); err != nil {
		return err
	}
	for _, id := range signerIDs {
		if _, err := e.store.GetSignerByID(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: unknown signer %s", ErrInvalidInput, id)
			}
			return fmt.Errorf("look up signer %s: %w", id, err)
		}
	}
	if err := e.store.SetGroupSigners(ctx, groupID, signerIDs); err != nil {
		return fmt.Errorf("set signers of %s: %w", groupID, err)
	}
	e.logger.Info("Group signers updated", "group_id", groupID, "caller_id", callerID, "signers", len(signerIDs))
	return nil
}

// ListGroupSigners returns the IDs allowed to sign the group's proposals.
func (e *Engine) ListGroupSigners(ctx context.Context, groupID string) ([]string, error) {
	if groupID == "" {
		return nil, fmt.Errorf("%w: group is required", ErrInvalidInput)
	}
	return e.store.ListGroupSigners(ctx, groupID)
}

// authorizeSigner fails with ErrUnauthorizedSigner when the group has a
// signer list and signerID is not on it.
func (e *Engine) authorizeSigner(ctx context.Context, groupID, signerID string) error {
	allowed, err := e.store.ListGroupSigners(ctx, groupID)
	if err != nil {
		return fmt.Errorf("list signers of %s: %w", groupID, err)
	}
	if len(allowed) > 0 && !slices.Contains(allowed, signerID) {
		return fmt.Errorf("signer %s on group %s: %w", signerID, groupID, ErrUnauthorizedSigner)
	}
	return nil
}

func (e *Engine) loadProposal(ctx context.Context, proposalID string) (*models.SettlementProposal, error) {
	p, err := e.store.GetProposal(ctx, proposalID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("proposal %s: %w", proposalID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load proposal %s: %w", proposalID, err)
	}
	if p.Signatures == nil {
		p.Signatures = make(map[string]string)
	}
	return p, nil
}

// saveProposal stamps and persists p. The caller must hold the proposal lock.
func (e *Engine) saveProposal(ctx context.Context, p *models.SettlementProposal) error {
	p.UpdatedAt = e.now().UnixNano()
	if err := e.store.UpdateProposal(ctx, p); err != nil {
		return fmt.Errorf("store proposal %s: %w", p.ID, err)
	}
	return nil
}

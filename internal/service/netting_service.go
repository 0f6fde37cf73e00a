package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/balancesync"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/netting"
	"github.com/mmynk/splitledger/pkg/api"
)

// NettingService implements the Connect NettingService on top of the engine.
type NettingService struct {
	engine *netting.Engine
	logger *slog.Logger
}

var _ api.NettingServiceHandler = (*NettingService)(nil)

// NewNettingService creates a new NettingService backed by engine.
func NewNettingService(engine *netting.Engine, logger *slog.Logger) *NettingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NettingService{engine: engine, logger: logger}
}

// AddIOU records a debt between two group members.
func (s *NettingService) AddIOU(ctx context.Context, req *connect.Request[api.AddIOURequest]) (*connect.Response[api.BalancesResponse], error) {
	s.logger.Info("AddIOU request received",
		"group_id", req.Msg.GroupID,
		"debtor", req.Msg.Debtor,
		"creditor", req.Msg.Creditor,
	)

	nets, err := s.engine.AddIOU(ctx, req.Msg.GroupID, req.Msg.Debtor, req.Msg.Creditor, req.Msg.Amount)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.BalancesResponse{GroupID: req.Msg.GroupID, Balances: nonNil(nets)}), nil
}

// AddExpense splits a bill among its participants and records the resulting
// IOUs to the payer.
func (s *NettingService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.BalancesResponse], error) {
	s.logger.Info("AddExpense request received",
		"group_id", req.Msg.GroupID,
		"payer", req.Msg.Payer,
		"items_count", len(req.Msg.Items),
		"participants_count", len(req.Msg.Participants),
	)

	nets, err := s.engine.AddExpense(ctx, netting.Expense{
		GroupID:      req.Msg.GroupID,
		Payer:        req.Msg.Payer,
		Total:        req.Msg.Total,
		Subtotal:     req.Msg.Subtotal,
		Items:        toCalculatorItems(req.Msg.Items),
		Participants: req.Msg.Participants,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.BalancesResponse{GroupID: req.Msg.GroupID, Balances: nonNil(nets)}), nil
}

func (s *NettingService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.BalancesResponse], error) {
	nets, err := s.engine.GetGroupBalances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.BalancesResponse{GroupID: req.Msg.GroupID, Balances: nonNil(nets)}), nil
}

func (s *NettingService) ProposeSettlement(ctx context.Context, req *connect.Request[api.ProposeSettlementRequest]) (*connect.Response[api.ProposalResponse], error) {
	s.logger.Info("ProposeSettlement request received", "group_id", req.Msg.GroupID)

	p, err := s.engine.ProposeSettlement(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ProposalResponse{Proposal: toAPIProposal(p)}), nil
}

func (s *NettingService) GetProposal(ctx context.Context, req *connect.Request[api.GetProposalRequest]) (*connect.Response[api.ProposalResponse], error) {
	p, err := s.engine.GetProposal(ctx, req.Msg.ProposalID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ProposalResponse{Proposal: toAPIProposal(p)}), nil
}

func (s *NettingService) ListProposals(ctx context.Context, req *connect.Request[api.ListProposalsRequest]) (*connect.Response[api.ListProposalsResponse], error) {
	proposals, err := s.engine.ListProposals(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}
	out := make([]*api.Proposal, len(proposals))
	for i, p := range proposals {
		out[i] = toAPIProposal(p)
	}
	return connect.NewResponse(&api.ListProposalsResponse{Proposals: out}), nil
}

// AddSignature signs the proposal as the authenticated signer.
func (s *NettingService) AddSignature(ctx context.Context, req *connect.Request[api.AddSignatureRequest]) (*connect.Response[api.ProposalResponse], error) {
	signerID := middleware.GetSignerID(ctx)
	if signerID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	p, err := s.engine.AddSignature(ctx, req.Msg.ProposalID, signerID, req.Msg.Signature)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ProposalResponse{Proposal: toAPIProposal(p)}), nil
}

// BroadcastSettlement submits the proposal's escrows. A ledger failure is
// returned as an error; escrows submitted before it stay recorded on the
// proposal.
func (s *NettingService) BroadcastSettlement(ctx context.Context, req *connect.Request[api.BroadcastSettlementRequest]) (*connect.Response[api.BroadcastSettlementResponse], error) {
	s.logger.Info("BroadcastSettlement request received", "proposal_id", req.Msg.ProposalID)

	result, err := s.engine.BroadcastSettlement(ctx, req.Msg.ProposalID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.BroadcastSettlementResponse{
		Proposal:  toAPIProposal(result.Proposal),
		Submitted: result.Submitted,
	}), nil
}

func (s *NettingService) ExecuteEscrows(ctx context.Context, req *connect.Request[api.ExecuteEscrowsRequest]) (*connect.Response[api.TxHashesResponse], error) {
	s.logger.Info("ExecuteEscrows request received", "proposal_id", req.Msg.ProposalID)

	hashes, err := s.engine.ExecuteEscrows(ctx, req.Msg.ProposalID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.TxHashesResponse{TxHashes: hashes}), nil
}

func (s *NettingService) FailSettlement(ctx context.Context, req *connect.Request[api.FailSettlementRequest]) (*connect.Response[api.ProposalResponse], error) {
	callerID := middleware.GetSignerID(ctx)
	if callerID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	p, err := s.engine.FailSettlement(ctx, callerID, req.Msg.ProposalID, req.Msg.Reason)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ProposalResponse{Proposal: toAPIProposal(p)}), nil
}

func (s *NettingService) CancelEscrows(ctx context.Context, req *connect.Request[api.CancelEscrowsRequest]) (*connect.Response[api.TxHashesResponse], error) {
	callerID := middleware.GetSignerID(ctx)
	if callerID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	hashes, err := s.engine.CancelEscrows(ctx, callerID, req.Msg.ProposalID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.TxHashesResponse{TxHashes: hashes}), nil
}

// SyncBalances reconciles ledger balances with the group's nets. A partial
// failure is not an RPC error: the response lists the failed operations.
func (s *NettingService) SyncBalances(ctx context.Context, req *connect.Request[api.SyncBalancesRequest]) (*connect.Response[api.SyncBalancesResponse], error) {
	s.logger.Info("SyncBalances request received",
		"group_id", req.Msg.GroupID,
		"issuance_id", req.Msg.IssuanceID,
	)

	final, err := s.engine.SyncBalances(ctx, balancesync.Request{
		GroupID:    req.Msg.GroupID,
		Issuer:     req.Msg.Issuer,
		IssuanceID: req.Msg.IssuanceID,
		Holders:    req.Msg.Holders,
	})
	resp := &api.SyncBalancesResponse{Balances: nonNil(final)}
	if err != nil {
		var partial *balancesync.PartialSyncFailure
		if !errors.As(err, &partial) {
			return nil, connectError(err)
		}
		resp.Failed = partial.Failed
		resp.Operations = toAPISyncOperations(partial.Results)
	}
	return connect.NewResponse(resp), nil
}

func (s *NettingService) SetGroupSigners(ctx context.Context, req *connect.Request[api.SetGroupSignersRequest]) (*connect.Response[api.GroupSignersResponse], error) {
	callerID := middleware.GetSignerID(ctx)
	if callerID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	if err := s.engine.SetGroupSigners(ctx, callerID, req.Msg.GroupID, req.Msg.SignerIDs); err != nil {
		return nil, connectError(err)
	}
	return s.groupSigners(ctx, req.Msg.GroupID)
}

func (s *NettingService) ListGroupSigners(ctx context.Context, req *connect.Request[api.ListGroupSignersRequest]) (*connect.Response[api.GroupSignersResponse], error) {
	return s.groupSigners(ctx, req.Msg.GroupID)
}

func (s *NettingService) groupSigners(ctx context.Context, groupID string) (*connect.Response[api.GroupSignersResponse], error) {
	ids, err := s.engine.ListGroupSigners(ctx, groupID)
	if err != nil {
		return nil, connectError(err)
	}
	if ids == nil {
		ids = []string{}
	}
	return connect.NewResponse(&api.GroupSignersResponse{GroupID: groupID, SignerIDs: ids}), nil
}

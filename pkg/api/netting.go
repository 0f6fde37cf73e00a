package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// NettingServiceName is the fully-qualified name of the netting service.
const NettingServiceName = "netting.v1.NettingService"

// Procedure paths of the netting service.
const (
	NettingServiceAddIOUProcedure              = "/netting.v1.NettingService/AddIOU"
	NettingServiceAddExpenseProcedure          = "/netting.v1.NettingService/AddExpense"
	NettingServiceGetGroupBalancesProcedure    = "/netting.v1.NettingService/GetGroupBalances"
	NettingServiceProposeSettlementProcedure   = "/netting.v1.NettingService/ProposeSettlement"
	NettingServiceGetProposalProcedure         = "/netting.v1.NettingService/GetProposal"
	NettingServiceListProposalsProcedure       = "/netting.v1.NettingService/ListProposals"
	NettingServiceAddSignatureProcedure        = "/netting.v1.NettingService/AddSignature"
	NettingServiceBroadcastSettlementProcedure = "/netting.v1.NettingService/BroadcastSettlement"
	NettingServiceExecuteEscrowsProcedure      = "/netting.v1.NettingService/ExecuteEscrows"
	NettingServiceFailSettlementProcedure      = "/netting.v1.NettingService/FailSettlement"
	NettingServiceCancelEscrowsProcedure       = "/netting.v1.NettingService/CancelEscrows"
	NettingServiceSyncBalancesProcedure        = "/netting.v1.NettingService/SyncBalances"
	NettingServiceSetGroupSignersProcedure     = "/netting.v1.NettingService/SetGroupSigners"
	NettingServiceListGroupSignersProcedure    = "/netting.v1.NettingService/ListGroupSigners"
)

// NettingServiceHandler is implemented by the server side of the netting
// service.
type NettingServiceHandler interface {
	AddIOU(context.Context, *connect.Request[AddIOURequest]) (*connect.Response[BalancesResponse], error)
	AddExpense(context.Context, *connect.Request[AddExpenseRequest]) (*connect.Response[BalancesResponse], error)
	GetGroupBalances(context.Context, *connect.Request[GetGroupBalancesRequest]) (*connect.Response[BalancesResponse], error)
	ProposeSettlement(context.Context, *connect.Request[ProposeSettlementRequest]) (*connect.Response[ProposalResponse], error)
	GetProposal(context.Context, *connect.Request[GetProposalRequest]) (*connect.Response[ProposalResponse], error)
	ListProposals(context.Context, *connect.Request[ListProposalsRequest]) (*connect.Response[ListProposalsResponse], error)
	AddSignature(context.Context, *connect.Request[AddSignatureRequest]) (*connect.Response[ProposalResponse], error)
	BroadcastSettlement(context.Context, *connect.Request[BroadcastSettlementRequest]) (*connect.Response[BroadcastSettlementResponse], error)
	ExecuteEscrows(context.Context, *connect.Request[ExecuteEscrowsRequest]) (*connect.Response[TxHashesResponse], error)
	FailSettlement(context.Context, *connect.Request[FailSettlementRequest]) (*connect.Response[ProposalResponse], error)
	CancelEscrows(context.Context, *connect.Request[CancelEscrowsRequest]) (*connect.Response[TxHashesResponse], error)
	SyncBalances(context.Context, *connect.Request[SyncBalancesRequest]) (*connect.Response[SyncBalancesResponse], error)
	SetGroupSigners(context.Context, *connect.Request[SetGroupSignersRequest]) (*connect.Response[GroupSignersResponse], error)
	ListGroupSigners(context.Context, *connect.Request[ListGroupSignersRequest]) (*connect.Response[GroupSignersResponse], error)
}

// NewNettingServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewNettingServiceHandler(svc NettingServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		NettingServiceAddIOUProcedure:              connect.NewUnaryHandler(NettingServiceAddIOUProcedure, svc.AddIOU, opts...),
		NettingServiceAddExpenseProcedure:          connect.NewUnaryHandler(NettingServiceAddExpenseProcedure, svc.AddExpense, opts...),
		NettingServiceGetGroupBalancesProcedure:    connect.NewUnaryHandler(NettingServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...),
		NettingServiceProposeSettlementProcedure:   connect.NewUnaryHandler(NettingServiceProposeSettlementProcedure, svc.ProposeSettlement, opts...),
		NettingServiceGetProposalProcedure:         connect.NewUnaryHandler(NettingServiceGetProposalProcedure, svc.GetProposal, opts...),
		NettingServiceListProposalsProcedure:       connect.NewUnaryHandler(NettingServiceListProposalsProcedure, svc.ListProposals, opts...),
		NettingServiceAddSignatureProcedure:        connect.NewUnaryHandler(NettingServiceAddSignatureProcedure, svc.AddSignature, opts...),
		NettingServiceBroadcastSettlementProcedure: connect.NewUnaryHandler(NettingServiceBroadcastSettlementProcedure, svc.BroadcastSettlement, opts...),
		NettingServiceExecuteEscrowsProcedure:      connect.NewUnaryHandler(NettingServiceExecuteEscrowsProcedure, svc.ExecuteEscrows, opts...),
		NettingServiceFailSettlementProcedure:      connect.NewUnaryHandler(NettingServiceFailSettlementProcedure, svc.FailSettlement, opts...),
		NettingServiceCancelEscrowsProcedure:       connect.NewUnaryHandler(NettingServiceCancelEscrowsProcedure, svc.CancelEscrows, opts...),
		NettingServiceSyncBalancesProcedure:        connect.NewUnaryHandler(NettingServiceSyncBalancesProcedure, svc.SyncBalances, opts...),
		NettingServiceSetGroupSignersProcedure:     connect.NewUnaryHandler(NettingServiceSetGroupSignersProcedure, svc.SetGroupSigners, opts...),
		NettingServiceListGroupSignersProcedure:    connect.NewUnaryHandler(NettingServiceListGroupSignersProcedure, svc.ListGroupSigners, opts...),
	}
	return "/" + NettingServiceName + "/", route(routes)
}

// NettingServiceClient calls the netting service.
type NettingServiceClient struct {
	addIOU              *connect.Client[AddIOURequest, BalancesResponse]
	addExpense          *connect.Client[AddExpenseRequest, BalancesResponse]
	getGroupBalances    *connect.Client[GetGroupBalancesRequest, BalancesResponse]
	proposeSettlement   *connect.Client[ProposeSettlementRequest, ProposalResponse]
	getProposal         *connect.Client[GetProposalRequest, ProposalResponse]
	listProposals       *connect.Client[ListProposalsRequest, ListProposalsResponse]
	addSignature        *connect.Client[AddSignatureRequest, ProposalResponse]
	broadcastSettlement *connect.Client[BroadcastSettlementRequest, BroadcastSettlementResponse]
	executeEscrows      *connect.Client[ExecuteEscrowsRequest, TxHashesResponse]
	failSettlement      *connect.Client[FailSettlementRequest, ProposalResponse]
	cancelEscrows       *connect.Client[CancelEscrowsRequest, TxHashesResponse]
	syncBalances        *connect.Client[SyncBalancesRequest, SyncBalancesResponse]
	setGroupSigners     *connect.Client[SetGroupSignersRequest, GroupSignersResponse]
	listGroupSigners    *connect.Client[ListGroupSignersRequest, GroupSignersResponse]
}

// NewNettingServiceClient constructs a client for the netting service served
// at baseURL, for example http://localhost:8080.
func NewNettingServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *NettingServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &NettingServiceClient{
		addIOU:              connect.NewClient[AddIOURequest, BalancesResponse](httpClient, baseURL+NettingServiceAddIOUProcedure, opts...),
		addExpense:          connect.NewClient[AddExpenseRequest, BalancesResponse](httpClient, baseURL+NettingServiceAddExpenseProcedure, opts...),
		getGroupBalances:    connect.NewClient[GetGroupBalancesRequest, BalancesResponse](httpClient, baseURL+NettingServiceGetGroupBalancesProcedure, opts...),
		proposeSettlement:   connect.NewClient[ProposeSettlementRequest, ProposalResponse](httpClient, baseURL+NettingServiceProposeSettlementProcedure, opts...),
		getProposal:         connect.NewClient[GetProposalRequest, ProposalResponse](httpClient, baseURL+NettingServiceGetProposalProcedure, opts...),
		listProposals:       connect.NewClient[ListProposalsRequest, ListProposalsResponse](httpClient, baseURL+NettingServiceListProposalsProcedure, opts...),
		addSignature:        connect.NewClient[AddSignatureRequest, ProposalResponse](httpClient, baseURL+NettingServiceAddSignatureProcedure, opts...),
		broadcastSettlement: connect.NewClient[BroadcastSettlementRequest, BroadcastSettlementResponse](httpClient, baseURL+NettingServiceBroadcastSettlementProcedure, opts...),
		executeEscrows:      connect.NewClient[ExecuteEscrowsRequest, TxHashesResponse](httpClient, baseURL+NettingServiceExecuteEscrowsProcedure, opts...),
		failSettlement:      connect.NewClient[FailSettlementRequest, ProposalResponse](httpClient, baseURL+NettingServiceFailSettlementProcedure, opts...),
		cancelEscrows:       connect.NewClient[CancelEscrowsRequest, TxHashesResponse](httpClient, baseURL+NettingServiceCancelEscrowsProcedure, opts...),
		syncBalances:        connect.NewClient[SyncBalancesRequest, SyncBalancesResponse](httpClient, baseURL+NettingServiceSyncBalancesProcedure, opts...),
		setGroupSigners:     connect.NewClient[SetGroupSignersRequest, GroupSignersResponse](httpClient, baseURL+NettingServiceSetGroupSignersProcedure, opts...),
		listGroupSigners:    connect.NewClient[ListGroupSignersRequest, GroupSignersResponse](httpClient, baseURL+NettingServiceListGroupSignersProcedure, opts...),
	}
}

func (c *NettingServiceClient) AddIOU(ctx context.Context, req *connect.Request[AddIOURequest]) (*connect.Response[BalancesResponse], error) {
	return c.addIOU.CallUnary(ctx, req)
}

func (c *NettingServiceClient) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[BalancesResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *NettingServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[BalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *NettingServiceClient) ProposeSettlement(ctx context.Context, req *connect.Request[ProposeSettlementRequest]) (*connect.Response[ProposalResponse], error) {
	return c.proposeSettlement.CallUnary(ctx, req)
}

func (c *NettingServiceClient) GetProposal(ctx context.Context, req *connect.Request[GetProposalRequest]) (*connect.Response[ProposalResponse], error) {
	return c.getProposal.CallUnary(ctx, req)
}

func (c *NettingServiceClient) ListProposals(ctx context.Context, req *connect.Request[ListProposalsRequest]) (*connect.Response[ListProposalsResponse], error) {
	return c.listProposals.CallUnary(ctx, req)
}

func (c *NettingServiceClient) AddSignature(ctx context.Context, req *connect.Request[AddSignatureRequest]) (*connect.Response[ProposalResponse], error) {
	return c.addSignature.CallUnary(ctx, req)
}

func (c *NettingServiceClient) BroadcastSettlement(ctx context.Context, req *connect.Request[BroadcastSettlementRequest]) (*connect.Response[BroadcastSettlementResponse], error) {
	return c.broadcastSettlement.CallUnary(ctx, req)
}

func (c *NettingServiceClient) ExecuteEscrows(ctx context.Context, req *connect.Request[ExecuteEscrowsRequest]) (*connect.Response[TxHashesResponse], error) {
	return c.executeEscrows.CallUnary(ctx, req)
}

func (c *NettingServiceClient) FailSettlement(ctx context.Context, req *connect.Request[FailSettlementRequest]) (*connect.Response[ProposalResponse], error) {
	return c.failSettlement.CallUnary(ctx, req)
}

func (c *NettingServiceClient) CancelEscrows(ctx context.Context, req *connect.Request[CancelEscrowsRequest]) (*connect.Response[TxHashesResponse], error) {
	return c.cancelEscrows.CallUnary(ctx, req)
}

func (c *NettingServiceClient) SyncBalances(ctx context.Context, req *connect.Request[SyncBalancesRequest]) (*connect.Response[SyncBalancesResponse], error) {
	return c.syncBalances.CallUnary(ctx, req)
}

func (c *NettingServiceClient) SetGroupSigners(ctx context.Context, req *connect.Request[SetGroupSignersRequest]) (*connect.Response[GroupSignersResponse], error) {
	return c.setGroupSigners.CallUnary(ctx, req)
}

func (c *NettingServiceClient) ListGroupSigners(ctx context.Context, req *connect.Request[ListGroupSignersRequest]) (*connect.Response[GroupSignersResponse], error) {
	return c.listGroupSigners.CallUnary(ctx, req)
}

func route(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

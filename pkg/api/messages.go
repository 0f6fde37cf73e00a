package api

// Payment is a single transfer from Payer to Payee.
type Payment struct {
	Payer  string  `json:"payer"`
	Payee  string  `json:"payee"`
	Amount float64 `json:"amount"`
}

// Escrow is the ledger-facing state of one proposal payment.
type Escrow struct {
	Payment     Payment `json:"payment"`
	CancelAfter int64   `json:"cancel_after"`
	TxHash      string  `json:"tx_hash,omitempty"`
	Confirmed   bool    `json:"confirmed"`
	Executed    bool    `json:"executed"`
	Canceled    bool    `json:"canceled"`
	Attempts    int     `json:"attempts,omitempty"`
	LastError   string  `json:"last_error,omitempty"`
}

type Proposal struct {
	ID            string            `json:"id"`
	GroupID       string            `json:"group_id"`
	Payments      []Payment         `json:"payments"`
	Escrows       []Escrow          `json:"escrows"`
	Signatures    map[string]string `json:"signatures"`
	Status        string            `json:"status"`
	FailureReason string            `json:"failure_reason,omitempty"`
	CreatedAt     int64             `json:"created_at"`
	UpdatedAt     int64             `json:"updated_at"`
	Version       int64             `json:"version"`
}

type Item struct {
	Description string   `json:"description"`
	Amount      float64  `json:"amount" validate:"gte=0"`
	AssignedTo  []string `json:"assigned_to" validate:"dive,required"`
}

type AddIOURequest struct {
	GroupID  string  `json:"group_id" validate:"required"`
	Debtor   string  `json:"debtor" validate:"required"`
	Creditor string  `json:"creditor" validate:"required,nefield=Debtor"`
	Amount   float64 `json:"amount" validate:"gt=0"`
}

type AddExpenseRequest struct {
	GroupID      string   `json:"group_id" validate:"required"`
	Payer        string   `json:"payer" validate:"required"`
	Total        float64  `json:"total" validate:"gt=0"`
	Subtotal     float64  `json:"subtotal" validate:"gt=0,ltefield=Total"`
	Items        []Item   `json:"items" validate:"dive"`
	Participants []string `json:"participants" validate:"required,min=1,dive,required"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

// BalancesResponse carries a group's net balances. Positive means the member
// owes, negative means the member is owed.
type BalancesResponse struct {
	GroupID  string             `json:"group_id"`
	Balances map[string]float64 `json:"balances"`
}

type ProposeSettlementRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type GetProposalRequest struct {
	ProposalID string `json:"proposal_id" validate:"required"`
}

type ProposalResponse struct {
	Proposal *Proposal `json:"proposal"`
}

type ListProposalsRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type ListProposalsResponse struct {
	Proposals []*Proposal `json:"proposals"`
}

// AddSignatureRequest signs a proposal as the authenticated signer.
type AddSignatureRequest struct {
	ProposalID string `json:"proposal_id" validate:"required"`
	Signature  string `json:"signature" validate:"required"`
}

type BroadcastSettlementRequest struct {
	ProposalID string `json:"proposal_id" validate:"required"`
}

type BroadcastSettlementResponse struct {
	Proposal  *Proposal `json:"proposal"`
	Submitted []string  `json:"submitted"`
}

type ExecuteEscrowsRequest struct {
	ProposalID string `json:"proposal_id" validate:"required"`
}

type FailSettlementRequest struct {
	ProposalID string `json:"proposal_id" validate:"required"`
	Reason     string `json:"reason"`
}

type CancelEscrowsRequest struct {
	ProposalID string `json:"proposal_id" validate:"required"`
}

// TxHashesResponse lists the ledger transactions made by a call.
type TxHashesResponse struct {
	TxHashes []string `json:"tx_hashes"`
}

type SyncBalancesRequest struct {
	GroupID    string   `json:"group_id" validate:"required"`
	Issuer     string   `json:"issuer" validate:"required"`
	IssuanceID string   `json:"issuance_id" validate:"required"`
	Holders    []string `json:"holders" validate:"dive,required"`
}

type SyncOperation struct {
	Holder  string  `json:"holder"`
	Kind    string  `json:"kind"`
	Amount  float64 `json:"amount,omitempty"`
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
	TxHash  string  `json:"tx_hash,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// SyncBalancesResponse reports the balances after a sync. Failed counts
// holders whose query, mint or burn failed; their operations carry Error.
type SyncBalancesResponse struct {
	Balances   map[string]float64 `json:"balances"`
	Failed     int                `json:"failed"`
	Operations []SyncOperation    `json:"operations,omitempty"`
}

type SetGroupSignersRequest struct {
	GroupID   string   `json:"group_id" validate:"required"`
	SignerIDs []string `json:"signer_ids" validate:"dive,required"`
}

type ListGroupSignersRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type GroupSignersResponse struct {
	GroupID   string   `json:"group_id"`
	SignerIDs []string `json:"signer_ids"`
}

type Signer struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Address     string `json:"address,omitempty"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required"`
	Address     string `json:"address"`
	Password    string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is returned by Register and Login.
type SessionResponse struct {
	Signer *Signer `json:"signer"`
	Token  string  `json:"token"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type GetCurrentSignerRequest struct{}

type GetCurrentSignerResponse struct {
	Signer *Signer `json:"signer"`
}

package models

// ProposalStatus is the lifecycle state of a settlement proposal.
type ProposalStatus string

const (
	StatusPendingSignatures ProposalStatus = "pending_signatures"
	StatusReadyToBroadcast  ProposalStatus = "ready_to_broadcast"
	StatusBroadcast         ProposalStatus = "broadcast"
	StatusCompleted         ProposalStatus = "completed"

	// StatusFailed is terminal. A failed proposal can only have its
	// outstanding escrows canceled.
	StatusFailed ProposalStatus = "failed"
)

var statusRank = map[ProposalStatus]int{
	StatusPendingSignatures: 0,
	StatusReadyToBroadcast:  1,
	StatusBroadcast:         2,
	StatusCompleted:         3,
}

// Terminal reports whether no further transitions are possible.
func (s ProposalStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status.
func (s ProposalStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusFailed
}

// CanAdvanceTo reports whether moving from s to next is a forward transition.
// Every non-terminal status may move to StatusFailed.
func (s ProposalStatus) CanAdvanceTo(next ProposalStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	return ok && to == from+1
}

// Payment is a single transfer from Payer to Payee.
type Payment struct {
	Payer  string
	Payee  string
	Amount float64
}

// EscrowInstruction is the time-locked escrow that backs one Payment.
// Confirmed, Executed and Canceled only ever move from false to true.
type EscrowInstruction struct {
	Payment Payment

	// Payload is the encoded escrow-create transaction. Opaque to everything
	// except the ledger package.
	Payload []byte

	// CancelAfter is the Unix time after which the escrow may be canceled.
	CancelAfter int64

	// TxHash is set once the escrow-create transaction reached the ledger.
	TxHash    string
	Confirmed bool
	Executed  bool
	Canceled  bool

	// Attempts counts failed broadcast submissions.
	Attempts  int
	LastError string
}

// SettlementProposal is a batch of escrow-backed payments that clears a
// group's net balances once enough signers approve it.
type SettlementProposal struct {
	// ID is the unique identifier for the proposal (UUID format).
	ID string

	// GroupID is the group whose balances this proposal settles.
	GroupID string

	// Payments and Escrows are 1:1 and in the same order.
	Payments []Payment
	Escrows  []EscrowInstruction

	// Signatures maps signer ID to the signature they supplied.
	Signatures map[string]string

	Status ProposalStatus

	// FailureReason explains why the proposal moved to StatusFailed.
	FailureReason string

	// CreatedAt and UpdatedAt are Unix times in nanoseconds.
	CreatedAt int64
	UpdatedAt int64

	// Version is incremented by the store on every successful update.
	Version int64
}

// Clone returns a deep copy of the proposal.
func (p *SettlementProposal) Clone() *SettlementProposal {
	if p == nil {
		return nil
	}
	c := *p
	c.Payments = append([]Payment(nil), p.Payments...)
	c.Escrows = make([]EscrowInstruction, len(p.Escrows))
	for i, e := range p.Escrows {
		e.Payload = append([]byte(nil), e.Payload...)
		c.Escrows[i] = e
	}
	c.Signatures = make(map[string]string, len(p.Signatures))
	for k, v := range p.Signatures {
		c.Signatures[k] = v
	}
	return &c
}

// AllExecuted reports whether every escrow has been finished.
func (p *SettlementProposal) AllExecuted() bool {
	for _, e := range p.Escrows {
		if !e.Executed {
			return false
		}
	}
	return len(p.Escrows) > 0
}

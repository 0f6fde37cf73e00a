// Package models defines the core domain models for splitledger.
//
// # Debt graph
//
//   - Edge: a directed IOU, "debtor owes creditor amount"
//   - Graph: the ordered edge list of one group
//
// Net balances are plain map[string]float64 values derived from a Graph
// (positive = owes net, negative = is owed net) and have no model of their own.
//
// # Settlement
//
//   - Payment: one transfer produced by the settlement planner
//   - EscrowInstruction: the escrow transaction that backs a Payment
//   - SettlementProposal: payments, escrows and the signatures collected for them
//
// # Identity
//
//   - Signer: a principal allowed to approve settlements
//
// # Design Principles
//
// 1. **Plain data**: models carry no behavior beyond small state helpers
// 2. **IDs, not pointers**: relationships use ID strings
// 3. **Copy on read**: stores hand out copies, so callers may mutate freely
package models

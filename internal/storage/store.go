// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned when a record changed since it was read.
	ErrVersionConflict = errors.New("version conflict")

	// ErrAlreadyExists is returned when creating a record whose key is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// GraphStore persists one debt graph per group.
type GraphStore interface {
	// GetGraph returns a copy of the group's graph, or ErrNotFound.
	GetGraph(ctx context.Context, groupID string) (*models.Graph, error)

	// PutGraph replaces the group's graph. graph.Version must equal the
	// stored version (zero for a graph that was never stored), otherwise
	// ErrVersionConflict is returned and nothing changes. On success
	// graph.Version is incremented.
	PutGraph(ctx context.Context, graph *models.Graph) error
}

// ProposalStore persists settlement proposals.
type ProposalStore interface {
	// CreateProposal stores a new proposal and sets its Version to 1.
	CreateProposal(ctx context.Context, proposal *models.SettlementProposal) error

	// GetProposal returns a copy of the proposal, or ErrNotFound.
	GetProposal(ctx context.Context, proposalID string) (*models.SettlementProposal, error)

	// UpdateProposal replaces a stored proposal under the same optimistic
	// version rule as PutGraph.
	UpdateProposal(ctx context.Context, proposal *models.SettlementProposal) error

	// ListProposalsByGroup returns the group's proposals, newest first.
	ListProposalsByGroup(ctx context.Context, groupID string) ([]*models.SettlementProposal, error)
}

// SignerStore persists signers and the per-group signer lists.
type SignerStore interface {
	CreateSigner(ctx context.Context, signer *models.Signer) error
	GetSignerByEmail(ctx context.Context, email string) (*models.Signer, error)
	GetSignerByID(ctx context.Context, id string) (*models.Signer, error)

	// SetGroupSigners replaces the list of signer IDs allowed to sign the
	// group's settlements.
	SetGroupSigners(ctx context.Context, groupID string, signerIDs []string) error

	// ListGroupSigners returns the group's signer IDs; empty if none were set.
	ListGroupSigners(ctx context.Context, groupID string) ([]string, error)
}

// Store defines the full persistence surface of the engine.
// This abstraction allows swapping storage backends (memory, SQLite)
// without changing the service layer.
type Store interface {
	GraphStore
	ProposalStore
	SignerStore

	// Close releases any resources held by the store.
	Close() error
}

// BalanceCache is a key-value cache of balance vectors.
// The engine keeps two namespaces per group: computed nets and the last
// balances observed on the ledger after a synchronization.
type BalanceCache interface {
	// GetBalances returns the cached vector and whether it was present.
	GetBalances(ctx context.Context, key string) (map[string]float64, bool, error)
	PutBalances(ctx context.Context, key string, balances map[string]float64) error
	DeleteBalances(ctx context.Context, key string) error
}

// NetsKey is the cache key of a group's computed net balances.
func NetsKey(groupID string) string {
	return "nets:" + groupID
}

// SyncedKey is the cache key of a group's last synchronized ledger balances.
func SyncedKey(groupID string) string {
	return "synced:" + groupID
}

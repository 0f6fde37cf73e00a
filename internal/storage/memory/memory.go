// Package memory provides an in-process implementation of the storage
// interfaces. Every read and write copies, so callers never share state with
// the store.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var (
	_ storage.Store        = (*Store)(nil)
	_ storage.BalanceCache = (*Cache)(nil)
)

// Store implements storage.Store with mutex-guarded maps.
type Store struct {
	mu           sync.RWMutex
	graphs       map[string]*models.Graph
	proposals    map[string]*models.SettlementProposal
	signers      map[string]*models.Signer
	groupSigners map[string][]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		graphs:       make(map[string]*models.Graph),
		proposals:    make(map[string]*models.SettlementProposal),
		signers:      make(map[string]*models.Signer),
		groupSigners: make(map[string][]string),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// GetGraph returns a copy of the group's graph.
func (s *Store) GetGraph(_ context.Context, groupID string) (*models.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.graphs[groupID]
	if !ok {
		return nil, fmt.Errorf("graph %s: %w", groupID, storage.ErrNotFound)
	}
	return g.Clone(), nil
}

// PutGraph stores a copy of graph if its version matches.
func (s *Store) PutGraph(_ context.Context, graph *models.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if existing, ok := s.graphs[graph.GroupID]; ok {
		current = existing.Version
	}
	if current != graph.Version {
		return fmt.Errorf("graph %s at version %d, have %d: %w",
			graph.GroupID, current, graph.Version, storage.ErrVersionConflict)
	}

	graph.Version++
	s.graphs[graph.GroupID] = graph.Clone()
	return nil
}

// CreateProposal stores a new proposal.
func (s *Store) CreateProposal(_ context.Context, p *models.SettlementProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.proposals[p.ID]; ok {
		return fmt.Errorf("proposal %s: %w", p.ID, storage.ErrAlreadyExists)
	}
	p.Version = 1
	s.proposals[p.ID] = p.Clone()
	return nil
}

// GetProposal returns a copy of the proposal.
func (s *Store) GetProposal(_ context.Context, proposalID string) (*models.SettlementProposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.proposals[proposalID]
	if !ok {
		return nil, fmt.Errorf("proposal %s: %w", proposalID, storage.ErrNotFound)
	}
	return p.Clone(), nil
}

// UpdateProposal replaces the stored proposal if its version matches.
func (s *Store) UpdateProposal(_ context.Context, p *models.SettlementProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.proposals[p.ID]
	if !ok {
		return fmt.Errorf("proposal %s: %w", p.ID, storage.ErrNotFound)
	}
	if existing.Version != p.Version {
		return fmt.Errorf("proposal %s at version %d, have %d: %w",
			p.ID, existing.Version, p.Version, storage.ErrVersionConflict)
	}

	p.Version++
	s.proposals[p.ID] = p.Clone()
	return nil
}

// ListProposalsByGroup returns the group's proposals, newest first.
func (s *Store) ListProposalsByGroup(_ context.Context, groupID string) ([]*models.SettlementProposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.SettlementProposal
	for _, p := range s.proposals {
		if p.GroupID == groupID {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CreateSigner stores a new signer; emails are unique.
func (s *Store) CreateSigner(_ context.Context, signer *models.Signer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.signers[signer.ID]; ok {
		return fmt.Errorf("signer %s: %w", signer.ID, storage.ErrAlreadyExists)
	}
	for _, existing := range s.signers {
		if existing.Email == signer.Email {
			return fmt.Errorf("signer email %s: %w", signer.Email, storage.ErrAlreadyExists)
		}
	}
	c := *signer
	s.signers[signer.ID] = &c
	return nil
}

// GetSignerByEmail looks a signer up by email.
func (s *Store) GetSignerByEmail(_ context.Context, email string) (*models.Signer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, signer := range s.signers {
		if signer.Email == email {
			c := *signer
			return &c, nil
		}
	}
	return nil, fmt.Errorf("signer email %s: %w", email, storage.ErrNotFound)
}

// GetSignerByID looks a signer up by ID.
func (s *Store) GetSignerByID(_ context.Context, id string) (*models.Signer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	signer, ok := s.signers[id]
	if !ok {
		return nil, fmt.Errorf("signer %s: %w", id, storage.ErrNotFound)
	}
	c := *signer
	return &c, nil
}

// SetGroupSigners replaces the group's signer list.
func (s *Store) SetGroupSigners(_ context.Context, groupID string, signerIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := append([]string(nil), signerIDs...)
	sort.Strings(ids)
	s.groupSigners[groupID] = slices.Compact(ids)
	return nil
}

// ListGroupSigners returns the group's signer list.
func (s *Store) ListGroupSigners(_ context.Context, groupID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.groupSigners[groupID]...), nil
}

package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

func TestStore_GraphVersioning(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetGraph(ctx, "g1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	g := &models.Graph{GroupID: "g1", Edges: []models.Edge{{Debtor: "A", Creditor: "B", Amount: 5}}}
	if err := s.PutGraph(ctx, g); err != nil {
		t.Fatalf("PutGraph failed: %v", err)
	}
	if g.Version != 1 {
		t.Errorf("version = %d, want 1", g.Version)
	}

	stale := &models.Graph{GroupID: "g1"}
	if err := s.PutGraph(ctx, stale); !errors.Is(err, storage.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}

	got, err := s.GetGraph(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGraph failed: %v", err)
	}
	got.Edges[0].Amount = 99
	again, _ := s.GetGraph(ctx, "g1")
	if again.Edges[0].Amount != 5 {
		t.Errorf("stored graph was mutated through a returned copy")
	}
}

func TestStore_Proposals(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &models.SettlementProposal{ID: "p1", GroupID: "g1", Status: models.StatusPendingSignatures, CreatedAt: 1}
	if err := s.CreateProposal(ctx, p); err != nil {
		t.Fatalf("CreateProposal failed: %v", err)
	}
	if err := s.CreateProposal(ctx, p); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	p.Status = models.StatusReadyToBroadcast
	if err := s.UpdateProposal(ctx, p); err != nil {
		t.Fatalf("UpdateProposal failed: %v", err)
	}

	stale := p.Clone()
	stale.Version = 1
	if err := s.UpdateProposal(ctx, stale); !errors.Is(err, storage.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}

	second := &models.SettlementProposal{ID: "p2", GroupID: "g1", CreatedAt: 2}
	other := &models.SettlementProposal{ID: "p3", GroupID: "g2", CreatedAt: 3}
	s.CreateProposal(ctx, second)
	s.CreateProposal(ctx, other)

	list, err := s.ListProposalsByGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("ListProposalsByGroup failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "p2" || list[1].ID != "p1" {
		t.Errorf("unexpected list order: %v", list)
	}
}

func TestStore_Signers(t *testing.T) {
	ctx := context.Background()
	s := New()

	signer := models.NewSigner("alice@example.com", "Alice", "rAlice", "hash")
	if err := s.CreateSigner(ctx, signer); err != nil {
		t.Fatalf("CreateSigner failed: %v", err)
	}
	dup := models.NewSigner("alice@example.com", "Alice 2", "", "hash")
	if err := s.CreateSigner(ctx, dup); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Errorf("expected duplicate email to fail, got %v", err)
	}

	byEmail, err := s.GetSignerByEmail(ctx, "alice@example.com")
	if err != nil || byEmail.ID != signer.ID {
		t.Errorf("GetSignerByEmail = %v, %v", byEmail, err)
	}

	if err := s.SetGroupSigners(ctx, "g1", []string{"b", "a"}); err != nil {
		t.Fatalf("SetGroupSigners failed: %v", err)
	}
	ids, _ := s.ListGroupSigners(ctx, "g1")
	if len(ids) != 2 || ids[0] != "a" {
		t.Errorf("ListGroupSigners = %v", ids)
	}
	if ids, _ := s.ListGroupSigners(ctx, "g2"); len(ids) != 0 {
		t.Errorf("expected no signers for unknown group, got %v", ids)
	}
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	if _, ok, _ := c.GetBalances(ctx, "nets:g1"); ok {
		t.Fatal("expected cache miss")
	}

	in := map[string]float64{"A": 1}
	c.PutBalances(ctx, "nets:g1", in)
	in["A"] = 2

	got, ok, _ := c.GetBalances(ctx, "nets:g1")
	if !ok || got["A"] != 1 {
		t.Errorf("GetBalances = %v, %v", got, ok)
	}

	c.DeleteBalances(ctx, "nets:g1")
	if _, ok, _ := c.GetBalances(ctx, "nets:g1"); ok {
		t.Error("expected miss after delete")
	}
}

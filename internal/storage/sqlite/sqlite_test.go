package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "splitledger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Graphs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("GetGraph on unknown group returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetGraph(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("PutGraph round trips edges in order", func(t *testing.T) {
		g := &models.Graph{
			GroupID:   "g1",
			UpdatedAt: 42,
			Edges: []models.Edge{
				{Debtor: "B", Creditor: "A", Amount: 10},
				{Debtor: "C", Creditor: "B", Amount: 2.5},
				{Debtor: "B", Creditor: "A", Amount: 1},
			},
		}
		if err := store.PutGraph(ctx, g); err != nil {
			t.Fatalf("PutGraph failed: %v", err)
		}
		if g.Version != 1 {
			t.Errorf("Expected version 1, got %d", g.Version)
		}

		got, err := store.GetGraph(ctx, "g1")
		if err != nil {
			t.Fatalf("GetGraph failed: %v", err)
		}
		if got.Version != 1 || got.UpdatedAt != 42 {
			t.Errorf("Unexpected metadata: version=%d updated=%d", got.Version, got.UpdatedAt)
		}
		if len(got.Edges) != 3 {
			t.Fatalf("Expected 3 edges, got %d", len(got.Edges))
		}
		for i := range g.Edges {
			if got.Edges[i] != g.Edges[i] {
				t.Errorf("Edge %d: expected %+v, got %+v", i, g.Edges[i], got.Edges[i])
			}
		}
	})

	t.Run("PutGraph rejects stale version", func(t *testing.T) {
		stale := &models.Graph{GroupID: "g1", Version: 0}
		err := store.PutGraph(ctx, stale)
		if !errors.Is(err, storage.ErrVersionConflict) {
			t.Fatalf("Expected ErrVersionConflict, got %v", err)
		}

		got, _ := store.GetGraph(ctx, "g1")
		if len(got.Edges) != 3 {
			t.Errorf("Rejected write changed the graph: %+v", got.Edges)
		}
	})

	t.Run("PutGraph can clear all edges", func(t *testing.T) {
		got, _ := store.GetGraph(ctx, "g1")
		got.Edges = nil
		if err := store.PutGraph(ctx, got); err != nil {
			t.Fatalf("PutGraph failed: %v", err)
		}
		cleared, _ := store.GetGraph(ctx, "g1")
		if len(cleared.Edges) != 0 || cleared.Version != 2 {
			t.Errorf("Expected empty graph at version 2, got %+v", cleared)
		}
	})
}

func testProposal(id string, createdAt int64) *models.SettlementProposal {
	payments := []models.Payment{
		{Payer: "A", Payee: "C", Amount: 20},
		{Payer: "A", Payee: "B", Amount: 10},
	}
	escrows := make([]models.EscrowInstruction, len(payments))
	for i, p := range payments {
		escrows[i] = models.EscrowInstruction{Payment: p, Payload: []byte{0x0a, byte(i)}, CancelAfter: 3600}
	}
	return &models.SettlementProposal{
		ID:         id,
		GroupID:    "g1",
		Payments:   payments,
		Escrows:    escrows,
		Signatures: map[string]string{},
		Status:     models.StatusPendingSignatures,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestSQLiteStore_Proposals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := testProposal("p1", 100)
	if err := store.CreateProposal(ctx, p); err != nil {
		t.Fatalf("CreateProposal failed: %v", err)
	}
	if p.Version != 1 {
		t.Errorf("Expected version 1, got %d", p.Version)
	}

	t.Run("CreateProposal rejects duplicate ID", func(t *testing.T) {
		err := store.CreateProposal(ctx, testProposal("p1", 100))
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("Expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("GetProposal returns complete proposal", func(t *testing.T) {
		got, err := store.GetProposal(ctx, "p1")
		if err != nil {
			t.Fatalf("GetProposal failed: %v", err)
		}
		if got.Status != models.StatusPendingSignatures {
			t.Errorf("Expected pending status, got %s", got.Status)
		}
		if len(got.Payments) != 2 || len(got.Escrows) != 2 {
			t.Fatalf("Expected 2 payments and escrows, got %d/%d", len(got.Payments), len(got.Escrows))
		}
		if got.Payments[0].Payee != "C" || got.Escrows[1].Payload[1] != 1 {
			t.Errorf("Escrow order not preserved: %+v", got.Escrows)
		}
	})

	t.Run("UpdateProposal persists signatures and escrow state", func(t *testing.T) {
		got, _ := store.GetProposal(ctx, "p1")
		got.Signatures["s1"] = "sig-1"
		got.Status = models.StatusBroadcast
		got.Escrows[0].TxHash = "ABC"
		got.Escrows[0].Confirmed = true
		got.Escrows[1].Attempts = 2
		got.Escrows[1].LastError = "timeout"
		if err := store.UpdateProposal(ctx, got); err != nil {
			t.Fatalf("UpdateProposal failed: %v", err)
		}
		if got.Version != 2 {
			t.Errorf("Expected version 2, got %d", got.Version)
		}

		reread, _ := store.GetProposal(ctx, "p1")
		if reread.Signatures["s1"] != "sig-1" {
			t.Errorf("Signature not persisted: %v", reread.Signatures)
		}
		if !reread.Escrows[0].Confirmed || reread.Escrows[0].TxHash != "ABC" {
			t.Errorf("Escrow 0 not persisted: %+v", reread.Escrows[0])
		}
		if reread.Escrows[1].Attempts != 2 || reread.Escrows[1].LastError != "timeout" {
			t.Errorf("Escrow 1 not persisted: %+v", reread.Escrows[1])
		}
	})

	t.Run("UpdateProposal rejects stale version", func(t *testing.T) {
		stale := testProposal("p1", 100)
		stale.Version = 1
		stale.Status = models.StatusFailed
		if err := store.UpdateProposal(ctx, stale); !errors.Is(err, storage.ErrVersionConflict) {
			t.Errorf("Expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("UpdateProposal on unknown ID returns ErrNotFound", func(t *testing.T) {
		if err := store.UpdateProposal(ctx, testProposal("nope", 1)); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListProposalsByGroup returns newest first", func(t *testing.T) {
		if err := store.CreateProposal(ctx, testProposal("p2", 200)); err != nil {
			t.Fatalf("CreateProposal failed: %v", err)
		}
		list, err := store.ListProposalsByGroup(ctx, "g1")
		if err != nil {
			t.Fatalf("ListProposalsByGroup failed: %v", err)
		}
		if len(list) != 2 || list[0].ID != "p2" || list[1].ID != "p1" {
			t.Fatalf("Unexpected order: %+v", list)
		}
		if len(list[1].Escrows) != 2 {
			t.Errorf("Listed proposal missing escrows")
		}

		empty, _ := store.ListProposalsByGroup(ctx, "other")
		if len(empty) != 0 {
			t.Errorf("Expected no proposals, got %d", len(empty))
		}
	})
}

func TestSQLiteStore_Signers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	signer := models.NewSigner("alice@example.com", "Alice", "rAlice", "hash")
	if err := store.CreateSigner(ctx, signer); err != nil {
		t.Fatalf("CreateSigner failed: %v", err)
	}

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup := models.NewSigner("alice@example.com", "Other", "", "hash")
		if err := store.CreateSigner(ctx, dup); !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("Expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("lookup by email and ID", func(t *testing.T) {
		byEmail, err := store.GetSignerByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetSignerByEmail failed: %v", err)
		}
		if byEmail.ID != signer.ID || byEmail.Address != "rAlice" {
			t.Errorf("Unexpected signer: %+v", byEmail)
		}
		byID, err := store.GetSignerByID(ctx, signer.ID)
		if err != nil || byID.Email != signer.Email {
			t.Errorf("GetSignerByID = %+v, %v", byID, err)
		}
		if _, err := store.GetSignerByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("group signer lists", func(t *testing.T) {
		if err := store.SetGroupSigners(ctx, "g1", []string{"b", "a", "b"}); err != nil {
			t.Fatalf("SetGroupSigners failed: %v", err)
		}
		ids, err := store.ListGroupSigners(ctx, "g1")
		if err != nil {
			t.Fatalf("ListGroupSigners failed: %v", err)
		}
		if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
			t.Errorf("Unexpected signers: %v", ids)
		}

		if err := store.SetGroupSigners(ctx, "g1", []string{"c"}); err != nil {
			t.Fatalf("SetGroupSigners failed: %v", err)
		}
		ids, _ = store.ListGroupSigners(ctx, "g1")
		if len(ids) != 1 || ids[0] != "c" {
			t.Errorf("Expected list to be replaced, got %v", ids)
		}
	})
}

package graph

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
)

func TestReduceCycle(t *testing.T) {
	tests := []struct {
		name          string
		edges         []models.Edge
		path          []string
		wantEdges     []models.Edge
		wantCancelled float64
		wantErr       error
	}{
		{
			name: "equal amounts cancel completely",
			edges: []models.Edge{
				{Debtor: "A", Creditor: "B", Amount: 10},
				{Debtor: "B", Creditor: "A", Amount: 10},
			},
			path:          []string{"A", "B", "A"},
			wantEdges:     []models.Edge{},
			wantCancelled: 10,
		},
		{
			name: "minimum is subtracted, untouched edges kept in order",
			edges: []models.Edge{
				{Debtor: "X", Creditor: "Y", Amount: 3},
				{Debtor: "A", Creditor: "B", Amount: 10},
				{Debtor: "B", Creditor: "C", Amount: 4},
				{Debtor: "C", Creditor: "A", Amount: 7},
			},
			path: []string{"A", "B", "C", "A"},
			wantEdges: []models.Edge{
				{Debtor: "X", Creditor: "Y", Amount: 3},
				{Debtor: "A", Creditor: "B", Amount: 6},
				{Debtor: "C", Creditor: "A", Amount: 3},
			},
			wantCancelled: 4,
		},
		{
			name: "first parallel edge is used",
			edges: []models.Edge{
				{Debtor: "A", Creditor: "B", Amount: 2},
				{Debtor: "A", Creditor: "B", Amount: 50},
				{Debtor: "B", Creditor: "A", Amount: 5},
			},
			path: []string{"A", "B", "A"},
			wantEdges: []models.Edge{
				{Debtor: "A", Creditor: "B", Amount: 50},
				{Debtor: "B", Creditor: "A", Amount: 3},
			},
			wantCancelled: 2,
		},
		{
			name:    "missing edge",
			edges:   []models.Edge{{Debtor: "A", Creditor: "B", Amount: 1}},
			path:    []string{"A", "B", "C", "A"},
			wantErr: ErrInconsistentGraph,
		},
		{
			name:    "open path",
			edges:   []models.Edge{{Debtor: "A", Creditor: "B", Amount: 1}},
			path:    []string{"A", "B"},
			wantErr: ErrInconsistentGraph,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cancelled, err := ReduceCycle(tt.edges, tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.wantEdges) {
				t.Errorf("edges = %v, want %v", got, tt.wantEdges)
			}
			if cancelled != tt.wantCancelled {
				t.Errorf("cancelled = %v, want %v", cancelled, tt.wantCancelled)
			}
		})
	}
}

func TestReduceCycle_DoesNotMutateInput(t *testing.T) {
	edges := []models.Edge{
		{Debtor: "A", Creditor: "B", Amount: 10},
		{Debtor: "B", Creditor: "A", Amount: 4},
	}
	if _, _, err := ReduceCycle(edges, []string{"A", "B", "A"}); err != nil {
		t.Fatalf("ReduceCycle failed: %v", err)
	}
	if edges[0].Amount != 10 || edges[1].Amount != 4 {
		t.Errorf("input edges were modified: %v", edges)
	}
}

func TestInsert(t *testing.T) {
	t.Run("no cycle appends", func(t *testing.T) {
		res, err := Insert(nil, models.Edge{Debtor: "A", Creditor: "B", Amount: 10})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if len(res.Edges) != 1 || res.Cycle != nil || res.Cancelled != 0 || res.Removed() != 0 {
			t.Errorf("unexpected insertion: %+v", res)
		}
	})

	t.Run("opposite IOU cancels pair", func(t *testing.T) {
		res, err := Insert([]models.Edge{{Debtor: "A", Creditor: "B", Amount: 10}},
			models.Edge{Debtor: "B", Creditor: "A", Amount: 10})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if len(res.Edges) != 0 {
			t.Errorf("expected no edges, got %v", res.Edges)
		}
		if res.Cancelled != 10 {
			t.Errorf("cancelled = %v, want 10", res.Cancelled)
		}
		if res.Removed() != 20 {
			t.Errorf("removed = %v, want 20", res.Removed())
		}
	})

	t.Run("triangle cancels completely", func(t *testing.T) {
		var edges []models.Edge
		for _, e := range []models.Edge{
			{Debtor: "A", Creditor: "B", Amount: 10},
			{Debtor: "B", Creditor: "C", Amount: 10},
			{Debtor: "C", Creditor: "A", Amount: 10},
		} {
			res, err := Insert(edges, e)
			if err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			edges = res.Edges
		}
		if len(edges) != 0 {
			t.Errorf("expected all edges removed, got %v", edges)
		}
	})
}

// Random insertions never leave non-positive edges and strictly reduce outstanding debt whenever a cycle is closed.
func TestInsert_RandomProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	people := []string{"A", "B", "C", "D", "E", "F"}

	var edges []models.Edge
	for i := 0; i < 2000; i++ {
		debtor := people[rng.Intn(len(people))]
		creditor := people[rng.Intn(len(people))]
		if debtor == creditor {
			continue
		}
		amount := float64(rng.Intn(10000)+1) / 100

		before := sum(edges) + amount
		res, err := Insert(edges, models.Edge{Debtor: debtor, Creditor: creditor, Amount: amount})
		if err != nil {
			t.Fatalf("step %d: Insert failed: %v", i, err)
		}
		after := sum(res.Edges)

		if res.Cycle != nil {
			if res.Cancelled <= 0 {
				t.Fatalf("step %d: cycle closed with cancelled=%v", i, res.Cancelled)
			}
			if after >= before {
				t.Fatalf("step %d: total debt %v did not drop below %v", i, after, before)
			}
		}
		for _, e := range res.Edges {
			if e.Amount <= Epsilon {
				t.Fatalf("step %d: non-positive edge %+v", i, e)
			}
		}
		edges = res.Edges
	}
}

func sum(edges []models.Edge) float64 {
	var total float64
	for _, e := range edges {
		total += e.Amount
	}
	return total
}

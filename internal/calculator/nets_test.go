package calculator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
)

func TestComputeNets(t *testing.T) {
	edges := []models.Edge{
		{Debtor: "A", Creditor: "B", Amount: 10},
		{Debtor: "A", Creditor: "C", Amount: 5},
		{Debtor: "B", Creditor: "C", Amount: 2},
	}

	nets := ComputeNets(edges)

	want := map[string]float64{"A": 15, "B": -8, "C": -7}
	if len(nets) != len(want) {
		t.Fatalf("nets = %v, want %v", nets, want)
	}
	for id, w := range want {
		if math.Abs(nets[id]-w) > 1e-9 {
			t.Errorf("%s = %v, want %v", id, nets[id], w)
		}
	}
	if _, ok := nets["D"]; ok {
		t.Errorf("participant without edges must have no entry")
	}
}

func TestComputeNets_Empty(t *testing.T) {
	if nets := ComputeNets(nil); len(nets) != 0 {
		t.Errorf("expected empty nets, got %v", nets)
	}
}

func TestComputeNets_SumsToZero(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	people := []string{"A", "B", "C", "D", "E"}

	var edges []models.Edge
	for i := 0; i < 500; i++ {
		d, c := people[rng.Intn(5)], people[rng.Intn(5)]
		if d == c {
			continue
		}
		edges = append(edges, models.Edge{Debtor: d, Creditor: c, Amount: rng.Float64() * 100})
	}

	var total float64
	for _, v := range ComputeNets(edges) {
		total += v
	}
	if math.Abs(total) > 1e-6 {
		t.Errorf("nets sum to %v, want 0", total)
	}
}

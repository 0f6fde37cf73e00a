package graph

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
)

// Epsilon is the amount at or below which an edge is considered settled.
const Epsilon = 1e-9

// ErrInconsistentGraph means a cycle path refers to an edge that does not
// exist. It indicates a bug in cycle detection, never bad input.
var ErrInconsistentGraph = errors.New("inconsistent graph")

type pair struct {
	from, to string
}

// ReduceCycle cancels the smallest debt along a closed path.
//
// Each consecutive (from, to) pair of path is matched to the first edge in
// edges with exactly that direction that has not already been matched. The
// minimum matched amount is subtracted from every matched edge; edges left at
// or below Epsilon are dropped. Unmatched edges are kept unchanged and in
// order. It returns the new edge list and the amount cancelled per edge.
func ReduceCycle(edges []models.Edge, path []string) ([]models.Edge, float64, error) {
	if len(path) < 2 || path[0] != path[len(path)-1] {
		return nil, 0, fmt.Errorf("%w: path %v is not a closed loop", ErrInconsistentGraph, path)
	}

	lookup := make(map[pair][]int)
	for i, e := range edges {
		k := pair{e.Debtor, e.Creditor}
		lookup[k] = append(lookup[k], i)
	}

	matched := make(map[int]bool, len(path)-1)
	minAmount := 0.0
	for i := 0; i+1 < len(path); i++ {
		k := pair{path[i], path[i+1]}
		indices := lookup[k]
		if len(indices) == 0 {
			return nil, 0, fmt.Errorf("%w: missing edge %s -> %s", ErrInconsistentGraph, k.from, k.to)
		}
		idx := indices[0]
		lookup[k] = indices[1:]
		matched[idx] = true

		if i == 0 || edges[idx].Amount < minAmount {
			minAmount = edges[idx].Amount
		}
	}

	result := make([]models.Edge, 0, len(edges))
	if minAmount <= 0 {
		return append(result, edges...), 0, nil
	}

	for i, e := range edges {
		if !matched[i] {
			result = append(result, e)
			continue
		}
		remaining := e.Amount - minAmount
		if remaining > Epsilon {
			result = append(result, models.Edge{Debtor: e.Debtor, Creditor: e.Creditor, Amount: remaining})
		}
	}
	return result, minAmount, nil
}

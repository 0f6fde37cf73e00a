package graph

import "github.com/mmynk/splitledger/internal/models"

// Insertion describes the outcome of adding one edge to a graph.
type Insertion struct {
	// Edges is the new edge list.
	Edges []models.Edge

	// Cycle is the closed path that was reduced, nil if none.
	Cycle []string

	// Cancelled is the amount removed from every edge of Cycle.
	Cancelled float64
}

// Insert appends e to edges and collapses the cycle it closes, if any.
// The input slice is never modified.
func Insert(edges []models.Edge, e models.Edge) (Insertion, error) {
	cycle := DetectCycle(edges, e)

	updated := make([]models.Edge, 0, len(edges)+1)
	updated = append(updated, edges...)
	updated = append(updated, e)

	if cycle == nil {
		return Insertion{Edges: updated}, nil
	}

	reduced, cancelled, err := ReduceCycle(updated, cycle)
	if err != nil {
		return Insertion{}, err
	}
	return Insertion{Edges: reduced, Cycle: cycle, Cancelled: cancelled}, nil
}

// Removed is the total debt taken out of the graph: Cancelled from each edge
// of the reduced cycle.
func (ins Insertion) Removed() float64 {
	if len(ins.Cycle) < 2 {
		return 0
	}
	return ins.Cancelled * float64(len(ins.Cycle)-1)
}

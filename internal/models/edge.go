package models

// Edge is a directed debt: Debtor owes Creditor Amount.
// Edges are replaced, never mutated, when a cycle is reduced.
type Edge struct {
	Debtor   string
	Creditor string
	Amount   float64
}

// Graph is the debt graph of one group.
type Graph struct {
	// GroupID is the group this graph belongs to.
	GroupID string

	// Edges is the ordered edge list. Parallel edges between the same
	// ordered pair are kept as separate entries.
	Edges []Edge

	// UpdatedAt is the Unix time in nanoseconds of the last mutation.
	UpdatedAt int64

	// Version is incremented by the store on every successful put.
	// Zero means the graph has never been stored.
	Version int64
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	c := *g
	c.Edges = append([]Edge(nil), g.Edges...)
	return &c
}

// TotalDebt returns the sum of all edge amounts.
func (g *Graph) TotalDebt() float64 {
	var total float64
	for _, e := range g.Edges {
		total += e.Amount
	}
	return total
}

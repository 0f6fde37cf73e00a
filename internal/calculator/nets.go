// Package calculator holds the pure arithmetic of the netting engine: net
// balances, settlement payment planning and expense splitting.
package calculator

import "github.com/mmynk/splitledger/internal/models"

// ComputeNets folds edges into one signed balance per participant.
// Positive means the participant owes overall, negative means they are owed.
// Participants that appear in no edge have no entry.
func ComputeNets(edges []models.Edge) map[string]float64 {
	nets := make(map[string]float64)
	for _, e := range edges {
		nets[e.Debtor] += e.Amount
		nets[e.Creditor] -= e.Amount
	}
	return nets
}

// CopyNets returns a copy of nets that the caller may modify.
func CopyNets(nets map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(nets))
	for k, v := range nets {
		out[k] = v
	}
	return out
}

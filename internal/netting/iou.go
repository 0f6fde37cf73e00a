package netting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/graph"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Expense is a bill paid by one member and shared among participants.
type Expense struct {
	GroupID      string
	Payer        string
	Total        float64
	Subtotal     float64
	Items        []calculator.Item
	Participants []string
}

// AddIOU records that debtor owes creditor amount within the group, collapses
// the cycle the new edge closes and returns the group's updated net balances.
func (e *Engine) AddIOU(ctx context.Context, groupID, debtor, creditor string, amount float64) (map[string]float64, error) {
	if groupID == "" || debtor == "" || creditor == "" {
		return nil, fmt.Errorf("%w: group, debtor and creditor are required", ErrInvalidInput)
	}
	if debtor == creditor {
		return nil, fmt.Errorf("%w: %s cannot owe themselves", ErrInvalidInput, debtor)
	}
	if !validAmount(amount) {
		return nil, fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidInput, amount)
	}

	unlock := e.groupLocks.Lock(groupID)
	nets, err := e.applyEdges(ctx, groupID, []models.Edge{{Debtor: debtor, Creditor: creditor, Amount: amount}})
	unlock()
	if err != nil {
		return nil, err
	}

	e.logger.Info("IOU added", "group_id", groupID, "debtor", debtor, "creditor", creditor, "amount", amount)
	e.triggerAutoSync(groupID, nets)
	return nets, nil
}

// AddExpense splits an expense between its participants and records one IOU
// from every participant other than the payer to the payer. The IOUs are
// applied together: either all of them are stored or none is.
func (e *Engine) AddExpense(ctx context.Context, exp Expense) (map[string]float64, error) {
	if exp.GroupID == "" || exp.Payer == "" {
		return nil, fmt.Errorf("%w: group and payer are required", ErrInvalidInput)
	}

	shares, err := calculator.CalculateSplit(exp.Items, exp.Total, exp.Subtotal, exp.Participants)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	participants := make([]string, 0, len(shares))
	for p := range shares {
		participants = append(participants, p)
	}
	sort.Strings(participants)

	var edges []models.Edge
	for _, p := range participants {
		if p == exp.Payer || shares[p].Total <= graph.Epsilon {
			continue
		}
		edges = append(edges, models.Edge{Debtor: p, Creditor: exp.Payer, Amount: shares[p].Total})
	}
	if len(edges) == 0 {
		return nil, fmt.Errorf("%w: nobody besides the payer owes anything", ErrInvalidInput)
	}

	unlock := e.groupLocks.Lock(exp.GroupID)
	nets, err := e.applyEdges(ctx, exp.GroupID, edges)
	unlock()
	if err != nil {
		return nil, err
	}

	e.logger.Info("Expense added",
		"group_id", exp.GroupID,
		"payer", exp.Payer,
		"total", exp.Total,
		"ious", len(edges),
	)
	e.triggerAutoSync(exp.GroupID, nets)
	return nets, nil
}

// applyEdges inserts edges one by one into the group's graph, persists the
// result and refreshes the cached nets. The caller must hold the group lock.
// Nothing is stored unless every insertion succeeds.
func (e *Engine) applyEdges(ctx context.Context, groupID string, edges []models.Edge) (map[string]float64, error) {
	g, err := e.store.GetGraph(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		g = &models.Graph{GroupID: groupID}
	} else if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", groupID, err)
	}

	current := g.Edges
	type closed struct {
		cycle     []string
		cancelled float64
		removed   float64
	}
	var cycles []closed
	for _, edge := range edges {
		ins, err := graph.Insert(current, edge)
		if err != nil {
			e.logger.Error("Cycle reduction failed",
				"group_id", groupID,
				"debtor", edge.Debtor,
				"creditor", edge.Creditor,
				"error", err,
			)
			return nil, fmt.Errorf("group %s: %w", groupID, err)
		}
		current = ins.Edges
		if ins.Cycle != nil {
			cycles = append(cycles, closed{cycle: ins.Cycle, cancelled: ins.Cancelled, removed: ins.Removed()})
		}
	}

	g.Edges = current
	g.UpdatedAt = e.now().UnixNano()
	if err := e.store.PutGraph(ctx, g); err != nil {
		return nil, fmt.Errorf("store graph %s: %w", groupID, err)
	}

	for i := 0; i < len(edges)-len(cycles); i++ {
		e.metrics.ObserveInsert(false, 0)
	}
	for _, c := range cycles {
		e.metrics.ObserveInsert(true, c.removed)
		e.logger.Info("Debt cycle reduced",
			"group_id", groupID,
			"cycle", c.cycle,
			"cancelled", c.cancelled,
			"removed", c.removed,
		)
	}

	nets := calculator.ComputeNets(g.Edges)
	e.cacheNets(ctx, groupID, nets)
	return calculator.CopyNets(nets), nil
}

// cacheNets overwrites the cached nets. If the write fails the entry is
// dropped so readers recompute from the graph.
func (e *Engine) cacheNets(ctx context.Context, groupID string, nets map[string]float64) {
	key := storage.NetsKey(groupID)
	if err := e.cache.PutBalances(ctx, key, nets); err != nil {
		e.logger.Warn("Failed to cache nets", "group_id", groupID, "error", err)
		if err := e.cache.DeleteBalances(ctx, key); err != nil {
			e.logger.Error("Failed to drop stale nets", "group_id", groupID, "error", err)
		}
	}
}

func validAmount(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0) && !math.IsNaN(amount)
}

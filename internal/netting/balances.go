package netting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mmynk/splitledger/internal/balancesync"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/storage"
)

// GetGroupBalances returns the group's net balances: positive means the
// member owes, negative means the member is owed. A group that never had an
// IOU has no balances. The result is a copy.
func (e *Engine) GetGroupBalances(ctx context.Context, groupID string) (map[string]float64, error) {
	if groupID == "" {
		return nil, fmt.Errorf("%w: group is required", ErrInvalidInput)
	}

	nets, ok, err := e.cache.GetBalances(ctx, storage.NetsKey(groupID))
	if err != nil {
		e.logger.Warn("Failed to read cached nets", "group_id", groupID, "error", err)
	}
	if !ok || err != nil {
		// The shared recompute outlives any single caller; each caller still
		// stops waiting when its own context ends.
		flight := e.recompute.DoChan(groupID, func() (any, error) {
			return e.recomputeNets(context.WithoutCancel(ctx), groupID)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-flight:
			if res.Err != nil {
				return nil, res.Err
			}
			nets = res.Val.(map[string]float64)
		}
	}

	if e.logger.Enabled(ctx, slog.LevelDebug) {
		e.logDrift(ctx, groupID, nets)
	}
	return calculator.CopyNets(nets), nil
}

// recomputeNets derives nets from the stored graph under the group lock, so a
// concurrent mutation cannot be overwritten by older nets.
func (e *Engine) recomputeNets(ctx context.Context, groupID string) (map[string]float64, error) {
	unlock := e.groupLocks.Lock(groupID)
	defer unlock()

	if nets, ok, err := e.cache.GetBalances(ctx, storage.NetsKey(groupID)); err == nil && ok {
		return nets, nil
	}

	g, err := e.store.GetGraph(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return map[string]float64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", groupID, err)
	}

	nets := calculator.ComputeNets(g.Edges)
	e.cacheNets(ctx, groupID, nets)
	e.logger.Debug("Recomputed nets", "group_id", groupID, "members", len(nets))
	return nets, nil
}

// logDrift compares nets with the last synchronized ledger balances.
func (e *Engine) logDrift(ctx context.Context, groupID string, nets map[string]float64) {
	synced, ok, err := e.cache.GetBalances(ctx, storage.SyncedKey(groupID))
	if err != nil || !ok {
		return
	}
	drifted := 0
	for holder, target := range nets {
		if math.Abs(target-synced[holder]) > balancesync.Threshold {
			drifted++
		}
	}
	for holder, b := range synced {
		if _, ok := nets[holder]; !ok && math.Abs(b) > balancesync.Threshold {
			drifted++
		}
	}
	if drifted > 0 {
		e.logger.Debug("Nets drifted from synchronized balances", "group_id", groupID, "holders", drifted)
	}
}

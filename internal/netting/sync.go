package netting

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mmynk/splitledger/internal/balancesync"
	"github.com/mmynk/splitledger/internal/storage"
)

// SyncBalances reconciles the ledger balances of the group's holders with
// its nets. See balancesync.Syncer.SyncBalances.
func (e *Engine) SyncBalances(ctx context.Context, req balancesync.Request) (map[string]float64, error) {
	if req.GroupID == "" || req.Issuer == "" || req.IssuanceID == "" {
		return nil, fmt.Errorf("%w: group, issuer and issuance are required", ErrInvalidInput)
	}
	return e.syncer.SyncBalances(ctx, req)
}

// triggerAutoSync starts a synchronization of the group's members in the
// background when auto sync is configured. Close waits for it.
func (e *Engine) triggerAutoSync(groupID string, nets map[string]float64) {
	if !e.cfg.AutoSync.enabled() {
		return
	}

	holders := make([]string, 0, len(nets))
	for h := range nets {
		holders = append(holders, h)
	}
	sort.Strings(holders)

	req := balancesync.Request{
		GroupID:    groupID,
		Issuer:     e.cfg.AutoSync.Issuer,
		IssuanceID: e.cfg.AutoSync.IssuanceID,
		Holders:    holders,
	}

	e.background.Add(1)
	go func() {
		defer e.background.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.AutoSync.Timeout)
		defer cancel()

		// Members that left the nets still hold their last synced balance.
		if synced, ok, err := e.cache.GetBalances(ctx, storage.SyncedKey(groupID)); err == nil && ok {
			for h := range synced {
				req.Holders = append(req.Holders, h)
			}
		}

		_, err := e.syncer.SyncBalances(ctx, req)
		var partial *balancesync.PartialSyncFailure
		switch {
		case errors.As(err, &partial):
			e.logger.Warn("Auto sync partially failed", "group_id", groupID, "failed", partial.Failed, "total", partial.Total)
		case err != nil:
			e.logger.Error("Auto sync failed", "group_id", groupID, "error", err)
		}
	}()
}

// Package balancesync reconciles issued token balances on the ledger with a
// group's computed net balances.
package balancesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/keylock"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
)

// Threshold is the smallest balance difference worth a ledger operation.
const Threshold = 1e-6

const (
	DefaultQueryWorkers     = 10
	DefaultOperationWorkers = 5
)

// Operation kinds reported in OpResult.
const (
	KindQuery = "query"
	KindMint  = "mint"
	KindBurn  = "burn"
)

// TargetSource provides the balances a group's holders should have.
type TargetSource interface {
	GetGroupBalances(ctx context.Context, groupID string) (map[string]float64, error)
}

// Request identifies what to synchronize.
type Request struct {
	GroupID    string
	Issuer     string
	IssuanceID string
	Holders    []string
}

// OpResult is the outcome of one ledger operation issued by a sync.
type OpResult struct {
	Holder  string
	Kind    string
	Amount  float64
	Current float64
	Target  float64
	TxHash  string
	Err     error
}

// PartialSyncFailure is returned when at least one operation failed.
// Successful operations are still reflected in the returned balances.
type PartialSyncFailure struct {
	Failed  int
	Total   int
	Results []OpResult
}

func (e *PartialSyncFailure) Error() string {
	return fmt.Sprintf("balance sync: %d of %d operations failed", e.Failed, e.Total)
}

// Unwrap exposes the individual operation errors to errors.Is and errors.As.
func (e *PartialSyncFailure) Unwrap() []error {
	var errs []error
	for _, r := range e.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// Config bounds the synchronizer's concurrency and ledger calls.
type Config struct {
	QueryWorkers     int
	OperationWorkers int

	// LedgerTimeout bounds each ledger call. Zero means no bound beyond the
	// caller's context.
	LedgerTimeout time.Duration
}

// Syncer performs balance synchronization. Syncs of the same group are
// serialized; different groups run in parallel.
type Syncer struct {
	client  ledger.Client
	cache   storage.BalanceCache
	targets TargetSource
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	locks   keylock.Map
}

// New creates a Syncer. Zero worker counts fall back to the defaults and a
// nil logger to slog.Default().
func New(client ledger.Client, cache storage.BalanceCache, targets TargetSource, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Syncer {
	if cfg.QueryWorkers <= 0 {
		cfg.QueryWorkers = DefaultQueryWorkers
	}
	if cfg.OperationWorkers <= 0 {
		cfg.OperationWorkers = DefaultOperationWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		client:  client,
		cache:   cache,
		targets: targets,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

type delta struct {
	holder  string
	current float64
	target  float64
}

func (d delta) amount() float64 { return d.target - d.current }

// SyncBalances brings every holder's ledger balance to its target, writes the
// resulting balances to the synchronized-balance cache and returns them. When
// some operations fail it returns the balances together with a
// *PartialSyncFailure. Holders whose balance could not be read are left out of
// the result and reported as failed queries.
func (s *Syncer) SyncBalances(ctx context.Context, req Request) (map[string]float64, error) {
	if req.GroupID == "" || req.Issuer == "" || req.IssuanceID == "" {
		return nil, errors.New("balance sync: group, issuer and issuance are required")
	}

	unlock := s.locks.Lock(req.GroupID)
	defer unlock()

	s.logger.Info("Starting balance sync", "group_id", req.GroupID, "holders", len(req.Holders))

	target, err := s.targets.GetGroupBalances(ctx, req.GroupID)
	if err != nil {
		return nil, fmt.Errorf("balance sync: read target balances: %w", err)
	}

	current, queryFailures := s.queryBalances(ctx, req)

	deltas := computeDeltas(current, target, queryFailures)
	s.logger.Debug("Computed balance deltas", "group_id", req.GroupID, "deltas", len(deltas))

	results := s.execute(ctx, req, deltas)
	results = append(queryFailures, results...)

	final := make(map[string]float64, len(current))
	for holder, b := range current {
		final[holder] = b
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			s.logger.Error("Balance sync operation failed",
				"group_id", req.GroupID, "holder", r.Holder, "kind", r.Kind, "error", r.Err)
			continue
		}
		final[r.Holder] = r.Target
	}

	if err := s.cache.PutBalances(ctx, storage.SyncedKey(req.GroupID), final); err != nil {
		return nil, fmt.Errorf("balance sync: cache synchronized balances: %w", err)
	}

	s.logger.Info("Balance sync completed",
		"group_id", req.GroupID,
		"operations", len(results),
		"failed", failed,
	)

	if failed > 0 {
		return final, &PartialSyncFailure{Failed: failed, Total: len(results), Results: results}
	}
	return final, nil
}

// queryBalances reads every holder's balance with at most QueryWorkers calls
// in flight.
func (s *Syncer) queryBalances(ctx context.Context, req Request) (map[string]float64, []OpResult) {
	holders := uniqueSorted(req.Holders)
	balances := make([]float64, len(holders))
	errs := make([]error, len(holders))

	var g errgroup.Group
	g.SetLimit(s.cfg.QueryWorkers)
	for i, holder := range holders {
		i, holder := i, holder
		g.Go(func() error {
			callCtx, cancel := s.callContext(ctx)
			defer cancel()
			balances[i], errs[i] = s.client.QueryBalance(callCtx, holder, req.IssuanceID)
			return nil
		})
	}
	g.Wait()

	current := make(map[string]float64, len(holders))
	var failures []OpResult
	for i, holder := range holders {
		if errs[i] != nil {
			failures = append(failures, OpResult{Holder: holder, Kind: KindQuery, Err: errs[i]})
			continue
		}
		current[holder] = balances[i]
	}
	return current, failures
}

// computeDeltas returns the holders whose balance differs from the target by
// more than Threshold, sorted by holder. Holders absent on one side count as
// zero there. Holders whose query failed are skipped.
func computeDeltas(current, target map[string]float64, skip []OpResult) []delta {
	skipped := make(map[string]bool, len(skip))
	for _, r := range skip {
		skipped[r.Holder] = true
	}

	holders := make([]string, 0, len(current)+len(target))
	for h := range current {
		holders = append(holders, h)
	}
	for h := range target {
		if _, ok := current[h]; !ok {
			holders = append(holders, h)
		}
	}
	sort.Strings(holders)

	var deltas []delta
	for _, h := range holders {
		if skipped[h] {
			continue
		}
		d := delta{holder: h, current: current[h], target: target[h]}
		if math.Abs(d.amount()) > Threshold {
			deltas = append(deltas, d)
		}
	}
	return deltas
}

// execute mints or burns each delta with at most OperationWorkers calls in
// flight and waits for all of them.
func (s *Syncer) execute(ctx context.Context, req Request, deltas []delta) []OpResult {
	results := make([]OpResult, len(deltas))

	var g errgroup.Group
	g.SetLimit(s.cfg.OperationWorkers)
	for i, d := range deltas {
		i, d := i, d
		g.Go(func() error {
			callCtx, cancel := s.callContext(ctx)
			defer cancel()

			r := OpResult{Holder: d.holder, Current: d.current, Target: d.target, Amount: math.Abs(d.amount())}
			if d.amount() > 0 {
				r.Kind = KindMint
				r.TxHash, r.Err = s.client.Mint(callCtx, req.Issuer, d.holder, r.Amount, req.IssuanceID)
			} else {
				r.Kind = KindBurn
				r.TxHash, r.Err = s.client.Burn(callCtx, req.Issuer, d.holder, r.Amount, req.IssuanceID)
			}
			s.metrics.ObserveSyncOperation(r.Kind, r.Err)
			if r.Err == nil {
				s.logger.Debug("Balance sync operation succeeded",
					"holder", d.holder, "kind", r.Kind, "amount", r.Amount, "tx_hash", r.TxHash)
			}
			results[i] = r
			return nil
		})
	}
	g.Wait()

	return results
}

func (s *Syncer) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.LedgerTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.LedgerTimeout)
	}
	return context.WithCancel(ctx)
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

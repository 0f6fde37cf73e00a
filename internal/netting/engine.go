// Package netting is the settlement engine. It keeps each group's debt graph
// free of cycles, derives net balances from it and turns those balances into
// escrow-backed settlement proposals that signers approve before they reach
// the ledger.
//
// Mutations of one group's graph are serialized, as are mutations of one
// proposal. When both are needed the proposal lock is taken first.
package netting

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mmynk/splitledger/internal/balancesync"
	"github.com/mmynk/splitledger/internal/keylock"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
)

// Engine implements the caller-facing netting and settlement operations.
// It is safe for concurrent use.
type Engine struct {
	store   storage.Store
	cache   storage.BalanceCache
	ledger  ledger.Client
	syncer  *balancesync.Syncer
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string

	groupLocks    keylock.Map
	proposalLocks keylock.Map
	recompute     singleflight.Group

	background sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics records engine activity in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator sets the proposal ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an Engine over the given store, balance cache and ledger.
func New(store storage.Store, cache storage.BalanceCache, client ledger.Client, cfg Config, opts ...Option) *Engine {
	cfg.applyDefaults()
	e := &Engine{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ledger = metrics.InstrumentLedger(client, e.metrics)
	e.syncer = balancesync.New(e.ledger, cache, e, cfg.Sync, e.logger, e.metrics)
	return e
}

// Close waits for background synchronizations to finish.
func (e *Engine) Close() {
	e.background.Wait()
}

// ledgerContext applies the configured per-call ledger timeout.
func (e *Engine) ledgerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.LedgerTimeout > 0 {
		return context.WithTimeout(ctx, e.cfg.LedgerTimeout)
	}
	return context.WithCancel(ctx)
}

package netting

import (
	"time"

	"github.com/mmynk/splitledger/internal/balancesync"
)

const (
	DefaultRequiredSignatures   = 2
	DefaultEscrowHold           = time.Hour
	DefaultMaxBroadcastAttempts = 3
	DefaultAutoSyncTimeout      = 30 * time.Second
)

// Config holds the engine's tunables.
type Config struct {
	// RequiredSignatures is the number of distinct signers that moves a
	// proposal to ready_to_broadcast.
	RequiredSignatures int

	// EscrowHold is how long an escrow stays locked before it may be
	// canceled.
	EscrowHold time.Duration

	// MaxBroadcastAttempts is the number of failed submissions of one escrow
	// after which the proposal fails.
	MaxBroadcastAttempts int

	// LedgerTimeout bounds each ledger call. Zero leaves it to the caller's
	// context.
	LedgerTimeout time.Duration

	// ApplyCompletedSettlements records executed payments back into the
	// group's graph when a proposal completes.
	ApplyCompletedSettlements bool

	Sync balancesync.Config

	// AutoSync, when Issuer and IssuanceID are set, synchronizes ledger
	// balances after every graph change.
	AutoSync AutoSyncConfig
}

// AutoSyncConfig configures synchronization after graph changes.
type AutoSyncConfig struct {
	Issuer     string
	IssuanceID string
	Timeout    time.Duration
}

func (c AutoSyncConfig) enabled() bool {
	return c.Issuer != "" && c.IssuanceID != ""
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		RequiredSignatures:        DefaultRequiredSignatures,
		EscrowHold:                DefaultEscrowHold,
		MaxBroadcastAttempts:      DefaultMaxBroadcastAttempts,
		ApplyCompletedSettlements: true,
		Sync: balancesync.Config{
			QueryWorkers:     balancesync.DefaultQueryWorkers,
			OperationWorkers: balancesync.DefaultOperationWorkers,
		},
		AutoSync: AutoSyncConfig{Timeout: DefaultAutoSyncTimeout},
	}
}

func (c *Config) applyDefaults() {
	if c.RequiredSignatures <= 0 {
		c.RequiredSignatures = DefaultRequiredSignatures
	}
	if c.EscrowHold <= 0 {
		c.EscrowHold = DefaultEscrowHold
	}
	if c.MaxBroadcastAttempts <= 0 {
		c.MaxBroadcastAttempts = DefaultMaxBroadcastAttempts
	}
	if c.AutoSync.Timeout <= 0 {
		c.AutoSync.Timeout = DefaultAutoSyncTimeout
	}
	if c.Sync.LedgerTimeout == 0 {
		c.Sync.LedgerTimeout = c.LedgerTimeout
	}
}

package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/ledger/sim"
)

func TestObserveInsert(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveInsert(false, 0)
	m.ObserveInsert(true, 12.5)

	if got := testutil.ToFloat64(m.IOUsAdded); got != 2 {
		t.Errorf("Expected 2 IOUs, got %v", got)
	}
	if got := testutil.ToFloat64(m.CyclesReduced); got != 1 {
		t.Errorf("Expected 1 cycle, got %v", got)
	}
	if got := testutil.ToFloat64(m.DebtCancelled); got != 12.5 {
		t.Errorf("Expected 12.5 cancelled, got %v", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveInsert(true, 1)
	m.ObserveTransition("completed")
	m.ObserveSyncOperation("mint", nil)

	l := sim.New()
	if InstrumentLedger(l, nil) != ledger.Client(l) {
		t.Error("Expected nil metrics to leave the client unwrapped")
	}
}

func TestInstrumentLedger(t *testing.T) {
	m := New(prometheus.NewRegistry())
	l := sim.New()
	l.FailNext(sim.OpMint, 1, ledger.KindInsufficientFunds)
	c := InstrumentLedger(l, m)
	ctx := context.Background()

	if _, err := c.Mint(ctx, "issuer", "A", 1, "usd"); err == nil {
		t.Fatal("Expected injected failure")
	}
	if _, err := c.Mint(ctx, "issuer", "A", 1, "usd"); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if got := testutil.ToFloat64(m.LedgerCalls.WithLabelValues("mint", "ok")); got != 1 {
		t.Errorf("Expected 1 ok mint, got %v", got)
	}
	if got := testutil.ToFloat64(m.LedgerCalls.WithLabelValues("mint", "insufficient_funds")); got != 1 {
		t.Errorf("Expected 1 failed mint, got %v", got)
	}
	if got := testutil.CollectAndCount(m.LedgerLatency); got != 1 {
		t.Errorf("Expected 1 latency series, got %d", got)
	}
}

package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmynk/splitledger/internal/ledger"
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func mustEscrow(t *testing.T, payer, payee string, amount float64, cancelAfter int64) ledger.EscrowCreate {
	t.Helper()
	e, err := ledger.NewEscrowCreate(payer, payee, amount, cancelAfter, "group:g1")
	if err != nil {
		t.Fatalf("NewEscrowCreate failed: %v", err)
	}
	return e
}

func assertKind(t *testing.T, err error, want ledger.Kind) {
	t.Helper()
	var le *ledger.Error
	if !errors.As(err, &le) {
		t.Fatalf("expected *ledger.Error of kind %s, got %v", want, err)
	}
	if le.Kind != want {
		t.Errorf("kind: expected %s, got %s", want, le.Kind)
	}
}

func TestLedger_EscrowLifecycle(t *testing.T) {
	ctx := context.Background()
	l := New(WithClock(fixedClock(1000)))

	e := mustEscrow(t, "A", "B", 10, 4600)
	r, err := l.SubmitEscrowCreate(ctx, e)
	if err != nil {
		t.Fatalf("SubmitEscrowCreate failed: %v", err)
	}
	if !r.Confirmed || r.TxHash == "" {
		t.Errorf("unexpected receipt: %+v", r)
	}

	// Identical payload must not create a second escrow.
	again, err := l.SubmitEscrowCreate(ctx, e)
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if again.TxHash != r.TxHash {
		t.Errorf("resubmit: expected hash %s, got %s", r.TxHash, again.TxHash)
	}
	if got := l.EscrowCount(); got != 1 {
		t.Errorf("escrow count: expected 1, got %d", got)
	}

	finish, err := l.SubmitEscrowFinish(ctx, r.TxHash)
	if err != nil {
		t.Fatalf("SubmitEscrowFinish failed: %v", err)
	}
	if finish == r.TxHash {
		t.Error("finish hash must differ from create hash")
	}

	if _, state, ok := l.Escrow(r.TxHash); !ok || state != EscrowFinished {
		t.Errorf("state: expected finished, got %v (found=%v)", state, ok)
	}

	_, err = l.SubmitEscrowFinish(ctx, r.TxHash)
	assertKind(t, err, ledger.KindPermissionDenied)
}

func TestLedger_EscrowCancel(t *testing.T) {
	ctx := context.Background()
	now := int64(1000)
	l := New(WithClock(func() time.Time { return time.Unix(now, 0) }))

	r, err := l.SubmitEscrowCreate(ctx, mustEscrow(t, "A", "B", 1, 2000))
	if err != nil {
		t.Fatalf("SubmitEscrowCreate failed: %v", err)
	}

	// Cancel before CancelAfter.
	_, err = l.SubmitEscrowCancel(ctx, r.TxHash)
	assertKind(t, err, ledger.KindPermissionDenied)

	now = 2000
	_, err = l.SubmitEscrowFinish(ctx, r.TxHash)
	assertKind(t, err, ledger.KindExpired)

	if _, err := l.SubmitEscrowCancel(ctx, r.TxHash); err != nil {
		t.Fatalf("SubmitEscrowCancel failed: %v", err)
	}
	if _, state, _ := l.Escrow(r.TxHash); state != EscrowCanceled {
		t.Errorf("state: expected canceled, got %v", state)
	}
}

func TestLedger_UnknownEscrow(t *testing.T) {
	_, err := New().SubmitEscrowFinish(context.Background(), "NOPE")
	assertKind(t, err, ledger.KindNotFound)
}

func TestLedger_Balances(t *testing.T) {
	ctx := context.Background()
	l := New()
	l.SetBalance("usd", "A", 5)

	if _, err := l.Mint(ctx, "issuer", "A", 10, "usd"); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if _, err := l.Burn(ctx, "issuer", "B", 3, "usd"); err != nil {
		t.Fatalf("Burn failed: %v", err)
	}

	tests := []struct {
		holder, issuance string
		want             float64
	}{
		{holder: "A", issuance: "usd", want: 15},
		{holder: "B", issuance: "usd", want: -3},
		{holder: "A", issuance: "eur", want: 0},
	}
	for _, tt := range tests {
		got, err := l.QueryBalance(ctx, tt.holder, tt.issuance)
		if err != nil {
			t.Fatalf("QueryBalance(%s, %s) failed: %v", tt.holder, tt.issuance, err)
		}
		if got != tt.want {
			t.Errorf("balance of %s in %s: expected %v, got %v", tt.holder, tt.issuance, tt.want, got)
		}
	}

	if _, err := l.Mint(ctx, "", "A", 1, "usd"); err == nil {
		t.Error("expected mint without issuer to fail")
	}
}

func TestLedger_Faults(t *testing.T) {
	ctx := context.Background()
	l := New()

	l.FailNext(OpMint, 2, ledger.KindUnavailable)
	for i := 0; i < 2; i++ {
		_, err := l.Mint(ctx, "issuer", "A", 1, "usd")
		assertKind(t, err, ledger.KindUnavailable)
	}
	if _, err := l.Mint(ctx, "issuer", "A", 1, "usd"); err != nil {
		t.Fatalf("third mint should succeed: %v", err)
	}
	if got := l.Calls(OpMint); got != 3 {
		t.Errorf("mint calls: expected 3, got %d", got)
	}

	l.FailSubject(OpQueryBalance, "B", ledger.KindPermissionDenied)
	if _, err := l.QueryBalance(ctx, "A", "usd"); err != nil {
		t.Errorf("query of A should succeed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := l.QueryBalance(ctx, "B", "usd"); err == nil {
			t.Errorf("query %d of B: expected subject fault to persist", i)
		}
	}

	l.ClearFaults()
	if _, err := l.QueryBalance(ctx, "B", "usd"); err != nil {
		t.Errorf("query after ClearFaults failed: %v", err)
	}
}

func TestLedger_ContextDeadline(t *testing.T) {
	l := New(WithLatency(time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := l.QueryBalance(ctx, "A", "usd")
	assertKind(t, err, ledger.KindUnavailable)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded in chain, got %v", err)
	}
}

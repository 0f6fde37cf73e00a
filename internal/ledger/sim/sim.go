// Package sim is an in-memory ledger used by the development server and by
// tests. It keeps escrows and issued balances in maps and can be told to fail
// specific operations.
package sim

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mmynk/splitledger/internal/ledger"
)

var _ ledger.Client = (*Ledger)(nil)

// Op names a ledger operation for fault injection and call counting.
type Op string

const (
	OpEscrowCreate Op = "escrow_create"
	OpEscrowFinish Op = "escrow_finish"
	OpEscrowCancel Op = "escrow_cancel"
	OpQueryBalance Op = "query_balance"
	OpMint         Op = "mint"
	OpBurn         Op = "burn"
)

// EscrowState is the lifecycle of a simulated escrow.
type EscrowState string

const (
	EscrowOpen     EscrowState = "open"
	EscrowFinished EscrowState = "finished"
	EscrowCanceled EscrowState = "canceled"
)

type escrow struct {
	create EscrowCreateRecord
	state  EscrowState
}

// EscrowCreateRecord is an escrow as the simulator stores it.
type EscrowCreateRecord struct {
	ledger.EscrowCreate
	TxHash string
}

type fault struct {
	op        Op
	subject   string
	remaining int // negative: until cleared
	kind      ledger.Kind
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source used for escrow expiry checks.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLatency delays every call by d, or until the context is done.
func WithLatency(d time.Duration) Option {
	return func(l *Ledger) { l.latency = d }
}

// Ledger is a concurrency-safe simulated ledger.
type Ledger struct {
	now     func() time.Time
	latency time.Duration

	mu        sync.Mutex
	seq       int
	escrows   map[string]*escrow
	byPayload map[string]string
	balances  map[string]map[string]float64
	faults    []*fault
	calls     map[Op]int
}

// New creates an empty Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		now:       time.Now,
		escrows:   make(map[string]*escrow),
		byPayload: make(map[string]string),
		balances:  make(map[string]map[string]float64),
		calls:     make(map[Op]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FailNext makes the next times calls of op fail with kind.
func (l *Ledger) FailNext(op Op, times int, kind ledger.Kind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults = append(l.faults, &fault{op: op, remaining: times, kind: kind})
}

// FailSubject makes every call of op about subject fail with kind until
// ClearFaults is called. The subject is the holder for balance operations,
// the payer for escrow creation and the escrow's tx hash otherwise.
func (l *Ledger) FailSubject(op Op, subject string, kind ledger.Kind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults = append(l.faults, &fault{op: op, subject: subject, remaining: -1, kind: kind})
}

// ClearFaults removes all injected faults.
func (l *Ledger) ClearFaults() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults = nil
}

// Calls returns how many times op was invoked, including failed calls.
func (l *Ledger) Calls(op Op) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[op]
}

// SetBalance sets holder's balance of an issuance.
func (l *Ledger) SetBalance(issuanceID, holder string, amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issuance(issuanceID)[holder] = amount
}

// Escrow returns the escrow created by txHash.
func (l *Ledger) Escrow(txHash string) (EscrowCreateRecord, EscrowState, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.escrows[txHash]
	if !ok {
		return EscrowCreateRecord{}, "", false
	}
	return e.create, e.state, true
}

// EscrowCount returns the number of distinct escrows created.
func (l *Ledger) EscrowCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.escrows)
}

func (l *Ledger) SubmitEscrowCreate(ctx context.Context, e ledger.EscrowCreate) (ledger.Receipt, error) {
	const op = "escrow create"
	if err := l.begin(ctx, OpEscrowCreate, e.Payer, op); err != nil {
		return ledger.Receipt{}, err
	}

	payload, err := ledger.EncodeEscrowCreate(e)
	if err != nil {
		return ledger.Receipt{}, ledger.NewError(op, ledger.KindUnknown, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Resubmitting an open escrow is a no-op; a finished or canceled one may
	// be created again.
	if hash, ok := l.byPayload[string(payload)]; ok && l.escrows[hash].state == EscrowOpen {
		return ledger.Receipt{TxHash: hash, Confirmed: true}, nil
	}
	if e.Drops <= 0 {
		return ledger.Receipt{}, ledger.NewError(op, ledger.KindUnknown, errors.New("non-positive amount"))
	}
	if e.CancelAfter != 0 && l.now().Unix() >= e.CancelAfter {
		return ledger.Receipt{}, ledger.NewError(op, ledger.KindExpired, errors.New("cancel_after already passed"))
	}

	hash := l.nextHash(string(OpEscrowCreate))
	l.escrows[hash] = &escrow{
		create: EscrowCreateRecord{EscrowCreate: e, TxHash: hash},
		state:  EscrowOpen,
	}
	l.byPayload[string(payload)] = hash
	return ledger.Receipt{TxHash: hash, Confirmed: true}, nil
}

func (l *Ledger) SubmitEscrowFinish(ctx context.Context, txHash string) (string, error) {
	const op = "escrow finish"
	if err := l.begin(ctx, OpEscrowFinish, txHash, op); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.openEscrow(op, txHash)
	if err != nil {
		return "", err
	}
	if e.create.CancelAfter != 0 && l.now().Unix() >= e.create.CancelAfter {
		return "", ledger.NewError(op, ledger.KindExpired, fmt.Errorf("escrow %s expired", txHash))
	}
	e.state = EscrowFinished
	return l.nextHash(string(OpEscrowFinish)), nil
}

func (l *Ledger) SubmitEscrowCancel(ctx context.Context, txHash string) (string, error) {
	const op = "escrow cancel"
	if err := l.begin(ctx, OpEscrowCancel, txHash, op); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.openEscrow(op, txHash)
	if err != nil {
		return "", err
	}
	if l.now().Unix() < e.create.CancelAfter {
		return "", ledger.NewError(op, ledger.KindPermissionDenied,
			fmt.Errorf("escrow %s not cancelable before %d", txHash, e.create.CancelAfter))
	}
	e.state = EscrowCanceled
	return l.nextHash(string(OpEscrowCancel)), nil
}

func (l *Ledger) QueryBalance(ctx context.Context, holder, issuanceID string) (float64, error) {
	if err := l.begin(ctx, OpQueryBalance, holder, "query balance"); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.issuance(issuanceID)[holder], nil
}

func (l *Ledger) Mint(ctx context.Context, issuer, holder string, amount float64, issuanceID string) (string, error) {
	const op = "mint"
	if err := l.begin(ctx, OpMint, holder, op); err != nil {
		return "", err
	}
	if issuer == "" || amount <= 0 {
		return "", ledger.NewError(op, ledger.KindPermissionDenied, errors.New("issuer and positive amount required"))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.issuance(issuanceID)[holder] += amount
	return l.nextHash(string(OpMint)), nil
}

func (l *Ledger) Burn(ctx context.Context, issuer, holder string, amount float64, issuanceID string) (string, error) {
	const op = "burn"
	if err := l.begin(ctx, OpBurn, holder, op); err != nil {
		return "", err
	}
	if issuer == "" || amount <= 0 {
		return "", ledger.NewError(op, ledger.KindPermissionDenied, errors.New("issuer and positive amount required"))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Balances may go negative: a net creditor holds a negative position.
	l.issuance(issuanceID)[holder] -= amount
	return l.nextHash(string(OpBurn)), nil
}

// begin counts the call, applies latency and injected faults.
func (l *Ledger) begin(ctx context.Context, o Op, subject, op string) error {
	l.mu.Lock()
	l.calls[o]++
	kind, failed := l.takeFault(o, subject)
	l.mu.Unlock()

	if l.latency > 0 {
		timer := time.NewTimer(l.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ledger.AsError(op, ctx.Err())
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return ledger.AsError(op, err)
	}
	if failed {
		return ledger.NewError(op, kind, errors.New("injected fault"))
	}
	return nil
}

func (l *Ledger) takeFault(o Op, subject string) (ledger.Kind, bool) {
	for i, f := range l.faults {
		if f.op != o || (f.subject != "" && f.subject != subject) {
			continue
		}
		if f.remaining > 0 {
			f.remaining--
			if f.remaining == 0 {
				l.faults = append(l.faults[:i], l.faults[i+1:]...)
			}
		}
		return f.kind, true
	}
	return "", false
}

func (l *Ledger) openEscrow(op, txHash string) (*escrow, error) {
	e, ok := l.escrows[txHash]
	if !ok {
		return nil, ledger.NewError(op, ledger.KindNotFound, fmt.Errorf("escrow %s", txHash))
	}
	if e.state != EscrowOpen {
		return nil, ledger.NewError(op, ledger.KindPermissionDenied, fmt.Errorf("escrow %s is %s", txHash, e.state))
	}
	return e, nil
}

func (l *Ledger) issuance(id string) map[string]float64 {
	b, ok := l.balances[id]
	if !ok {
		b = make(map[string]float64)
		l.balances[id] = b
	}
	return b
}

func (l *Ledger) nextHash(kind string) string {
	l.seq++
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s/%d", kind, l.seq)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

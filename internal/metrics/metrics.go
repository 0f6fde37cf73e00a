// Package metrics holds the Prometheus collectors of the netting engine.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/splitledger/internal/ledger"
)

const namespace = "splitledger"

// Metrics groups the engine's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	IOUsAdded           prometheus.Counter
	CyclesReduced       prometheus.Counter
	DebtCancelled       prometheus.Counter
	ProposalTransitions *prometheus.CounterVec
	SyncOperations      *prometheus.CounterVec
	LedgerCalls         *prometheus.CounterVec
	LedgerLatency       *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IOUsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ious_added_total",
			Help:      "IOUs inserted into group graphs.",
		}),
		CyclesReduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_reduced_total",
			Help:      "Debt cycles closed by an insertion and reduced.",
		}),
		DebtCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debt_cancelled_total",
			Help:      "Total debt removed from the graph by cycle reduction, summed over every edge of each cycle.",
		}),
		ProposalTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposal_transitions_total",
			Help:      "Settlement proposals entering each status.",
		}, []string{"status"}),
		SyncOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_operations_total",
			Help:      "Mint and burn operations issued by balance synchronization.",
		}, []string{"kind", "result"}),
		LedgerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_calls_total",
			Help:      "Ledger calls by operation and outcome.",
		}, []string{"op", "result"}),
		LedgerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_call_duration_seconds",
			Help:      "Ledger call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.IOUsAdded,
			m.CyclesReduced,
			m.DebtCancelled,
			m.ProposalTransitions,
			m.SyncOperations,
			m.LedgerCalls,
			m.LedgerLatency,
		)
	}
	return m
}

// ObserveInsert records one IOU insertion and, if it closed a cycle, the
// total debt the reduction removed.
func (m *Metrics) ObserveInsert(cycleClosed bool, removed float64) {
	if m == nil {
		return
	}
	m.IOUsAdded.Inc()
	if cycleClosed {
		m.CyclesReduced.Inc()
		m.DebtCancelled.Add(removed)
	}
}

// ObserveTransition records a proposal entering status.
func (m *Metrics) ObserveTransition(status string) {
	if m == nil {
		return
	}
	m.ProposalTransitions.WithLabelValues(status).Inc()
}

// ObserveSyncOperation records a mint or burn outcome.
func (m *Metrics) ObserveSyncOperation(kind string, err error) {
	if m == nil {
		return
	}
	m.SyncOperations.WithLabelValues(kind, result(err)).Inc()
}

func (m *Metrics) observeLedger(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.LedgerCalls.WithLabelValues(op, result(err)).Inc()
	m.LedgerLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	var le *ledger.Error
	if errors.As(err, &le) {
		return string(le.Kind)
	}
	return "error"
}

// InstrumentLedger wraps c so every call is counted and timed.
func InstrumentLedger(c ledger.Client, m *Metrics) ledger.Client {
	if m == nil {
		return c
	}
	return &instrumentedLedger{next: c, m: m}
}

type instrumentedLedger struct {
	next ledger.Client
	m    *Metrics
}

func (l *instrumentedLedger) SubmitEscrowCreate(ctx context.Context, e ledger.EscrowCreate) (ledger.Receipt, error) {
	start := time.Now()
	r, err := l.next.SubmitEscrowCreate(ctx, e)
	l.m.observeLedger("escrow_create", start, err)
	return r, err
}

func (l *instrumentedLedger) SubmitEscrowFinish(ctx context.Context, txHash string) (string, error) {
	start := time.Now()
	h, err := l.next.SubmitEscrowFinish(ctx, txHash)
	l.m.observeLedger("escrow_finish", start, err)
	return h, err
}

func (l *instrumentedLedger) SubmitEscrowCancel(ctx context.Context, txHash string) (string, error) {
	start := time.Now()
	h, err := l.next.SubmitEscrowCancel(ctx, txHash)
	l.m.observeLedger("escrow_cancel", start, err)
	return h, err
}

func (l *instrumentedLedger) QueryBalance(ctx context.Context, holder, issuanceID string) (float64, error) {
	start := time.Now()
	b, err := l.next.QueryBalance(ctx, holder, issuanceID)
	l.m.observeLedger("query_balance", start, err)
	return b, err
}

func (l *instrumentedLedger) Mint(ctx context.Context, issuer, holder string, amount float64, issuanceID string) (string, error) {
	start := time.Now()
	h, err := l.next.Mint(ctx, issuer, holder, amount, issuanceID)
	l.m.observeLedger("mint", start, err)
	return h, err
}

func (l *instrumentedLedger) Burn(ctx context.Context, issuer, holder string, amount float64, issuanceID string) (string, error) {
	start := time.Now()
	h, err := l.next.Burn(ctx, issuer, holder, amount, issuanceID)
	l.m.observeLedger("burn", start, err)
	return h, err
}

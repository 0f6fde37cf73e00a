package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// DropsPerUnit is the number of indivisible ledger units in one unit of
// account.
const DropsPerUnit = 1_000_000

const escrowCreateType = "EscrowCreate"

// EscrowCreate describes a time-locked payment from Payer to Payee.
type EscrowCreate struct {
	Payer       string
	Payee       string
	Amount      float64
	Drops       int64
	CancelAfter int64
	Memo        string
}

// ErrAmountOutOfRange is returned for amounts that cannot be expressed in
// drops.
var ErrAmountOutOfRange = errors.New("amount out of range")

var maxDrops = decimal.NewFromInt(math.MaxInt64)

// ToDrops converts an amount to drops, rounding half away from zero. Any
// positive amount is at least one drop. Amounts that are not positive,
// not finite or larger than the int64 drop range fail with
// ErrAmountOutOfRange.
func ToDrops(amount float64) (int64, error) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: %v", ErrAmountOutOfRange, amount)
	}
	d := decimal.NewFromFloat(amount).Shift(6).Round(0)
	if d.GreaterThan(maxDrops) {
		return 0, fmt.Errorf("%w: %v exceeds %s drops", ErrAmountOutOfRange, amount, maxDrops)
	}
	drops := d.IntPart()
	if drops < 1 {
		return 1, nil
	}
	return drops, nil
}

// NewEscrowCreate builds the escrow for one payment.
func NewEscrowCreate(payer, payee string, amount float64, cancelAfter int64, memo string) (EscrowCreate, error) {
	drops, err := ToDrops(amount)
	if err != nil {
		return EscrowCreate{}, fmt.Errorf("escrow %s -> %s: %w", payer, payee, err)
	}
	return EscrowCreate{
		Payer:       payer,
		Payee:       payee,
		Amount:      amount,
		Drops:       drops,
		CancelAfter: cancelAfter,
		Memo:        memo,
	}, nil
}

// EncodeEscrowCreate serializes e into the opaque payload stored on a
// proposal. Encoding is deterministic so identical escrows produce
// identical payloads.
func EncodeEscrowCreate(e EscrowCreate) ([]byte, error) {
	if e.Drops <= 0 {
		return nil, fmt.Errorf("%w: %d drops", ErrAmountOutOfRange, e.Drops)
	}
	s, err := structpb.NewStruct(map[string]any{
		"transaction_type": escrowCreateType,
		"account":          e.Payer,
		"destination":      e.Payee,
		"amount":           e.Amount,
		"drops":            fmt.Sprintf("%d", e.Drops),
		"cancel_after":     float64(e.CancelAfter),
		"memo":             e.Memo,
	})
	if err != nil {
		return nil, fmt.Errorf("build escrow payload: %w", err)
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal escrow payload: %w", err)
	}
	return b, nil
}

// DecodeEscrowCreate parses a payload produced by EncodeEscrowCreate.
func DecodeEscrowCreate(payload []byte) (EscrowCreate, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(payload, &s); err != nil {
		return EscrowCreate{}, fmt.Errorf("unmarshal escrow payload: %w", err)
	}
	f := s.GetFields()
	if f["transaction_type"].GetStringValue() != escrowCreateType {
		return EscrowCreate{}, fmt.Errorf("unexpected transaction type %q", f["transaction_type"].GetStringValue())
	}

	drops, err := decimal.NewFromString(f["drops"].GetStringValue())
	if err != nil {
		return EscrowCreate{}, fmt.Errorf("invalid drops: %w", err)
	}
	if !drops.IsInteger() || drops.GreaterThan(maxDrops) {
		return EscrowCreate{}, fmt.Errorf("%w: %s drops", ErrAmountOutOfRange, drops)
	}

	e := EscrowCreate{
		Payer:       f["account"].GetStringValue(),
		Payee:       f["destination"].GetStringValue(),
		Amount:      f["amount"].GetNumberValue(),
		Drops:       drops.IntPart(),
		CancelAfter: int64(f["cancel_after"].GetNumberValue()),
		Memo:        f["memo"].GetStringValue(),
	}
	if e.Payer == "" || e.Payee == "" || e.Drops <= 0 {
		return EscrowCreate{}, fmt.Errorf("incomplete escrow payload")
	}
	return e, nil
}

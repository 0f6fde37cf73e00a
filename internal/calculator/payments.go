package calculator

import (
	"sort"

	"github.com/mmynk/splitledger/internal/models"
)

// Epsilon is the balance at or below which a participant counts as settled.
const Epsilon = 1e-9

type party struct {
	id     string
	amount float64
}

// partition splits nets into debtors (net > Epsilon) and creditors
// (net < -Epsilon). Both lists hold positive amounts and are ordered by
// descending amount; equal amounts keep participant ID order, so the result
// does not depend on map iteration order.
func partition(nets map[string]float64) (debtors, creditors []party) {
	ids := make([]string, 0, len(nets))
	for id := range nets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		switch amount := nets[id]; {
		case amount > Epsilon:
			debtors = append(debtors, party{id: id, amount: amount})
		case amount < -Epsilon:
			creditors = append(creditors, party{id: id, amount: -amount})
		}
	}

	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })
	return debtors, creditors
}

// PlanPayments turns net balances into payments by greedily matching the
// largest remaining debtor with the largest remaining creditor.
//
// Algorithm:
//   - pay min(debtor remaining, creditor remaining)
//   - move past any party whose remainder drops to Epsilon or below
//   - stop when either side runs out
//
// This yields at most len(debtors)+len(creditors)-1 payments. It returns nil
// when there are no debtors or no creditors.
func PlanPayments(nets map[string]float64) []models.Payment {
	debtors, creditors := partition(nets)
	if len(debtors) == 0 || len(creditors) == 0 {
		return nil
	}

	var payments []models.Payment
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amount := d.amount
		if c.amount < amount {
			amount = c.amount
		}

		payments = append(payments, models.Payment{
			Payer:  d.id,
			Payee:  c.id,
			Amount: amount,
		})

		d.amount -= amount
		c.amount -= amount

		if d.amount <= Epsilon {
			i++
		}
		if c.amount <= Epsilon {
			j++
		}
	}
	return payments
}

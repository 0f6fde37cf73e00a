package calculator

import (
	"fmt"
)

// Share is one participant's portion of an expense.
type Share struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// Item is a single line item of an expense.
type Item struct {
	Description string
	Amount      float64
	AssignedTo  []string
}

// CalculateSplit computes how much each participant owes for an expense,
// including a proportional share of tax and fees:
// share_total = share_subtotal × (1 + (total_tax / expense_subtotal)).
// With no items the total is split equally.
func CalculateSplit(items []Item, total float64, subtotal float64, participants []string) (map[string]*Share, error) {
	if subtotal <= 0 {
		return nil, fmt.Errorf("subtotal must be positive")
	}
	if total < subtotal {
		return nil, fmt.Errorf("total %.2f is less than subtotal %.2f", total, subtotal)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}

	tax := total - subtotal
	shares := make(map[string]*Share, len(participants))
	for _, p := range participants {
		shares[p] = &Share{}
	}

	if len(items) == 0 {
		n := float64(len(shares))
		for _, s := range shares {
			s.Subtotal = subtotal / n
			s.Tax = tax / n
			s.Total = total / n
		}
		return shares, nil
	}

	for _, item := range items {
		if len(item.AssignedTo) == 0 {
			continue
		}
		perPerson := item.Amount / float64(len(item.AssignedTo))
		for _, person := range item.AssignedTo {
			s, ok := shares[person]
			if !ok {
				return nil, fmt.Errorf("item %q assigned to non-participant %q", item.Description, person)
			}
			s.Subtotal += perPerson
		}
	}

	for _, s := range shares {
		s.Tax = s.Subtotal * (tax / subtotal)
		s.Total = s.Subtotal + s.Tax
	}
	return shares, nil
}

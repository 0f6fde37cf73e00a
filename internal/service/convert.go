package service

import (
	"github.com/mmynk/splitledger/internal/balancesync"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

func toAPIProposal(p *models.SettlementProposal) *api.Proposal {
	if p == nil {
		return nil
	}
	out := &api.Proposal{
		ID:            p.ID,
		GroupID:       p.GroupID,
		Payments:      make([]api.Payment, len(p.Payments)),
		Escrows:       make([]api.Escrow, len(p.Escrows)),
		Signatures:    make(map[string]string, len(p.Signatures)),
		Status:        string(p.Status),
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
	for i, pay := range p.Payments {
		out.Payments[i] = toAPIPayment(pay)
	}
	for i, esc := range p.Escrows {
		out.Escrows[i] = api.Escrow{
			Payment:     toAPIPayment(esc.Payment),
			CancelAfter: esc.CancelAfter,
			TxHash:      esc.TxHash,
			Confirmed:   esc.Confirmed,
			Executed:    esc.Executed,
			Canceled:    esc.Canceled,
			Attempts:    esc.Attempts,
			LastError:   esc.LastError,
		}
	}
	for k, v := range p.Signatures {
		out.Signatures[k] = v
	}
	return out
}

func toAPIPayment(p models.Payment) api.Payment {
	return api.Payment{Payer: p.Payer, Payee: p.Payee, Amount: p.Amount}
}

func toAPISigner(s *models.Signer) *api.Signer {
	return &api.Signer{
		ID:          s.ID,
		Email:       s.Email,
		DisplayName: s.DisplayName,
		Address:     s.Address,
		CreatedAt:   s.CreatedAt,
	}
}

func toCalculatorItems(items []api.Item) []calculator.Item {
	out := make([]calculator.Item, len(items))
	for i, item := range items {
		out[i] = calculator.Item{
			Description: item.Description,
			Amount:      item.Amount,
			AssignedTo:  item.AssignedTo,
		}
	}
	return out
}

func toAPISyncOperations(results []balancesync.OpResult) []api.SyncOperation {
	ops := make([]api.SyncOperation, 0, len(results))
	for _, r := range results {
		op := api.SyncOperation{
			Holder:  r.Holder,
			Kind:    r.Kind,
			Amount:  r.Amount,
			Current: r.Current,
			Target:  r.Target,
			TxHash:  r.TxHash,
		}
		if r.Err != nil {
			op.Error = r.Err.Error()
		}
		ops = append(ops, op)
	}
	return ops
}

// nonNil keeps empty balance maps encoded as {} rather than null.
func nonNil(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

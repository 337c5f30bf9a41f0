package ledger

import (
	"github.com/Ulthran/ctbus-finance/internal/model"
)

// AccountBalance reconstructs the FIFO-reduced open lots of a holding
// account from a transaction history. Transactions are processed in
// stable date order; every leg touching the account with known units
// contributes a signed position delta.
func AccountBalance(txns []model.Transaction, account string, policy OversellPolicy) ([]model.Position, error) {
	ordered := make([]model.Transaction, len(txns))
	copy(ordered, txns)
	model.SortByDate(ordered)

	var positions []model.Position
	for _, txn := range ordered {
		for _, p := range txn.Postings {
			if p.Account != account || p.Units == nil {
				continue
			}
			positions = append(positions, model.Position{Units: *p.Units, Cost: p.Cost})
		}
	}

	return ReduceFIFO(positions, policy)
}

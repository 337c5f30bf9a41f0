// Package ledger assembles, reconciles and renders the final
// transaction stream: FIFO lot matching, the stock-split reconciliation
// pass, and plain-text ledger output.
package ledger

import (
	"fmt"

	"github.com/Ulthran/ctbus-finance/internal/model"
	"github.com/shopspring/decimal"
)

// OversellPolicy decides what happens when a disposal exceeds the open
// quantity. Statement data that starts mid-history legitimately sells
// shares the ledger never saw acquired, so draining the queue is the
// default; strict mode surfaces it as a data-integrity error.
type OversellPolicy int

const (
	// OversellTolerate silently drains the queue on oversell.
	OversellTolerate OversellPolicy = iota
	// OversellError fails with the unmatched remainder.
	OversellError
)

// OversellErr is returned under the strict policy when a disposal
// exceeds all open lots.
type OversellErr struct {
	Symbol    string
	Remaining string
}

func (e *OversellErr) Error() string {
	return fmt.Sprintf("disposal of %s exceeds open lots for %s", e.Remaining, e.Symbol)
}

// ReduceFIFO applies first-in-first-out matching to a chronologically
// ordered sequence of signed lot deltas for one holding and returns the
// remaining open lots. Positive quantities enqueue new lots; negative
// quantities consume from the oldest lot first. Callers must pass
// positions pre-sorted by date with a stable same-day order.
func ReduceFIFO(positions []model.Position, policy OversellPolicy) ([]model.Position, error) {
	var fifo []model.Position

	for _, pos := range positions {
		qty := pos.Units.Number

		if qty.IsPositive() {
			fifo = append(fifo, pos)
			continue
		}
		if !qty.IsNegative() {
			continue
		}

		sellQty := qty.Neg()
		for sellQty.IsPositive() && len(fifo) > 0 {
			lot := fifo[0]
			lotQty := lot.Units.Number

			if lotQty.LessThanOrEqual(sellQty) {
				sellQty = sellQty.Sub(lotQty)
				fifo = fifo[1:]
				continue
			}

			fifo[0] = model.Position{
				Units: model.NewAmount(lotQty.Sub(sellQty), lot.Units.Currency),
				Cost:  lot.Cost,
			}
			sellQty = decimal.Zero
		}

		if sellQty.IsPositive() && policy == OversellError {
			return nil, &OversellErr{Symbol: pos.Units.Currency, Remaining: sellQty.String()}
		}
	}

	return fifo, nil
}

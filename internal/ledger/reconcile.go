package ledger

import (
	"log/slog"
	"strings"

	"github.com/Ulthran/ctbus-finance/internal/action"
	"github.com/Ulthran/ctbus-finance/internal/model"
	"github.com/shopspring/decimal"
)

// DistributionTodoType flags a distribution-of-shares row whose split
// ratio must be recovered from the position history.
const DistributionTodoType = "DISTRIBUTION"

// Reconciler resolves deferred corrections flagged during extraction.
// It runs only after the full transaction list is assembled, since each
// flagged entry is rewritten against all strictly earlier history.
type Reconciler struct {
	// HoldingPrefix identifies investment holding accounts, e.g.
	// "Assets:Investments:".
	HoldingPrefix string
	Oversell      OversellPolicy
}

// Reconcile applies the reconciliation pass over a date-ordered
// transaction list. Unknown todo types are logged and passed through
// untouched for manual ledger editing.
func (r *Reconciler) Reconcile(txns []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(txns))
	for i, txn := range txns {
		out[i] = r.reconcileOne(txn, i, txns)
	}
	return out
}

func (r *Reconciler) reconcileOne(txn model.Transaction, index int, txns []model.Transaction) model.Transaction {
	todo := txn.Meta(model.MetaTodo)
	if todo == "" {
		return txn
	}

	slog.Info("addressing todo", "todo", todo, "date", txn.Date.Format("2006-01-02"))

	if txn.Meta(model.MetaTodoType) != DistributionTodoType {
		slog.Warn("unhandled todo type", "todo_type", txn.Meta(model.MetaTodoType))
		return txn
	}

	acct, qty, ok := r.holdingLeg(txn)
	if !ok {
		slog.Warn("flagged distribution has no holding posting", "narration", txn.Narration)
		return txn
	}

	prior := make([]model.Transaction, 0, index)
	for _, t := range txns[:index] {
		if referencesAccount(t, acct) {
			prior = append(prior, t)
		}
	}

	positions, err := AccountBalance(prior, acct, r.Oversell)
	if err != nil {
		slog.Warn("failed to reconstruct positions", "account", acct, "error", err)
		return txn
	}

	totalBalance := decimal.Zero
	for _, p := range positions {
		totalBalance = totalBalance.Add(p.Units.Number)
	}
	if totalBalance.IsZero() {
		slog.Warn("no open position before distribution", "account", acct)
		return txn
	}

	ratio := qty.Number.Add(totalBalance).Div(totalBalance)
	symbol := acct[strings.LastIndex(acct, ":")+1:]

	contra := model.NewAmount(model.QuantizeQuantity(ratio.Mul(qty.Number)), qty.Currency).Neg()
	postings := []model.Posting{
		{Account: action.StockSplitPrefix + symbol, Units: &contra, Spec: &model.CostSpec{}},
	}

	// Close each open lot at its original basis and reopen it with the
	// share count scaled by the ratio and the per-unit cost divided by
	// it, leaving the total basis unchanged.
	for _, p := range positions {
		closed := p.Units.Neg()
		var closedCost, reopenedCost *model.Cost
		if p.Cost != nil {
			closedCost = &model.Cost{PerUnit: p.Cost.PerUnit, Currency: p.Cost.Currency}
			reopenedCost = &model.Cost{
				PerUnit:  model.QuantizeCost(p.Cost.PerUnit.Div(ratio)),
				Currency: p.Cost.Currency,
			}
		}
		reopened := model.NewAmount(model.QuantizeQuantity(ratio.Mul(p.Units.Number)), p.Units.Currency)
		postings = append(postings,
			model.Posting{Account: acct, Units: &closed, Cost: closedCost},
			model.Posting{Account: acct, Units: &reopened, Cost: reopenedCost},
		)
	}

	meta := make(map[string]string, len(txn.Metadata))
	for k, v := range txn.Metadata {
		if k == model.MetaTodo || k == model.MetaTodoType {
			continue
		}
		meta[k] = v
	}
	meta["stock_split"] = splitAnnotation(ratio)

	return model.Transaction{
		Date:      txn.Date,
		Payee:     txn.Payee,
		Narration: txn.Narration,
		Metadata:  meta,
		Postings:  postings,
	}
}

// holdingLeg finds the single posting referencing an investment holding
// account and returns its account and share delta.
func (r *Reconciler) holdingLeg(txn model.Transaction) (string, model.Amount, bool) {
	for _, p := range txn.Postings {
		if strings.HasPrefix(p.Account, r.HoldingPrefix) && p.Units != nil {
			return p.Account, *p.Units, true
		}
	}
	return "", model.Amount{}, false
}

func referencesAccount(txn model.Transaction, account string) bool {
	for _, p := range txn.Postings {
		if p.Account == account {
			return true
		}
	}
	return false
}

func splitAnnotation(ratio decimal.Decimal) string {
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		return ratio.String() + " to 1"
	}
	return "1 to " + decimal.NewFromInt(1).Div(ratio).String()
}

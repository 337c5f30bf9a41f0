package importers

import (
	"github.com/Ulthran/ctbus-finance/internal/model"
)

// extracted pairs a built transaction with its classification flags
// while an importer is still assembling a file's output.
type extracted struct {
	txn    model.Transaction
	merger bool
}

// consolidateMergers merges adjacent same-day merger transactions into
// one entry. Brokerages export a single corporate action as separate
// shares-out and shares-in rows; each row alone is unbalanced, so their
// postings are concatenated and narrations joined.
func consolidateMergers(rows []extracted) []model.Transaction {
	txns := make([]model.Transaction, 0, len(rows))
	lastMerger := false
	for _, row := range rows {
		if row.merger && lastMerger && len(txns) > 0 && txns[len(txns)-1].Date.Equal(row.txn.Date) {
			last := &txns[len(txns)-1]
			last.Postings = append(last.Postings, row.txn.Postings...)
			if row.txn.Narration != last.Narration {
				last.Narration += " / " + row.txn.Narration
			}
			continue
		}
		txns = append(txns, row.txn)
		lastMerger = row.merger
	}
	return txns
}

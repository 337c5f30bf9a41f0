package ledger

import (
	"fmt"
	"io"
	"sort"

	"github.com/Ulthran/ctbus-finance/internal/model"
)

// Write renders transactions as plain-text ledger entries, one blank
// line between entries. Callers are expected to sort first.
func Write(w io.Writer, txns []model.Transaction) error {
	for i, txn := range txns {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeTransaction(w, txn); err != nil {
			return err
		}
	}
	return nil
}

func writeTransaction(w io.Writer, txn model.Transaction) error {
	header := txn.Date.Format("2006-01-02") + " *"
	if txn.Payee != "" {
		header += fmt.Sprintf(" %q", txn.Payee)
	}
	header += fmt.Sprintf(" %q", txn.Narration)
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	keys := make([]string, 0, len(txn.Metadata))
	for k := range txn.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "  %s: %q\n", k, txn.Metadata[k]); err != nil {
			return err
		}
	}

	for _, p := range txn.Postings {
		if _, err := fmt.Fprintln(w, renderPosting(p)); err != nil {
			return err
		}
	}
	return nil
}

func renderPosting(p model.Posting) string {
	line := "  " + p.Account
	if p.Units == nil {
		return line
	}
	line += "  " + p.Units.String()
	switch {
	case p.Cost != nil:
		line += " " + p.Cost.String()
	case p.Spec != nil:
		line += " " + p.Spec.String()
	}
	return line
}

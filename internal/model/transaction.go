package model

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Metadata keys used to defer corrections to the reconciliation pass.
const (
	MetaTodo     = "todo"
	MetaTodoType = "todo_type"
)

// Transaction is one dated, balanced ledger entry assembled from a
// statement row (or several, for consolidated corporate actions).
type Transaction struct {
	Date      time.Time
	Payee     string
	Narration string
	Metadata  map[string]string
	Postings  []Posting
}

// SetMeta sets a metadata key, allocating the map on first use.
func (t *Transaction) SetMeta(key, value string) {
	if t.Metadata == nil {
		t.Metadata = make(map[string]string)
	}
	t.Metadata[key] = value
}

// Meta returns the metadata value for key, or "".
func (t *Transaction) Meta(key string) string {
	return t.Metadata[key]
}

// Hash produces a stable content hash used for duplicate detection
// across repeated imports of overlapping statement exports.
func (t *Transaction) Hash() string {
	var b strings.Builder
	b.WriteString(t.Date.Format("2006-01-02"))
	b.WriteByte(':')
	b.WriteString(t.Payee)
	b.WriteByte(':')
	b.WriteString(t.Narration)
	for _, p := range t.Postings {
		b.WriteByte(':')
		b.WriteString(p.Account)
		if p.Units != nil {
			b.WriteByte('=')
			b.WriteString(p.Units.String())
		}
	}
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum)
}

// Imbalance sums the transaction's legs valued in the given currency.
// Cash legs contribute directly; lot legs with a pinned Cost contribute
// quantity times per-unit cost; legs that cannot be valued (nil units,
// open cost specs without a total) are skipped, since the balancer owns
// them. A balanced transaction returns a value within a cent of zero.
func (t *Transaction) Imbalance(currency string) decimal.Decimal {
	total := decimal.Zero
	for _, p := range t.Postings {
		switch {
		case p.Units == nil:
			continue
		case p.Units.Currency == currency:
			total = total.Add(p.Units.Number)
		case p.Cost != nil && p.Cost.Currency == currency:
			total = total.Add(p.Units.Number.Mul(p.Cost.PerUnit))
		case p.Spec != nil && p.Spec.Total != nil && p.Spec.Currency == currency:
			if p.Units.Number.IsNegative() {
				total = total.Sub(*p.Spec.Total)
			} else {
				total = total.Add(*p.Spec.Total)
			}
		}
	}
	return total
}

// SortByDate orders transactions by date ascending. The sort is stable
// so same-day entries keep their extraction order, which the FIFO
// reducer relies on for reproducible tie-breaking.
func SortByDate(txns []Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.Before(txns[j].Date)
	})
}

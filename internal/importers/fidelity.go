package importers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ulthran/ctbus-finance/internal/action"
	"github.com/Ulthran/ctbus-finance/internal/model"
	"github.com/shopspring/decimal"
)

// Fidelity export columns.
const (
	fidelityColDate      = "Run Date"
	fidelityColAccountNo = "Account Number"
	fidelityColAction    = "Action"
	fidelityColSymbol    = "Symbol"
	fidelityColDesc      = "Description"
	fidelityColType      = "Type"
	fidelityColQuantity  = "Quantity"
	fidelityColPrice     = "Price"
	fidelityColFees      = "Fees"
	fidelityColAmount    = "Amount"
)

// Fidelity exports carry two preamble lines before the CSV header.
const fidelityPreambleLines = 2

// actionKind is the classification of a brokerage row's free-text
// action field.
type actionKind int

const (
	kindUnknown actionKind = iota
	kindSkip
	kindBuy
	kindSell
	kindDividend
	kindCheckReceived
	kindTransfer
	kindMerger
	kindDistribution
	kindForeignTax
	kindFee
)

// actionRule matches a substring of the uppercased action text.
type actionRule struct {
	substr string
	kind   actionKind
}

// fidelityActions maps substrings of the uppercased action text to a
// kind, checked in order. "TRANSFERRED TO" rows are skipped outright:
// the receiving institution's transfer-in row books that movement.
var fidelityActions = []actionRule{
	{"TRANSFERRED TO", kindSkip},
	{"TRANSFERRED FROM", kindTransfer},
	{"DIVIDEND RECEIVED", kindDividend},
	{"CHECK RECEIVED", kindCheckReceived},
	{"BOUGHT", kindBuy},
	{"SOLD", kindSell},
	{"MERGER", kindMerger},
	{"DISTRIBUTION", kindDistribution},
	{"LONG-TERM CAP GAIN", kindDistribution},
	{"IN LIEU OF FRX SHARE", kindDistribution},
	{"FOREIGN TAX PAID", kindForeignTax},
	{"ADVISORY FEE", kindFee},
	{"FEE CHARGED", kindFee},
}

// Fidelity imports Fidelity brokerage transaction exports. Rows that
// cannot be classified are logged and dropped rather than failing the
// file: Fidelity exports mix many action types and a new one must not
// abort an import.
type Fidelity struct {
	account        string
	accountNumbers map[string]string
	currency       string
	symbols        *SymbolTable
}

// NewFidelity builds an importer. accountNumbers maps statement account
// numbers to ledger account names; unmapped numbers fall back to the
// default account.
func NewFidelity(account string, accountNumbers map[string]string, symbols *SymbolTable) *Fidelity {
	if symbols == nil {
		symbols = NewSymbolTable(nil)
	}
	return &Fidelity{
		account:        account,
		accountNumbers: accountNumbers,
		currency:       "USD",
		symbols:        symbols,
	}
}

// Name implements Importer.
func (f *Fidelity) Name() string { return "fidelity" }

// Identify reports whether the file is a Fidelity export for one of the
// configured account numbers.
func (f *Fidelity) Identify(path string) bool {
	rows, err := readRows(path, fidelityPreambleLines)
	if err != nil || len(rows) == 0 {
		return false
	}
	accountNo, ok := rows[0][fidelityColAccountNo]
	if !ok {
		return false
	}
	_, known := f.accountNumbers[strings.Trim(accountNo, `"`)]
	return known
}

// Extract implements Importer.
func (f *Fidelity) Extract(_ context.Context, path string) ([]model.Transaction, error) {
	rows, err := readRows(path, fidelityPreambleLines)
	if err != nil {
		return nil, fmt.Errorf("fidelity: %w", err)
	}

	var out []extracted
	for index, row := range rows {
		txn, merger := f.extractRow(row, index)
		if txn == nil {
			continue
		}
		out = append(out, extracted{txn: *txn, merger: merger})
	}

	return consolidateMergers(out), nil
}

// extractRow classifies one row. A nil return means the row was skipped
// (disclaimer, zero-amount, transfer-out, or unclassifiable); skips are
// logged where a human should review them.
func (f *Fidelity) extractRow(row map[string]string, index int) (*model.Transaction, bool) {
	// Trailing disclaimer rows have no date or account number.
	if row[fidelityColDate] == "" || row[fidelityColAccountNo] == "" {
		return nil, false
	}

	date, err := time.Parse("01/02/2006", row[fidelityColDate])
	if err != nil {
		slog.Warn("skipping fidelity row with bad date",
			"row", index, "date", row[fidelityColDate])
		return nil, false
	}

	actionText := strings.ToUpper(strings.TrimSpace(row[fidelityColAction]))
	kind := classify(fidelityActions, actionText)
	switch kind {
	case kindSkip:
		return nil, false
	case kindUnknown:
		slog.Warn("unhandled fidelity action", "row", index, "action", actionText)
		return nil, false
	}

	accountNo := strings.Trim(row[fidelityColAccountNo], `"`)
	account := f.account
	if mapped, ok := f.accountNumbers[accountNo]; ok {
		account = mapped
	}

	quantity := parseOptional(row[fidelityColQuantity])
	amount := parseOptional(row[fidelityColAmount])
	if amount.IsZero() && quantity.IsZero() {
		return nil, false
	}

	details := action.NewDetails(
		date,
		account,
		f.symbols.Normalize(row[fidelityColSymbol]),
		quantity,
		parseOptional(row[fidelityColPrice]),
		parseOptional(row[fidelityColFees]),
		amount,
		f.currency,
		row[fidelityColType],
	)

	act := buildAction(kind, details)
	postings := act.Postings()
	if len(postings) == 0 {
		return nil, false
	}

	narration := titleCase(row[fidelityColDesc])
	if narration == "" {
		narration = titleCase(row[fidelityColAction])
	}

	txn := model.Transaction{
		Date:      date,
		Narration: narration,
		Postings:  postings,
	}
	if kind == kindDistribution && details.Type == action.SharesDistributionType {
		txn.SetMeta(model.MetaTodo, "recover stock split ratio from position history")
		txn.SetMeta(model.MetaTodoType, "DISTRIBUTION")
	}

	return &txn, kind == kindMerger
}

// classify returns the first table entry whose substring occurs in the
// uppercased action text.
func classify(table []actionRule, actionText string) actionKind {
	for _, entry := range table {
		if strings.Contains(actionText, entry.substr) {
			return entry.kind
		}
	}
	return kindUnknown
}

// buildAction constructs the variant for a classified kind.
func buildAction(kind actionKind, details action.Details) action.Action {
	switch kind {
	case kindBuy:
		return action.Buy{Details: details}
	case kindSell:
		return action.Sell{Details: details}
	case kindDividend:
		return action.Dividend{Details: details}
	case kindCheckReceived:
		return action.CheckReceived{Details: details}
	case kindTransfer:
		return action.Transfer{Details: details}
	case kindMerger:
		return action.Merger{Details: details}
	case kindDistribution:
		return action.Distribution{Details: details}
	case kindForeignTax:
		return action.ForeignTax{Details: details}
	case kindFee:
		return action.Fee{Details: details}
	default:
		return nil
	}
}

// parseOptional reads a numeric field that may be absent, keeping the
// raw sign. Unparseable values degrade to zero; the caller's
// classification decides whether that matters.
func parseOptional(raw string) decimal.Decimal {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero
	}
	d, err := model.ParseNumber(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

package importers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ulthran/ctbus-finance/internal/action"
	"github.com/Ulthran/ctbus-finance/internal/model"
)

// Vanguard export columns.
const (
	vanguardColDate      = "Trade Date"
	vanguardColAccountNo = "Account Number"
	vanguardColType      = "Transaction Type"
	vanguardColDesc      = "Transaction Description"
	vanguardColQuantity  = "Shares"
	vanguardColPrice     = "Share Price"
	vanguardColFees      = "Commissions and Fees"
	vanguardColAmount    = "Net Amount"
	vanguardColSymbol    = "Symbol"
)

// vanguardHeaderPrefix locates the transaction section inside
// Vanguard's multi-section export.
const vanguardHeaderPrefix = "Account Number,"

// sweepFund is where Vanguard parks contributions before investment.
const sweepFund = "VMFXX"

// Vanguard imports Vanguard brokerage exports. The transaction type
// column uses fixed words rather than free text, so classification is
// an exact match over the uppercased value; unhandled types are logged
// and dropped.
type Vanguard struct {
	account        string
	accountNumbers map[string]string
	currency       string
	symbols        *SymbolTable
}

// NewVanguard builds an importer keyed on the configured account
// numbers.
func NewVanguard(account string, accountNumbers map[string]string, symbols *SymbolTable) *Vanguard {
	if symbols == nil {
		symbols = NewSymbolTable(nil)
	}
	return &Vanguard{
		account:        account,
		accountNumbers: accountNumbers,
		currency:       "USD",
		symbols:        symbols,
	}
}

// Name implements Importer.
func (v *Vanguard) Name() string { return "vanguard" }

// Identify reports whether the file carries Vanguard's transaction
// section for a configured account number.
func (v *Vanguard) Identify(path string) bool {
	rows, err := readRowsFrom(path, vanguardHeaderPrefix)
	if err != nil || len(rows) == 0 {
		return false
	}
	_, known := v.accountNumbers[rows[0][vanguardColAccountNo]]
	return known
}

// Extract implements Importer.
func (v *Vanguard) Extract(_ context.Context, path string) ([]model.Transaction, error) {
	rows, err := readRowsFrom(path, vanguardHeaderPrefix)
	if err != nil {
		return nil, fmt.Errorf("vanguard: %w", err)
	}

	var out []extracted
	for index, row := range rows {
		txn, merger := v.extractRow(row, index)
		if txn == nil {
			continue
		}
		out = append(out, extracted{txn: *txn, merger: merger})
	}

	return consolidateMergers(out), nil
}

func (v *Vanguard) extractRow(row map[string]string, index int) (*model.Transaction, bool) {
	if row[vanguardColDate] == "" {
		return nil, false
	}
	date, err := time.Parse("2006-01-02", row[vanguardColDate])
	if err != nil {
		slog.Warn("skipping vanguard row with bad date",
			"row", index, "date", row[vanguardColDate])
		return nil, false
	}

	if row[vanguardColAmount] == "" {
		return nil, false
	}

	typeText := strings.ToUpper(strings.TrimSpace(row[vanguardColType]))
	symbol := v.symbols.Normalize(row[vanguardColSymbol])

	var kind actionKind
	switch typeText {
	case "DIVIDEND":
		kind = kindDividend
	case "BUY", "REINVESTMENT", "SWEEP IN":
		kind = kindBuy
	case "SELL", "SWEEP OUT":
		kind = kindSell
	case "CONTRIBUTION":
		// Contributions land in the sweep money market fund.
		kind = kindBuy
		symbol = sweepFund
	case "MERGER":
		kind = kindMerger
	case "DISTRIBUTION":
		kind = kindDistribution
	default:
		slog.Warn("unhandled vanguard transaction type", "row", index, "type", typeText)
		return nil, false
	}

	account := v.account
	if mapped, ok := v.accountNumbers[row[vanguardColAccountNo]]; ok {
		account = mapped
	}

	details := action.NewDetails(
		date,
		account,
		symbol,
		parseOptional(row[vanguardColQuantity]),
		parseOptional(row[vanguardColPrice]),
		parseOptional(row[vanguardColFees]),
		parseOptional(row[vanguardColAmount]),
		v.currency,
		typeText,
	)

	postings := buildAction(kind, details).Postings()
	if len(postings) == 0 {
		return nil, false
	}

	narration := titleCase(row[vanguardColDesc])
	if narration == "" {
		narration = titleCase(typeText)
	}

	txn := model.Transaction{
		Date:      date,
		Narration: narration,
		Postings:  postings,
	}
	return &txn, kind == kindMerger
}

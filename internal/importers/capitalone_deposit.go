package importers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Ulthran/ctbus-finance/internal/common"
	"github.com/Ulthran/ctbus-finance/internal/model"
)

// Capital One 360 deposit account export columns.
const (
	depositColAccountNo = "Account Number"
	depositColDesc      = "Transaction Description"
	depositColDate      = "Transaction Date"
	depositColType      = "Transaction Type"
	depositColAmount    = "Transaction Amount"
)

// PatternAccount routes a transaction description matching Pattern to
// the given counter account.
type PatternAccount struct {
	Pattern string
	Account string
}

// CapitalOneDeposit imports Capital One 360 checking/savings exports.
// Descriptions are matched against configured regular expressions to
// find the counter account; rows already booked elsewhere (credit card
// payments, internal transfers) are dropped to avoid double counting.
type CapitalOneDeposit struct {
	account   string
	accountNo string
	currency  string
	patterns  []compiledPattern
}

type compiledPattern struct {
	re      *regexp.Regexp
	account string
}

// NewCapitalOneDeposit builds an importer for one deposit account
// number. Invalid patterns are rejected up front so a typo in config
// fails loudly rather than silently never matching.
func NewCapitalOneDeposit(account, accountNo string, patterns []PatternAccount) (*CapitalOneDeposit, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid description pattern %q: %v", common.ErrInvalidConfig, p.Pattern, err)
		}
		compiled = append(compiled, compiledPattern{re: re, account: p.Account})
	}
	return &CapitalOneDeposit{
		account:   account,
		accountNo: accountNo,
		currency:  "USD",
		patterns:  compiled,
	}, nil
}

// Name implements Importer.
func (c *CapitalOneDeposit) Name() string { return "capitalone-deposit" }

// Identify checks the first data row's account number.
func (c *CapitalOneDeposit) Identify(path string) bool {
	rows, err := readRows(path, 0)
	if err != nil || len(rows) == 0 {
		return false
	}
	return rows[0][depositColAccountNo] == c.accountNo
}

// Extract implements Importer. Like the credit card importer, this is a
// fail-fast format: a row-level parse error aborts the file.
func (c *CapitalOneDeposit) Extract(_ context.Context, path string) ([]model.Transaction, error) {
	rows, err := readRows(path, 0)
	if err != nil {
		return nil, fmt.Errorf("capitalone-deposit: %w", err)
	}

	var txns []model.Transaction
	for index, row := range rows {
		txn, err := c.extractRow(row)
		if err != nil {
			return nil, fmt.Errorf("capitalone-deposit: row %d: %w", index+2, err)
		}
		if txn == nil {
			continue
		}
		txns = append(txns, *txn)
	}
	return txns, nil
}

func (c *CapitalOneDeposit) extractRow(row map[string]string) (*model.Transaction, error) {
	date, err := parseDepositDate(row[depositColDate])
	if err != nil {
		return nil, err
	}

	description := titleCase(row[depositColDesc])
	upper := strings.ToUpper(description)

	// Credit card payments are booked on the card side, where the
	// destination card is known; internal transfers only on the
	// checking "Deposit From" row.
	if strings.Contains(upper, "CAPITAL ONE CRCARDPMT") {
		return nil, nil
	}
	if strings.Contains(upper, "WITHDRAWAL TO 360 CHECKING") {
		return nil, nil
	}

	var raw string
	switch strings.ToUpper(row[depositColType]) {
	case "DEBIT":
		raw = row[depositColAmount]
	case "CREDIT":
		raw = "-" + row[depositColAmount]
	default:
		return nil, nil
	}

	value, err := model.ParseCash(raw)
	if err != nil {
		return nil, err
	}
	if value.IsZero() {
		return nil, nil
	}

	amount := model.NewAmount(value, c.currency)
	postings := []model.Posting{
		model.NewPosting(c.account, amount.Neg()),
	}
	for _, p := range c.patterns {
		if p.re.MatchString(description) {
			postings = append(postings, model.NewPosting(p.account, amount))
			break
		}
	}

	return &model.Transaction{
		Date:      date,
		Narration: description,
		Postings:  postings,
	}, nil
}

// parseDepositDate accepts both the two and four digit year formats
// Capital One has shipped.
func parseDepositDate(raw string) (time.Time, error) {
	if date, err := time.Parse("01/02/06", raw); err == nil {
		return date, nil
	}
	date, err := time.Parse("01/02/2006", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid transaction date %q", raw)
	}
	return date, nil
}

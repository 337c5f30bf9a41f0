package importers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Ulthran/ctbus-finance/internal/common"
	"github.com/Ulthran/ctbus-finance/internal/model"
	"github.com/shopspring/decimal"
)

// Capital One credit card export columns.
const (
	capitalOneColDate     = "Transaction Date"
	capitalOneColPosted   = "Posted Date"
	capitalOneColCardNo   = "Card No."
	capitalOneColDesc     = "Description"
	capitalOneColCategory = "Category"
	capitalOneColDebit    = "Debit"
	capitalOneColCredit   = "Credit"
)

var capitalOneColumns = []string{
	capitalOneColDate,
	capitalOneColPosted,
	capitalOneColCardNo,
	capitalOneColDesc,
	capitalOneColCategory,
	capitalOneColDebit,
	capitalOneColCredit,
}

// CapitalOneCard imports Capital One credit card statements. Unlike the
// brokerage importers this one fails fast: the format has exactly one
// row shape, so a malformed row means a corrupted export, not an
// unknown action type.
type CapitalOneCard struct {
	account          string
	currency         string
	chargeAccount    string
	paymentAccount   string
	payeeAccounts    map[string]string
	categoryAccounts map[string]string
}

// NewCapitalOneCard builds an importer for the given card liability
// account. payeeAccounts and categoryAccounts map lowercased statement
// descriptions/categories to counter accounts; unmapped rows fall back
// to Expenses:Unknown for charges and Assets:Unknown for payments.
func NewCapitalOneCard(account string, payeeAccounts, categoryAccounts map[string]string) *CapitalOneCard {
	lower := func(m map[string]string) map[string]string {
		out := make(map[string]string, len(m))
		for k, v := range m {
			out[strings.ToLower(k)] = v
		}
		return out
	}
	return &CapitalOneCard{
		account:          account,
		currency:         "USD",
		chargeAccount:    "Expenses:Unknown",
		paymentAccount:   "Assets:Unknown",
		payeeAccounts:    lower(payeeAccounts),
		categoryAccounts: lower(categoryAccounts),
	}
}

// Name implements Importer.
func (c *CapitalOneCard) Name() string { return "capitalone-card" }

// Identify sniffs the header line for the credit card column set.
func (c *CapitalOneCard) Identify(path string) bool {
	header, err := headerLine(path, 0)
	if err != nil {
		return false
	}
	lowered := strings.ToLower(header)
	return strings.Contains(lowered, "transaction date") && strings.Contains(lowered, "posted date")
}

// Extract implements Importer. A wrong column set produces an error
// naming the missing columns; a malformed row aborts the file.
func (c *CapitalOneCard) Extract(_ context.Context, path string) ([]model.Transaction, error) {
	rows, err := readRows(path, 0)
	if err != nil {
		return nil, fmt.Errorf("capitalone: %w", err)
	}

	if len(rows) > 0 {
		var missing []string
		for _, col := range capitalOneColumns {
			if _, ok := rows[0][col]; !ok {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, fmt.Errorf("capitalone: %w: csv missing expected columns: %s",
				common.ErrInvalidFormat, strings.Join(missing, ", "))
		}
	}

	txns := make([]model.Transaction, 0, len(rows))
	for index, row := range rows {
		if rowEmpty(row) {
			continue
		}
		txn, err := c.extractRow(row)
		if err != nil {
			return nil, fmt.Errorf("capitalone: row %d: %w", index+2, err)
		}
		txns = append(txns, *txn)
	}
	return txns, nil
}

func (c *CapitalOneCard) extractRow(row map[string]string) (*model.Transaction, error) {
	date, err := time.Parse("01/02/2006", row[capitalOneColDate])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid transaction date %q", common.ErrInvalidFormat, row[capitalOneColDate])
	}
	posted, err := time.Parse("01/02/2006", row[capitalOneColPosted])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid posted date %q", common.ErrInvalidFormat, row[capitalOneColPosted])
	}

	debitRaw := row[capitalOneColDebit]
	creditRaw := row[capitalOneColCredit]
	if debitRaw != "" && creditRaw != "" {
		return nil, fmt.Errorf("%w: row has both debit (%s) and credit (%s) values",
			common.ErrInvalidFormat, debitRaw, creditRaw)
	}

	var value decimal.Decimal
	switch {
	case debitRaw != "":
		value, err = model.ParseCash(debitRaw)
	case creditRaw != "":
		value, err = model.ParseCash(creditRaw)
		value = value.Neg()
	default:
		return nil, fmt.Errorf("%w: row is missing both debit and credit values", common.ErrInvalidFormat)
	}
	if err != nil {
		return nil, err
	}

	description := row[capitalOneColDesc]
	category := row[capitalOneColCategory]

	// A debit charges the card: the liability leg goes down and the
	// counter leg carries the positive expense.
	cardAmount := model.NewAmount(value.Neg(), c.currency)
	counter := c.counterAccount(description, category, value)

	narration := category
	if narration == "" {
		narration = description
	}
	if narration == "" {
		narration = "Capital One transaction"
	}

	txn := model.Transaction{
		Date:      date,
		Payee:     description,
		Narration: narration,
		Postings: []model.Posting{
			model.NewPosting(c.account, cardAmount),
			model.NewPosting(counter, cardAmount.Neg()),
		},
	}
	txn.SetMeta("posted", posted.Format("2006-01-02"))
	if category != "" {
		txn.SetMeta("category", category)
	}
	if cardNo := row[capitalOneColCardNo]; len(cardNo) >= 4 {
		txn.SetMeta("card_last4", cardNo[len(cardNo)-4:])
	}
	return &txn, nil
}

// counterAccount resolves the second leg: payee map first, category map
// second, then the sign-appropriate fallback. Payments and refunds are
// credits, which reduce the card balance.
func (c *CapitalOneCard) counterAccount(description, category string, value decimal.Decimal) string {
	if acct, ok := c.payeeAccounts[strings.ToLower(description)]; ok && description != "" {
		return acct
	}
	if acct, ok := c.categoryAccounts[strings.ToLower(category)]; ok && category != "" {
		return acct
	}
	if value.IsNegative() {
		return c.paymentAccount
	}
	return c.chargeAccount
}

func rowEmpty(row map[string]string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

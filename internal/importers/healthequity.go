package importers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ulthran/ctbus-finance/internal/model"
)

// HealthEquity export columns.
const (
	hsaColDate   = "Date"
	hsaColDesc   = "Transaction"
	hsaColAmount = "Amount"
)

// hsaHeader is the column set sniffed by Identify, after the export's
// single banner line.
const hsaHeader = "Date,Transaction,Amount,HSA Cash Balance,Attachments"

// HealthEquity imports HealthEquity HSA statements: fees, interest,
// contributions and cash-to-investment sweeps, each a simple two-leg
// cash movement classified by description keywords.
type HealthEquity struct {
	account         string
	currency        string
	interestAccount string
	feeAccount      string
	employeeAccount string
	employerAccount string
}

// NewHealthEquity builds an importer for the given HSA asset account.
func NewHealthEquity(account string) *HealthEquity {
	return &HealthEquity{
		account:         account,
		currency:        "USD",
		interestAccount: "Income:Interest:HealthEquity",
		feeAccount:      "Expenses:Bank:HealthEquity",
		employeeAccount: "Income:Salary:Employer",
		employerAccount: "Income:HSA-Contribution:Employer",
	}
}

// Name implements Importer.
func (h *HealthEquity) Name() string { return "healthequity" }

// Identify sniffs the second line for the HSA column set.
func (h *HealthEquity) Identify(path string) bool {
	header, err := headerLine(path, 1)
	if err != nil {
		return false
	}
	return strings.Contains(header, hsaHeader)
}

// Extract implements Importer. Unrecognized descriptions are logged and
// dropped.
func (h *HealthEquity) Extract(_ context.Context, path string) ([]model.Transaction, error) {
	rows, err := readRows(path, 1)
	if err != nil {
		return nil, fmt.Errorf("healthequity: %w", err)
	}

	var txns []model.Transaction
	for index, row := range rows {
		txn := h.extractRow(row, index)
		if txn == nil {
			continue
		}
		txns = append(txns, *txn)
	}
	return txns, nil
}

func (h *HealthEquity) extractRow(row map[string]string, index int) *model.Transaction {
	if row[hsaColDate] == "" {
		return nil
	}
	date, err := time.Parse("01/02/2006", row[hsaColDate])
	if err != nil {
		slog.Warn("skipping healthequity row with bad date",
			"row", index, "date", row[hsaColDate])
		return nil
	}

	description := row[hsaColDesc]
	upper := strings.ToUpper(description)

	value, err := model.ParseCash(row[hsaColAmount])
	if err != nil {
		slog.Warn("skipping healthequity row with bad amount",
			"row", index, "amount", row[hsaColAmount])
		return nil
	}
	value = value.Abs()

	var from, to string
	switch {
	case strings.Contains(upper, "INVESTMENT ADMIN FEE"):
		from, to = h.account+":Cash", h.feeAccount
	case strings.Contains(upper, "INVESTMENT:"):
		symbol := strings.TrimSpace(upper[strings.LastIndex(upper, ":")+1:])
		from, to = h.account+":Cash", h.account+":"+symbol
	case strings.Contains(upper, "INTEREST"):
		from, to = h.interestAccount, h.account+":Cash"
	case strings.Contains(upper, "EMPLOYEE CONTRIBUTION"):
		from, to = h.employeeAccount, h.account+":Cash"
	case strings.Contains(upper, "EMPLOYER CONTRIBUTION"):
		from, to = h.employerAccount, h.account+":Cash"
	default:
		slog.Warn("unhandled healthequity transaction", "row", index, "description", description)
		return nil
	}

	amount := model.NewAmount(value, h.currency)
	return &model.Transaction{
		Date:      date,
		Narration: description,
		Postings: []model.Posting{
			model.NewPosting(from, amount.Neg()),
			model.NewPosting(to, amount),
		},
	}
}

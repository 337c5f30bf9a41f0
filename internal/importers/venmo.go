package importers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ulthran/ctbus-finance/internal/model"
)

// Venmo export columns.
const (
	venmoColCategory = "Cat"
	venmoColID       = "ID"
	venmoColDatetime = "Datetime"
	venmoColType     = "Type"
	venmoColFrom     = "From"
	venmoColTo       = "To"
	venmoColAmount   = "Amount (total)"
)

// venmoBanner appears on the first line of every Venmo statement.
const venmoBanner = "Account Statement"

// Venmo imports Venmo statement exports. The second leg comes from the
// statement's category column and is usually a placeholder for manual
// annotation.
type Venmo struct {
	account  string
	currency string
}

// NewVenmo builds an importer for the given Venmo asset account.
func NewVenmo(account string) *Venmo {
	return &Venmo{account: account, currency: "USD"}
}

// Name implements Importer.
func (v *Venmo) Name() string { return "venmo" }

// Identify sniffs the statement banner on the first line.
func (v *Venmo) Identify(path string) bool {
	header, err := headerLine(path, 0)
	if err != nil {
		return false
	}
	return strings.Contains(header, venmoBanner)
}

// Extract implements Importer. Rows that fail to parse are logged and
// dropped; Venmo pads its exports with summary rows that are not
// transactions.
func (v *Venmo) Extract(_ context.Context, path string) ([]model.Transaction, error) {
	rows, err := readRows(path, 2)
	if err != nil {
		return nil, fmt.Errorf("venmo: %w", err)
	}

	var txns []model.Transaction
	for index, row := range rows {
		txn := v.extractRow(row, index)
		if txn == nil {
			continue
		}
		txns = append(txns, *txn)
	}
	return txns, nil
}

func (v *Venmo) extractRow(row map[string]string, index int) *model.Transaction {
	// Summary and balance rows have no transaction ID.
	if row[venmoColID] == "" {
		return nil
	}

	date, err := time.Parse("2006-01-02T15:04:05", row[venmoColDatetime])
	if err != nil {
		slog.Warn("skipping venmo row with bad datetime",
			"row", index, "datetime", row[venmoColDatetime])
		return nil
	}

	txType := strings.ToUpper(row[venmoColType])
	// Bank transfers in and out are booked on the bank side.
	if txType == "STANDARD TRANSFER" {
		return nil
	}

	var narration string
	if txType == "CHARGE" {
		narration = fmt.Sprintf("%s -> %s", row[venmoColTo], row[venmoColFrom])
	} else {
		narration = fmt.Sprintf("%s -> %s", row[venmoColFrom], row[venmoColTo])
	}

	value, err := model.ParseCash(row[venmoColAmount])
	if err != nil || value.IsZero() {
		return nil
	}

	category := row[venmoColCategory]
	if category == "" {
		category = "TODO"
	}

	amount := model.NewAmount(value, v.currency)
	return &model.Transaction{
		Date:      date,
		Narration: narration,
		Postings: []model.Posting{
			model.NewPosting(v.account, amount),
			model.NewPosting(category, amount.Neg()),
		},
	}
}

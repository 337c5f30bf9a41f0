package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ulthran/ctbus-finance/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleTransactions() []model.Transaction {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	shares := model.NewAmount(decimal.RequireFromString("10"), "AAPL")
	cash := model.NewAmount(decimal.RequireFromString("-1855"), "USD")

	buy := model.Transaction{
		Date:      date,
		Narration: "Apple Inc",
		Postings: []model.Posting{
			{Account: "Assets:Investments:Fidelity:AAPL", Units: &shares, Cost: &model.Cost{
				PerUnit:  decimal.RequireFromString("185.5"),
				Currency: "USD",
				Date:     date,
			}},
			model.NewPosting("Assets:Investments:Fidelity:Cash", cash),
		},
	}
	buy.SetMeta("order", "12345")

	charge := model.Transaction{
		Date:      date.AddDate(0, 0, 5),
		Payee:     "COFFEE SHOP",
		Narration: "Dining",
		Postings: []model.Posting{
			model.NewPosting("Liabilities:CreditCard:CapitalOne", model.NewAmount(decimal.RequireFromString("-4.5"), "USD")),
			model.NewPosting("Expenses:Unknown", model.NewAmount(decimal.RequireFromString("4.5"), "USD")),
		},
	}

	return []model.Transaction{buy, charge}
}

func TestSaveTransactions(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	inserted, err := s.SaveTransactions(ctx, sampleTransactions())
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	count, err := s.TransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSaveTransactionsDeduplicates(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	txns := sampleTransactions()

	inserted, err := s.SaveTransactions(ctx, txns)
	require.NoError(t, err)
	require.Equal(t, 2, inserted)

	// A second import of the same statements inserts nothing.
	inserted, err = s.SaveTransactions(ctx, txns)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	count, err := s.TransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSaveTransactionsMixedNewAndSeen(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	txns := sampleTransactions()

	_, err := s.SaveTransactions(ctx, txns[:1])
	require.NoError(t, err)

	inserted, err := s.SaveTransactions(ctx, txns)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
}

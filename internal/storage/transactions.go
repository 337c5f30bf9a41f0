package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Ulthran/ctbus-finance/internal/model"
)

// SaveTransactions persists transactions, skipping any whose content
// hash is already stored, and returns the number actually inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, txns []model.Transaction) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txnStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (hash, date, payee, narration, metadata)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer func() { _ = txnStmt.Close() }()

	postingStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO postings (
			transaction_hash, account, units_number, units_currency,
			cost_per_unit, cost_currency, cost_date, spec_total, spec_currency
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare posting insert: %w", err)
	}
	defer func() { _ = postingStmt.Close() }()

	inserted := 0
	for i := range txns {
		txn := &txns[i]

		var metadata []byte
		if len(txn.Metadata) > 0 {
			metadata, err = json.Marshal(txn.Metadata)
			if err != nil {
				return 0, fmt.Errorf("failed to marshal metadata: %w", err)
			}
		}

		hash := txn.Hash()
		result, err := txnStmt.ExecContext(ctx, hash, txn.Date, txn.Payee, txn.Narration, metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to save transaction: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to check insert result: %w", err)
		}
		if rows == 0 {
			continue // duplicate
		}
		inserted++

		for _, p := range txn.Postings {
			if err := insertPosting(ctx, postingStmt, hash, p); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

func insertPosting(ctx context.Context, stmt *sql.Stmt, hash string, p model.Posting) error {
	var unitsNumber, unitsCurrency any
	if p.Units != nil {
		unitsNumber = p.Units.Number.String()
		unitsCurrency = p.Units.Currency
	}

	var costPerUnit, costCurrency, costDate any
	if p.Cost != nil {
		costPerUnit = p.Cost.PerUnit.String()
		costCurrency = p.Cost.Currency
		if !p.Cost.Date.IsZero() {
			costDate = p.Cost.Date
		}
	}

	var specTotal, specCurrency any
	if p.Spec != nil {
		if p.Spec.Total != nil {
			specTotal = p.Spec.Total.String()
		}
		if p.Spec.Currency != "" {
			specCurrency = p.Spec.Currency
		}
	}

	if _, err := stmt.ExecContext(ctx, hash, p.Account,
		unitsNumber, unitsCurrency, costPerUnit, costCurrency, costDate,
		specTotal, specCurrency); err != nil {
		return fmt.Errorf("failed to save posting: %w", err)
	}
	return nil
}

// TransactionCount returns the number of stored transactions.
func (s *SQLiteStorage) TransactionCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

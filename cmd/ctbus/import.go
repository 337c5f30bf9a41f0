package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Ulthran/ctbus-finance/internal/common"
	"github.com/Ulthran/ctbus-finance/internal/config"
	"github.com/Ulthran/ctbus-finance/internal/importers"
	"github.com/Ulthran/ctbus-finance/internal/ledger"
	"github.com/Ulthran/ctbus-finance/internal/model"
	"github.com/Ulthran/ctbus-finance/internal/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import statement exports and write the ledger",
		Long: `Import CSV and OFX statement exports, classify each file against the
configured institutions, reconcile deferred corrections (stock splits),
and write the combined ledger.

Examples:
  # Import everything in the statements directory
  ctbus import ~/statements/*.csv

  # Preview without writing
  ctbus import --dry-run ~/Downloads/fidelity_2024.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without writing the ledger")
	cmd.Flags().StringP("output", "o", "", "Ledger output path (overrides config)")
	cmd.Flags().Bool("strict-oversell", false, "Fail when a sale exceeds tracked lots instead of draining them")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	output, _ := cmd.Flags().GetString("output")
	strictOversell, _ := cmd.Flags().GetBool("strict-oversell")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if output != "" {
		cfg.LedgerPath = config.ExpandPath(output)
	}

	registry, err := buildImporters(cfg)
	if err != nil {
		return err
	}

	allFiles, err := expandGlobs(args)
	if err != nil {
		return err
	}
	if len(allFiles) == 0 {
		return common.NewUserError("no files found to import", nil)
	}

	txns, err := startingBalances(cfg)
	if err != nil {
		return err
	}

	slog.Info("importing statement files", "file_count", len(allFiles), "dry_run", dryRun)
	bar := progressbar.Default(int64(len(allFiles)), "importing")

	ctx := cmd.Context()
	imported := 0
	for _, filePath := range allFiles {
		_ = bar.Add(1)

		imp, err := importers.Find(registry, filePath)
		if err != nil {
			slog.Warn("no importer found for file", "file", filepath.Base(filePath))
			continue
		}

		entries, err := imp.Extract(ctx, filePath)
		if err != nil {
			// One bad file must not abort the batch.
			common.LogError(err, "failed to extract file", common.Fields{
				"file":     filepath.Base(filePath),
				"importer": imp.Name(),
			})
			continue
		}

		slog.Info("extracted file",
			"file", filepath.Base(filePath),
			"importer", imp.Name(),
			"transactions", len(entries))
		txns = append(txns, entries...)
		imported++
	}
	_ = bar.Finish()

	if imported == 0 {
		return common.NewUserError("no files could be imported", nil)
	}

	model.SortByDate(txns)

	oversell := ledger.OversellTolerate
	if strictOversell {
		oversell = ledger.OversellError
	}
	reconciler := &ledger.Reconciler{HoldingPrefix: cfg.HoldingPrefix, Oversell: oversell}
	txns = reconciler.Reconcile(txns)

	if dryRun {
		return ledger.Write(os.Stdout, txns)
	}

	if err := writeLedgerFile(cfg.LedgerPath, txns); err != nil {
		return err
	}
	slog.Info("wrote ledger", "path", cfg.LedgerPath, "transactions", len(txns))

	if cfg.DatabasePath != "" {
		store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		inserted, err := store.SaveTransactions(ctx, txns)
		if err != nil {
			return err
		}
		slog.Info("persisted transactions",
			"inserted", inserted,
			"duplicates", len(txns)-inserted)
	}

	return nil
}

// buildImporters wires the configured institutions into the identify
// scan. Order matters only for ambiguity; header sniffs are disjoint in
// practice.
func buildImporters(cfg *config.Config) ([]importers.Importer, error) {
	symbols := importers.NewSymbolTable(cfg.Cusips)

	var registry []importers.Importer
	if cfg.Fidelity.Account != "" {
		registry = append(registry, importers.NewFidelity(cfg.Fidelity.Account, cfg.Fidelity.AccountNumbers, symbols))
	}
	if cfg.Vanguard.Account != "" {
		registry = append(registry, importers.NewVanguard(cfg.Vanguard.Account, cfg.Vanguard.AccountNumbers, symbols))
	}
	if cfg.CapitalOneCard.Account != "" {
		registry = append(registry, importers.NewCapitalOneCard(
			cfg.CapitalOneCard.Account,
			cfg.CapitalOneCard.PayeeAccounts,
			cfg.CapitalOneCard.CategoryAccounts))
	}
	if cfg.CapitalOneDeposit.Account != "" {
		patterns := make([]importers.PatternAccount, 0, len(cfg.CapitalOneDeposit.Patterns))
		for _, p := range cfg.CapitalOneDeposit.Patterns {
			patterns = append(patterns, importers.PatternAccount{Pattern: p.Pattern, Account: p.Account})
		}
		deposit, err := importers.NewCapitalOneDeposit(cfg.CapitalOneDeposit.Account, cfg.CapitalOneDeposit.AccountNumber, patterns)
		if err != nil {
			return nil, err
		}
		registry = append(registry, deposit)
	}
	if cfg.HealthEquity.Account != "" {
		registry = append(registry, importers.NewHealthEquity(cfg.HealthEquity.Account))
	}
	if cfg.Venmo.Account != "" {
		registry = append(registry, importers.NewVenmo(cfg.Venmo.Account))
	}
	if len(cfg.OFX.Accounts) > 0 {
		registry = append(registry, importers.NewOFX(cfg.OFX.Accounts))
	}

	if len(registry) == 0 {
		return nil, fmt.Errorf("%w: no institutions configured; see the importer sections of the config file",
			common.ErrMissingConfig)
	}
	return registry, nil
}

func expandGlobs(patterns []string) ([]string, error) {
	var allFiles []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("no files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}
	return allFiles, nil
}

// startingBalances builds the opening-balance entries configured for
// accounts whose history predates the earliest statement export.
func startingBalances(cfg *config.Config) ([]model.Transaction, error) {
	txns := make([]model.Transaction, 0, len(cfg.StartingBalances))
	for _, sb := range cfg.StartingBalances {
		date, err := time.Parse("2006-01-02", sb.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid starting balance date %q: %w", sb.Date, err)
		}
		value, err := decimal.NewFromString(sb.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid starting balance amount %q: %w", sb.Amount, err)
		}
		currency := sb.Currency
		if currency == "" {
			currency = cfg.Currency
		}

		amount := model.NewAmount(model.QuantizeCash(value), currency)
		txns = append(txns, model.Transaction{
			Date:      date,
			Narration: "Opening balance",
			Postings: []model.Posting{
				model.NewPosting(sb.Account, amount),
				model.NewPosting("Equity:Opening-Balances", amount.Neg()),
			},
		})
	}
	return txns, nil
}

func writeLedgerFile(path string, txns []model.Transaction) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create ledger file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := ledger.Write(f, txns); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return f.Close()
}

// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the application configuration, loaded from the viper-backed
// YAML file plus bound flags. The mapping tables here are the injected
// knowledge the importers cannot derive from a statement: which account
// number is which ledger account, and which CUSIP is which ticker.
type Config struct {
	Currency      string `mapstructure:"currency"`
	LedgerPath    string `mapstructure:"ledger_path"`
	DatabasePath  string `mapstructure:"database_path"`
	HoldingPrefix string `mapstructure:"holding_prefix"`

	// Cusips maps exchange identifiers to human-readable tickers.
	Cusips map[string]string `mapstructure:"cusips"`

	Fidelity          Brokerage      `mapstructure:"fidelity"`
	Vanguard          Brokerage      `mapstructure:"vanguard"`
	CapitalOneCard    CreditCard     `mapstructure:"capitalone_card"`
	CapitalOneDeposit DepositAccount `mapstructure:"capitalone_deposit"`
	HealthEquity      SimpleAccount  `mapstructure:"healthequity"`
	Venmo             SimpleAccount  `mapstructure:"venmo"`
	OFX               OFXAccounts    `mapstructure:"ofx"`

	// StartingBalances seeds the ledger before any imported history.
	StartingBalances []StartingBalance `mapstructure:"starting_balances"`
}

// Brokerage configures an investment statement importer.
type Brokerage struct {
	Account        string            `mapstructure:"account"`
	AccountNumbers map[string]string `mapstructure:"account_numbers"`
}

// CreditCard configures the Capital One credit card importer.
type CreditCard struct {
	Account          string            `mapstructure:"account"`
	PayeeAccounts    map[string]string `mapstructure:"payee_accounts"`
	CategoryAccounts map[string]string `mapstructure:"category_accounts"`
}

// DepositAccount configures the Capital One 360 importer.
type DepositAccount struct {
	Account       string           `mapstructure:"account"`
	AccountNumber string           `mapstructure:"account_number"`
	Patterns      []PatternAccount `mapstructure:"patterns"`
}

// PatternAccount routes matching transaction descriptions to a counter
// account.
type PatternAccount struct {
	Pattern string `mapstructure:"pattern"`
	Account string `mapstructure:"account"`
}

// SimpleAccount configures importers that need only a ledger account.
type SimpleAccount struct {
	Account string `mapstructure:"account"`
}

// OFXAccounts maps OFX statement account IDs to ledger accounts.
type OFXAccounts struct {
	Accounts map[string]string `mapstructure:"accounts"`
}

// StartingBalance is one opening-balance leg booked against
// Equity:Opening-Balances before any imported transaction.
type StartingBalance struct {
	Date     string `mapstructure:"date"`
	Account  string `mapstructure:"account"`
	Amount   string `mapstructure:"amount"`
	Currency string `mapstructure:"currency"`
}

// Load unmarshals the current viper state into a Config, applying
// defaults for anything the file leaves out.
func Load() (*Config, error) {
	viper.SetDefault("currency", "USD")
	viper.SetDefault("holding_prefix", "Assets:Investments:")
	viper.SetDefault("ledger_path", "transactions.ledger")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.LedgerPath = ExpandPath(cfg.LedgerPath)
	cfg.DatabasePath = ExpandPath(cfg.DatabasePath)
	return &cfg, nil
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

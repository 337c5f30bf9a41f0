package importers

import (
	"regexp"
	"strings"
)

var symbolSanitizer = regexp.MustCompile(`[^A-Z0-9.-]+`)

// SymbolTable maps exchange identifiers (CUSIPs) seen in statement
// exports to human-readable tickers.
type SymbolTable struct {
	cusips map[string]string
}

// NewSymbolTable builds a table from a CUSIP-to-ticker mapping; a nil
// map is a valid empty table.
func NewSymbolTable(cusips map[string]string) *SymbolTable {
	normalized := make(map[string]string, len(cusips))
	for cusip, ticker := range cusips {
		normalized[strings.ToUpper(strings.TrimSpace(cusip))] = strings.ToUpper(strings.TrimSpace(ticker))
	}
	return &SymbolTable{cusips: normalized}
}

// Normalize resolves a raw statement symbol to a ledger-safe ticker.
// Unmapped symbols are sanitized in place. Single-character tickers are
// prefixed so they cannot collide with currency codes elsewhere in the
// ledger.
func (t *SymbolTable) Normalize(raw string) string {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" {
		return ""
	}
	if ticker, ok := t.cusips[symbol]; ok {
		symbol = ticker
	}
	symbol = symbolSanitizer.ReplaceAllString(symbol, "-")
	symbol = strings.Trim(symbol, "-")
	if len(symbol) == 1 {
		symbol = "TICKER-" + symbol
	}
	return symbol
}

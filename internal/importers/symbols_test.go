package importers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolTableNormalize(t *testing.T) {
	table := NewSymbolTable(map[string]string{
		"037833100": "AAPL",
		" 922908769 ": "vti",
	})

	tests := []struct {
		raw  string
		want string
	}{
		{"AAPL", "AAPL"},
		{"aapl ", "AAPL"},
		{"037833100", "AAPL"},
		{"922908769", "VTI"},
		{"BRK/B", "BRK-B"},
		{"F", "TICKER-F"},
		{" SPAXX** ", "SPAXX"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, table.Normalize(tc.raw), "raw=%q", tc.raw)
	}
}

func TestSymbolTableNilMap(t *testing.T) {
	table := NewSymbolTable(nil)
	assert.Equal(t, "VOO", table.Normalize("VOO"))
}

package importers

import (
	"testing"

	"github.com/Ulthran/ctbus-finance/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMatchesClaimingImporter(t *testing.T) {
	registry := []Importer{newTestCard(), newTestFidelity()}

	path := writeFixture(t, "history.csv", fidelityCSV(
		"01/15/2024,X12345678,YOU BOUGHT APPLE INC,AAPL,APPLE INC,Cash,10,185.50,,-1855.00\n"))

	imp, err := Find(registry, path)
	require.NoError(t, err)
	assert.Equal(t, "fidelity", imp.Name())
}

func TestFindUnclaimedFile(t *testing.T) {
	registry := []Importer{newTestCard(), newTestFidelity()}

	path := writeFixture(t, "random.csv", "Date,Amount\n2024-01-01,5\n")

	_, err := Find(registry, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoImporter)
}

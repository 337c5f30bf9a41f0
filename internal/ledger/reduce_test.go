package ledger

import (
	"testing"

	"github.com/Ulthran/ctbus-finance/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(qty, symbol string, costPerUnit string) model.Position {
	p := model.Position{
		Units: model.NewAmount(decimal.RequireFromString(qty), symbol),
	}
	if costPerUnit != "" {
		p.Cost = &model.Cost{PerUnit: decimal.RequireFromString(costPerUnit), Currency: "USD"}
	}
	return p
}

func TestReduceFIFOConsumesOldestFirst(t *testing.T) {
	positions := []model.Position{
		pos("10", "AAPL", "100"),
		pos("5", "AAPL", "120"),
		pos("-12", "AAPL", ""),
	}

	remaining, err := ReduceFIFO(positions, OversellTolerate)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "3", remaining[0].Units.Number.String())
	require.NotNil(t, remaining[0].Cost)
	assert.Equal(t, "120", remaining[0].Cost.PerUnit.String(),
		"the partially consumed lot keeps its own cost")
}

func TestReduceFIFOFullDisposalEmptiesQueue(t *testing.T) {
	positions := []model.Position{
		pos("10", "AAPL", "100"),
		pos("-10", "AAPL", ""),
	}
	remaining, err := ReduceFIFO(positions, OversellTolerate)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestReduceFIFOIdempotentOnOpenLots(t *testing.T) {
	positions := []model.Position{
		pos("10", "AAPL", "100"),
		pos("5", "AAPL", "120"),
		pos("-12", "AAPL", ""),
	}
	once, err := ReduceFIFO(positions, OversellTolerate)
	require.NoError(t, err)
	twice, err := ReduceFIFO(once, OversellTolerate)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestReduceFIFOOversell(t *testing.T) {
	positions := []model.Position{
		pos("10", "AAPL", "100"),
		pos("-15", "AAPL", ""),
	}

	t.Run("tolerated drains the queue", func(t *testing.T) {
		remaining, err := ReduceFIFO(positions, OversellTolerate)
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("strict surfaces the remainder", func(t *testing.T) {
		_, err := ReduceFIFO(positions, OversellError)
		require.Error(t, err)
		var oversell *OversellErr
		require.ErrorAs(t, err, &oversell)
		assert.Equal(t, "5", oversell.Remaining)
		assert.Equal(t, "AAPL", oversell.Symbol)
	})
}

func TestReduceFIFOZeroDeltaIgnored(t *testing.T) {
	positions := []model.Position{
		pos("10", "AAPL", "100"),
		pos("0", "AAPL", ""),
	}
	remaining, err := ReduceFIFO(positions, OversellTolerate)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "10", remaining[0].Units.Number.String())
}

package action

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func details(symbol string, rawQuantity, amount string) Details {
	return NewDetails(testDate, "Assets:Investments:Fidelity", symbol,
		d(rawQuantity), decimal.Zero, decimal.Zero, d(amount), "USD", "")
}

func TestNewDetailsNormalizesSigns(t *testing.T) {
	out := NewDetails(testDate, "Assets:Investments:Fidelity", "AAPL",
		d("-50.1234567"), d("-10.505"), d("-1.005"), d("-500.005"), "USD", "cash")

	assert.True(t, out.SharesConverted)
	assert.False(t, out.SharesReceived)
	assert.Equal(t, "50.123457", out.Quantity.String())
	assert.Equal(t, "10.5", out.Price.String())
	assert.Equal(t, "1", out.Fees.String())
	assert.Equal(t, "500", out.Amount.String())
	assert.Equal(t, "CASH", out.Type)
}

func TestBuyOpensLotAtPerUnitCost(t *testing.T) {
	postings := Buy{details("AAPL", "10", "1000.00")}.Postings()
	require.Len(t, postings, 2)

	lot := postings[0]
	assert.Equal(t, "Assets:Investments:Fidelity:AAPL", lot.Account)
	assert.Equal(t, "10 AAPL", lot.Units.String())
	require.NotNil(t, lot.Cost)
	assert.Equal(t, "100", lot.Cost.PerUnit.String())
	assert.Equal(t, "USD", lot.Cost.Currency)
	assert.Equal(t, testDate, lot.Cost.Date)

	cash := postings[1]
	assert.Equal(t, "Assets:Investments:Fidelity:Cash", cash.Account)
	assert.Equal(t, "-1000 USD", cash.Units.String())
}

func TestBuyZeroQuantityUsesOpenSpec(t *testing.T) {
	postings := Buy{details("VMFXX", "0", "250.00")}.Postings()
	require.Len(t, postings, 2)
	assert.Nil(t, postings[0].Cost)
	require.NotNil(t, postings[0].Spec)
	assert.Nil(t, postings[0].Spec.Total)
	assert.Equal(t, "250 VMFXX", postings[0].Units.String())
}

func TestSellReducesLotAndLeavesGainsForBalancer(t *testing.T) {
	postings := Sell{details("AAPL", "10", "1100.00")}.Postings()
	require.Len(t, postings, 3)

	assert.Equal(t, "1100 USD", postings[0].Units.String())
	assert.Equal(t, "-10 AAPL", postings[1].Units.String())
	require.NotNil(t, postings[1].Spec, "sell must reduce an existing lot, not pin a cost")
	assert.Nil(t, postings[1].Cost)

	gains := postings[2]
	assert.Equal(t, CapitalGainsAccount, gains.Account)
	assert.Nil(t, gains.Units, "gain/loss leg is computed by the balancer")
}

func TestSellWithFeesAddsFeeLeg(t *testing.T) {
	det := details("AAPL", "10", "1100.00")
	det.Fees = d("4.95")
	postings := Sell{det}.Postings()
	require.Len(t, postings, 4)
	assert.Equal(t, TradingFeesAccount, postings[2].Account)
	assert.Equal(t, "4.95 USD", postings[2].Units.String())
}

func TestBuySellRoundTrip(t *testing.T) {
	buy := Buy{details("AAPL", "10", "1000.00")}.Postings()
	require.NotNil(t, buy[0].Cost)
	assert.Equal(t, "100", buy[0].Cost.PerUnit.String())

	sell := Sell{details("AAPL", "10", "1234.00")}.Postings()
	assert.Equal(t, "-10 AAPL", sell[1].Units.String())
	assert.Nil(t, sell[len(sell)-1].Units)
}

func TestDividend(t *testing.T) {
	postings := Dividend{details("AAPL", "0", "12.34")}.Postings()
	require.Len(t, postings, 2)
	assert.Equal(t, "12.34 USD", postings[0].Units.String())
	assert.Equal(t, DividendsAccount, postings[1].Account)
	assert.Equal(t, "-12.34 USD", postings[1].Units.String())
}

func TestTransferWithoutCounterAccountUsesTodo(t *testing.T) {
	postings := Transfer{details("", "0", "500.00")}.Postings()
	require.Len(t, postings, 2)
	assert.Equal(t, TodoAccount, postings[1].Account)
}

func TestMergerDirections(t *testing.T) {
	t.Run("shares converted out", func(t *testing.T) {
		postings := Merger{details("MER", "-50", "500.00")}.Postings()
		require.Len(t, postings, 1)
		assert.Equal(t, "-50 MER", postings[0].Units.String())
		require.NotNil(t, postings[0].Spec)
		require.NotNil(t, postings[0].Spec.Total)
		assert.Equal(t, "500", postings[0].Spec.Total.String())
		assert.Equal(t, "USD", postings[0].Spec.Currency)
	})

	t.Run("shares received", func(t *testing.T) {
		postings := Merger{details("NEWCO", "50", "500.00")}.Postings()
		require.Len(t, postings, 1)
		assert.Equal(t, "50 NEWCO", postings[0].Units.String())
		require.NotNil(t, postings[0].Spec)
		require.NotNil(t, postings[0].Spec.Total)
	})

	t.Run("cash in lieu", func(t *testing.T) {
		postings := Merger{details("CASH", "0", "12.50")}.Postings()
		require.Len(t, postings, 2)
		assert.Equal(t, "12.5 USD", postings[0].Units.String())
		assert.Equal(t, CorporateActionsAccount, postings[1].Account)
	})

	t.Run("unresolved emits nothing", func(t *testing.T) {
		postings := Merger{details("XYZ", "0", "0")}.Postings()
		assert.Empty(t, postings)
	})
}

func TestDistributionInShares(t *testing.T) {
	det := details("AAPL", "100", "0")
	det.Type = SharesDistributionType
	postings := Distribution{det}.Postings()
	require.Len(t, postings, 2)
	assert.Equal(t, "100 AAPL", postings[0].Units.String())
	assert.Equal(t, StockSplitPrefix+"AAPL", postings[1].Account)
	assert.Equal(t, "-100 AAPL", postings[1].Units.String())
}

func TestDistributionInCash(t *testing.T) {
	det := details("AAPL", "0", "55.00")
	det.Type = "CASH"
	postings := Distribution{det}.Postings()
	require.Len(t, postings, 2)
	assert.Equal(t, "55 USD", postings[0].Units.String())
	assert.Equal(t, CorporateActionsAccount, postings[1].Account)
}

func TestFeeAndForeignTaxDebitCash(t *testing.T) {
	fee := Fee{details("", "0", "25.00")}.Postings()
	require.Len(t, fee, 2)
	assert.Equal(t, "-25 USD", fee[0].Units.String())
	assert.Equal(t, TradingFeesAccount, fee[1].Account)

	tax := ForeignTax{details("", "0", "3.10")}.Postings()
	require.Len(t, tax, 2)
	assert.Equal(t, "-3.1 USD", tax[0].Units.String())
	assert.Equal(t, ForeignTaxAccount, tax[1].Account)
}

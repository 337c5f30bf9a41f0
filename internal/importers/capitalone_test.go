package importers

import (
	"context"
	"testing"

	"github.com/Ulthran/ctbus-finance/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardAccount = "Liabilities:CreditCard:CapitalOne"

const capitalOneHeader = "Transaction Date,Posted Date,Card No.,Description,Category,Debit,Credit\n"

func newTestCard() *CapitalOneCard {
	return NewCapitalOneCard(cardAccount, nil, nil)
}

func TestCapitalOneIdentify(t *testing.T) {
	c := newTestCard()

	card := writeFixture(t, "card.csv", capitalOneHeader)
	assert.True(t, c.Identify(card))

	brokerage := writeFixture(t, "history.csv", fidelityCSV(""))
	assert.False(t, c.Identify(brokerage))
}

func TestCapitalOneExtractChargeAndPayment(t *testing.T) {
	path := writeFixture(t, "card.csv", capitalOneHeader+
		"01/05/2024,01/07/2024,1234,COFFEE SHOP,Dining,4.50,\n"+
		"01/20/2024,01/21/2024,1234,CAPITAL ONE AUTOPAY PYMT,Payment/Credit,,150.00\n")

	txns, err := newTestCard().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, txns, 2)

	charge := txns[0]
	assert.Equal(t, "COFFEE SHOP", charge.Payee)
	assert.Equal(t, "Dining", charge.Narration)
	assert.Equal(t, "2024-01-07", charge.Meta("posted"))
	assert.Equal(t, "1234", charge.Meta("card_last4"))
	require.Len(t, charge.Postings, 2)
	assert.Equal(t, cardAccount, charge.Postings[0].Account)
	assert.Equal(t, "-4.5", charge.Postings[0].Units.Number.String())
	assert.Equal(t, "Expenses:Unknown", charge.Postings[1].Account)
	assert.Equal(t, "4.5", charge.Postings[1].Units.Number.String())

	payment := txns[1]
	assert.Equal(t, "150", payment.Postings[0].Units.Number.String())
	assert.Equal(t, "Assets:Unknown", payment.Postings[1].Account)
	assert.Equal(t, "-150", payment.Postings[1].Units.Number.String())
}

func TestCapitalOnePayeeAndCategoryMaps(t *testing.T) {
	c := NewCapitalOneCard(cardAccount,
		map[string]string{"Coffee Shop": "Expenses:Dining:Coffee"},
		map[string]string{"Gas/Automotive": "Expenses:Car:Gas"})

	path := writeFixture(t, "card.csv", capitalOneHeader+
		"01/05/2024,01/07/2024,1234,COFFEE SHOP,Dining,4.50,\n"+
		"01/06/2024,01/08/2024,1234,SHELL STATION,Gas/Automotive,40.00,\n")

	txns, err := c.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "Expenses:Dining:Coffee", txns[0].Postings[1].Account,
		"payee match is case-insensitive and wins over category")
	assert.Equal(t, "Expenses:Car:Gas", txns[1].Postings[1].Account)
}

func TestCapitalOneMissingColumnsError(t *testing.T) {
	path := writeFixture(t, "card.csv",
		"Transaction Date,Posted Date,Description\n"+
			"01/05/2024,01/07/2024,COFFEE SHOP\n")

	_, err := newTestCard().Extract(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidFormat)
	assert.Contains(t, err.Error(), "missing expected columns")
	assert.Contains(t, err.Error(), "Card No.")
}

func TestCapitalOneMalformedRowsFailFast(t *testing.T) {
	both := writeFixture(t, "both.csv", capitalOneHeader+
		"01/05/2024,01/07/2024,1234,COFFEE SHOP,Dining,4.50,4.50\n")
	_, err := newTestCard().Extract(context.Background(), both)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidFormat)
	assert.Contains(t, err.Error(), "both debit")

	neither := writeFixture(t, "neither.csv", capitalOneHeader+
		"01/05/2024,01/07/2024,1234,COFFEE SHOP,Dining,,\n")
	_, err = newTestCard().Extract(context.Background(), neither)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing both debit and credit")

	badDate := writeFixture(t, "baddate.csv", capitalOneHeader+
		"2024-01-05,01/07/2024,1234,COFFEE SHOP,Dining,4.50,\n")
	_, err = newTestCard().Extract(context.Background(), badDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transaction date")
}

func TestCapitalOneSkipsBlankRows(t *testing.T) {
	path := writeFixture(t, "card.csv", capitalOneHeader+
		",,,,,,\n"+
		"01/05/2024,01/07/2024,1234,COFFEE SHOP,Dining,4.50,\n")

	txns, err := newTestCard().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

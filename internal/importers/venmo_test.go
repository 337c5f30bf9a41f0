package importers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func venmoCSV(rows string) string {
	return "Account Statement - (@someuser)\n" +
		"Account Activity\n" +
		",ID,Datetime,Type,Status,Note,From,To,Amount (total),Cat\n" +
		rows
}

func TestVenmoIdentify(t *testing.T) {
	v := NewVenmo("Assets:Venmo")

	statement := writeFixture(t, "venmo.csv", venmoCSV(""))
	assert.True(t, v.Identify(statement))

	card := writeFixture(t, "card.csv", capitalOneHeader)
	assert.False(t, v.Identify(card))
}

func TestVenmoExtract(t *testing.T) {
	v := NewVenmo("Assets:Venmo")
	path := writeFixture(t, "venmo.csv", venmoCSV(
		",,,,,,,,Beginning balance: $0.00,\n"+
			",100001,2024-01-05T12:30:00,Payment,Complete,Dinner,Alice Smith,Bob Jones,- $25.00,Expenses:Dining\n"+
			",100002,2024-01-08T09:00:00,Charge,Complete,Rent share,Alice Smith,Bob Jones,+ $500.00,\n"+
			",100003,2024-01-09T10:00:00,Standard Transfer,Complete,,Bob Jones,Bank,- $475.00,\n"))

	txns, err := v.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, txns, 2, "summary rows and bank transfers are dropped")

	payment := txns[0]
	assert.Equal(t, "Alice Smith -> Bob Jones", payment.Narration)
	require.Len(t, payment.Postings, 2)
	assert.Equal(t, "Assets:Venmo", payment.Postings[0].Account)
	assert.Equal(t, "-25", payment.Postings[0].Units.Number.String())
	assert.Equal(t, "Expenses:Dining", payment.Postings[1].Account)
	assert.Equal(t, "25", payment.Postings[1].Units.Number.String())

	charge := txns[1]
	assert.Equal(t, "Bob Jones -> Alice Smith", charge.Narration,
		"charges flow from the charged party")
	assert.Equal(t, "500", charge.Postings[0].Units.Number.String())
	assert.Equal(t, "TODO", charge.Postings[1].Account)
}

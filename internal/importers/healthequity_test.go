package importers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hsaAccount = "Assets:Investments:HealthEquity"

func hsaCSV(rows string) string {
	return "Health Savings Account Transaction History\n" +
		"Date,Transaction,Amount,HSA Cash Balance,Attachments\n" +
		rows
}

func TestHealthEquityIdentify(t *testing.T) {
	h := NewHealthEquity(hsaAccount)

	hsa := writeFixture(t, "hsa.csv", hsaCSV("01/02/2024,Interest,0.05,100.05,\n"))
	assert.True(t, h.Identify(hsa))

	card := writeFixture(t, "card.csv", capitalOneHeader)
	assert.False(t, h.Identify(card))
}

func TestHealthEquityExtract(t *testing.T) {
	h := NewHealthEquity(hsaAccount)
	path := writeFixture(t, "hsa.csv", hsaCSV(
		"01/02/2024,Interest,0.05,100.05,\n"+
			"01/15/2024,Employer Contribution,50.00,150.05,\n"+
			"01/16/2024,Employee Contribution,100.00,250.05,\n"+
			"01/20/2024,Investment: VIIIX,-200.00,50.05,\n"+
			"01/31/2024,Investment Admin Fee,-0.33,49.72,\n"+
			"02/01/2024,Debit Card Mystery,-5.00,44.72,\n"))

	txns, err := h.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, txns, 5, "unrecognized descriptions are dropped")

	interest := txns[0]
	assert.Equal(t, "Income:Interest:HealthEquity", interest.Postings[0].Account)
	assert.Equal(t, "-0.05", interest.Postings[0].Units.Number.String())
	assert.Equal(t, hsaAccount+":Cash", interest.Postings[1].Account)

	employer := txns[1]
	assert.Equal(t, "Income:HSA-Contribution:Employer", employer.Postings[0].Account)
	assert.Equal(t, "-50", employer.Postings[0].Units.Number.String())

	employee := txns[2]
	assert.Equal(t, "Income:Salary:Employer", employee.Postings[0].Account)

	sweep := txns[3]
	assert.Equal(t, hsaAccount+":Cash", sweep.Postings[0].Account)
	assert.Equal(t, "-200", sweep.Postings[0].Units.Number.String())
	assert.Equal(t, hsaAccount+":VIIIX", sweep.Postings[1].Account)
	assert.Equal(t, "200", sweep.Postings[1].Units.Number.String())

	fee := txns[4]
	assert.Equal(t, "Expenses:Bank:HealthEquity", fee.Postings[1].Account)
	assert.Equal(t, "0.33", fee.Postings[1].Units.Number.String())
}

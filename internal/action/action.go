// Package action converts normalized brokerage rows into balanced
// double-entry postings. Each action kind is a small struct over shared
// Details; posting generation is a pure function of those fields.
package action

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Ulthran/ctbus-finance/internal/model"
	"github.com/shopspring/decimal"
)

// Ledger accounts shared by every institution.
const (
	TradingFeesAccount      = "Expenses:Trading-Fees"
	CapitalGainsAccount     = "Income:CapitalGains:Cash"
	DividendsAccount        = "Income:Dividends:Cash"
	CorporateActionsAccount = "Income:CorporateActions:Cash"
	ForeignTaxAccount       = "Income:Taxes:Foreign"
	StockSplitPrefix        = "Equity:StockSplit:"
	TodoAccount             = "TODO"
)

// CashInLieuSymbol marks a merger row paying cash for fractional shares.
const CashInLieuSymbol = "CASH"

// SharesDistributionType marks a distribution paid in shares rather
// than cash, which signals a stock split to the reconciliation pass.
const SharesDistributionType = "SHARES"

// Action emits the postings for one classified statement row.
type Action interface {
	Postings() []model.Posting
}

// Details carries the normalized, institution-agnostic fields of one
// row. All numeric fields are non-negative; direction is encoded by the
// action kind, and for mergers by the SharesConverted/SharesReceived
// flags derived from the raw quantity's sign.
type Details struct {
	Date            time.Time
	Account         string
	Symbol          string
	Quantity        decimal.Decimal
	Currency        string
	Price           decimal.Decimal
	Fees            decimal.Decimal
	Amount          decimal.Decimal
	Type            string
	SharesConverted bool
	SharesReceived  bool
}

// NewDetails normalizes raw row fields. The quantity must be passed
// with its original sign: the sign determines the merger direction
// flags, then every numeric field is stored as a quantized absolute
// value.
func NewDetails(date time.Time, account, symbol string, rawQuantity, price, fees, amount decimal.Decimal, currency, txType string) Details {
	return Details{
		Date:            date,
		Account:         account,
		Symbol:          symbol,
		Quantity:        model.QuantizeQuantity(rawQuantity.Abs()),
		Currency:        currency,
		Price:           model.QuantizeCash(price.Abs()),
		Fees:            model.QuantizeCash(fees.Abs()),
		Amount:          model.QuantizeCash(amount.Abs()),
		Type:            strings.ToUpper(strings.TrimSpace(txType)),
		SharesConverted: rawQuantity.IsNegative(),
		SharesReceived:  rawQuantity.IsPositive(),
	}
}

func (d Details) holdingAccount() string {
	return d.Account + ":" + d.Symbol
}

func (d Details) cashAccount() string {
	return d.Account + ":Cash"
}

func (d Details) cash() model.Amount {
	return model.NewAmount(d.Amount, d.Currency)
}

func (d Details) shares() model.Amount {
	return model.NewAmount(d.Quantity, d.Symbol)
}

// Buy acquires shares, opening a new lot at amount/quantity per share.
type Buy struct {
	Details
}

// Postings returns the lot acquisition leg and the cash leg. A zero
// quantity means a fractional or unknown-quantity buy recorded in cash
// terms against an open cost spec.
func (a Buy) Postings() []model.Posting {
	if a.Quantity.IsZero() {
		units := model.NewAmount(a.Amount, a.Symbol)
		return []model.Posting{
			{Account: a.holdingAccount(), Units: &units, Spec: &model.CostSpec{}},
			model.NewPosting(a.cashAccount(), a.cash().Neg()),
		}
	}

	units := a.shares()
	cost := &model.Cost{
		PerUnit:  model.QuantizeCost(a.Amount.Div(a.Quantity)),
		Currency: a.Currency,
		Date:     a.Date,
	}
	return []model.Posting{
		{Account: a.holdingAccount(), Units: &units, Cost: cost},
		model.NewPosting(a.cashAccount(), a.cash().Neg()),
	}
}

// Sell disposes of shares against existing lots, FIFO-matched by the
// ledger, and leaves the gain/loss leg for the balancer.
type Sell struct {
	Details
}

func (a Sell) Postings() []model.Posting {
	if a.Quantity.IsZero() {
		units := model.NewAmount(a.Amount, a.Symbol).Neg()
		return []model.Posting{
			model.NewPosting(a.cashAccount(), a.cash()),
			{Account: a.holdingAccount(), Units: &units, Spec: &model.CostSpec{}},
		}
	}

	units := a.shares().Neg()
	postings := []model.Posting{
		model.NewPosting(a.cashAccount(), a.cash()),
		{Account: a.holdingAccount(), Units: &units, Spec: &model.CostSpec{}},
	}
	if a.Fees.IsPositive() {
		postings = append(postings, model.NewPosting(TradingFeesAccount, model.NewAmount(a.Fees, a.Currency)))
	}
	return append(postings, model.BalancingPosting(CapitalGainsAccount))
}

// Dividend records a cash dividend.
type Dividend struct {
	Details
}

func (a Dividend) Postings() []model.Posting {
	return []model.Posting{
		model.NewPosting(a.cashAccount(), a.cash()),
		model.NewPosting(DividendsAccount, a.cash().Neg()),
	}
}

// CheckReceived records an incoming check whose source account is not
// known from the statement.
type CheckReceived struct {
	Details
}

func (a CheckReceived) Postings() []model.Posting {
	return transferPostings(a.Details)
}

// Transfer records an incoming transfer. The Symbol field carries the
// counter account when the statement names one; otherwise the leg is
// left on a TODO placeholder for manual correction.
type Transfer struct {
	Details
}

func (a Transfer) Postings() []model.Posting {
	return transferPostings(a.Details)
}

func transferPostings(d Details) []model.Posting {
	counter := d.Symbol
	if counter == "" {
		counter = TodoAccount
	}
	return []model.Posting{
		model.NewPosting(d.cashAccount(), d.cash()),
		model.NewPosting(counter, d.cash().Neg()),
	}
}

// Merger handles the legs of a corporate merger: shares converted out,
// shares received, or cash in lieu of fractional shares. Institutions
// split one merger across multiple rows, so each leg is emitted alone
// and consolidated by the importer's post-pass.
type Merger struct {
	Details
}

func (a Merger) Postings() []model.Posting {
	switch {
	case a.SharesConverted && a.Quantity.IsPositive():
		units := a.shares().Neg()
		total := a.Amount
		return []model.Posting{
			{Account: a.holdingAccount(), Units: &units, Spec: &model.CostSpec{Total: &total, Currency: "USD"}},
		}
	case a.SharesReceived && a.Quantity.IsPositive():
		units := a.shares()
		total := a.Amount
		return []model.Posting{
			{Account: a.holdingAccount(), Units: &units, Spec: &model.CostSpec{Total: &total, Currency: "USD"}},
		}
	case !a.Amount.IsZero() && strings.EqualFold(a.Symbol, CashInLieuSymbol):
		return []model.Posting{
			model.NewPosting(a.cashAccount(), a.cash()),
			model.NewPosting(CorporateActionsAccount, a.cash().Neg()),
		}
	default:
		slog.Warn("unresolved merger action",
			"symbol", a.Symbol,
			"quantity", a.Quantity.String(),
			"amount", a.Amount.String())
		return nil
	}
}

// Distribution handles distributions: paid in shares it books against a
// stock-split equity account that reconciliation later rewrites with
// the computed split ratio; paid in cash it books as corporate-action
// income.
type Distribution struct {
	Details
}

func (a Distribution) Postings() []model.Posting {
	if a.Type == SharesDistributionType {
		units := a.shares()
		contra := units.Neg()
		return []model.Posting{
			{Account: a.holdingAccount(), Units: &units},
			{Account: StockSplitPrefix + a.Symbol, Units: &contra},
		}
	}
	return []model.Posting{
		model.NewPosting(a.cashAccount(), a.cash()),
		model.NewPosting(CorporateActionsAccount, a.cash().Neg()),
	}
}

// Fee records an advisory or trading fee charged to the account.
type Fee struct {
	Details
}

func (a Fee) Postings() []model.Posting {
	return []model.Posting{
		model.NewPosting(a.cashAccount(), a.cash().Neg()),
		model.NewPosting(TradingFeesAccount, model.NewAmount(a.Amount, a.Currency)),
	}
}

// ForeignTax records foreign tax withheld on a position.
type ForeignTax struct {
	Details
}

func (a ForeignTax) Postings() []model.Posting {
	return []model.Posting{
		model.NewPosting(a.cashAccount(), a.cash().Neg()),
		model.NewPosting(ForeignTaxAccount, model.NewAmount(a.Amount, a.Currency)),
	}
}

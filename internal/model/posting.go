package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cost pins a new lot to a specific per-unit acquisition price. Postings
// carrying a Cost create lots; postings carrying a CostSpec reduce them.
type Cost struct {
	PerUnit  decimal.Decimal
	Currency string
	// Date is the acquisition date; the zero time means unknown.
	Date time.Time
}

func (c Cost) String() string {
	if c.Date.IsZero() {
		return fmt.Sprintf("{%s %s}", c.PerUnit.String(), c.Currency)
	}
	return fmt.Sprintf("{%s %s, %s}", c.PerUnit.String(), c.Currency, c.Date.Format("2006-01-02"))
}

// CostSpec matches against existing lots without pinning a per-unit
// price. An empty spec means "reduce whichever lot matches"; a non-nil
// Total constrains the match to the given total cost.
type CostSpec struct {
	Total    *decimal.Decimal
	Currency string
	Merge    bool
}

func (s CostSpec) String() string {
	var parts []string
	if s.Total != nil {
		parts = append(parts, "# "+s.Total.String()+" "+s.Currency)
	}
	if s.Merge {
		parts = append(parts, "*")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Posting is one account-affecting leg of a transaction. A nil Units
// marks a balancing leg whose amount the ledger balancer computes from
// the other legs. At most one of Cost and Spec is set.
type Posting struct {
	Account string
	Units   *Amount
	Cost    *Cost
	Spec    *CostSpec
}

// NewPosting is a convenience constructor for a plain cash leg.
func NewPosting(account string, units Amount) Posting {
	return Posting{Account: account, Units: &units}
}

// BalancingPosting returns a leg with no units, left for the balancer.
func BalancingPosting(account string) Posting {
	return Posting{Account: account}
}

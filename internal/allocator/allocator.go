// Package allocator assigns transactions to funding tranches by walking
// them in statement order and filling category buckets against the account
// profile's caps.
package allocator

import (
	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/atlaudit/statement-auditor/internal/policy"
	"github.com/shopspring/decimal"
)

// Totals is the running-total state of one allocation pass. It is created
// fresh per request and never shared.
type Totals struct {
	NonRecurringSpent decimal.Decimal
	RecurringSpent    decimal.Decimal

	// MaxRecurringTranche is the highest tranche any recurring debit was
	// assigned to; Tranche1 when no recurring spend occurred.
	MaxRecurringTranche domain.Tranche
}

// NewTotals returns a zeroed running-total state.
func NewTotals() Totals {
	return Totals{
		NonRecurringSpent:   decimal.Zero,
		RecurringSpent:      decimal.Zero,
		MaxRecurringTranche: domain.Tranche1,
	}
}

// Allocate walks transactions in their given order and assigns each a
// tranche. Input order is significant: a recurring debit is assigned to the
// tranche its pre-increment running total falls in, so the transaction that
// crosses a cap boundary still belongs to the tranche it was filling.
func Allocate(txns []domain.ClassifiedTransaction, profile policy.AccountProfile) ([]domain.ClassifiedTransaction, Totals) {
	totals := NewTotals()

	out := make([]domain.ClassifiedTransaction, len(txns))
	for i, t := range txns {
		t.Tranche = domain.TrancheNone

		if t.Direction == domain.Debit {
			switch t.Category {
			case domain.CategoryNonRecurring:
				// All capital spend is attributed to the first tranche.
				t.Tranche = domain.Tranche1
				totals.NonRecurringSpent = totals.NonRecurringSpent.Add(clampAmount(t.Amount))
			case domain.CategoryRecurring:
				t.Tranche = recurringTranche(totals.RecurringSpent, profile)
				if trancheRank(t.Tranche) > trancheRank(totals.MaxRecurringTranche) {
					totals.MaxRecurringTranche = t.Tranche
				}
				totals.RecurringSpent = totals.RecurringSpent.Add(clampAmount(t.Amount))
			}
		}

		out[i] = t
	}

	return out, totals
}

// recurringTranche picks the tranche the given running total is still
// filling: Tranche1 while spent < T1 cap, Tranche2 while spent < T1+T2,
// Tranche3 beyond.
func recurringTranche(spent decimal.Decimal, profile policy.AccountProfile) domain.Tranche {
	switch {
	case spent.LessThan(profile.CumulativeRecurringCap(domain.Tranche1)):
		return domain.Tranche1
	case spent.LessThan(profile.CumulativeRecurringCap(domain.Tranche2)):
		return domain.Tranche2
	default:
		return domain.Tranche3
	}
}

// clampAmount guards the running totals against amounts salvaged from
// partial output: a negative value participates in ordering but must not
// decrement accumulated spend. The raw value stays on the transaction for
// audit display.
func clampAmount(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

func trancheRank(t domain.Tranche) int {
	switch t {
	case domain.Tranche2:
		return 2
	case domain.Tranche3:
		return 3
	default:
		return 1
	}
}

// Package policy holds the pinned ATL tranche cap tables.
//
// A Savings account receives grant amounts gross; a Current account
// receives them net of 2% TDS, deducted from the Tranche 1 capital portion
// (₹24,000) and from each later recurring tranche (₹8,000).
package policy

import (
	"fmt"

	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/shopspring/decimal"
)

// TrancheCaps are the per-tranche spending limits.
type TrancheCaps struct {
	TotalGrant      decimal.Decimal
	NonRecurringCap decimal.Decimal
	RecurringCap    decimal.Decimal
}

// AccountProfile is the immutable cap configuration for one account type.
type AccountProfile struct {
	AccountType domain.AccountType
	T1          TrancheCaps
	T2          TrancheCaps
	T3          TrancheCaps
}

var (
	savingsProfile = AccountProfile{
		AccountType: domain.AccountSavings,
		T1: TrancheCaps{
			TotalGrant:      rupees(1_200_000),
			NonRecurringCap: rupees(1_000_000),
			RecurringCap:    rupees(200_000),
		},
		T2: TrancheCaps{
			TotalGrant:   rupees(400_000),
			RecurringCap: rupees(400_000),
		},
		T3: TrancheCaps{
			TotalGrant:   rupees(400_000),
			RecurringCap: rupees(400_000),
		},
	}

	currentProfile = AccountProfile{
		AccountType: domain.AccountCurrent,
		T1: TrancheCaps{
			TotalGrant:      rupees(1_176_000),
			NonRecurringCap: rupees(976_000),
			RecurringCap:    rupees(200_000),
		},
		T2: TrancheCaps{
			TotalGrant:   rupees(392_000),
			RecurringCap: rupees(392_000),
		},
		T3: TrancheCaps{
			TotalGrant:   rupees(392_000),
			RecurringCap: rupees(392_000),
		},
	}
)

// ProfileFor returns the cap profile for the given account type.
func ProfileFor(accountType domain.AccountType) (AccountProfile, error) {
	switch accountType {
	case domain.AccountSavings:
		return savingsProfile, nil
	case domain.AccountCurrent:
		return currentProfile, nil
	default:
		return AccountProfile{}, fmt.Errorf("unknown account type %q", accountType)
	}
}

// CumulativeRecurringCap returns the recurring cap summed up to and
// including the given tranche.
func (p AccountProfile) CumulativeRecurringCap(t domain.Tranche) decimal.Decimal {
	switch t {
	case domain.Tranche2:
		return p.T1.RecurringCap.Add(p.T2.RecurringCap)
	case domain.Tranche3:
		return p.T1.RecurringCap.Add(p.T2.RecurringCap).Add(p.T3.RecurringCap)
	default:
		return p.T1.RecurringCap
	}
}

func rupees(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

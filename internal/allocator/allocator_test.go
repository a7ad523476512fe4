package allocator

import (
	"testing"

	"github.com/atlaudit/statement-auditor/internal/classifier"
	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/atlaudit/statement-auditor/internal/policy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savings(t *testing.T) policy.AccountProfile {
	t.Helper()
	p, err := policy.ProfileFor(domain.AccountSavings)
	require.NoError(t, err)
	return p
}

func classified(narration string, amount int64, direction domain.Direction, category domain.Category) domain.ClassifiedTransaction {
	return domain.ClassifiedTransaction{
		RawTransaction: domain.RawTransaction{
			Narration: narration,
			Amount:    decimal.NewFromInt(amount),
			Direction: direction,
		},
		Category: category,
	}
}

func TestNonRecurringAlwaysTranche1(t *testing.T) {
	// Capital spend far past the cap still lands in Tranche 1; the overage
	// is the evaluator's problem, not the allocator's.
	txns := []domain.ClassifiedTransaction{
		classified("LAB EQUIPMENT", 900_000, domain.Debit, domain.CategoryNonRecurring),
		classified("FURNITURE", 400_000, domain.Debit, domain.CategoryNonRecurring),
		classified("3D PRINTER", 100_000, domain.Debit, domain.CategoryNonRecurring),
	}

	out, totals := Allocate(txns, savings(t))
	for _, tx := range out {
		assert.Equal(t, domain.Tranche1, tx.Tranche)
	}
	assert.True(t, totals.NonRecurringSpent.Equal(decimal.NewFromInt(1_400_000)))
}

// The boundary transaction that crosses a recurring cap is attributed to
// the tranche it was filling, decided on the pre-increment total.
func TestRecurringTrancheBoundary(t *testing.T) {
	profile := savings(t) // T1 recurring cap 200,000

	t.Run("pre-increment total decides", func(t *testing.T) {
		txns := []domain.ClassifiedTransaction{
			classified("SALARY", 190_000, domain.Debit, domain.CategoryRecurring),
			classified("SALARY", 50_000, domain.Debit, domain.CategoryRecurring),
		}
		out, totals := Allocate(txns, profile)

		// txn1: 0 < 200,000 → Tranche 1.
		assert.Equal(t, domain.Tranche1, out[0].Tranche)
		// txn2: 190,000 < 200,000 still true pre-increment → Tranche 1,
		// even though the post-increment total 240,000 exceeds the cap.
		assert.Equal(t, domain.Tranche1, out[1].Tranche)
		assert.True(t, totals.RecurringSpent.Equal(decimal.NewFromInt(240_000)))
		assert.Equal(t, domain.Tranche1, totals.MaxRecurringTranche)
	})

	t.Run("next transaction spills into tranche 2", func(t *testing.T) {
		txns := []domain.ClassifiedTransaction{
			classified("SALARY", 150_000, domain.Debit, domain.CategoryRecurring),
			classified("SALARY", 100_000, domain.Debit, domain.CategoryRecurring),
			classified("MAINTENANCE", 10_000, domain.Debit, domain.CategoryRecurring),
		}
		out, totals := Allocate(txns, profile)

		assert.Equal(t, domain.Tranche1, out[0].Tranche)
		assert.Equal(t, domain.Tranche1, out[1].Tranche) // 150,000 < 200,000
		assert.Equal(t, domain.Tranche2, out[2].Tranche) // 250,000 ≥ 200,000
		assert.Equal(t, domain.Tranche2, totals.MaxRecurringTranche)
	})

	t.Run("deep spend reaches tranche 3", func(t *testing.T) {
		txns := []domain.ClassifiedTransaction{
			classified("WORKSHOP", 600_000, domain.Debit, domain.CategoryRecurring),
			classified("WORKSHOP", 10_000, domain.Debit, domain.CategoryRecurring),
		}
		out, totals := Allocate(txns, profile)
		assert.Equal(t, domain.Tranche1, out[0].Tranche)
		assert.Equal(t, domain.Tranche3, out[1].Tranche) // 600,000 ≥ 200,000+400,000
		assert.Equal(t, domain.Tranche3, totals.MaxRecurringTranche)
	})
}

func TestAllocateMonotonicTotals(t *testing.T) {
	txns := []domain.ClassifiedTransaction{
		classified("SALARY", 50_000, domain.Debit, domain.CategoryRecurring),
		classified("BAD ROW", -500, domain.Debit, domain.CategoryRecurring),
		classified("EQUIPMENT", 80_000, domain.Debit, domain.CategoryNonRecurring),
		classified("SALARY", 20_000, domain.Debit, domain.CategoryRecurring),
	}

	profile := savings(t)
	totals := NewTotals()
	prevNR, prevR := totals.NonRecurringSpent, totals.RecurringSpent
	for i := range txns {
		_, totals = Allocate(txns[:i+1], profile)
		assert.True(t, totals.NonRecurringSpent.GreaterThanOrEqual(prevNR))
		assert.True(t, totals.RecurringSpent.GreaterThanOrEqual(prevR))
		prevNR, prevR = totals.NonRecurringSpent, totals.RecurringSpent
	}

	// The negative salvaged amount was clamped, not subtracted.
	assert.True(t, totals.RecurringSpent.Equal(decimal.NewFromInt(70_000)))
}

func TestAllocateNonConsumingCategories(t *testing.T) {
	txns := []domain.ClassifiedTransaction{
		classified("NEFT GRANT", 1_200_000, domain.Credit, domain.CategoryGrantReceipt),
		classified("SB INT", 4_000, domain.Credit, domain.CategoryInterest),
		classified("POS RETAIL", 9_000, domain.Debit, domain.CategoryIneligible),
	}

	out, totals := Allocate(txns, savings(t))
	for _, tx := range out {
		assert.Equal(t, domain.TrancheNone, tx.Tranche)
	}
	assert.True(t, totals.NonRecurringSpent.IsZero())
	assert.True(t, totals.RecurringSpent.IsZero())
}

func TestAllocatePreservesOrder(t *testing.T) {
	txns := []domain.ClassifiedTransaction{
		classified("first", 1, domain.Debit, domain.CategoryRecurring),
		classified("second", 2, domain.Debit, domain.CategoryIneligible),
		classified("third", 3, domain.Credit, domain.CategoryGrantReceipt),
	}
	out, _ := Allocate(txns, savings(t))
	require.Len(t, out, 3)
	assert.Equal(t, "first", out[0].Narration)
	assert.Equal(t, "second", out[1].Narration)
	assert.Equal(t, "third", out[2].Narration)
}

// Allocation agrees with the classifier end to end for the canonical
// two-line scenario.
func TestAllocateWithClassifier(t *testing.T) {
	raws := []domain.RawTransaction{
		{Narration: "UPI-SALARY-HONORARIUM", Amount: decimal.NewFromInt(50_000), Direction: domain.Debit},
		{Narration: "NEFT GRANT", Amount: decimal.NewFromInt(1_200_000), Direction: domain.Credit},
	}

	txns := make([]domain.ClassifiedTransaction, len(raws))
	for i, r := range raws {
		cat, risk, status := classifier.Classify(r)
		txns[i] = domain.ClassifiedTransaction{
			RawTransaction:     r,
			Category:           cat,
			RiskScore:          risk,
			VerificationStatus: status,
		}
	}

	out, totals := Allocate(txns, savings(t))
	assert.Equal(t, domain.CategoryRecurring, out[0].Category)
	assert.Equal(t, domain.Tranche1, out[0].Tranche)
	assert.Equal(t, domain.RiskLow, out[0].RiskScore)
	assert.Equal(t, domain.CategoryGrantReceipt, out[1].Category)
	assert.True(t, totals.RecurringSpent.Equal(decimal.NewFromInt(50_000)))

	observations, _ := Evaluate(totals, savings(t), domain.ModeSchool)
	assert.Empty(t, observations)
}

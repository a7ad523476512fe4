package pipeline

import (
	"github.com/atlaudit/statement-auditor/internal/classifier"
	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/atlaudit/statement-auditor/internal/extractor"
	"github.com/shopspring/decimal"
)

// runningContext accumulates provisional category totals between chunks so
// each chunk's prompt carries the spend observed so far. Classification
// here is provisional: the authoritative pass happens in ClassifyStep over
// the complete transaction list.
type runningContext struct {
	accountType  domain.AccountType
	nonRecurring decimal.Decimal
	recurring    decimal.Decimal
}

func newRunningContext(accountType domain.AccountType) *runningContext {
	return &runningContext{
		accountType:  accountType,
		nonRecurring: decimal.Zero,
		recurring:    decimal.Zero,
	}
}

func (rc *runningContext) Observe(txns []domain.RawTransaction) {
	for _, t := range txns {
		if t.Direction != domain.Debit || t.Amount.IsNegative() {
			continue
		}
		category, _, _ := classifier.Classify(t)
		switch category {
		case domain.CategoryNonRecurring:
			rc.nonRecurring = rc.nonRecurring.Add(t.Amount)
		case domain.CategoryRecurring:
			rc.recurring = rc.recurring.Add(t.Amount)
		}
	}
}

func (rc *runningContext) Hint() extractor.TrancheContext {
	return extractor.TrancheContext{
		AccountType:       rc.accountType,
		NonRecurringSpent: rc.nonRecurring,
		RecurringSpent:    rc.recurring,
	}
}

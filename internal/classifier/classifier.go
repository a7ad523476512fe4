// Package classifier maps raw transactions to funding categories using
// ordered keyword rules.
package classifier

import (
	"strings"

	"github.com/atlaudit/statement-auditor/internal/domain"
)

// Keyword groups are evaluated in order; the first matching group wins.
// Order matters: "workshop kit" must land in Recurring even though "kit"
// alone could be read as equipment.
var (
	interestKeywords = []string{
		"interest", "int credit", "int.pd", "sb int",
	}

	salaryKeywords = []string{
		"salary", "honorarium", "wages", "stipend", "remuneration",
	}

	capitalKeywords = []string{
		"equipment", "furniture", "laptop", "computer", "electronics",
		"3d printer", "printer", "machine", "infrastructure", "lab setup",
		"tools", "robotics",
	}

	operationalKeywords = []string{
		"maintenance", "amc", "workshop", "kit", "travel", "training",
		"consumable", "utility", "electricity", "internet",
	}
)

// Classify assigns a funding category, risk score and verification status
// to a raw transaction. It is stateless and idempotent.
func Classify(t domain.RawTransaction) (domain.Category, domain.RiskLevel, domain.VerificationStatus) {
	category := categorize(t)
	return category, riskFor(category), verificationFor(category)
}

func categorize(t domain.RawTransaction) domain.Category {
	narration := strings.ToLower(t.Narration)

	if t.Direction == domain.Credit {
		if matchesAny(narration, interestKeywords) {
			return domain.CategoryInterest
		}
		return domain.CategoryGrantReceipt
	}

	switch {
	case matchesAny(narration, salaryKeywords):
		return domain.CategoryRecurring
	case matchesAny(narration, capitalKeywords):
		return domain.CategoryNonRecurring
	case matchesAny(narration, operationalKeywords):
		return domain.CategoryRecurring
	default:
		return domain.CategoryIneligible
	}
}

func riskFor(category domain.Category) domain.RiskLevel {
	if category == domain.CategoryIneligible {
		return domain.RiskHigh
	}
	return domain.RiskLow
}

func verificationFor(category domain.Category) domain.VerificationStatus {
	if category == domain.CategoryIneligible {
		return domain.StatusDoubtful
	}
	return domain.StatusVerified
}

func matchesAny(narration string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(narration, kw) {
			return true
		}
	}
	return false
}

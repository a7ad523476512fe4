package allocator

import (
	"fmt"

	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/atlaudit/statement-auditor/internal/policy"
	"github.com/shopspring/decimal"
)

// Observation types emitted by Evaluate.
const (
	ObservationNonRecurringOverspend = "NON_RECURRING_OVERSPEND"
	ObservationRecurringOverspend    = "RECURRING_OVERSPEND"

	severityHigh = "HIGH"
)

// Evaluate compares final accumulated totals against the profile's caps and
// returns overage observations plus the compliance checklist. It is a pure
// function of its inputs; equality with a cap is never flagged.
func Evaluate(totals Totals, profile policy.AccountProfile, mode domain.Mode) ([]domain.ComplianceObservation, []domain.ChecklistItem) {
	observations := []domain.ComplianceObservation{}

	nonRecurringCap := profile.T1.NonRecurringCap
	if totals.NonRecurringSpent.GreaterThan(nonRecurringCap) {
		observations = append(observations, domain.ComplianceObservation{
			Type:     ObservationNonRecurringOverspend,
			Severity: severityHigh,
			Observation: fmt.Sprintf(
				"Non-recurring (capital) expenditure of ₹%s exceeds the Tranche 1 cap of ₹%s for a %s account.",
				totals.NonRecurringSpent.StringFixed(2), nonRecurringCap.StringFixed(2), profile.AccountType),
			Recommendation: recommend(mode,
				"Raise an audit objection for the capital overspend and seek supporting sanction documents.",
				"Review capital purchases for items that can be reclassified as recurring consumables before filing."),
		})
	}

	recurringCap := profile.CumulativeRecurringCap(totals.MaxRecurringTranche)
	if totals.RecurringSpent.GreaterThan(recurringCap) {
		observations = append(observations, domain.ComplianceObservation{
			Type:     ObservationRecurringOverspend,
			Severity: severityHigh,
			Observation: fmt.Sprintf(
				"Recurring expenditure of ₹%s exceeds the cumulative cap of ₹%s through %s.",
				totals.RecurringSpent.StringFixed(2), recurringCap.StringFixed(2), totals.MaxRecurringTranche),
			Recommendation: recommend(mode,
				"Flag the recurring overspend for recovery or adjustment against the next installment.",
				"Defer further operational spending until the next tranche is released."),
		})
	}

	checklist := []domain.ChecklistItem{
		checklistItem("Non-Recurring (Capital) within cap", totals.NonRecurringSpent, nonRecurringCap),
		checklistItem(fmt.Sprintf("Recurring within cumulative cap (%s)", totals.MaxRecurringTranche), totals.RecurringSpent, recurringCap),
	}

	return observations, checklist
}

func checklistItem(label string, spent, cap decimal.Decimal) domain.ChecklistItem {
	status := domain.ChecklistCompliant
	if spent.GreaterThan(cap) {
		status = domain.ChecklistNonCompliant
	}
	return domain.ChecklistItem{
		Label:   label,
		Status:  status,
		Comment: fmt.Sprintf("₹%s utilised of ₹%s", spent.StringFixed(2), cap.StringFixed(2)),
	}
}

// recommend selects wording only; mode never changes what gets flagged.
func recommend(mode domain.Mode, auditor, school string) string {
	if mode == domain.ModeAuditor {
		return auditor
	}
	return school
}

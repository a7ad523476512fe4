// Package domain defines the core types shared across the analysis pipeline.
package domain

import (
	"github.com/shopspring/decimal"
)

// Direction indicates whether a transaction moves money out of or into
// the account.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// Category is the funding category a transaction is reconciled under.
type Category string

const (
	CategoryNonRecurring Category = "Non-Recurring"
	CategoryRecurring    Category = "Recurring"
	CategoryInterest     Category = "Interest"
	CategoryGrantReceipt Category = "Grant Receipt"
	CategoryIneligible   Category = "Ineligible"
)

// Tranche is a sequential funding installment with its own spending caps.
type Tranche string

const (
	Tranche1 Tranche = "Tranche 1"
	Tranche2 Tranche = "Tranche 2"
	Tranche3 Tranche = "Tranche 3"

	// TrancheNone marks transactions that do not consume tranche capacity
	// (credits, interest, ineligible spend). Display-only.
	TrancheNone Tranche = "None"
)

// RiskLevel scores how likely a transaction is to draw an audit objection.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// VerificationStatus records whether a transaction's supporting evidence
// is considered settled.
type VerificationStatus string

const (
	StatusVerified VerificationStatus = "Verified"
	StatusDoubtful VerificationStatus = "Doubtful"
	StatusMissing  VerificationStatus = "Missing"
)

// AccountType selects the cap profile. Current accounts receive grants net
// of TDS, so their caps are lower than Savings.
type AccountType string

const (
	AccountSavings AccountType = "Savings"
	AccountCurrent AccountType = "Current"
)

// Mode selects the tone of observations only; it never changes
// classification or allocation.
type Mode string

const (
	ModeSchool  Mode = "School"
	ModeAuditor Mode = "Auditor"
)

// RawTransaction is one transaction as extracted from statement text,
// before classification.
type RawTransaction struct {
	Date      string          `json:"date"`
	Narration string          `json:"narration"`
	Amount    decimal.Decimal `json:"amount"`
	Direction Direction       `json:"direction"`
	GSTNo     string          `json:"gstNo,omitempty"`
	VoucherNo string          `json:"voucherNo,omitempty"`

	// LowConfidence marks records salvaged from partial model output,
	// e.g. an unparseable amount that was clamped to zero.
	LowConfidence bool `json:"lowConfidence,omitempty"`
}

// ClassifiedTransaction is a RawTransaction after categorization and
// tranche allocation.
type ClassifiedTransaction struct {
	ID string `json:"id"`
	RawTransaction

	Category           Category           `json:"category"`
	Tranche            Tranche            `json:"tranche"`
	RiskScore          RiskLevel          `json:"riskScore"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	FinancialYear      string             `json:"financialYear"`
}

// ComplianceObservation flags an accumulated category total that exceeds
// its tranche cap.
type ComplianceObservation struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Observation    string `json:"observation"`
	Recommendation string `json:"recommendation"`
}

// ChecklistStatus is the verdict of one compliance checklist entry.
type ChecklistStatus string

const (
	ChecklistCompliant    ChecklistStatus = "Compliant"
	ChecklistWarning      ChecklistStatus = "Warning"
	ChecklistNonCompliant ChecklistStatus = "Non-Compliant"
)

// ChecklistItem is one spent-vs-cap comparison in the compliance checklist.
type ChecklistItem struct {
	Label   string          `json:"label"`
	Status  ChecklistStatus `json:"status"`
	Comment string          `json:"comment"`
}

// Report is the full result of one statement analysis.
type Report struct {
	Transactions        []ClassifiedTransaction `json:"transactions"`
	Observations        []ComplianceObservation `json:"observations"`
	ComplianceChecklist []ChecklistItem         `json:"complianceChecklist"`
	Warnings            []string                `json:"warnings,omitempty"`
}

// FinancialYear is the reporting period label attached to every
// transaction in scope.
const FinancialYear = "2024-25"

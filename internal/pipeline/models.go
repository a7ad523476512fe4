package pipeline

import (
	"fmt"

	"github.com/atlaudit/statement-auditor/internal/domain"
)

// Request describes one statement analysis. Exactly one of TextData or
// Document must be provided.
type Request struct {
	Mode        domain.Mode
	AccountType domain.AccountType

	// TextData is pre-extracted statement text, used as-is.
	TextData string

	// Document is a raw statement file; MimeType selects the text
	// acquisition strategy.
	Document []byte
	MimeType string
}

// Validate checks the request is internally consistent. Unset mode and
// account type fall back to the common defaults rather than failing.
func (r *Request) Validate() error {
	if r.Mode == "" {
		r.Mode = domain.ModeSchool
	}
	if r.AccountType == "" {
		r.AccountType = domain.AccountSavings
	}

	switch r.Mode {
	case domain.ModeSchool, domain.ModeAuditor:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, r.Mode)
	}
	switch r.AccountType {
	case domain.AccountSavings, domain.AccountCurrent:
	default:
		return fmt.Errorf("%w: unknown account type %q", ErrInvalidRequest, r.AccountType)
	}

	if r.TextData == "" && len(r.Document) == 0 {
		return fmt.Errorf("%w: either statement text or a document is required", ErrInvalidRequest)
	}
	if r.TextData != "" && len(r.Document) > 0 {
		return fmt.Errorf("%w: provide statement text or a document, not both", ErrInvalidRequest)
	}
	return nil
}

package pipeline

import (
	"context"

	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/atlaudit/statement-auditor/internal/extractor"
)

// TextAcquirer turns a raw statement document into plain text.
// The production implementation layers a native PDF reader over OCR.
type TextAcquirer interface {
	AcquireText(ctx context.Context, document []byte, mimeType string) (string, error)
}

// TransactionExtractor runs structured extraction over ordered text
// chunks. The production implementation calls Gemini; tests use fakes.
type TransactionExtractor interface {
	ExtractAll(ctx context.Context, chunks []string, hinter extractor.ContextHinter) ([]domain.RawTransaction, extractor.Stats, error)
}

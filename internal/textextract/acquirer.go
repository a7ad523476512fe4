// Package textextract turns uploaded statement documents into plain text.
//
// Strategy is layered: for PDFs, try the native text layer first; when the
// document is scanned (no text layer, or one too short to be real content),
// fall back to full-page OCR. Images go straight to OCR.
package textextract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrExtractionFailure means the document yielded no usable text through
// any strategy. Terminal for the request: downstream stages must not run
// against a near-empty string and report zero transactions as success.
var ErrExtractionFailure = errors.New("could not extract readable text from document")

// DefaultMinTextChars is the minimum trimmed length below which extracted
// text is treated as an extraction failure rather than real content.
const DefaultMinTextChars = 50

// OCRClient recognizes text in raw document bytes. Implementations are
// injected; the production client calls the Cloud Vision API.
type OCRClient interface {
	Recognize(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Acquirer produces a best-effort plain-text rendition of a document.
type Acquirer struct {
	ocr      OCRClient
	minChars int
	log      zerolog.Logger

	// nativePDF is swappable in tests; defaults to the text-layer reader.
	nativePDF func(data []byte) (string, error)
}

// NewAcquirer builds an Acquirer around the given OCR client.
func NewAcquirer(ocr OCRClient, minChars int, log zerolog.Logger) *Acquirer {
	if minChars <= 0 {
		minChars = DefaultMinTextChars
	}
	return &Acquirer{
		ocr:       ocr,
		minChars:  minChars,
		log:       log,
		nativePDF: nativePDFText,
	}
}

// AcquireText extracts plain text from the document. The input buffer is
// never mutated.
func (a *Acquirer) AcquireText(ctx context.Context, document []byte, mimeType string) (string, error) {
	if mimeType == "application/pdf" {
		text, err := a.nativePDF(document)
		if err == nil && a.sufficient(text) {
			a.log.Debug().Int("chars", len(text)).Msg("native PDF text layer accepted")
			return text, nil
		}
		if err != nil {
			a.log.Debug().Err(err).Msg("native PDF extraction failed, falling back to OCR")
		} else {
			a.log.Debug().Int("chars", len(strings.TrimSpace(text))).
				Msg("native PDF text too short, treating as scanned document")
		}
	}

	if a.ocr == nil {
		return "", fmt.Errorf("no OCR client configured for %s: %w", mimeType, ErrExtractionFailure)
	}

	text, err := a.ocr.Recognize(ctx, document, mimeType)
	if err != nil {
		return "", fmt.Errorf("ocr failed: %v: %w", err, ErrExtractionFailure)
	}
	if !a.sufficient(text) {
		return "", fmt.Errorf("ocr yielded %d chars (minimum %d): %w",
			len(strings.TrimSpace(text)), a.minChars, ErrExtractionFailure)
	}
	return text, nil
}

func (a *Acquirer) sufficient(text string) bool {
	return len(strings.TrimSpace(text)) >= a.minChars
}

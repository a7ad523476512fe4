// Package pipeline orchestrates one statement analysis: acquire text,
// chunk it, extract transactions, classify them, allocate tranches and
// evaluate compliance. Each stage is a Step operating on shared State.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/atlaudit/statement-auditor/internal/allocator"
	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/atlaudit/statement-auditor/internal/extractor"
	"github.com/atlaudit/statement-auditor/internal/policy"
	"github.com/rs/zerolog"
)

// ErrNoTransactions means text was acquired and processed but no
// transactions could be extracted from it. Distinct from an extraction
// failure: the document was readable, it just yielded nothing.
var ErrNoTransactions = errors.New("no transactions could be extracted from the statement")

// ErrInvalidRequest wraps request validation failures so transports can
// map them to a client error.
var ErrInvalidRequest = errors.New("invalid analysis request")

// Step represents a single stage in the analysis pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State holds the shared state across all pipeline steps. Created fresh
// per request and never shared between requests.
type State struct {
	// Request inputs.
	Mode        domain.Mode
	AccountType domain.AccountType
	Document    []byte
	MimeType    string
	TextData    string

	// Populated by the steps, in order.
	Profile      policy.AccountProfile
	Text         string
	Chunks       []string
	Raw          []domain.RawTransaction
	Stats        extractor.Stats
	Transactions []domain.ClassifiedTransaction
	Totals       allocator.Totals
	Observations []domain.ComplianceObservation
	Checklist    []domain.ChecklistItem
	Warnings     []string
	Report       *domain.Report
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%T): %w", i+1, step, err)
		}
	}
	return nil
}

// NewAnalysisPipeline assembles the standard statement-analysis pipeline.
func NewAnalysisPipeline(acq TextAcquirer, ext TransactionExtractor, log zerolog.Logger) *Pipeline {
	return NewPipeline(
		&ResolveProfileStep{},
		&AcquireTextStep{Acquirer: acq, Log: log},
		&ChunkStep{},
		&ExtractStep{Extractor: ext, Log: log},
		&ClassifyStep{},
		&AllocateStep{},
		&EvaluateStep{},
		&BuildReportStep{},
	)
}

// Analyzer is the entry point handlers and the CLI share.
type Analyzer struct {
	pipeline *Pipeline
	log      zerolog.Logger
}

// NewAnalyzer wires an Analyzer around the standard pipeline.
func NewAnalyzer(acq TextAcquirer, ext TransactionExtractor, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		pipeline: NewAnalysisPipeline(acq, ext, log),
		log:      log,
	}
}

// Analyze runs one full statement analysis and returns the report.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*domain.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	state := &State{
		Mode:        req.Mode,
		AccountType: req.AccountType,
		Document:    req.Document,
		MimeType:    req.MimeType,
		TextData:    req.TextData,
	}

	if err := a.pipeline.Execute(ctx, state); err != nil {
		return nil, err
	}

	a.log.Info().
		Int("transactions", len(state.Report.Transactions)).
		Int("observations", len(state.Report.Observations)).
		Int("chunks_failed", state.Stats.ChunksFailed).
		Msg("statement analysis complete")

	return state.Report, nil
}

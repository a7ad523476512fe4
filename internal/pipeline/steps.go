package pipeline

import (
	"context"
	"fmt"

	"github.com/atlaudit/statement-auditor/internal/allocator"
	"github.com/atlaudit/statement-auditor/internal/chunker"
	"github.com/atlaudit/statement-auditor/internal/classifier"
	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/atlaudit/statement-auditor/internal/extractor"
	"github.com/atlaudit/statement-auditor/internal/policy"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Step 1: ResolveProfileStep loads the cap profile for the account type.
type ResolveProfileStep struct{}

func (s *ResolveProfileStep) Execute(ctx context.Context, state *State) error {
	profile, err := policy.ProfileFor(state.AccountType)
	if err != nil {
		return err
	}
	state.Profile = profile
	return nil
}

// Step 2: AcquireTextStep produces the plain-text statement. Pre-supplied
// text is used as-is; a document goes through the layered acquirer.
type AcquireTextStep struct {
	Acquirer TextAcquirer
	Log      zerolog.Logger
}

func (s *AcquireTextStep) Execute(ctx context.Context, state *State) error {
	if state.TextData != "" {
		state.Text = state.TextData
		return nil
	}

	text, err := s.Acquirer.AcquireText(ctx, state.Document, state.MimeType)
	if err != nil {
		return err
	}
	s.Log.Debug().Int("chars", len(text)).Str("mime_type", state.MimeType).
		Msg("statement text acquired")
	state.Text = text
	return nil
}

// Step 3: ChunkStep splits the text on line boundaries.
type ChunkStep struct {
	// MaxChunkChars overrides the default chunk bound when positive.
	MaxChunkChars int
}

func (s *ChunkStep) Execute(ctx context.Context, state *State) error {
	limit := s.MaxChunkChars
	if limit <= 0 {
		limit = extractor.DefaultMaxChunkChars
	}
	state.Chunks = chunker.Chunk(state.Text, limit)
	return nil
}

// Step 4: ExtractStep runs structured extraction over the chunks, feeding
// running budget totals from earlier chunks into later prompts.
type ExtractStep struct {
	Extractor TransactionExtractor
	Log       zerolog.Logger
}

func (s *ExtractStep) Execute(ctx context.Context, state *State) error {
	hinter := newRunningContext(state.AccountType)
	raw, stats, err := s.Extractor.ExtractAll(ctx, state.Chunks, hinter)
	if err != nil {
		return err
	}
	state.Raw = raw
	state.Stats = stats

	if len(raw) == 0 {
		return ErrNoTransactions
	}
	s.Log.Debug().Int("transactions", len(raw)).Int("chunks", stats.ChunksTried).
		Msg("extraction complete")
	return nil
}

// Step 5: ClassifyStep assigns a funding category, risk score and
// verification status to every extracted transaction.
type ClassifyStep struct{}

func (s *ClassifyStep) Execute(ctx context.Context, state *State) error {
	out := make([]domain.ClassifiedTransaction, len(state.Raw))
	for i, raw := range state.Raw {
		category, risk, verification := classifier.Classify(raw)
		out[i] = domain.ClassifiedTransaction{
			ID:                 uuid.NewString(),
			RawTransaction:     raw,
			Category:           category,
			RiskScore:          risk,
			VerificationStatus: verification,
			FinancialYear:      domain.FinancialYear,
		}
	}
	state.Transactions = out
	return nil
}

// Step 6: AllocateStep walks transactions in statement order and assigns
// each a tranche against the running category totals.
type AllocateStep struct{}

func (s *AllocateStep) Execute(ctx context.Context, state *State) error {
	state.Transactions, state.Totals = allocator.Allocate(state.Transactions, state.Profile)
	return nil
}

// Step 7: EvaluateStep compares final totals against the cap profile.
type EvaluateStep struct{}

func (s *EvaluateStep) Execute(ctx context.Context, state *State) error {
	state.Observations, state.Checklist = allocator.Evaluate(state.Totals, state.Profile, state.Mode)
	return nil
}

// Step 8: BuildReportStep assembles the final report, attaching quality
// warnings for skipped chunks and implausibly sparse extractions.
type BuildReportStep struct{}

func (s *BuildReportStep) Execute(ctx context.Context, state *State) error {
	var warnings []string

	if state.Stats.ChunksFailed > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d statement section(s) could not be parsed; the report may be missing transactions from them.",
			state.Stats.ChunksFailed))
	}

	if n := len(state.Transactions); n > 0 {
		if state.Stats.SourceChars/n > extractor.DefaultLowYieldCharsPerTxn {
			warnings = append(warnings, fmt.Sprintf(
				"Only %d transaction(s) extracted from %d characters of statement text; some rows may not have been recognized.",
				n, state.Stats.SourceChars))
		}
	}

	state.Warnings = warnings
	state.Report = &domain.Report{
		Transactions:        state.Transactions,
		Observations:        state.Observations,
		ComplianceChecklist: state.Checklist,
		Warnings:            warnings,
	}
	return nil
}

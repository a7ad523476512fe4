// Package extractor converts statement text chunks into raw transaction
// records through a generative structured-output capability, with syntax
// repair, retry across a configuration ladder, and recursive chunk
// splitting on failure.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atlaudit/statement-auditor/internal/chunker"
	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/rs/zerolog"
)

// errChunkFailed means a chunk produced no valid transactions through any
// configuration. Non-terminal: the caller splits or skips the chunk.
var errChunkFailed = errors.New("no configuration produced valid transactions for chunk")

// ContextHinter feeds cumulative allocation state back into the extraction
// loop, so each chunk's prompt reflects spend from earlier chunks.
type ContextHinter interface {
	Observe(txns []domain.RawTransaction)
	Hint() TrancheContext
}

// Stats summarizes one extraction run.
type Stats struct {
	SourceChars  int
	ChunksTried  int
	ChunksFailed int
}

// Extractor runs structured extraction over ordered text chunks.
type Extractor struct {
	gen     Generator
	configs []ModelConfig
	log     zerolog.Logger

	maxAttempts    int
	backoffBase    time.Duration
	attemptTimeout time.Duration
	minChunkChars  int

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithConfigs overrides the model configuration ladder.
func WithConfigs(configs []ModelConfig) Option {
	return func(e *Extractor) { e.configs = configs }
}

// WithRetry overrides the per-config attempt cap and backoff base.
func WithRetry(maxAttempts int, backoffBase time.Duration) Option {
	return func(e *Extractor) {
		e.maxAttempts = maxAttempts
		e.backoffBase = backoffBase
	}
}

// WithAttemptTimeout overrides the per-attempt timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.attemptTimeout = d }
}

// WithMinChunkChars overrides the size below which failed chunks are
// dropped instead of bisected.
func WithMinChunkChars(n int) Option {
	return func(e *Extractor) { e.minChunkChars = n }
}

func withSleep(fn func(time.Duration)) Option {
	return func(e *Extractor) { e.sleep = fn }
}

// New creates an Extractor around the given generator.
func New(gen Generator, log zerolog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		gen:            gen,
		configs:        DefaultConfigs(),
		log:            log,
		maxAttempts:    DefaultMaxAttempts,
		backoffBase:    DefaultBackoffBase,
		attemptTimeout: DefaultAttemptTimeout,
		minChunkChars:  DefaultMinChunkChars,
		sleep:          time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractAll processes chunks strictly in order. When a chunk fails every
// configuration and is still large enough, it is bisected and both halves
// are processed in its place, preserving overall document order. A chunk
// at or below the minimum-useful size that still fails is skipped and
// counted; partial results accumulate.
func (e *Extractor) ExtractAll(ctx context.Context, chunks []string, hinter ContextHinter) ([]domain.RawTransaction, Stats, error) {
	var stats Stats
	for _, c := range chunks {
		stats.SourceChars += len(c)
	}

	var all []domain.RawTransaction
	work := append([]string(nil), chunks...)

	for i := 0; i < len(work); i++ {
		if err := ctx.Err(); err != nil {
			return all, stats, err
		}

		chunk := work[i]
		stats.ChunksTried++

		txns, err := e.extractChunk(ctx, chunk, hinter.Hint())
		if err == nil {
			hinter.Observe(txns)
			all = append(all, txns...)
			continue
		}
		if ctx.Err() != nil {
			return all, stats, ctx.Err()
		}

		if len(chunk) > e.minChunkChars {
			left, right := chunker.SplitInHalf(chunk)
			if right != "" {
				e.log.Warn().Int("chunk_chars", len(chunk)).
					Msg("chunk failed all configurations, bisecting")
				tail := append([]string{left, right}, work[i+1:]...)
				work = append(work[:i], tail...)
				i--
				continue
			}
		}

		stats.ChunksFailed++
		e.log.Warn().Int("chunk_chars", len(chunk)).
			Msg("minimal chunk failed all configurations, skipping")
	}

	return all, stats, nil
}

// extractChunk walks the configuration ladder for a single chunk. Each
// configuration gets up to maxAttempts calls for transient upstream errors
// (backoff scaling with the attempt number); parse failures get one
// bracket-balance repair and otherwise move to the next configuration.
func (e *Extractor) extractChunk(ctx context.Context, chunk string, tc TrancheContext) ([]domain.RawTransaction, error) {
	prompt := buildPrompt(chunk, tc)

	for _, cfg := range e.configs {
		raw, err := e.callWithRetry(ctx, cfg, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.log.Debug().Err(err).Str("model", cfg.Model).Msg("configuration exhausted")
			continue
		}

		txns, err := e.parseResponse(raw)
		if err != nil {
			e.log.Debug().Err(err).Str("model", cfg.Model).Msg("response unusable after repair")
			continue
		}
		if len(txns) == 0 {
			e.log.Debug().Str("model", cfg.Model).Msg("configuration returned empty transaction list")
			continue
		}
		return txns, nil
	}
	return nil, errChunkFailed
}

// callWithRetry performs one configuration's upstream calls, retrying
// transient failures with linear backoff. Non-transient errors fail the
// configuration immediately.
func (e *Extractor) callWithRetry(ctx context.Context, cfg ModelConfig, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
		raw, err := e.gen.Generate(attemptCtx, cfg, systemInstruction, prompt)
		cancel()

		if err == nil {
			return raw, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isTransient(err) {
			return "", err
		}
		if attempt < e.maxAttempts {
			delay := time.Duration(attempt) * e.backoffBase
			e.log.Debug().Err(err).Str("model", cfg.Model).
				Int("attempt", attempt).Dur("backoff", delay).
				Msg("transient upstream error, backing off")
			e.sleep(delay)
		}
	}
	return "", fmt.Errorf("attempts exhausted for %s: %w", cfg.Model, lastErr)
}

// parseResponse cleans and parses a model response, attempting
// bracket-balance repair exactly once if the first parse fails.
func (e *Extractor) parseResponse(raw string) ([]domain.RawTransaction, error) {
	clean := cleanModelJSON(raw)

	txns, err := parseTransactions(clean)
	if err == nil {
		return txns, nil
	}

	repaired := repairTruncatedJSON(clean)
	txns, repairErr := parseTransactions(repaired)
	if repairErr != nil {
		return nil, fmt.Errorf("parse failed and repair did not help: %w", err)
	}
	e.log.Debug().Int("records", len(txns)).Msg("recovered transactions from truncated response")
	return txns, nil
}

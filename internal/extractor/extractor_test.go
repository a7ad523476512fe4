package extractor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// scriptedGenerator returns canned responses keyed by model name, or a
// custom function when set.
type scriptedGenerator struct {
	respond func(cfg ModelConfig, prompt string) (string, error)

	prompts []string
	models  []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, cfg ModelConfig, system, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	g.models = append(g.models, cfg.Model)
	return g.respond(cfg, prompt)
}

type nopHinter struct{}

func (nopHinter) Observe([]domain.RawTransaction) {}
func (nopHinter) Hint() TrancheContext            { return TrancheContext{} }

func testConfigs() []ModelConfig {
	return []ModelConfig{
		{Model: "primary", MaxOutputTokens: 1024, StrictSchema: true},
		{Model: "fallback", MaxOutputTokens: 2048},
	}
}

func newTestExtractor(gen Generator, opts ...Option) *Extractor {
	base := []Option{
		WithConfigs(testConfigs()),
		WithRetry(3, time.Millisecond),
		WithMinChunkChars(10),
		withSleep(func(time.Duration) {}),
	}
	return New(gen, zerolog.Nop(), append(base, opts...)...)
}

const validResponse = `[{"date":"01/04/2024","narration":"SALARY","amount":50000,"direction":"DEBIT"}]`

func TestExtractAllFirstConfigWins(t *testing.T) {
	gen := &scriptedGenerator{respond: func(cfg ModelConfig, prompt string) (string, error) {
		return validResponse, nil
	}}

	e := newTestExtractor(gen)
	txns, stats, err := e.ExtractAll(context.Background(), []string{"chunk one text"}, nopHinter{})
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(txns) != 1 || txns[0].Narration != "SALARY" {
		t.Fatalf("unexpected transactions: %+v", txns)
	}
	if stats.ChunksFailed != 0 {
		t.Errorf("ChunksFailed = %d", stats.ChunksFailed)
	}
	if len(gen.models) != 1 || gen.models[0] != "primary" {
		t.Errorf("models called: %v, want primary only", gen.models)
	}
}

func TestExtractAllFallsThroughLadder(t *testing.T) {
	gen := &scriptedGenerator{respond: func(cfg ModelConfig, prompt string) (string, error) {
		if cfg.Model == "primary" {
			return "I could not find any transactions in this text.", nil
		}
		return validResponse, nil
	}}

	e := newTestExtractor(gen)
	txns, _, err := e.ExtractAll(context.Background(), []string{"chunk one text"}, nopHinter{})
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("got %d transactions", len(txns))
	}
	if gen.models[len(gen.models)-1] != "fallback" {
		t.Errorf("fallback configuration never reached: %v", gen.models)
	}
}

func TestExtractAllEmptyListMovesToNextConfig(t *testing.T) {
	gen := &scriptedGenerator{respond: func(cfg ModelConfig, prompt string) (string, error) {
		if cfg.Model == "primary" {
			return "[]", nil
		}
		return validResponse, nil
	}}

	e := newTestExtractor(gen)
	txns, _, err := e.ExtractAll(context.Background(), []string{"chunk one text"}, nopHinter{})
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("empty-list response should not win; got %d transactions", len(txns))
	}
}

func TestTransientErrorsRetryWithBackoff(t *testing.T) {
	calls := 0
	gen := &scriptedGenerator{respond: func(cfg ModelConfig, prompt string) (string, error) {
		calls++
		if calls <= 2 {
			return "", genai.APIError{Code: 429, Message: "rate limited"}
		}
		return validResponse, nil
	}}

	var delays []time.Duration
	e := newTestExtractor(gen, withSleep(func(d time.Duration) { delays = append(delays, d) }),
		WithRetry(3, 500*time.Millisecond))

	txns, _, err := e.ExtractAll(context.Background(), []string{"chunk one text"}, nopHinter{})
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("got %d transactions", len(txns))
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	// Backoff scales with the attempt number.
	want := []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond}
	if len(delays) != len(want) || delays[0] != want[0] || delays[1] != want[1] {
		t.Errorf("delays = %v, want %v", delays, want)
	}
}

func TestNonTransientErrorSkipsToNextConfig(t *testing.T) {
	var perModel []string
	gen := &scriptedGenerator{respond: func(cfg ModelConfig, prompt string) (string, error) {
		perModel = append(perModel, cfg.Model)
		if cfg.Model == "primary" {
			return "", genai.APIError{Code: 400, Message: "invalid argument"}
		}
		return validResponse, nil
	}}

	e := newTestExtractor(gen)
	txns, _, err := e.ExtractAll(context.Background(), []string{"chunk one text"}, nopHinter{})
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("got %d transactions", len(txns))
	}
	// Exactly one call to primary: no retries for a permanent error.
	if got := strings.Join(perModel, ","); got != "primary,fallback" {
		t.Errorf("call sequence = %s", got)
	}
}

func TestFailedChunkIsBisected(t *testing.T) {
	// The generator chokes on any chunk containing both halves, but
	// handles each half alone.
	gen := &scriptedGenerator{respond: func(cfg ModelConfig, prompt string) (string, error) {
		hasA := strings.Contains(prompt, "ROW-A")
		hasB := strings.Contains(prompt, "ROW-B")
		switch {
		case hasA && hasB:
			return "garbage output", nil
		case hasA:
			return `[{"narration":"ROW-A","amount":1,"direction":"DEBIT"}]`, nil
		case hasB:
			return `[{"narration":"ROW-B","amount":2,"direction":"DEBIT"}]`, nil
		default:
			return "[]", nil
		}
	}}

	chunk := "ROW-A 100 DEBIT some padding text\nROW-B 200 DEBIT more padding text\n"
	e := newTestExtractor(gen)
	txns, stats, err := e.ExtractAll(context.Background(), []string{chunk}, nopHinter{})
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want both halves recovered", len(txns))
	}
	// Document order preserved across the split.
	if txns[0].Narration != "ROW-A" || txns[1].Narration != "ROW-B" {
		t.Errorf("order lost: %q then %q", txns[0].Narration, txns[1].Narration)
	}
	if stats.ChunksFailed != 0 {
		t.Errorf("ChunksFailed = %d", stats.ChunksFailed)
	}
}

func TestMinimalChunkFailureIsAbsorbed(t *testing.T) {
	gen := &scriptedGenerator{respond: func(cfg ModelConfig, prompt string) (string, error) {
		if strings.Contains(prompt, "BAD") {
			return "", genai.APIError{Code: 400, Message: "nope"}
		}
		return validResponse, nil
	}}

	e := newTestExtractor(gen, WithMinChunkChars(1000))
	chunks := []string{"GOOD row\n", "BAD row\n", "GOOD row\n"}
	txns, stats, err := e.ExtractAll(context.Background(), chunks, nopHinter{})
	if err != nil {
		t.Fatalf("pipeline must not abort on a single failed chunk: %v", err)
	}
	if len(txns) != 2 {
		t.Errorf("got %d transactions from surviving chunks", len(txns))
	}
	if stats.ChunksFailed != 1 {
		t.Errorf("ChunksFailed = %d, want 1", stats.ChunksFailed)
	}
}

func TestTruncatedResponseIsRepaired(t *testing.T) {
	truncated := `[{"narration":"FULL RECORD","amount":10,"direction":"DEBIT"},{"narration":"CUT OFF","amo`
	gen := &scriptedGenerator{respond: func(cfg ModelConfig, prompt string) (string, error) {
		return truncated, nil
	}}

	e := newTestExtractor(gen)
	txns, _, err := e.ExtractAll(context.Background(), []string{"chunk"}, nopHinter{})
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(txns) != 1 || txns[0].Narration != "FULL RECORD" {
		t.Fatalf("repair produced %+v", txns)
	}
}

// The running-totals hint from earlier chunks must appear in later prompts.
func TestPromptsCarryTrancheContext(t *testing.T) {
	gen := &scriptedGenerator{respond: func(cfg ModelConfig, prompt string) (string, error) {
		return validResponse, nil
	}}

	hinter := &recordingHinter{}
	e := newTestExtractor(gen)
	_, _, err := e.ExtractAll(context.Background(), []string{"chunk one\n", "chunk two\n"}, hinter)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if hinter.observed != 2 {
		t.Fatalf("hinter observed %d batches, want 2", hinter.observed)
	}
	if !strings.Contains(gen.prompts[1], "recurring (operational) spend ₹50000.00") {
		t.Errorf("second prompt missing accumulated context:\n%s", gen.prompts[1])
	}
}

// recordingHinter accumulates recurring spend like the pipeline does.
type recordingHinter struct {
	observed int
	total    decimal.Decimal
}

func (h *recordingHinter) Observe(txns []domain.RawTransaction) {
	h.observed++
	for _, t := range txns {
		h.total = h.total.Add(t.Amount)
	}
}

func (h *recordingHinter) Hint() TrancheContext {
	return TrancheContext{
		AccountType:    domain.AccountSavings,
		RecurringSpent: h.total,
	}
}

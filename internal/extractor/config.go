package extractor

import "time"

// ModelConfig describes one capability configuration in the fallback
// ladder. Configurations are tried in order; the first to yield a valid,
// non-empty transaction list wins.
type ModelConfig struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32

	// StrictSchema applies a response-schema constraint to the call.
	// Later ladder entries drop it: some truncated-output failures clear
	// up when the model is not forced through constrained decoding.
	StrictSchema bool
}

// DefaultConfigs is the standard fallback ladder, strongest model first.
func DefaultConfigs() []ModelConfig {
	return []ModelConfig{
		{Model: "gemini-2.5-pro", Temperature: 0, MaxOutputTokens: 16384, StrictSchema: true},
		{Model: "gemini-2.5-flash", Temperature: 0, MaxOutputTokens: 16384, StrictSchema: true},
		{Model: "gemini-2.5-flash", Temperature: 0.2, MaxOutputTokens: 32768, StrictSchema: false},
		{Model: "gemini-2.5-flash-lite", Temperature: 0.2, MaxOutputTokens: 32768, StrictSchema: false},
	}
}

// Tuning defaults for the extraction loop.
const (
	// DefaultMaxChunkChars bounds chunk size so each chunk's extraction
	// fits well inside a single model response.
	DefaultMaxChunkChars = 12000

	// DefaultMinChunkChars is the size below which a failing chunk is no
	// longer bisected and its transactions are given up on.
	DefaultMinChunkChars = 400

	// DefaultMaxAttempts caps transient-error retries per configuration.
	DefaultMaxAttempts = 3

	// DefaultBackoffBase scales linearly with the attempt number.
	DefaultBackoffBase = 500 * time.Millisecond

	// DefaultAttemptTimeout bounds each upstream call.
	DefaultAttemptTimeout = 90 * time.Second

	// DefaultLowYieldCharsPerTxn: above this many source characters per
	// extracted transaction, the result is implausibly sparse and a
	// low-yield warning is attached to the report.
	DefaultLowYieldCharsPerTxn = 160
)

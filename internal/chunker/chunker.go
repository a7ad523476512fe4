// Package chunker splits statement text into bounded, line-aligned
// segments so each segment's structured extraction fits within the model's
// output budget.
package chunker

import "strings"

// Chunk splits text into chunks of at most maxChunkChars, breaking on line
// boundaries only. Concatenating the returned chunks reproduces text
// exactly. A single line longer than maxChunkChars becomes its own
// oversized chunk; splitting inside a line would corrupt a transaction row.
func Chunk(text string, maxChunkChars int) []string {
	if text == "" {
		return nil
	}
	if maxChunkChars <= 0 || len(text) <= maxChunkChars {
		return []string{text}
	}

	lines := strings.SplitAfter(text, "\n")

	var chunks []string
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		if b.Len() > 0 && b.Len()+len(line) > maxChunkChars {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}

// SplitInHalf bisects a chunk at the line boundary nearest its midpoint,
// for recursive retry after an extraction failure. The second half is
// empty only when the chunk holds a single line.
func SplitInHalf(chunk string) (string, string) {
	lines := strings.SplitAfter(chunk, "\n")
	// Drop the empty tail SplitAfter leaves behind trailing newlines.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) <= 1 {
		return chunk, ""
	}

	mid := len(lines) / 2
	return strings.Join(lines[:mid], ""), strings.Join(lines[mid:], "")
}

package extractor

import "strings"

// cleanModelJSON strips Markdown fencing and surrounding junk the model
// sometimes emits despite instructions, keeping only the outermost JSON
// array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			return strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

// repairTruncatedJSON is a best-effort fix for output that was cut off
// mid-record: it drops the incomplete trailing record (everything after the
// last complete object) and appends the closers needed to balance what
// remains. The guarantee is deliberately narrow: it only fixes missing
// trailing closers. If the repaired text still does not parse, the caller
// discards the chunk.
func repairTruncatedJSON(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	// Cut after the last complete record.
	if last := strings.LastIndex(s, "}"); last != -1 {
		s = s[:last+1]
	} else if !strings.HasPrefix(s, "[") {
		return s
	} else {
		// No complete record at all; salvage an empty array.
		return "[]"
	}

	// Balance whatever openers are still unclosed, in nesting order.
	// String literals are skipped so braces inside narrations don't count.
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			stack = append(stack, c)
		case ']', '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		// A truncated string literal is beyond this repairer's scope.
		return s
	}

	var b strings.Builder
	b.WriteString(s)
	for i := len(stack) - 1; i >= 0; i-- {
		switch stack[i] {
		case '[':
			b.WriteByte(']')
		case '{':
			b.WriteByte('}')
		}
	}
	return b.String()
}

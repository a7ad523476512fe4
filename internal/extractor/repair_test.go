package extractor

import (
	"encoding/json"
	"testing"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "already clean",
			in:   `[{"a":1}]`,
			want: `[{"a":1}]`,
		},
		{
			name: "json fence",
			in:   "```json\n[{\"a\":1}]\n```",
			want: `[{"a":1}]`,
		},
		{
			name: "bare fence",
			in:   "```\n[{\"a\":1}]\n```",
			want: `[{"a":1}]`,
		},
		{
			name: "leading prose",
			in:   "Here are the transactions:\n[{\"a\":1}]",
			want: `[{"a":1}]`,
		},
		{
			name: "truncated stays truncated",
			in:   `[{"a":1},{"b"`,
			want: `[{"a":1},{"b"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.in); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRepairTruncatedJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "missing closing bracket",
			in:   `[{"narration":"A","amount":1},{"narration":"B","amount":2}`,
			want: `[{"narration":"A","amount":1},{"narration":"B","amount":2}]`,
		},
		{
			name: "cut mid record",
			in:   `[{"narration":"A","amount":1},{"narration":"B","amo`,
			want: `[{"narration":"A","amount":1}]`,
		},
		{
			name: "cut after comma",
			in:   `[{"narration":"A","amount":1},`,
			want: `[{"narration":"A","amount":1}]`,
		},
		{
			name: "braces inside narration do not confuse balancing",
			in:   `[{"narration":"PAY {REF-9}","amount":1},{"narration":"B`,
			want: `[{"narration":"PAY {REF-9}","amount":1}]`,
		},
		{
			name: "no complete record salvages empty array",
			in:   `[{"narration":"A`,
			want: `[]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repairTruncatedJSON(tt.in)
			if got != tt.want {
				t.Fatalf("repairTruncatedJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
			var parsed []map[string]interface{}
			if err := json.Unmarshal([]byte(got), &parsed); err != nil {
				t.Errorf("repaired output does not parse: %v", err)
			}
		})
	}
}

// A truncated response must round-trip into exactly the records that were
// complete before the cut, never a partially-parsed corrupted record.
func TestRepairRecoversCompleteRecordsOnly(t *testing.T) {
	truncated := `[{"date":"01/04/2024","narration":"SALARY APRIL","amount":50000,"direction":"DEBIT"},` +
		`{"date":"02/04/2024","narration":"LAB EQUIPMENT","amount":120000,"direction":"DEBIT"},` +
		`{"date":"03/04/2024","narration":"WORKSHOP KIT","amoun`

	txns, err := parseTransactions(repairTruncatedJSON(truncated))
	if err != nil {
		t.Fatalf("parse repaired: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2 complete records", len(txns))
	}
	if txns[0].Narration != "SALARY APRIL" || txns[1].Narration != "LAB EQUIPMENT" {
		t.Errorf("unexpected narrations: %q, %q", txns[0].Narration, txns[1].Narration)
	}
}

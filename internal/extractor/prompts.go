package extractor

import (
	"fmt"

	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/shopspring/decimal"
)

// TrancheContext carries the cumulative allocation state into the next
// chunk's prompt, so the model sees which bucket the running totals
// currently occupy. Chunk N+1's context depends on chunk N's results; this
// is why chunks are extracted sequentially.
type TrancheContext struct {
	AccountType       domain.AccountType
	NonRecurringSpent decimal.Decimal
	RecurringSpent    decimal.Decimal
}

// systemInstruction fixes the extraction vocabulary and strictness rules.
const systemInstruction = "You are a financial statement parser for Atal Tinkering Lab grant accounts.\n\n" +
	"Task:\n" +
	"- Extract ALL transactions from the statement text you are given.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a JSON array of objects.\n\n" +
	"Each object must have these fields:\n" +
	"- \"date\": string as printed on the statement, or null if illegible\n" +
	"- \"narration\": string (the transaction description, verbatim)\n" +
	"- \"amount\": number (always the positive magnitude)\n" +
	"- \"direction\": string, exactly \"DEBIT\" or \"CREDIT\"\n" +
	"- \"gstNo\": string or null\n" +
	"- \"voucherNo\": string or null\n\n" +
	"Rules:\n" +
	"- Do NOT invent transactions. Only emit rows present in the text.\n" +
	"- Use null for any field you cannot read; never guess values.\n" +
	"- Keep narrations verbatim from the source text.\n" +
	"- If debit and credit are separate columns, set \"direction\" accordingly.\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n" +
	"Output must begin with \"[\" and end with \"]\".\n"

// buildPrompt composes the per-chunk user prompt, including the budget
// context accumulated from earlier chunks.
func buildPrompt(chunk string, tc TrancheContext) string {
	accountType := tc.AccountType
	if accountType == "" {
		accountType = domain.AccountSavings
	}

	return fmt.Sprintf(
		"Statement excerpt from a %s grant account.\n"+
			"Budget context so far: non-recurring (capital) spend ₹%s, recurring (operational) spend ₹%s.\n"+
			"Parse every transaction row in the excerpt below.\n\n%s",
		accountType,
		tc.NonRecurringSpent.StringFixed(2),
		tc.RecurringSpent.StringFixed(2),
		chunk,
	)
}

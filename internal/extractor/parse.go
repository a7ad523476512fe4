package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/shopspring/decimal"
)

// parseTransactions decodes a model response into raw transactions. It is
// deliberately tolerant: a record with an unreadable amount is kept with
// amount zero and marked low-confidence rather than dropped, so salvaged
// partial output never silently loses rows.
func parseTransactions(jsonText string) ([]domain.RawTransaction, error) {
	var items []map[string]interface{}
	if err := json.Unmarshal([]byte(jsonText), &items); err != nil {
		return nil, fmt.Errorf("unmarshal transaction list: %w", err)
	}

	result := make([]domain.RawTransaction, 0, len(items))
	for _, obj := range items {
		t := domain.RawTransaction{
			Date:      stringField(obj, "date"),
			Narration: stringField(obj, "narration"),
			GSTNo:     stringField(obj, "gstNo"),
			VoucherNo: stringField(obj, "voucherNo"),
		}

		t.Direction, t.LowConfidence = directionField(obj)

		amount, ok := amountField(obj)
		if !ok {
			t.LowConfidence = true
		}
		t.Amount = amount

		result = append(result, t)
	}
	return result, nil
}

func stringField(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// directionField normalizes the direction value. An unreadable direction
// defaults to DEBIT (the conservative choice for budget compliance) and
// marks the record low-confidence.
func directionField(m map[string]interface{}) (domain.Direction, bool) {
	raw := strings.ToUpper(stringField(m, "direction"))
	switch raw {
	case "DEBIT", "DR":
		return domain.Debit, false
	case "CREDIT", "CR":
		return domain.Credit, false
	default:
		return domain.Debit, true
	}
}

// amountField reads the amount as its non-negative magnitude. Returns
// (0, false) when the value cannot be parsed as a number.
func amountField(m map[string]interface{}) (decimal.Decimal, bool) {
	v, ok := m["amount"]
	if !ok || v == nil {
		return decimal.Zero, false
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val).Abs(), true
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, false
		}
		return d.Abs(), true
	default:
		return decimal.Zero, false
	}
}

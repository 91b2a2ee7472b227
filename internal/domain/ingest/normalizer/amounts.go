package normalizer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountResult is a signed decimal amount plus any warnings raised while
// parsing. Unparseable input yields zero, never an error.
type AmountResult struct {
	Amount   decimal.Decimal
	Warnings []string
}

// Cents returns the amount in minor units, rounded half up.
func (r AmountResult) Cents() int64 {
	return r.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

var currencyMarkers = []string{
	"$", "€", "£", "¥", "NZD", "AUD", "USD", "EUR", "GBP", "NZ$", "AU$", "US$",
}

// ParseAmount converts raw statement text into a signed decimal. Bracketed
// values and DR/DEBIT suffixes negate; currency symbols and whitespace are
// stripped; comma is a decimal point only when followed by one or two
// trailing digits, otherwise a thousands separator.
func ParseAmount(raw string) AmountResult {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return AmountResult{
			Amount:   decimal.Zero,
			Warnings: []string{"amount is empty, defaulted to zero"},
		}
	}

	negative := false

	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}

	upper := strings.ToUpper(strings.TrimSpace(cleaned))
	for _, suffix := range []string{"DEBIT", "DR"} {
		if strings.HasSuffix(upper, suffix) {
			negative = true
			cleaned = strings.TrimSpace(cleaned[:len(cleaned)-len(suffix)])
			break
		}
	}
	for _, suffix := range []string{"CREDIT", "CR"} {
		if strings.HasSuffix(upper, suffix) && !negative {
			cleaned = strings.TrimSpace(cleaned[:len(cleaned)-len(suffix)])
			break
		}
	}

	for _, marker := range currencyMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	cleaned = strings.Join(strings.Fields(cleaned), "")

	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = strings.TrimPrefix(cleaned, "-")
	}
	cleaned = strings.TrimPrefix(cleaned, "+")
	if strings.HasSuffix(cleaned, "-") {
		negative = true
		cleaned = strings.TrimSuffix(cleaned, "-")
	}

	cleaned = normalizeSeparators(cleaned)

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return AmountResult{
			Amount:   decimal.Zero,
			Warnings: []string{fmt.Sprintf("unparseable amount %q, defaulted to zero", raw)},
		}
	}

	if negative {
		value = value.Neg()
	}
	return AmountResult{Amount: value}
}

// normalizeSeparators resolves the decimal-vs-thousands ambiguity. When both
// separators appear the comma is always thousands. A lone comma is a decimal
// point only with exactly one or two digits after it.
func normalizeSeparators(s string) string {
	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		// European order (1.234,56) puts the comma last; then dots are
		// the thousands separators and the comma is the decimal point.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case hasComma:
		idx := strings.LastIndex(s, ",")
		tail := len(s) - idx - 1
		if strings.Count(s, ",") == 1 && (tail == 1 || tail == 2) {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	default:
		return s
	}
}

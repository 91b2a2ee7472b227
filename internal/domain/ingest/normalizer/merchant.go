package normalizer

import (
	"regexp"
	"strings"
)

// MaxDescriptionLength bounds stored descriptions; longer text is truncated
// with an ellipsis.
const MaxDescriptionLength = 200

// Leading payment-channel noise commonly prefixed by banks and POS systems.
var merchantPrefixes = []string{
	"pos ", "eftpos ", "visa ", "mastercard ", "debit card ", "credit card ",
	"card payment to ", "payment to ", "direct debit ", "automatic payment ",
	"ap ", "dd ", "df ", "tfr ", "transfer to ", "transfer from ",
	"online purchase ", "purchase ",
}

var (
	trailingRef     = regexp.MustCompile(`(?i)\s+(ref|reference|receipt|auth|txn)[:#\s]*\S+$`)
	trailingDigits  = regexp.MustCompile(`\s+\d{5,}$`)
	trailingCard    = regexp.MustCompile(`\s+\*+\d{2,4}$`)
	trailingDateRef = regexp.MustCompile(`\s+\d{1,2}[-/]\d{1,2}(?:[-/]\d{2,4})?$`)
	junkPunct       = regexp.MustCompile(`[^\pL\pN&'\-\s]`)
	multiSpace      = regexp.MustCompile(`\s+`)
)

// CleanDescription collapses whitespace and truncates to the storage bound.
// The text itself is preserved as the bank sent it. Truncation counts runes
// so multi-byte text is never cut mid-character.
func CleanDescription(raw string) string {
	s := multiSpace.ReplaceAllString(strings.TrimSpace(raw), " ")
	if runes := []rune(s); len(runes) > MaxDescriptionLength {
		s = string(runes[:MaxDescriptionLength-3]) + "..."
	}
	return s
}

// ExtractMerchant derives a merchant label from a statement description:
// channel prefixes and trailing reference codes are stripped, punctuation
// that cannot be part of a name is removed, and the remainder is collapsed
// and bounded. Returns "" when nothing name-like survives.
func ExtractMerchant(description string) string {
	s := strings.TrimSpace(description)
	if s == "" {
		return ""
	}

	lower := strings.ToLower(s)
	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			lower = strings.ToLower(s)
		}
	}

	s = trailingRef.ReplaceAllString(s, "")
	s = trailingCard.ReplaceAllString(s, "")
	s = trailingDateRef.ReplaceAllString(s, "")
	s = trailingDigits.ReplaceAllString(s, "")

	s = junkPunct.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(strings.TrimSpace(s), " ")

	const maxMerchantLength = 60
	if runes := []rune(s); len(runes) > maxMerchantLength {
		s = strings.TrimSpace(string(runes[:maxMerchantLength]))
	}
	return s
}

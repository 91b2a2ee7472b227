package normalizer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "Countdown Auckland", CleanDescription("  Countdown   Auckland  "))

	long := strings.Repeat("x", 500)
	cleaned := CleanDescription(long)
	assert.Len(t, cleaned, MaxDescriptionLength)
	assert.True(t, strings.HasSuffix(cleaned, "..."))

	t.Run("multi-byte text is cut on rune boundaries", func(t *testing.T) {
		long := strings.Repeat("descrição ", 50)
		cleaned := CleanDescription(long)

		assert.True(t, utf8.ValidString(cleaned))
		assert.Len(t, []rune(cleaned), MaxDescriptionLength)
		assert.True(t, strings.HasSuffix(cleaned, "..."))
	})
}

func TestExtractMerchant(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "pos prefix and trailing code", raw: "POS COUNTDOWN AUCKLAND 123456", want: "COUNTDOWN AUCKLAND"},
		{name: "reference suffix", raw: "EFTPOS PAK'NSAVE ALBANY REF 98821", want: "PAK'NSAVE ALBANY"},
		{name: "card suffix", raw: "VISA NETFLIX.COM *4821", want: "NETFLIX COM"},
		{name: "direct debit", raw: "DIRECT DEBIT MERIDIAN ENERGY", want: "MERIDIAN ENERGY"},
		{name: "plain name passes through", raw: "Salary Payment", want: "Salary Payment"},
		{name: "empty", raw: "   ", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractMerchant(tc.raw))
		})
	}
}

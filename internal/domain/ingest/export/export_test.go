package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centsible/centsible/internal/domain/ingest"
)

func sampleTransactions() []ingest.NormalizedTransaction {
	groceries := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	salary := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	return []ingest.NormalizedTransaction{
		{
			ID:          ingest.GenerateID(groceries, -4550, "Countdown Groceries"),
			Date:        groceries,
			Description: "Countdown Groceries",
			AmountCents: 4550,
			IsIncome:    false,
			Category:    "Groceries",
			Merchant:    "Countdown",
		},
		{
			ID:          ingest.GenerateID(salary, 300000, "Salary Payment"),
			Date:        salary,
			Description: "Salary Payment",
			AmountCents: 300000,
			IsIncome:    true,
			Category:    "Salary",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTransactions()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "id,date,description,amount,type,category,merchant", lines[0])
	assert.Contains(t, lines[1], "2024-03-01,Countdown Groceries,-45.50,expense,Groceries,Countdown")
	assert.Contains(t, lines[2], "2024-03-02,Salary Payment,3000.00,income,Salary,")
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	// Header only
	assert.Equal(t, "id,date,description,amount,type,category,merchant",
		strings.TrimSpace(buf.String()))
}

func TestRowsSignRestoration(t *testing.T) {
	rows := Rows(sampleTransactions())
	require.Len(t, rows, 2)
	assert.Equal(t, "-45.50", rows[0].Amount)
	assert.Equal(t, "3000.00", rows[1].Amount)
}

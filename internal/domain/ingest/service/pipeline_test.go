package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centsible/centsible/internal/domain/categorization"
	"github.com/centsible/centsible/internal/domain/dedupe"
)

func testPipeline() *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPipeline(categorization.NewService(nil, nil, logger), "NZD", logger)
}

const sampleStatement = `Date,Description,Amount
01/03/2024,Countdown Groceries,-45.50
02/03/2024,Salary Payment,+3000.00
,,
`

func TestProcessFile(t *testing.T) {
	ctx := context.Background()
	p := testPipeline()

	t.Run("three row statement end to end", func(t *testing.T) {
		report := p.ProcessFile(ctx, sampleStatement, nil)

		require.Len(t, report.Transactions, 2)
		require.Len(t, report.SkippedRows, 1)
		assert.Empty(t, report.Errors)

		first := report.Transactions[0]
		assert.Equal(t, "Groceries", first.Category)
		assert.False(t, first.IsIncome)
		assert.Equal(t, int64(4550), first.AmountCents)
		assert.Equal(t, "2024-03-01", first.ISODate())

		second := report.Transactions[1]
		assert.Equal(t, "Salary", second.Category)
		assert.True(t, second.IsIncome)

		assert.Equal(t, 3, report.Summary.TotalRows)
		assert.Equal(t, 2, report.Summary.TotalTransactions)
		assert.InDelta(t, 66.7, report.Summary.SuccessRate, 1e-9)
		assert.Equal(t, int64(295450), report.Summary.NetAmountCents)
		assert.Equal(t, "2024-03-01", report.Summary.DateFrom)
		assert.Equal(t, "2024-03-02", report.Summary.DateTo)
	})

	t.Run("amounts are non-negative with sign carried by isIncome", func(t *testing.T) {
		report := p.ProcessFile(ctx, sampleStatement, nil)

		for _, txn := range report.Transactions {
			assert.GreaterOrEqual(t, txn.AmountCents, int64(0))
		}
	})

	t.Run("reprocessing yields identical ids", func(t *testing.T) {
		first := p.ProcessFile(ctx, sampleStatement, nil)
		second := p.ProcessFile(ctx, sampleStatement, nil)

		require.Len(t, second.Transactions, len(first.Transactions))
		for i := range first.Transactions {
			assert.Equal(t, first.Transactions[i].ID, second.Transactions[i].ID)
		}
	})

	t.Run("row accounting is monotone", func(t *testing.T) {
		report := p.ProcessFile(ctx, sampleStatement, nil)

		assert.LessOrEqual(t,
			report.Summary.TotalTransactions+len(report.SkippedRows),
			report.Summary.TotalRows+0)
		assert.Equal(t, report.Summary.TotalRows,
			report.Summary.TotalTransactions+len(report.SkippedRows))
	})

	t.Run("empty file is a structural error", func(t *testing.T) {
		report := p.ProcessFile(ctx, "   \n ", nil)

		assert.Empty(t, report.Transactions)
		require.NotEmpty(t, report.Errors)
		assert.Contains(t, report.Errors[0], "empty")
	})

	t.Run("unusable columns is a structural error", func(t *testing.T) {
		report := p.ProcessFile(ctx, "Alpha,Beta,Gamma\n1,2,3", nil)

		assert.Empty(t, report.Transactions)
		require.NotEmpty(t, report.Errors)
		assert.Contains(t, report.Errors[0], "columns")
	})

	t.Run("bad cells degrade to warnings not drops", func(t *testing.T) {
		content := "Date,Description,Amount\nnot-a-date,Mystery Purchase,not-money\n"

		report := p.ProcessFile(ctx, content, nil)

		require.Len(t, report.Transactions, 1)
		txn := report.Transactions[0]
		assert.Equal(t, int64(0), txn.AmountCents)
		assert.NotEmpty(t, txn.Warnings)
		// Fallback dates are excluded from the summary date range
		assert.Empty(t, report.Summary.DateFrom)
	})

	t.Run("duplicates against the snapshot are advisory", func(t *testing.T) {
		snapshot := []dedupe.StoredTransaction{
			{ID: "ex_1", TransactionDate: "2024-03-01", Description: "Countdown Groceries", Amount: -45.50},
		}

		report := p.ProcessFile(ctx, sampleStatement, snapshot)

		require.Len(t, report.Duplicates, 1)
		assert.Equal(t, 1.0, report.Duplicates[0].Confidence)
		// Still imported; the caller decides disposition
		assert.Len(t, report.Transactions, 2)
	})

	t.Run("detected bank appears in the summary", func(t *testing.T) {
		anz := strings.Join([]string{
			"Date,Details,Particulars,Code,Reference,Amount,Balance",
			"15/03/2024,COUNTDOWN AUCKLAND,,,,-87.50,1240.10",
		}, "\n")

		report := p.ProcessFile(ctx, anz, nil)

		assert.Equal(t, "ANZ New Zealand", report.Summary.DetectedBank)
		assert.Greater(t, report.Summary.BankConfidence, 0.5)
	})
}

func TestProcessBatch(t *testing.T) {
	ctx := context.Background()
	p := testPipeline()

	fileA := "Date,Description,Amount\n01/03/2024,Countdown Groceries,-45.50\n"
	fileB := "Date,Description,Amount\n01/03/2024,Countdown Groceries,-45.50\n02/03/2024,New Purchase,-10.00\n"

	reports := p.ProcessBatch(ctx, []File{
		{Name: "march-a.csv", Content: fileA},
		{Name: "march-b.csv", Content: fileB},
	}, nil)

	require.Len(t, reports, 2)
	assert.Empty(t, reports[0].Duplicates)

	// File B sees file A's accepted transactions in its snapshot
	require.Len(t, reports[1].Duplicates, 1)
	assert.Equal(t, 1.0, reports[1].Duplicates[0].Confidence)
}

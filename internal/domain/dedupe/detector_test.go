package dedupe

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centsible/centsible/internal/domain/ingest"
)

func testDetector() *Detector {
	return NewDetector(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func txn(date string, cents int64, description, merchant string) ingest.NormalizedTransaction {
	d, _ := time.Parse("2006-01-02", date)
	isIncome := cents > 0
	abs := cents
	if abs < 0 {
		abs = -abs
	}
	return ingest.NormalizedTransaction{
		ID:          ingest.GenerateID(d, cents, description),
		Date:        d,
		Description: description,
		AmountCents: abs,
		IsIncome:    isIncome,
		Merchant:    merchant,
	}
}

func TestFindDuplicates(t *testing.T) {
	d := testDetector()

	t.Run("identical triple is an exact match", func(t *testing.T) {
		newTxns := []ingest.NormalizedTransaction{
			txn("2024-03-01", -4550, "Countdown Auckland", "Countdown"),
		}
		existing := []StoredTransaction{
			{ID: "ex_1", TransactionDate: "2024-03-01", Description: "Countdown Auckland", Amount: -45.50, Merchant: "Countdown"},
		}

		matches := d.FindDuplicates(newTxns, existing)

		require.Len(t, matches, 1)
		assert.Equal(t, 1.0, matches[0].Confidence)
		assert.Equal(t, []string{"exact match"}, matches[0].Reasons)
		assert.Equal(t, "ex_1", matches[0].ExistingID)
	})

	t.Run("casing change plus one day shift lands in the advisory band", func(t *testing.T) {
		newTxns := []ingest.NormalizedTransaction{
			txn("2024-03-02", -4550, "Countdown Auckland", "Countdown"),
		}
		existing := []StoredTransaction{
			{ID: "ex_2", TransactionDate: "2024-03-01", Description: "COUNTDOWN AUCKLAND", Amount: -45.50, Merchant: "COUNTDOWN"},
		}

		matches := d.FindDuplicates(newTxns, existing)

		require.Len(t, matches, 1)
		assert.GreaterOrEqual(t, matches[0].Confidence, 0.6)
		assert.Less(t, matches[0].Confidence, 0.9)
		assert.GreaterOrEqual(t, matches[0].Confidence, reportThreshold)
	})

	t.Run("unrelated transactions stay silent", func(t *testing.T) {
		newTxns := []ingest.NormalizedTransaction{
			txn("2024-03-15", -1200, "Cinema Ticket", ""),
		}
		existing := []StoredTransaction{
			{ID: "ex_3", TransactionDate: "2023-11-02", Description: "Rent Payment", Amount: -650.00},
		}

		assert.Empty(t, d.FindDuplicates(newTxns, existing))
	})

	t.Run("below threshold is not reported", func(t *testing.T) {
		// Same date and close-but-not-equal amount only: 0.4 + 0.2
		newTxns := []ingest.NormalizedTransaction{
			txn("2024-03-01", -10000, "Insurance Premium", ""),
		}
		existing := []StoredTransaction{
			{ID: "ex_4", TransactionDate: "2024-03-01", Description: "Power Bill", Amount: -99.95},
		}

		assert.Empty(t, d.FindDuplicates(newTxns, existing))
	})

	t.Run("malformed stored records are skipped without aborting", func(t *testing.T) {
		newTxns := []ingest.NormalizedTransaction{
			txn("2024-03-01", -4550, "Countdown Auckland", "Countdown"),
		}
		existing := []StoredTransaction{
			{ID: "", TransactionDate: "2024-03-01", Description: "Countdown Auckland", Amount: -45.50},
			{ID: "ex_5", TransactionDate: "not-a-date", Description: "Countdown Auckland", Amount: -45.50},
			{ID: "ex_6", TransactionDate: "2024-03-01", Description: "Countdown Auckland", Amount: -45.50},
		}

		matches := d.FindDuplicates(newTxns, existing)

		require.Len(t, matches, 1)
		assert.Equal(t, "ex_6", matches[0].ExistingID)
	})

	t.Run("accepts timestamped stored dates", func(t *testing.T) {
		newTxns := []ingest.NormalizedTransaction{
			txn("2024-03-01", -4550, "Countdown Auckland", "Countdown"),
		}
		existing := []StoredTransaction{
			{ID: "ex_7", TransactionDate: "2024-03-01T14:22:00Z", Description: "Countdown Auckland", Amount: -45.50},
		}

		matches := d.FindDuplicates(newTxns, existing)
		require.Len(t, matches, 1)
		assert.Equal(t, 1.0, matches[0].Confidence)
	})
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("abc", "abc"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.InDelta(t, 0.8, Similarity("abcde", "abcdx"), 1e-9)
	assert.Less(t, Similarity("Countdown Auckland", "COUNTDOWN AUCKLAND"), 0.7)
}

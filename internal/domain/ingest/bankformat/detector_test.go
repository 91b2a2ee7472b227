package bankformat

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centsible/centsible/internal/domain/ingest/tokenizer"
)

func testDetector(cfg DetectorConfig) *Detector {
	return NewDetector(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDetect(t *testing.T) {
	d := testDetector(DefaultConfig())

	t.Run("matches ANZ export headers", func(t *testing.T) {
		headers := []string{"Date", "Details", "Particulars", "Code", "Reference", "Amount", "Balance"}
		sample := []tokenizer.RawRow{
			{LineNum: 2, Cells: []string{"15/03/2024", "COUNTDOWN AUCKLAND", "", "", "", "-87.50", "1,240.10"}},
		}

		mapping, err := d.Detect(headers, sample)

		require.NoError(t, err)
		require.NotNil(t, mapping.Profile)
		assert.Equal(t, "anz_nz", mapping.Profile.ID)
		assert.Greater(t, mapping.Score, 50)
		assert.Equal(t, 0, mapping.Column(RoleDate))
		assert.Equal(t, 1, mapping.Column(RoleDescription))
		assert.Equal(t, 5, mapping.Column(RoleAmount))
		assert.Equal(t, "DD/MM/YYYY", mapping.DateFormat)
	})

	t.Run("matches Revolut export headers", func(t *testing.T) {
		headers := []string{"Type", "Product", "Started Date", "Completed Date", "Description", "Amount", "Fee", "Currency", "State", "Balance"}
		sample := []tokenizer.RawRow{
			{LineNum: 2, Cells: []string{"CARD_PAYMENT", "Current", "2024-03-14 18:02:11", "2024-03-15 09:00:00", "Tesco", "-12.40", "0.00", "GBP", "COMPLETED", "310.22"}},
		}

		mapping, err := d.Detect(headers, sample)

		require.NoError(t, err)
		require.NotNil(t, mapping.Profile)
		assert.Equal(t, "revolut", mapping.Profile.ID)
		assert.Equal(t, 3, mapping.Column(RoleDate))
		assert.Equal(t, "YYYY-MM-DD", mapping.DateFormat)
	})

	t.Run("prefers generic profile for plain headers", func(t *testing.T) {
		headers := []string{"Date", "Description", "Amount"}
		sample := []tokenizer.RawRow{
			{LineNum: 2, Cells: []string{"01/02/2024", "Coffee", "-4.50"}},
		}

		mapping, err := d.Detect(headers, sample)

		require.NoError(t, err)
		require.NotNil(t, mapping.Profile)
		assert.Equal(t, "generic", mapping.Profile.ID)
		assert.Greater(t, mapping.Score, 50)
	})

	t.Run("sample row patterns raise the score", func(t *testing.T) {
		headers := []string{"Date", "Description", "Amount"}
		withSample := []tokenizer.RawRow{
			{LineNum: 2, Cells: []string{"01/02/2024", "Coffee", "-4.50"}},
		}

		scored, err := d.Detect(headers, withSample)
		require.NoError(t, err)
		bare, err := d.Detect(headers, nil)
		require.NoError(t, err)

		assert.Equal(t, scored.Score, bare.Score+2*patternWeight)
	})

	t.Run("falls back to fuzzy column matching", func(t *testing.T) {
		headers := []string{"Day Posted", "Narrative Text", "Money Out"}

		mapping, err := d.Detect(headers, nil)

		require.NoError(t, err)
		assert.Nil(t, mapping.Profile)
		assert.Equal(t, 0, mapping.Column(RoleDate))
		assert.Equal(t, 1, mapping.Column(RoleDescription))
		for _, m := range mapping.Columns {
			assert.Greater(t, m.Confidence, 0.2)
		}
	})

	t.Run("errors when too few roles resolve", func(t *testing.T) {
		headers := []string{"Alpha", "Beta", "Gamma"}

		_, err := d.Detect(headers, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientColumns)
		assert.Contains(t, err.Error(), "Alpha")
	})

	t.Run("threshold is tunable", func(t *testing.T) {
		strict := testDetector(DetectorConfig{ProfileThreshold: 99, FuzzyFloor: 0.2})
		headers := []string{"Date", "Description", "Amount"}

		mapping, err := strict.Detect(headers, nil)

		// Too strict for any profile, but the fuzzy matcher still binds
		// all three columns exactly.
		require.NoError(t, err)
		assert.Nil(t, mapping.Profile)
		assert.Equal(t, 3, countCore(mapping.Columns))
	})
}

func TestColumnConfidence(t *testing.T) {
	vocab := roleVocabulary[RoleDescription]

	assert.Equal(t, 1.0, columnConfidence("description", vocab))
	assert.Greater(t, columnConfidence("narrative text", vocab), 0.5)
	assert.Less(t, columnConfidence("zzzz", vocab), 0.2)
}

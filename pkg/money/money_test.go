package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyArithmetic(t *testing.T) {
	t.Run("add same currency", func(t *testing.T) {
		sum, err := New(1050, NZD).Add(New(-450, NZD))

		require.NoError(t, err)
		assert.Equal(t, int64(600), sum.Amount())
	})

	t.Run("add rejects currency mismatch", func(t *testing.T) {
		_, err := New(100, NZD).Add(New(100, USD))
		assert.Error(t, err)
	})

	t.Run("negate and abs", func(t *testing.T) {
		m := New(450, NZD).Negate()
		assert.True(t, m.IsNegative())
		assert.Equal(t, int64(450), m.Abs().Amount())
	})

	t.Run("nil receiver behaves as zero", func(t *testing.T) {
		var m *Money
		assert.True(t, m.IsZero())
		assert.Equal(t, int64(0), m.Amount())

		sum, err := m.Add(New(100, NZD))
		require.NoError(t, err)
		assert.Equal(t, int64(100), sum.Amount())
	})
}

func TestMoneyConversions(t *testing.T) {
	t.Run("decimal round trip", func(t *testing.T) {
		m := NewFromDecimal(decimal.RequireFromString("1234.56"), NZD)

		assert.Equal(t, int64(123456), m.Amount())
		assert.Equal(t, "1234.56", m.ToDecimal().String())
	})

	t.Run("string form", func(t *testing.T) {
		assert.Equal(t, "-45.5", New(-4550, NZD).String())
	})

	t.Run("json round trip", func(t *testing.T) {
		data, err := json.Marshal(New(2500, NZD))
		require.NoError(t, err)

		var m Money
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, int64(2500), m.Amount())
		assert.Equal(t, NZD, m.Currency())
	})
}

func TestTestDataGenerator(t *testing.T) {
	g := NewTestDataGeneratorWithSeed(42)

	txns := g.Transactions(50, NZD)

	require.Len(t, txns, 50)
	for _, txn := range txns {
		assert.NotEmpty(t, txn.Description)
		assert.False(t, txn.Amount.IsZero())
		if txn.IsIncome {
			assert.True(t, txn.Amount.IsPositive())
		} else {
			assert.True(t, txn.Amount.IsNegative())
		}
	}
}

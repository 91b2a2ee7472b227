package transactions

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centsible/centsible/internal/domain/ingest"
)

func testRepository(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func TestRecentSnapshot(t *testing.T) {
	repo, mock := testRepository(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT id, transaction_date`).
		WithArgs(userID, 50).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "transaction_date", "description", "amount_cents", "is_income", "merchant",
		}).
			AddRow("txn_aaa", "2024-03-02", "Salary Payment", int64(300000), true, "").
			AddRow("txn_bbb", "2024-03-01", "Countdown Groceries", int64(4550), false, "Countdown"))

	snapshot, err := repo.RecentSnapshot(context.Background(), userID, 50)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	assert.Equal(t, "txn_aaa", snapshot[0].ID)
	assert.Equal(t, 3000.00, snapshot[0].Amount)
	assert.Equal(t, -45.50, snapshot[1].Amount)
	assert.Equal(t, "Countdown", snapshot[1].Merchant)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentSnapshotDefaultLimit(t *testing.T) {
	repo, mock := testRepository(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT id, transaction_date`).
		WithArgs(userID, snapshotLimitDefault).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "transaction_date", "description", "amount_cents", "is_income", "merchant",
		}))

	snapshot, err := repo.RecentSnapshot(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Empty(t, snapshot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsert(t *testing.T) {
	repo, mock := testRepository(t)
	userID := uuid.New()

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	txns := []ingest.NormalizedTransaction{
		{
			ID:                 ingest.GenerateID(date, -4550, "Countdown Groceries"),
			Date:               date,
			Description:        "Countdown Groceries",
			AmountCents:        4550,
			IsIncome:           false,
			Merchant:           "Countdown",
			Category:           "Groceries",
			CategoryConfidence: 0.9,
		},
		{
			ID:                 ingest.GenerateID(date, 300000, "Salary Payment"),
			Date:               date,
			Description:        "Salary Payment",
			AmountCents:        300000,
			IsIncome:           true,
			Category:           "Salary",
			CategoryConfidence: 0.7,
		},
	}

	batch := mock.ExpectBatch()
	batch.ExpectExec(`INSERT INTO transactions`).
		WithArgs(txns[0].ID, userID, "2024-03-01", "Countdown Groceries",
			int64(4550), false, "Countdown", "Groceries", 0.9).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	batch.ExpectExec(`INSERT INTO transactions`).
		WithArgs(txns[1].ID, userID, "2024-03-01", "Salary Payment",
			int64(300000), true, "", "Salary", 0.7).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := repo.BulkInsert(context.Background(), userID, txns)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertConflictSkipsRow(t *testing.T) {
	repo, mock := testRepository(t)
	userID := uuid.New()

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	txns := []ingest.NormalizedTransaction{
		{ID: ingest.GenerateID(date, -4550, "Countdown Groceries"), Date: date,
			Description: "Countdown Groceries", AmountCents: 4550, Category: "Groceries", CategoryConfidence: 0.9},
	}

	batch := mock.ExpectBatch()
	batch.ExpectExec(`INSERT INTO transactions`).
		WithArgs(txns[0].ID, userID, "2024-03-01", "Countdown Groceries",
			int64(4550), false, "", "Groceries", 0.9).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := repo.BulkInsert(context.Background(), userID, txns)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted)
}

func TestBulkInsertEmpty(t *testing.T) {
	repo, _ := testRepository(t)

	inserted, err := repo.BulkInsert(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestDelete(t *testing.T) {
	repo, mock := testRepository(t)
	userID := uuid.New()

	t.Run("removes an owned transaction", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM transactions`).
			WithArgs("txn_aaa", userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(context.Background(), userID, "txn_aaa"))
	})

	t.Run("missing transaction reports no rows", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM transactions`).
			WithArgs("txn_zzz", userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := repo.Delete(context.Background(), userID, "txn_zzz")
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	})
}

func TestCountForUser(t *testing.T) {
	repo, mock := testRepository(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))

	count, err := repo.CountForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
}

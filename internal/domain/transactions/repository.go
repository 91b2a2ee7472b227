// Package transactions persists imported transactions and serves the
// duplicate-detection snapshot.
package transactions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/centsible/centsible/internal/domain/dedupe"
	"github.com/centsible/centsible/internal/domain/ingest"
)

// DB is the subset of pgxpool.Pool the repository needs. Satisfied by
// pgxmock in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Repository handles transaction storage.
type Repository struct {
	db     DB
	logger *slog.Logger
}

func NewRepository(db DB, logger *slog.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// snapshotLimitDefault bounds the duplicate-check window when the caller
// passes no limit.
const snapshotLimitDefault = 2000

// RecentSnapshot returns the user's most recent stored transactions in the
// shape the duplicate detector consumes, newest first.
func (r *Repository) RecentSnapshot(ctx context.Context, userID uuid.UUID, limit int) ([]dedupe.StoredTransaction, error) {
	if limit <= 0 {
		limit = snapshotLimitDefault
	}

	query := `
		SELECT id, transaction_date::text, description, amount_cents, is_income, COALESCE(merchant, '')
		FROM transactions
		WHERE user_id = $1
		ORDER BY transaction_date DESC, id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent transactions: %w", err)
	}
	defer rows.Close()

	var snapshot []dedupe.StoredTransaction
	for rows.Next() {
		var (
			stored      dedupe.StoredTransaction
			amountCents int64
			isIncome    bool
		)
		if err := rows.Scan(&stored.ID, &stored.TransactionDate, &stored.Description, &amountCents, &isIncome, &stored.Merchant); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		if !isIncome {
			amountCents = -amountCents
		}
		stored.Amount = float64(amountCents) / 100
		snapshot = append(snapshot, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return snapshot, nil
}

// BulkInsert stores accepted transactions for a user. Conflicting IDs are
// left untouched, so re-importing the same statement is idempotent. Returns
// the number of rows actually inserted.
func (r *Repository) BulkInsert(ctx context.Context, userID uuid.UUID, txns []ingest.NormalizedTransaction) (int64, error) {
	if len(txns) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO transactions
			(id, user_id, transaction_date, description, amount_cents, is_income, merchant, category, category_confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, txn := range txns {
		batch.Queue(query,
			txn.ID, userID, txn.ISODate(), txn.Description,
			txn.AmountCents, txn.IsIncome, txn.Merchant,
			txn.Category, txn.CategoryConfidence)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range txns {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert transaction batch: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	r.logger.Info("transactions stored",
		slog.String("user_id", userID.String()),
		slog.Int("submitted", len(txns)),
		slog.Int64("inserted", inserted))

	return inserted, nil
}

// Delete removes one transaction owned by the user.
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountForUser reports how many transactions the user has stored.
func (r *Repository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

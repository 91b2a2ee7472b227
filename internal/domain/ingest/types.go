// Package ingest defines the data carried between the statement pipeline
// stages and the report returned to callers. The stages themselves live in
// subpackages; orchestration is in ingest/service.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// NormalizedTransaction is the canonical output unit of the pipeline. The
// amount is stored as non-negative minor units with the sign carried by
// IsIncome, so downstream code cannot double-negate.
type NormalizedTransaction struct {
	ID                 string    `json:"id"`
	Date               time.Time `json:"date"`
	Description        string    `json:"description"`
	AmountCents        int64     `json:"amountCents"`
	IsIncome           bool      `json:"isIncome"`
	Merchant           string    `json:"merchant,omitempty"`
	Category           string    `json:"category"`
	CategoryConfidence float64   `json:"categoryConfidence"`
	Tags               []string  `json:"tags,omitempty"`
	RowNumber          int       `json:"rowNumber"`
	Warnings           []string  `json:"warnings,omitempty"`
}

// SignedCents returns the amount with its sign restored: income positive,
// expense negative.
func (t NormalizedTransaction) SignedCents() int64 {
	if t.IsIncome {
		return t.AmountCents
	}
	return -t.AmountCents
}

// ISODate returns the transaction date in YYYY-MM-DD form.
func (t NormalizedTransaction) ISODate() string {
	return t.Date.Format("2006-01-02")
}

// GenerateID derives the deterministic transaction identifier from the
// date, signed amount and description. Re-processing an unchanged row
// always yields the same ID.
func GenerateID(date time.Time, signedCents int64, description string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%s",
		date.Format("2006-01-02"), signedCents, description))
	return "txn_" + hex.EncodeToString(sum[:])[:24]
}

// SkippedRow records a data row that could not yield a transaction.
type SkippedRow struct {
	RowNumber   int      `json:"rowNumber"`
	Cells       []string `json:"cells"`
	Reason      string   `json:"reason"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// DuplicateMatch pairs a new transaction with a previously stored one.
// Purely advisory; the caller decides whether to merge, ignore or block.
type DuplicateMatch struct {
	TransactionID string   `json:"transactionId"`
	ExistingID    string   `json:"existingId"`
	Confidence    float64  `json:"confidence"`
	Reasons       []string `json:"reasons"`
}

// Summary aggregates a file's outcome for display.
type Summary struct {
	TotalRows         int     `json:"totalRows"`
	TotalTransactions int     `json:"totalTransactions"`
	DateFrom          string  `json:"dateFrom,omitempty"`
	DateTo            string  `json:"dateTo,omitempty"`
	NetAmountCents    int64   `json:"netAmountCents"`
	NetAmount         string  `json:"netAmount"`
	SuccessRate       float64 `json:"successRate"`
	DetectedBank      string  `json:"detectedBank,omitempty"`
	BankConfidence    float64 `json:"bankConfidence,omitempty"`
}

// ProcessingReport is the pipeline's sole external output. Plain data only,
// safe to serialize across a process boundary.
type ProcessingReport struct {
	Transactions []NormalizedTransaction `json:"transactions"`
	SkippedRows  []SkippedRow            `json:"skippedRows"`
	Duplicates   []DuplicateMatch        `json:"duplicates"`
	Warnings     []string                `json:"warnings"`
	Errors       []string                `json:"errors"`
	Summary      Summary                 `json:"summary"`
}

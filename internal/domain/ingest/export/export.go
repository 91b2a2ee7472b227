// Package export renders processed transactions as a downloadable CSV.
package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/centsible/centsible/internal/domain/ingest"
)

// Row is the download shape of one transaction. Column order follows field
// order; amounts are signed decimal strings with two places.
type Row struct {
	ID          string `csv:"id"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Type        string `csv:"type"`
	Category    string `csv:"category"`
	Merchant    string `csv:"merchant"`
}

// Rows converts pipeline output into export rows.
func Rows(txns []ingest.NormalizedTransaction) []Row {
	rows := make([]Row, 0, len(txns))
	for _, txn := range txns {
		kind := "expense"
		if txn.IsIncome {
			kind = "income"
		}
		rows = append(rows, Row{
			ID:          txn.ID,
			Date:        txn.ISODate(),
			Description: txn.Description,
			Amount:      decimal.New(txn.SignedCents(), -2).StringFixed(2),
			Type:        kind,
			Category:    txn.Category,
			Merchant:    txn.Merchant,
		})
	}
	return rows
}

// WriteCSV writes the transactions to w as CSV with a header row.
func WriteCSV(w io.Writer, txns []ingest.NormalizedTransaction) error {
	if err := gocsv.Marshal(Rows(txns), w); err != nil {
		return fmt.Errorf("write transaction csv: %w", err)
	}
	return nil
}

// Package service orchestrates the statement ingestion pipeline: tokenize,
// detect the bank format, normalize each row, categorize, flag duplicates
// and assemble the ProcessingReport.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/centsible/centsible/internal/domain/categorization"
	"github.com/centsible/centsible/internal/domain/dedupe"
	"github.com/centsible/centsible/internal/domain/ingest"
	"github.com/centsible/centsible/internal/domain/ingest/bankformat"
	"github.com/centsible/centsible/internal/domain/ingest/normalizer"
	"github.com/centsible/centsible/internal/domain/ingest/tokenizer"
	"github.com/centsible/centsible/pkg/money"
)

// Categorizer assigns a category to one transaction. Implemented by
// categorization.Service; narrowed to an interface so pipeline tests can
// stub it.
type Categorizer interface {
	Categorize(ctx context.Context, description string, amountCents int64, merchant string) categorization.CategoryAnalysis
}

// File is one statement in an upload batch.
type File struct {
	Name    string
	Content string
}

// Pipeline processes statement files. Stateless across files: every
// invocation builds a fresh report and shares nothing with concurrent
// callers.
type Pipeline struct {
	detector    *bankformat.Detector
	categorizer Categorizer
	duplicates  *dedupe.Detector
	currency    string
	logger      *slog.Logger
}

// NewPipeline wires the pipeline stages. currency is the ISO-4217 code used
// for the report's net amount display.
func NewPipeline(categorizer Categorizer, currency string, logger *slog.Logger) *Pipeline {
	if currency == "" {
		currency = money.NZD
	}
	return &Pipeline{
		detector:    bankformat.NewDetector(bankformat.DefaultConfig(), logger),
		categorizer: categorizer,
		duplicates:  dedupe.NewDetector(logger),
		currency:    currency,
		logger:      logger,
	}
}

// ProcessFile runs one statement through the full pipeline. The snapshot is
// the caller-fetched list of previously stored transactions used for
// duplicate flagging. Structural failures (empty file, no header, unusable
// columns) surface in the report's Errors list; the report itself is always
// well formed.
func (p *Pipeline) ProcessFile(ctx context.Context, content string, snapshot []dedupe.StoredTransaction) *ingest.ProcessingReport {
	doc, err := tokenizer.Tokenize(content)
	if err != nil {
		report := &ingest.ProcessingReport{}
		report.Errors = append(report.Errors, fileError(err))
		return report
	}
	return p.ProcessDocument(ctx, doc, snapshot)
}

// ProcessDocument runs an already tokenized document through the pipeline.
// Used directly by adapters that do not start from CSV text, such as the
// XLSX reader.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc *tokenizer.Document, snapshot []dedupe.StoredTransaction) *ingest.ProcessingReport {
	report := &ingest.ProcessingReport{}

	mapping, err := p.detector.Detect(doc.Headers, doc.Rows)
	if err != nil {
		report.Errors = append(report.Errors, fileError(err))
		report.Summary.TotalRows = len(doc.Rows)
		return report
	}

	var parsedDates []time.Time
	for _, row := range doc.Rows {
		txn, skipped := p.processRow(ctx, row, mapping)
		if skipped != nil {
			report.SkippedRows = append(report.SkippedRows, *skipped)
			continue
		}
		report.Transactions = append(report.Transactions, *txn)
		report.Warnings = append(report.Warnings, txn.Warnings...)
		if !hasDateWarning(txn.Warnings) {
			parsedDates = append(parsedDates, txn.Date)
		}
	}

	report.Duplicates = p.duplicates.FindDuplicates(report.Transactions, snapshot)
	report.Summary = p.buildSummary(len(doc.Rows), report.Transactions, parsedDates, mapping)

	if len(report.Transactions) == 0 {
		report.Errors = append(report.Errors,
			"no transactions could be produced from this file; check the skipped rows for details")
	}

	p.logger.Info("statement processed",
		slog.Int("rows", len(doc.Rows)),
		slog.Int("transactions", len(report.Transactions)),
		slog.Int("skipped", len(report.SkippedRows)),
		slog.Int("duplicates", len(report.Duplicates)))

	return report
}

// ProcessBatch processes files strictly in order. File N's duplicate
// snapshot includes the transactions accepted from files 1..N-1, so
// cross-file duplicates within one upload are caught.
func (p *Pipeline) ProcessBatch(ctx context.Context, files []File, snapshot []dedupe.StoredTransaction) []*ingest.ProcessingReport {
	reports := make([]*ingest.ProcessingReport, 0, len(files))

	accumulated := make([]dedupe.StoredTransaction, len(snapshot))
	copy(accumulated, snapshot)

	for _, file := range files {
		report := p.ProcessFile(ctx, file.Content, accumulated)
		reports = append(reports, report)

		for _, txn := range report.Transactions {
			accumulated = append(accumulated, dedupe.StoredTransaction{
				ID:              txn.ID,
				TransactionDate: txn.ISODate(),
				Description:     txn.Description,
				Amount:          float64(txn.SignedCents()) / 100,
				Merchant:        txn.Merchant,
			})
		}
	}

	return reports
}

// processRow turns one raw row into a transaction or a skipped-row record.
func (p *Pipeline) processRow(ctx context.Context, row tokenizer.RawRow, mapping *bankformat.ColumnMapping) (*ingest.NormalizedTransaction, *ingest.SkippedRow) {
	dateRaw := cell(row, mapping.Column(bankformat.RoleDate))
	descRaw := cell(row, mapping.Column(bankformat.RoleDescription))
	amountRaw := cell(row, mapping.Column(bankformat.RoleAmount))

	if dateRaw == "" && descRaw == "" && amountRaw == "" {
		return nil, &ingest.SkippedRow{
			RowNumber: row.LineNum,
			Cells:     row.Cells,
			Reason:    "all key fields are empty",
			Suggestions: []string{
				"remove blank rows from the export before uploading",
			},
		}
	}

	var warnings []string

	dateResult := normalizer.ParseDate(dateRaw, mapping.DateFormat)
	warnings = append(warnings, dateResult.Warnings...)

	amountResult := normalizer.ParseAmount(amountRaw)
	warnings = append(warnings, amountResult.Warnings...)

	description := normalizer.CleanDescription(descRaw)
	signedCents := amountResult.Cents()

	analysis := p.categorizer.Categorize(ctx, description, signedCents, "")

	abs := signedCents
	if abs < 0 {
		abs = -abs
	}

	return &ingest.NormalizedTransaction{
		ID:                 ingest.GenerateID(dateResult.Date, signedCents, description),
		Date:               dateResult.Date,
		Description:        description,
		AmountCents:        abs,
		IsIncome:           signedCents > 0,
		Merchant:           analysis.Merchant,
		Category:           analysis.Category,
		CategoryConfidence: analysis.Confidence,
		Tags:               analysis.Tags,
		RowNumber:          row.LineNum,
		Warnings:           warnings,
	}, nil
}

func (p *Pipeline) buildSummary(totalRows int, txns []ingest.NormalizedTransaction, parsedDates []time.Time, mapping *bankformat.ColumnMapping) ingest.Summary {
	summary := ingest.Summary{
		TotalRows:         totalRows,
		TotalTransactions: len(txns),
		BankConfidence:    mapping.Confidence,
	}
	if mapping.Profile != nil {
		summary.DetectedBank = mapping.Profile.Name
	}

	net := money.Zero(p.currency)
	for _, txn := range txns {
		net = net.MustAdd(money.New(txn.SignedCents(), p.currency))
	}
	summary.NetAmountCents = net.Amount()
	summary.NetAmount = net.Display()

	if len(parsedDates) > 0 {
		minDate, maxDate := parsedDates[0], parsedDates[0]
		for _, d := range parsedDates[1:] {
			if d.Before(minDate) {
				minDate = d
			}
			if d.After(maxDate) {
				maxDate = d
			}
		}
		summary.DateFrom = minDate.Format("2006-01-02")
		summary.DateTo = maxDate.Format("2006-01-02")
	}

	if totalRows > 0 {
		rate := float64(len(txns)) / float64(totalRows) * 100
		summary.SuccessRate = math.Round(rate*10) / 10
	}

	return summary
}

func cell(row tokenizer.RawRow, idx int) string {
	if idx < 0 || idx >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[idx])
}

func hasDateWarning(warnings []string) bool {
	for _, w := range warnings {
		if strings.Contains(w, "date") {
			return true
		}
	}
	return false
}

func fileError(err error) string {
	switch {
	case errors.Is(err, tokenizer.ErrEmptyFile):
		return "the uploaded file is empty"
	case errors.Is(err, tokenizer.ErrNoHeadersFound):
		return "could not find a header row in the file"
	case errors.Is(err, bankformat.ErrInsufficientColumns):
		return fmt.Sprintf("could not identify enough columns to import: %v", err)
	default:
		return err.Error()
	}
}

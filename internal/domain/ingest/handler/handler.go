// Package handler exposes the statement import API over plain JSON HTTP.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/centsible/centsible/internal/domain/dedupe"
	"github.com/centsible/centsible/internal/domain/ingest"
	"github.com/centsible/centsible/internal/domain/ingest/export"
	"github.com/centsible/centsible/internal/domain/ingest/service"
	"github.com/centsible/centsible/pkg/metrics"
	"github.com/centsible/centsible/pkg/storage"
)

// SnapshotProvider supplies the duplicate-check snapshot for a user.
// Implemented by the transactions snapshot cache.
type SnapshotProvider interface {
	Get(ctx context.Context, userID uuid.UUID) ([]dedupe.StoredTransaction, error)
	Invalidate(userID uuid.UUID)
}

// TransactionStore persists accepted transactions.
type TransactionStore interface {
	BulkInsert(ctx context.Context, userID uuid.UUID, txns []ingest.NormalizedTransaction) (int64, error)
}

// Handler processes statement uploads. Store and snapshots may be nil, in
// which case imports are parse-only with no persistence or duplicate check.
type Handler struct {
	pipeline  *service.Pipeline
	snapshots SnapshotProvider
	store     TransactionStore
	archive   storage.Archive
	maxUpload int64
	logger    *slog.Logger
}

func NewHandler(pipeline *service.Pipeline, snapshots SnapshotProvider, store TransactionStore, maxUpload int64, logger *slog.Logger) *Handler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handler{
		pipeline:  pipeline,
		snapshots: snapshots,
		store:     store,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// WithArchive enables raw-upload archival. Archival is best effort and
// never fails the import.
func (h *Handler) WithArchive(archive storage.Archive) *Handler {
	h.archive = archive
	return h
}

// Register mounts the import routes.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/statements", h.Upload)
}

// Upload accepts one statement file as a multipart form ("file" field) or a
// raw request body. CSV and XLSX are supported. The response is the
// processing report as JSON, or the accepted transactions as CSV when the
// client asks for text/csv. Persistence is skipped when dry_run is set.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	content, filename, err := h.readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var snapshot []dedupe.StoredTransaction
	if h.snapshots != nil {
		snapshot, err = h.snapshots.Get(r.Context(), userID)
		if err != nil {
			h.logger.Error("snapshot fetch failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "could not load existing transactions")
			return
		}
	}

	if h.archive != nil {
		name := filename
		if name == "" {
			name = "statement"
		}
		if _, err := h.archive.Save(r.Context(), userID, name, bytes.NewReader(content)); err != nil {
			h.logger.Warn("upload archival failed", slog.Any("error", err))
		}
	}

	report := h.process(r.Context(), content, filename, snapshot)
	recordMetrics(report)

	dryRun := r.URL.Query().Get("dry_run") != ""
	if !dryRun && h.store != nil && len(report.Transactions) > 0 {
		inserted, err := h.store.BulkInsert(r.Context(), userID, report.Transactions)
		if err != nil {
			h.logger.Error("transaction store failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "could not store transactions")
			return
		}
		if h.snapshots != nil && inserted > 0 {
			h.snapshots.Invalidate(userID)
		}
	}

	if strings.Contains(r.Header.Get("Accept"), "text/csv") {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
		if err := export.WriteCSV(w, report.Transactions); err != nil {
			h.logger.Error("csv export failed", slog.Any("error", err))
		}
		return
	}

	status := http.StatusOK
	if len(report.Transactions) == 0 && len(report.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, report)
}

// process routes the upload to the CSV or XLSX front end of the pipeline.
func (h *Handler) process(ctx context.Context, content []byte, filename string, snapshot []dedupe.StoredTransaction) *ingest.ProcessingReport {
	if isWorkbook(content, filename) {
		doc, err := ingest.ReadWorkbook(bytes.NewReader(content))
		if err != nil {
			report := &ingest.ProcessingReport{}
			report.Errors = append(report.Errors, fmt.Sprintf("could not read workbook: %v", err))
			return report
		}
		return h.pipeline.ProcessDocument(ctx, doc, snapshot)
	}
	return h.pipeline.ProcessFile(ctx, string(content), snapshot)
}

func (h *Handler) readUpload(r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, h.maxUpload)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("missing file field: %w", err)
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("read upload: %w", err)
		}
		return content, header.Filename, nil
	}

	content, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if len(content) == 0 {
		return nil, "", fmt.Errorf("empty request body")
	}
	return content, "", nil
}

// isWorkbook sniffs XLSX by filename or zip magic.
func isWorkbook(content []byte, filename string) bool {
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return true
	}
	return len(content) >= 2 && content[0] == 'P' && content[1] == 'K'
}

func userIDFrom(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing X-User-ID header")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid X-User-ID header")
	}
	return userID, nil
}

func recordMetrics(report *ingest.ProcessingReport) {
	outcome := "success"
	if len(report.Errors) > 0 {
		outcome = "failed"
	}
	metrics.FilesProcessed.WithLabelValues(outcome).Inc()
	metrics.RowsImported.Add(float64(len(report.Transactions)))
	metrics.RowsSkipped.Add(float64(len(report.SkippedRows)))
	metrics.DuplicatesFlagged.Add(float64(len(report.Duplicates)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

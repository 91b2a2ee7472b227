// Package metrics exposes prometheus counters for the ingestion pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "centsible_ingest_files_total",
		Help: "Statement files processed, by outcome.",
	}, []string{"outcome"})

	RowsImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "centsible_ingest_rows_imported_total",
		Help: "Data rows that produced a transaction.",
	})

	RowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "centsible_ingest_rows_skipped_total",
		Help: "Data rows skipped during processing.",
	})

	DuplicatesFlagged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "centsible_ingest_duplicates_flagged_total",
		Help: "Probable duplicates reported against stored transactions.",
	})

	ClassifierFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "centsible_classifier_fallbacks_total",
		Help: "Categorization calls that fell back from the LLM classifier to rules.",
	})
)

// Handler serves the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package dedupe flags probable duplicates between freshly parsed
// transactions and a snapshot of previously stored ones. Advisory only: it
// never removes anything, the caller decides disposition per match.
package dedupe

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/centsible/centsible/internal/domain/ingest"
)

// StoredTransaction is the external store's record shape. Fields arrive as
// loosely typed data; validation turns malformed records into logged skips
// rather than failures.
type StoredTransaction struct {
	ID              string  `json:"id"`
	TransactionDate string  `json:"transaction_date"`
	Description     string  `json:"description"`
	Amount          float64 `json:"amount"` // Signed major units
	Merchant        string  `json:"merchant,omitempty"`
}

// Scoring weights. The cap keeps stacked partial evidence from exceeding
// certainty.
const (
	weightSameDate       = 0.4
	weightAdjacentDate   = 0.2
	weightSameAmount     = 0.4
	weightCloseAmount    = 0.2
	weightStrongDesc     = 0.3
	weightWeakDesc       = 0.2
	weightMerchant       = 0.1
	reportThreshold      = 0.7
	sameAmountEpsilon    = 0.01
	closeAmountTolerance = 0.01 // Relative: within 1% of the larger value
	strongDescSimilarity = 0.9
	weakDescSimilarity   = 0.7
	merchantSimilarity   = 0.8
)

// Detector compares new transactions against a stored snapshot.
type Detector struct {
	logger *slog.Logger
}

func NewDetector(logger *slog.Logger) *Detector {
	return &Detector{logger: logger}
}

// FindDuplicates scores every (new, existing) pairing and returns matches
// with confidence at or above the report threshold. Malformed existing
// records are skipped with a logged reason and never abort the pass.
func (d *Detector) FindDuplicates(newTxns []ingest.NormalizedTransaction, existing []StoredTransaction) []ingest.DuplicateMatch {
	var matches []ingest.DuplicateMatch

	for _, stored := range existing {
		storedDate, err := parseStoredDate(stored.TransactionDate)
		if err != nil || stored.ID == "" {
			d.logger.Warn("skipping malformed stored transaction",
				slog.String("id", stored.ID),
				slog.String("date", stored.TransactionDate))
			continue
		}

		for _, txn := range newTxns {
			confidence, reasons := score(txn, stored, storedDate)
			if confidence >= reportThreshold {
				matches = append(matches, ingest.DuplicateMatch{
					TransactionID: txn.ID,
					ExistingID:    stored.ID,
					Confidence:    confidence,
					Reasons:       reasons,
				})
			}
		}
	}

	return matches
}

func score(txn ingest.NormalizedTransaction, stored StoredTransaction, storedDate time.Time) (float64, []string) {
	newAmount := float64(txn.SignedCents()) / 100

	sameDate := txn.Date.Equal(storedDate)
	sameAmount := math.Abs(newAmount-stored.Amount) <= sameAmountEpsilon

	if sameDate && sameAmount && txn.Description == stored.Description {
		return 1.0, []string{"exact match"}
	}

	var confidence float64
	var reasons []string

	switch {
	case sameDate:
		confidence += weightSameDate
		reasons = append(reasons, "same date")
	case withinOneDay(txn.Date, storedDate):
		confidence += weightAdjacentDate
		reasons = append(reasons, "date within 1 day")
	}

	switch {
	case sameAmount:
		confidence += weightSameAmount
		reasons = append(reasons, "same amount")
	case closeAmount(newAmount, stored.Amount):
		confidence += weightCloseAmount
		reasons = append(reasons, "similar amount")
	}

	// Case-sensitive on purpose: banks emit stable casing per channel, so a
	// casing change is weak evidence the rows are distinct.
	descSim := Similarity(txn.Description, stored.Description)
	switch {
	case descSim >= strongDescSimilarity:
		confidence += weightStrongDesc
		reasons = append(reasons, fmt.Sprintf("description similarity %.2f", descSim))
	case descSim >= weakDescSimilarity:
		confidence += weightWeakDesc
		reasons = append(reasons, fmt.Sprintf("description similarity %.2f", descSim))
	}

	if txn.Merchant != "" && stored.Merchant != "" {
		if merchSim := Similarity(strings.ToLower(txn.Merchant), strings.ToLower(stored.Merchant)); merchSim >= merchantSimilarity {
			confidence += weightMerchant
			reasons = append(reasons, "similar merchant")
		}
	}

	return math.Min(confidence, 1.0), reasons
}

func withinOneDay(a, b time.Time) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= 24*time.Hour
}

func closeAmount(a, b float64) bool {
	larger := math.Max(math.Abs(a), math.Abs(b))
	if larger == 0 {
		return true
	}
	return math.Abs(a-b) <= larger*closeAmountTolerance
}

// parseStoredDate accepts the store's date formats: bare ISO dates and
// RFC3339 timestamps.
func parseStoredDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 10 {
		if t, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable stored date %q", raw)
}

// Similarity is normalized Levenshtein similarity: 1 - distance/maxLen.
// Identical strings score 1, fully dissimilar strings approach 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(editDistance(a, b))/float64(maxLen)
}

func editDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			best := prev[j] + 1
			if curr[j-1]+1 < best {
				best = curr[j-1] + 1
			}
			if prev[j-1]+cost < best {
				best = prev[j-1] + cost
			}
			curr[j] = best
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

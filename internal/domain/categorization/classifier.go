package categorization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CategoryAnalysis is the categorizer's verdict for one transaction.
type CategoryAnalysis struct {
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
	IsIncome   bool     `json:"isIncome"`
	Merchant   string   `json:"merchant,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// ClassifyInput is what the external classification service receives.
type ClassifyInput struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"` // Signed minor units
	Merchant    string `json:"merchant,omitempty"`
}

// Classifier is an optional external text-classification service. Any error
// it returns sends the caller to the deterministic rule path; a Classifier
// failure is never a pipeline failure.
type Classifier interface {
	Classify(ctx context.Context, input ClassifyInput) (*CategoryAnalysis, error)
}

var errNoAnalysisJSON = errors.New("no analysis JSON object in response")

// extractAnalysis pulls the first JSON object out of free text and validates
// it as a CategoryAnalysis. Classification services wrap their answer in
// prose or markdown fences more often than not, so the parse scans rather
// than trusting the whole body.
func extractAnalysis(text string) (*CategoryAnalysis, error) {
	start := strings.Index(text, "{")
	for start >= 0 {
		end := matchingBrace(text, start)
		if end < 0 {
			break
		}

		var analysis CategoryAnalysis
		if err := json.Unmarshal([]byte(text[start:end+1]), &analysis); err == nil {
			if err := validateAnalysis(&analysis); err == nil {
				return &analysis, nil
			}
		}

		next := strings.Index(text[start+1:], "{")
		if next < 0 {
			break
		}
		start = start + 1 + next
	}
	return nil, errNoAnalysisJSON
}

// matchingBrace returns the index of the brace closing the object opened at
// start, honouring JSON string literals, or -1.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func validateAnalysis(a *CategoryAnalysis) error {
	if a.Category == "" {
		return errors.New("missing category")
	}
	if !ValidCategory(a.Category) {
		return fmt.Errorf("category %q outside vocabulary", a.Category)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range", a.Confidence)
	}
	return nil
}

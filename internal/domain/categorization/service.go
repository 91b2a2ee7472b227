package categorization

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/centsible/centsible/internal/domain/ingest/normalizer"
	"github.com/centsible/centsible/pkg/metrics"
)

// fuzzyThreshold is the 0-100 similarity score a near-miss must reach
// before the fuzzy tier assigns its category.
const fuzzyThreshold = 70

// Service runs the categorization cascade: external classifier when
// configured, then exact rule matching, then fuzzy matching, then the
// uncategorised fallback. Always returns an analysis, never an error.
type Service struct {
	expenseEngine *Engine
	incomeEngine  *Engine
	expenseFuzzy  *FuzzyMatcher
	incomeFuzzy   *FuzzyMatcher
	aliases       *AliasIndex
	classifier    Classifier
	logger        *slog.Logger
}

// NewService builds the cascade from the built-in rule catalog. Both the
// classifier and the alias index are optional.
func NewService(classifier Classifier, aliases *AliasIndex, logger *slog.Logger) *Service {
	expenseRules := ExpenseRules()
	incomeRules := IncomeRules()

	return &Service{
		expenseEngine: NewEngine(expenseRules),
		incomeEngine:  NewEngine(incomeRules),
		expenseFuzzy:  NewFuzzyMatcher(expenseRules),
		incomeFuzzy:   NewFuzzyMatcher(incomeRules),
		aliases:       aliases,
		classifier:    classifier,
		logger:        logger,
	}
}

// Categorize assigns a category to one transaction. amountCents is signed:
// positive gates the income rule set, zero or negative the expense set.
func (s *Service) Categorize(ctx context.Context, description string, amountCents int64, merchant string) CategoryAnalysis {
	isIncome := amountCents > 0
	standardMerchant := s.StandardizeMerchant(merchant, description)

	if s.classifier != nil {
		input := ClassifyInput{
			Description: description,
			Amount:      amountCents,
			Merchant:    standardMerchant,
		}
		if analysis, err := s.classifier.Classify(ctx, input); err == nil {
			// The sign of the amount is authoritative for income.
			analysis.IsIncome = isIncome
			if analysis.Merchant == "" {
				analysis.Merchant = standardMerchant
			}
			return *analysis
		} else {
			metrics.ClassifierFallbacks.Inc()
			s.logger.Debug("classifier unavailable, using rules",
				slog.Any("error", err))
		}
	}

	engine := s.expenseEngine
	fuzzyMatcher := s.expenseFuzzy
	if isIncome {
		engine = s.incomeEngine
		fuzzyMatcher = s.incomeFuzzy
	}

	if match := engine.Match(description); match != nil {
		confidence := ConfidenceKeyword
		merchantName := standardMerchant
		if match.IsMerchant {
			confidence = ConfidenceMerchant
			merchantName = match.CleanName
		}
		return CategoryAnalysis{
			Category:   match.Category,
			Confidence: confidence,
			IsIncome:   isIncome,
			Merchant:   merchantName,
			Tags:       match.Tags,
			Reasoning:  fmt.Sprintf("matched pattern %q", match.Pattern),
		}
	}

	if match := fuzzyMatcher.Match(description, fuzzyThreshold); match != nil {
		merchantName := standardMerchant
		if match.IsMerchant && match.CleanName != "" {
			merchantName = match.CleanName
		}
		return CategoryAnalysis{
			Category:   match.Category,
			Confidence: ConfidenceFuzzy,
			IsIncome:   isIncome,
			Merchant:   merchantName,
			Tags:       match.Tags,
			Reasoning:  fmt.Sprintf("fuzzy match on %q (score %d)", match.Pattern, match.Score),
		}
	}

	return CategoryAnalysis{
		Category:   CategoryUncategorised,
		Confidence: ConfidenceFallback,
		IsIncome:   isIncome,
		Merchant:   standardMerchant,
		Reasoning:  "no rule matched",
	}
}

// StandardizeMerchant resolves a display-quality merchant label. The raw
// merchant column wins when present; otherwise the label is derived from
// the description. Known aliases map to their canonical name.
func (s *Service) StandardizeMerchant(merchant, description string) string {
	candidate := strings.TrimSpace(merchant)
	if candidate == "" {
		candidate = normalizer.ExtractMerchant(description)
	}
	if candidate == "" {
		return ""
	}

	if s.aliases != nil {
		if hit, err := s.aliases.Lookup(candidate); err == nil && hit != nil {
			return hit.Document.Canonical
		}
	}

	return toTitleCase(candidate)
}

func toTitleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(string(word[0])) + strings.ToLower(word[1:])
		}
	}
	return strings.Join(words, " ")
}

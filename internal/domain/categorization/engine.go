package categorization

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// MatchResult is a single pattern hit with the rule metadata needed to build
// a CategoryAnalysis.
type MatchResult struct {
	Pattern    string
	Category   string
	CleanName  string
	IsMerchant bool
	Tags       []string
	Priority   int
}

// Engine is a multi-pattern matcher over the rule catalog, built on the
// Aho-Corasick algorithm so one pass over the description tests every
// pattern at once.
type Engine struct {
	matcher  *ahocorasick.Matcher
	patterns []string
	metadata [][]MatchResult
	mu       sync.RWMutex
}

// NewEngine builds an engine from a rule set. Merchant rules outrank
// keyword rules, and longer patterns outrank shorter ones so "chemist
// warehouse" wins over "warehouse".
func NewEngine(rules []Rule) *Engine {
	e := &Engine{}
	e.Build(rules)
	return e
}

// Build reconstructs the matcher. Safe to call again when the rule set
// changes.
func (e *Engine) Build(rules []Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	patternToIndex := make(map[string]int)
	var patterns []string
	var metadata [][]MatchResult

	for _, rule := range rules {
		for _, pattern := range rule.Patterns {
			normalized := strings.ToUpper(strings.TrimSpace(pattern))
			if normalized == "" {
				continue
			}

			priority := len(normalized)
			if rule.IsMerchant {
				priority += 100
			}

			result := MatchResult{
				Pattern:    normalized,
				Category:   rule.Category,
				CleanName:  rule.CleanName,
				IsMerchant: rule.IsMerchant,
				Tags:       rule.Tags,
				Priority:   priority,
			}

			if idx, exists := patternToIndex[normalized]; exists {
				metadata[idx] = append(metadata[idx], result)
				continue
			}
			patternToIndex[normalized] = len(patterns)
			patterns = append(patterns, normalized)
			metadata = append(metadata, []MatchResult{result})
		}
	}

	e.patterns = patterns
	e.metadata = metadata
	e.matcher = nil

	if len(patterns) > 0 {
		bytePatterns := make([][]byte, len(patterns))
		for i, p := range patterns {
			bytePatterns[i] = []byte(p)
		}
		e.matcher = ahocorasick.NewMatcher(bytePatterns)
	}
}

// Match returns the highest-priority pattern hit in the description, or nil
// when nothing matches.
func (e *Engine) Match(description string) *MatchResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil {
		return nil
	}

	matches := e.matcher.Match([]byte(strings.ToUpper(description)))
	if len(matches) == 0 {
		return nil
	}

	var best *MatchResult
	for _, idx := range matches {
		if idx < 0 || idx >= len(e.metadata) {
			continue
		}
		for i := range e.metadata[idx] {
			m := &e.metadata[idx][i]
			if best == nil || m.Priority > best.Priority {
				cp := *m
				best = &cp
			}
		}
	}
	return best
}

// PatternCount returns the number of distinct patterns loaded.
func (e *Engine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}

package categorization

import (
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FuzzyMatchResult is a near-miss rule match with its similarity score.
type FuzzyMatchResult struct {
	Pattern    string
	Category   string
	CleanName  string
	IsMerchant bool
	Tags       []string
	Score      int // 0-100, higher is closer
	Distance   int // Levenshtein distance
}

// FuzzyMatcher catches merchant variations the exact engine misses, like
// "COUNTDOWN AKL 0042" against the "countdown" pattern or minor typos in
// statement text.
type FuzzyMatcher struct {
	patterns []fuzzyPattern
	mu       sync.RWMutex
}

type fuzzyPattern struct {
	normalized string
	category   string
	cleanName  string
	isMerchant bool
	tags       []string
	priority   int
}

func NewFuzzyMatcher(rules []Rule) *FuzzyMatcher {
	fm := &FuzzyMatcher{}
	fm.Build(rules)
	return fm
}

// Build reconstructs the pattern list from a rule set.
func (fm *FuzzyMatcher) Build(rules []Rule) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	fm.patterns = fm.patterns[:0]
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
			fm.patterns = append(fm.patterns, fuzzyPattern{
				normalized: normalized,
				category:   rule.Category,
				cleanName:  rule.CleanName,
				isMerchant: rule.IsMerchant,
				tags:       rule.Tags,
				priority:   priority,
			})
		}
	}
}

// Match returns the best fuzzy match at or above the threshold (0-100
// similarity score), or nil.
func (fm *FuzzyMatcher) Match(description string, threshold int) *FuzzyMatchResult {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	normalized := strings.ToUpper(description)

	var best *FuzzyMatchResult
	bestScore := -1
	bestPriority := -1

	for _, p := range fm.patterns {
		score := fuzzyScore(normalized, p.normalized)
		if score < threshold {
			continue
		}
		if score > bestScore || (score == bestScore && p.priority > bestPriority) {
			bestScore = score
			bestPriority = p.priority
			best = &FuzzyMatchResult{
				Pattern:    p.normalized,
				Category:   p.category,
				CleanName:  p.cleanName,
				IsMerchant: p.isMerchant,
				Tags:       p.tags,
				Score:      score,
				Distance:   levenshteinDistance(normalized, p.normalized),
			}
		}
	}
	return best
}

// MatchAll returns every match at or above the threshold, best first.
func (fm *FuzzyMatcher) MatchAll(description string, threshold int) []FuzzyMatchResult {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	normalized := strings.ToUpper(description)
	var results []FuzzyMatchResult

	for _, p := range fm.patterns {
		score := fuzzyScore(normalized, p.normalized)
		if score >= threshold {
			results = append(results, FuzzyMatchResult{
				Pattern:    p.normalized,
				Category:   p.category,
				CleanName:  p.cleanName,
				IsMerchant: p.isMerchant,
				Tags:       p.tags,
				Score:      score,
				Distance:   levenshteinDistance(normalized, p.normalized),
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// PatternCount returns the number of patterns loaded.
func (fm *FuzzyMatcher) PatternCount() int {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return len(fm.patterns)
}

// fuzzyScore rates the similarity of two uppercased strings from 0 to 100
// using containment, normalized edit distance and subsequence ranking.
func fuzzyScore(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}

	// Containment covers the common "<pattern> <branch> <code>" shape of
	// statement lines.
	if strings.Contains(s1, s2) {
		return 75 + (25 * len(s2) / len(s1))
	}
	if strings.Contains(s2, s1) {
		return 75 + (25 * len(s1) / len(s2))
	}

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 0
	}

	distance := levenshteinDistance(s1, s2)
	levenshteinScore := 100 * (maxLen - distance) / maxLen

	fuzzyLibScore := 0
	if rank := fuzzy.RankMatch(s2, s1); rank >= 0 && rank < len(s1) {
		fuzzyLibScore = 60 - (rank * 40 / len(s1))
	}

	if levenshteinScore > fuzzyLibScore {
		return levenshteinScore
	}
	return fuzzyLibScore
}

// levenshteinDistance is the classic two-row edit distance.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = minOf(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

func minOf(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

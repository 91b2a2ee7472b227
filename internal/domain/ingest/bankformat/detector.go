package bankformat

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/centsible/centsible/internal/domain/ingest/tokenizer"
)

// ErrInsufficientColumns means fewer than two of the date, description and
// amount roles could be resolved, so the file cannot be processed.
var ErrInsufficientColumns = errors.New("could not identify required columns")

// DetectorConfig carries the tunable acceptance thresholds.
type DetectorConfig struct {
	// ProfileThreshold is the minimum score a catalog profile must exceed
	// to be accepted.
	ProfileThreshold int
	// FuzzyFloor is the minimum per-column confidence the fallback matcher
	// must exceed to bind a header to a role.
	FuzzyFloor float64
}

func DefaultConfig() DetectorConfig {
	return DetectorConfig{
		ProfileThreshold: 50,
		FuzzyFloor:       0.2,
	}
}

// ColumnMatch binds a role to a header index with a confidence in (0, 1].
type ColumnMatch struct {
	Index      int
	Header     string
	Confidence float64
}

// ColumnMapping is the detection result: which column serves each role, the
// matched profile (nil when the fuzzy fallback produced the mapping), and a
// date format hint for the normalizer.
type ColumnMapping struct {
	Columns    map[Role]ColumnMatch
	Profile    *Profile
	Score      int
	Confidence float64
	DateFormat string
}

// Column returns the index for a role, or -1 when the role is unbound.
func (m *ColumnMapping) Column(role Role) int {
	match, ok := m.Columns[role]
	if !ok {
		return -1
	}
	return match.Index
}

type Detector struct {
	cfg    DetectorConfig
	logger *slog.Logger
}

func NewDetector(cfg DetectorConfig, logger *slog.Logger) *Detector {
	if cfg.ProfileThreshold == 0 {
		cfg.ProfileThreshold = DefaultConfig().ProfileThreshold
	}
	if cfg.FuzzyFloor == 0 {
		cfg.FuzzyFloor = DefaultConfig().FuzzyFloor
	}
	return &Detector{cfg: cfg, logger: logger}
}

// Detect resolves column roles for the given headers. Catalog profiles are
// scored first; when none clears the threshold the fuzzy matcher binds
// columns role by role. Sample rows refine profile scores and the date
// format hint.
func (d *Detector) Detect(headers []string, sample []tokenizer.RawRow) (*ColumnMapping, error) {
	normalized := normalizeHeaders(headers)

	var best *ColumnMapping
	for i := range profiles {
		mapping := scoreProfile(&profiles[i], normalized, sample)
		if best == nil || mapping.Score > best.Score {
			best = mapping
		}
	}

	if best != nil && best.Score > d.cfg.ProfileThreshold {
		d.logger.Info("bank format detected",
			slog.String("profile", best.Profile.ID),
			slog.Int("score", best.Score))
		best.DateFormat = dateFormatHint(best, sample)
		return best, nil
	}

	mapping := d.fuzzyMap(headers, normalized)
	if countCore(mapping.Columns) < 2 {
		return nil, fmt.Errorf("%w: headers are [%s]",
			ErrInsufficientColumns, strings.Join(headers, ", "))
	}

	mapping.DateFormat = dateFormatHint(mapping, sample)
	d.logger.Info("bank format resolved by fuzzy column matching",
		slog.Int("columns", len(mapping.Columns)),
		slog.Any("date_format", mapping.DateFormat))
	return mapping, nil
}

func normalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

// Role weights for profile scoring. Date is the strongest signal since
// almost every statement leads with it.
var roleWeights = map[Role]int{
	RoleDate:        30,
	RoleDescription: 25,
	RoleAmount:      25,
}

const patternWeight = 10 // per matched validation pattern on the sample row

func scoreProfile(p *Profile, headers []string, sample []tokenizer.RawRow) *ColumnMapping {
	mapping := &ColumnMapping{
		Columns: make(map[Role]ColumnMatch),
		Profile: p,
	}

	used := make(map[int]bool)
	for _, role := range []Role{RoleDate, RoleDescription, RoleAmount, RoleBalance, RoleReference} {
		idx, conf := matchSynonym(p.Synonyms[role], headers, used)
		if idx < 0 {
			continue
		}
		used[idx] = true
		mapping.Columns[role] = ColumnMatch{Index: idx, Header: headers[idx], Confidence: conf}
		mapping.Score += roleWeights[role]
	}

	// Validate the first sample row against the profile's data patterns.
	if len(sample) > 0 {
		row := sample[0]
		if m, ok := mapping.Columns[RoleDate]; ok && cellMatches(p.DatePattern, row, m.Index) {
			mapping.Score += patternWeight
		}
		if m, ok := mapping.Columns[RoleAmount]; ok && cellMatches(p.AmountPattern, row, m.Index) {
			mapping.Score += patternWeight
		}
	}

	mapping.Confidence = float64(mapping.Score) / 100.0
	return mapping
}

func cellMatches(pattern *regexp.Regexp, row tokenizer.RawRow, idx int) bool {
	if pattern == nil || idx >= len(row.Cells) {
		return false
	}
	return pattern.MatchString(strings.TrimSpace(row.Cells[idx]))
}

// matchSynonym finds the first unused header matching a synonym, exact
// matches before containment.
func matchSynonym(synonyms, headers []string, used map[int]bool) (int, float64) {
	for _, syn := range synonyms {
		for i, h := range headers {
			if !used[i] && h == syn {
				return i, 1.0
			}
		}
	}
	for _, syn := range synonyms {
		for i, h := range headers {
			if !used[i] && h != "" && strings.Contains(h, syn) {
				return i, 0.8
			}
		}
	}
	return -1, 0
}

// Vocabulary for the fuzzy fallback, broader than any single profile.
var roleVocabulary = map[Role][]string{
	RoleDate:        {"date", "transaction date", "posted date", "value date", "completed date", "data", "fecha"},
	RoleDescription: {"description", "details", "narrative", "merchant", "payee", "particulars", "memo", "other party", "descricao"},
	RoleAmount:      {"amount", "value", "transaction amount", "debit", "credit", "valor", "importe"},
	RoleBalance:     {"balance", "running balance", "saldo"},
	RoleReference:   {"reference", "ref", "code", "id"},
}

// fuzzyMap binds each role to its best-scoring unused header. Greedy by
// confidence, so a header claimed by a stronger role match is not reused.
func (d *Detector) fuzzyMap(original, headers []string) *ColumnMapping {
	type candidate struct {
		role Role
		idx  int
		conf float64
	}

	var candidates []candidate
	for role, vocab := range roleVocabulary {
		for i, h := range headers {
			if h == "" {
				continue
			}
			conf := columnConfidence(h, vocab)
			if conf > d.cfg.FuzzyFloor {
				candidates = append(candidates, candidate{role: role, idx: i, conf: conf})
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].conf > candidates[j].conf
	})

	mapping := &ColumnMapping{Columns: make(map[Role]ColumnMatch)}
	usedIdx := make(map[int]bool)
	for _, c := range candidates {
		if usedIdx[c.idx] {
			continue
		}
		if _, taken := mapping.Columns[c.role]; taken {
			continue
		}
		usedIdx[c.idx] = true
		mapping.Columns[c.role] = ColumnMatch{Index: c.idx, Header: original[c.idx], Confidence: c.conf}
	}

	var total float64
	for _, m := range mapping.Columns {
		total += m.Confidence
	}
	if len(mapping.Columns) > 0 {
		mapping.Confidence = total / float64(len(mapping.Columns))
	}
	return mapping
}

// columnConfidence scores one header against a role vocabulary. Exact match
// is certain; substring containment scores by length overlap; otherwise the
// best of word overlap and normalized edit distance, discounted so partial
// evidence stays below containment.
func columnConfidence(header string, vocab []string) float64 {
	best := 0.0
	for _, term := range vocab {
		var score float64
		switch {
		case header == term:
			score = 1.0
		case strings.Contains(header, term):
			score = float64(len(term)) / float64(len(header))
		case strings.Contains(term, header):
			score = float64(len(header)) / float64(len(term))
		default:
			score = wordOverlap(header, term)
			if rank := fuzzy.RankMatchNormalizedFold(term, header); rank >= 0 {
				maxLen := len(header)
				if len(term) > maxLen {
					maxLen = len(term)
				}
				if edit := 1.0 - float64(rank)/float64(maxLen); edit*0.6 > score {
					score = edit * 0.6
				}
			}
		}
		if score > best {
			best = score
		}
	}
	return best
}

func wordOverlap(a, b string) float64 {
	aw := strings.Fields(a)
	bw := strings.Fields(b)
	if len(aw) == 0 || len(bw) == 0 {
		return 0
	}
	shared := 0
	for _, w := range aw {
		for _, v := range bw {
			if w == v {
				shared++
				break
			}
		}
	}
	longest := len(aw)
	if len(bw) > longest {
		longest = len(bw)
	}
	return float64(shared) / float64(longest) * 0.5
}

func countCore(columns map[Role]ColumnMatch) int {
	n := 0
	for _, role := range []Role{RoleDate, RoleDescription, RoleAmount} {
		if _, ok := columns[role]; ok {
			n++
		}
	}
	return n
}

// dateFormatHint picks the normalizer hint: profile formats win, otherwise
// the first sample date cell is probed for an unambiguous shape.
func dateFormatHint(mapping *ColumnMapping, sample []tokenizer.RawRow) string {
	if mapping.Profile != nil && len(mapping.Profile.DateFormats) > 0 {
		return mapping.Profile.DateFormats[0]
	}
	idx := mapping.Column(RoleDate)
	if idx < 0 || len(sample) == 0 || idx >= len(sample[0].Cells) {
		return ""
	}
	cell := strings.TrimSpace(sample[0].Cells[idx])
	if isoDate.MatchString(cell) {
		return "YYYY-MM-DD"
	}
	return ""
}

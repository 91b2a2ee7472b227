// Package tokenizer splits raw bank-statement text into a header row and data
// rows. It auto-detects the field delimiter and tolerates quoted fields, mixed
// line endings, and ragged rows.
package tokenizer

import (
	"errors"
	"strings"
)

var (
	ErrEmptyFile      = errors.New("file is empty")
	ErrNoHeadersFound = errors.New("could not find data headers")
)

// Header vocabulary used to prefer a real header line over bank metadata
// lines (multi-language, matching common bank exports).
var headerKeywords = []string{
	"date", "description", "amount", "debit", "credit", "balance", "merchant",
	"category", "reference", "particulars", "details", "payee", "memo", "value",
	"data mov", "descrição", "descricao", "débito", "crédito", "saldo",
	"fecha", "importe", "cargo", "abono",
}

// RawRow is one data row: its cells plus the 1-based line number in the
// original file, kept for error reporting.
type RawRow struct {
	LineNum int
	Cells   []string
}

// Document is the tokenizer output consumed by format detection and
// normalization.
type Document struct {
	Delimiter rune
	Headers   []string
	Rows      []RawRow
}

const (
	delimiterSampleLines = 5
	headerScanWindow     = 10
)

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// Tokenize splits raw CSV text into headers and data rows.
// Returns ErrEmptyFile for blank input and ErrNoHeadersFound when no line in
// the scan window qualifies as a header.
func Tokenize(text string) (*Document, error) {
	text = normalizeLineEndings(text)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(text, "\n")
	delimiter := detectDelimiter(lines)

	headerIdx, headers, err := findHeaderRow(lines, delimiter)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Delimiter: delimiter,
		Headers:   headers,
	}

	for i := headerIdx + 1; i < len(lines); i++ {
		line := cleanLine(lines[i], false)
		if line == "" {
			continue // Carries no information, not even a skip reason
		}
		cells := splitLine(line, delimiter)
		// Tolerate ragged CSV: pad short rows to header width
		for len(cells) < len(headers) {
			cells = append(cells, "")
		}
		doc.Rows = append(doc.Rows, RawRow{LineNum: i + 1, Cells: cells})
	}

	return doc, nil
}

func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// detectDelimiter samples the first few non-empty lines and picks the
// candidate with the highest average occurrence count per line. Comma wins
// ties and is the default when no candidate averages at least one per line.
func detectDelimiter(lines []string) rune {
	var sample []string
	for _, line := range lines {
		cleaned := cleanLine(line, len(sample) == 0)
		if cleaned == "" {
			continue
		}
		sample = append(sample, cleaned)
		if len(sample) >= delimiterSampleLines {
			break
		}
	}
	if len(sample) == 0 {
		return ','
	}

	best := ','
	bestAvg := 0.0
	for _, d := range candidateDelimiters {
		total := 0
		for _, line := range sample {
			total += countUnquoted(line, d)
		}
		avg := float64(total) / float64(len(sample))
		if avg >= 1 && avg > bestAvg {
			bestAvg = avg
			best = d
		}
	}
	return best
}

// countUnquoted counts occurrences of d outside quoted regions. A quote only
// opens a region at the start of a field, so mid-word apostrophes stay
// literal.
func countUnquoted(line string, d rune) int {
	count := 0
	var quote rune
	fieldStart := true
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case fieldStart && (r == '"' || r == '\''):
			quote = r
			fieldStart = false
		case r == d:
			count++
			fieldStart = true
		default:
			fieldStart = false
		}
	}
	return count
}

// findHeaderRow scans the first lines for one whose cells contain at least
// two non-empty values, preferring lines that match header vocabulary.
func findHeaderRow(lines []string, delimiter rune) (int, []string, error) {
	fallbackIdx := -1
	var fallbackCells []string

	limit := headerScanWindow
	if len(lines) < limit {
		limit = len(lines)
	}

	for i := 0; i < limit; i++ {
		line := cleanLine(lines[i], i == 0)
		if line == "" {
			continue
		}

		cells := splitLine(line, delimiter)
		nonEmpty := 0
		for _, c := range cells {
			if strings.TrimSpace(c) != "" {
				nonEmpty++
			}
		}
		if nonEmpty < 2 {
			continue
		}

		lineLower := strings.ToLower(line)
		for _, kw := range headerKeywords {
			if strings.Contains(lineLower, kw) {
				return i, trimCells(cells), nil
			}
		}

		if fallbackIdx < 0 {
			fallbackIdx = i
			fallbackCells = trimCells(cells)
		}
	}

	if fallbackIdx >= 0 {
		return fallbackIdx, fallbackCells, nil
	}
	return 0, nil, ErrNoHeadersFound
}

// splitLine splits one line on the delimiter, respecting single- and
// double-quote pairs. A doubled quote inside a quoted field is an escaped
// literal quote. Delimiters inside quotes are not split points.
func splitLine(line string, delimiter rune) []string {
	var cells []string
	var field strings.Builder
	var quote rune

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			if r == quote {
				// Doubled quote: escaped literal
				if i+1 < len(runes) && runes[i+1] == quote {
					field.WriteRune(quote)
					i++
					continue
				}
				quote = 0
				continue
			}
			field.WriteRune(r)
		case field.Len() == 0 && (r == '"' || r == '\''):
			quote = r
		case r == delimiter:
			cells = append(cells, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	cells = append(cells, field.String())
	return cells
}

func trimCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

package ingest

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/centsible/centsible/internal/domain/ingest/tokenizer"
)

// ErrNoUsableSheet is returned when a workbook holds no sheet with a
// recognisable header row.
var ErrNoUsableSheet = errors.New("workbook has no usable sheet")

// Sheet names tried in order before falling back to the first sheet.
// Lowercase; matched case-insensitively.
var preferredSheets = []string{
	"transactions", "statement", "movimentos", "extrato", "data", "sheet1",
}

// ReadWorkbook reads an XLSX statement export and returns it in the same
// document shape the CSV tokenizer produces, so the rest of the pipeline is
// shared. The first row with at least two non-empty cells is taken as the
// header row.
func ReadWorkbook(r io.Reader) (*tokenizer.Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := pickSheet(f)
	if sheet == "" {
		return nil, ErrNoUsableSheet
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	headerIdx := -1
	var headers []string
	for i, row := range rows {
		if countNonEmpty(row) >= 2 {
			headerIdx = i
			headers = trimRow(row)
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: sheet %q has no header row", ErrNoUsableSheet, sheet)
	}

	doc := &tokenizer.Document{
		Delimiter: ',',
		Headers:   headers,
	}
	for i := headerIdx + 1; i < len(rows); i++ {
		cells := trimRow(rows[i])
		if len(cells) == 0 {
			continue
		}
		// Pad short rows so column indexes from the header stay valid.
		for len(cells) < len(headers) {
			cells = append(cells, "")
		}
		doc.Rows = append(doc.Rows, tokenizer.RawRow{
			LineNum: i + 1,
			Cells:   cells,
		})
	}

	return doc, nil
}

func pickSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	for _, preferred := range preferredSheets {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, preferred) {
				return sheet
			}
		}
	}
	return sheets[0]
}

func countNonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

func trimRow(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	// Drop trailing empties so a fully blank row becomes empty.
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

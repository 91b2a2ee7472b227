package ingest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, build func(f *excelize.File)) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	build(f)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return buf
}

func TestReadWorkbook(t *testing.T) {
	t.Run("reads a plain statement sheet", func(t *testing.T) {
		buf := workbook(t, func(f *excelize.File) {
			require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Date", "Description", "Amount"}))
			require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"01/03/2024", "Countdown Groceries", "-45.50"}))
			require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"02/03/2024", "Salary Payment", "3000.00"}))
		})

		doc, err := ReadWorkbook(buf)
		require.NoError(t, err)

		assert.Equal(t, []string{"Date", "Description", "Amount"}, doc.Headers)
		require.Len(t, doc.Rows, 2)
		assert.Equal(t, []string{"01/03/2024", "Countdown Groceries", "-45.50"}, doc.Rows[0].Cells)
		assert.Equal(t, 2, doc.Rows[0].LineNum)
	})

	t.Run("prefers a transactions sheet over the first sheet", func(t *testing.T) {
		buf := workbook(t, func(f *excelize.File) {
			require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"ignore", "me"}))
			_, err := f.NewSheet("Transactions")
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow("Transactions", "A1", &[]interface{}{"Date", "Description", "Amount"}))
			require.NoError(t, f.SetSheetRow("Transactions", "A2", &[]interface{}{"15/03/2024", "BP Connect", "-80.00"}))
		})

		doc, err := ReadWorkbook(buf)
		require.NoError(t, err)
		require.Len(t, doc.Rows, 1)
		assert.Equal(t, "BP Connect", doc.Rows[0].Cells[1])
	})

	t.Run("skips preamble above the header row", func(t *testing.T) {
		buf := workbook(t, func(f *excelize.File) {
			require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Account statement"}))
			require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Date", "Description", "Amount"}))
			require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"01/03/2024", "Kmart Albany", "-25.00"}))
		})

		doc, err := ReadWorkbook(buf)
		require.NoError(t, err)
		assert.Equal(t, []string{"Date", "Description", "Amount"}, doc.Headers)
		require.Len(t, doc.Rows, 1)
		assert.Equal(t, 4, doc.Rows[0].LineNum)
	})

	t.Run("pads short rows to the header width", func(t *testing.T) {
		buf := workbook(t, func(f *excelize.File) {
			require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Date", "Description", "Amount"}))
			require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"01/03/2024", "Partial"}))
		})

		doc, err := ReadWorkbook(buf)
		require.NoError(t, err)
		require.Len(t, doc.Rows, 1)
		assert.Equal(t, []string{"01/03/2024", "Partial", ""}, doc.Rows[0].Cells)
	})

	t.Run("empty workbook is an error", func(t *testing.T) {
		buf := workbook(t, func(f *excelize.File) {})

		_, err := ReadWorkbook(buf)
		assert.ErrorIs(t, err, ErrNoUsableSheet)
	})

	t.Run("garbage input is an error", func(t *testing.T) {
		_, err := ReadWorkbook(bytes.NewBufferString("not a workbook"))
		assert.Error(t, err)
	})
}

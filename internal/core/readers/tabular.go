package readers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/bondcheck/internal/core"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ReadTabular reads a CSV or spreadsheet and returns its non-empty cells,
// trimmed, in row-major order. Only the first sheet of a workbook is read and
// no row is treated as a header.
//
// Returns core.ErrUnsupportedFormat for other extensions and an error wrapping
// core.ErrReadFailure when r fails or the contents cannot be parsed.
func ReadTabular(fileName string, r io.Reader) ([]string, error) {
	def, err := core.Lookup(core.CategoryOwn, fileName)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrReadFailure, err)
	}
	res := <-core.ReadAsync(def.Read, data)
	return res.Tokens, res.Err
}

// readCSV parses comma-separated records. Rows may have different lengths and
// stray quotes are tolerated, matching what spreadsheet exports produce.
// Files using bare CR line endings (classic Mac exports) are read as lines.
func readCSV(data []byte) ([]string, error) {
	text := decodeText(data)
	if strings.Contains(text, "\r") && !strings.Contains(text, "\n") {
		text = strings.ReplaceAll(text, "\r", "\n")
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return flatten(records), nil
}

// readXLSX reads the first sheet of an Office Open XML workbook.
// Raw cell values are used so numeric bond numbers are not reformatted.
func readXLSX(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []string{}, nil
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return flatten(rows), nil
}

// xlsMaxCols is the BIFF8 column limit. Cells written without a ROW record
// leave the row's bounds unset, so the whole width is scanned instead.
const xlsMaxCols = 256

// readXLS reads the first sheet of a legacy BIFF (.xls) workbook.
func readXLS(data []byte) ([]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return []string{}, nil
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return []string{}, nil
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			continue
		}
		first, last := row.FirstCol(), row.LastCol()
		if last <= first {
			first, last = 0, xlsMaxCols
		}
		var cells []string
		for c := first; c < last; c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}
	return flatten(rows), nil
}

// xlsRow returns row i of sheet, or nil when the sheet has no records for it.
// The xls package dereferences the missing row itself, hence the recover.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

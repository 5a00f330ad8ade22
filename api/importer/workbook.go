package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"AcenteCorpSaas/internal/config"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoDataRows        = errors.New("file has no data rows")
	ErrHeaderNotFound    = errors.New("header row not found")
)

// DecodeWorkbook turns an uploaded spreadsheet into a raw cell grid. xlsx is
// tried first, then legacy BIFF xls, then csv — matching what carriers
// actually send regardless of the extension on the filename.
func DecodeWorkbook(data []byte, filename string) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".xml" {
		return nil, ErrUnsupportedFormat
	}

	if rows, err := decodeXLSX(data); err == nil {
		return rows, nil
	}
	if rows, err := decodeXLS(data); err == nil {
		return rows, nil
	}
	if rows, err := decodeCSV(data); err == nil {
		return rows, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

func decodeXLSX(data []byte) ([][]string, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer xl.Close()

	sheetName := xl.GetSheetName(0)
	rawRows, err := xl.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	if len(rawRows) < 2 {
		return nil, ErrNoDataRows
	}

	// Re-read cell by cell so formula cells and custom number formats come
	// back as their displayed value, not the stored one.
	rows := make([][]string, len(rawRows))
	for i, rawRow := range rawRows {
		rows[i] = make([]string, len(rawRow))
		for j := range rawRow {
			colName, _ := excelize.ColumnNumberToName(j + 1)
			cellRef := fmt.Sprintf("%s%d", colName, i+1)
			if v, cellErr := xl.GetCellValue(sheetName, cellRef); cellErr == nil && v != "" {
				rows[i][j] = v
			} else {
				rows[i][j] = rawRow[j]
			}
		}
	}
	return rows, nil
}

func decodeXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-16le")
	if err != nil {
		return nil, err
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("xls has no sheets")
	}
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		vals := make([]string, 0, row.LastCol()+1)
		for j := 0; j <= row.LastCol(); j++ {
			vals = append(vals, row.Col(j))
		}
		rows = append(rows, vals)
	}
	if len(rows) < 2 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

func decodeCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	// Carrier csv exports use ';' about as often as ','
	if guessSemicolon(data) {
		r.Comma = ';'
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

func guessSemicolon(data []byte) bool {
	head := data
	if len(head) > 2048 {
		head = head[:2048]
	}
	return bytes.Count(head, []byte(";")) > bytes.Count(head, []byte(","))
}

// headerKeywords are the minimum fragments that identify a carrier header
// row: something meaning "policy"/"policy number" and something meaning
// "premium".
var headerKeywords = []string{"POLICE", "POLICE NO", "PRIM", "BRUT PRIM", "NET PRIM"}

// FindHeaderRow locates the header row. A parser may pin it to a fixed index
// (banner-block carriers); otherwise the first HeaderScanMaxRows rows are
// scanned for at least two header keywords across the first
// HeaderScanMaxCols columns.
func FindHeaderRow(rows [][]string, fixedRow int) (int, []string, error) {
	if fixedRow >= 0 {
		if fixedRow >= len(rows) {
			return 0, nil, ErrHeaderNotFound
		}
		return fixedRow, normalizeHeaders(rows[fixedRow]), nil
	}

	limit := config.HeaderScanMaxRows
	if limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		hits := 0
		cols := rows[i]
		if len(cols) > config.HeaderScanMaxCols {
			cols = cols[:config.HeaderScanMaxCols]
		}
		for _, cell := range cols {
			h := NormalizeHeader(cell)
			for _, kw := range headerKeywords {
				if fragmentMatch(kw, h) {
					hits++
					break
				}
			}
		}
		if hits >= 2 {
			return i, normalizeHeaders(rows[i]), nil
		}
	}
	return 0, nil, ErrHeaderNotFound
}

func normalizeHeaders(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = NormalizeHeader(c)
	}
	return out
}

// HeaderKeyedRows converts the grid below the header row into
// normalized-header → raw-value maps, the shape every carrier parser
// consumes. Fully empty rows are dropped here; structural rows are not —
// the parser decides what they mean.
func HeaderKeyedRows(rows [][]string, headerIdx int, headers []string) []map[string]string {
	out := make([]map[string]string, 0, len(rows)-headerIdx-1)
	for _, row := range rows[headerIdx+1:] {
		if allEmpty(row) {
			continue
		}
		m := make(map[string]string, len(headers))
		for j, h := range headers {
			if h == "" {
				continue
			}
			if j < len(row) {
				m[h] = strings.TrimSpace(row[j])
			}
		}
		out = append(out, m)
	}
	return out
}

func allEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

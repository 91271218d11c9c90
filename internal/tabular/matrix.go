package tabular

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/schema"
)

// DefaultScanRows bounds how many leading rows are scored as header candidates.
const DefaultScanRows = 20

// Matrix is a row/column grid of cells as produced by a spreadsheet reader.
// Cells are strings, numbers or nil.
type Matrix [][]any

// DetectHeaderRow scores the first limit rows and returns the index of the
// best one. A cell scores 2 when it resolves to a schema field and 1 when it
// is merely non-empty. Ties keep the earliest row.
func DetectHeaderRow(m Matrix, limit int) int {
	if limit <= 0 {
		limit = DefaultScanRows
	}
	bestRow, bestScore := 0, -1
	for r := 0; r < len(m) && r < limit; r++ {
		row := m[r]
		if len(row) == 0 {
			continue
		}
		score := 0
		for _, cell := range row {
			score += headerCellScore(cell)
		}
		if score > bestScore {
			bestRow, bestScore = r, score
		}
	}
	return bestRow
}

func headerCellScore(cell any) int {
	text := strings.TrimSpace(cellString(cell))
	if text == "" {
		return 0
	}
	if schema.Recognized(text) {
		return 2
	}
	return 1
}

// ParseMatrix shapes the rows below headerRow into records, once keyed by the
// raw header cells and once by their canonical fields. A negative headerRow
// asks for detection within the first limit rows. Rows with no present value
// are skipped.
func ParseMatrix(m Matrix, headerRow, limit int) Table {
	if headerRow < 0 {
		headerRow = DetectHeaderRow(m, limit)
	}
	if headerRow >= len(m) {
		return Table{HeaderRow: headerRow}
	}

	headerCells := m[headerRow]
	rawHeaders := make([]string, len(headerCells))
	for i, cell := range headerCells {
		rawHeaders[i] = strings.TrimSpace(cellString(cell))
	}
	columns := headerColumns(headerCells)

	records := make([]model.Record, 0, len(m)-headerRow-1)
	for _, row := range m[headerRow+1:] {
		if rec := shapeRow(columns, row); len(rec) > 0 {
			records = append(records, rec)
		}
	}
	return newTable(rawHeaders, headerRow, columns, records)
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case model.Value:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

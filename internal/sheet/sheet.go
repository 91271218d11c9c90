// Package sheet reads period files from disk: delimited text in UTF-8 or
// Windows-1252, and Excel workbooks.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/verte-zerg/conselho/internal/logging"
	"github.com/verte-zerg/conselho/internal/tabular"
)

var (
	// ErrUnsupportedFormat is returned for file types that cannot be read.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrSheetNotFound is returned when the requested worksheet is missing.
	ErrSheetNotFound = errors.New("sheet not found")
)

// Options selects what to read from a file.
type Options struct {
	// Sheet names the worksheet of a workbook. Empty means the first one.
	Sheet string
	// HeaderRow is the 1-based header row of a workbook. Zero detects it.
	HeaderRow int
	// ScanRows bounds header detection.
	ScanRows int
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads and parses one period file.
func Load(path string, opts Options) (tabular.Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return loadText(path)
	case ".xlsx", ".xlsm":
		return loadWorkbook(path, opts)
	case ".xls":
		return tabular.Table{}, fmt.Errorf("%w: %s (save it as .xlsx or .csv)", ErrUnsupportedFormat, ext)
	default:
		return tabular.Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ListSheets returns the worksheet names of a workbook. Text files have
// none.
func ListSheets(path string) ([]string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return nil, nil
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer func() { _ = f.Close() }()
		return f.GetSheetList(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func loadText(path string) (tabular.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tabular.Table{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	text, err := DecodeText(data)
	if err != nil {
		return tabular.Table{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	table := tabular.ParseText(text)
	logging.Logger().Debug("text file parsed", "path", path, "records", table.Dataset.Len())
	return table, nil
}

// DecodeText turns file bytes into a string. A UTF-8 byte order mark is
// dropped and input that is not valid UTF-8 is read as Windows-1252.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func loadWorkbook(path string, opts Options) (tabular.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return tabular.Table{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	m, sheetName, err := readMatrix(f, opts.Sheet)
	if err != nil {
		return tabular.Table{}, err
	}

	headerRow := opts.HeaderRow - 1
	table := tabular.ParseMatrix(m, headerRow, opts.ScanRows)
	logging.Logger().Debug("workbook parsed",
		"path", path,
		"sheet", sheetName,
		"header_row", table.HeaderRow+1,
		"records", table.Dataset.Len(),
	)
	return table, nil
}

// readMatrix loads a worksheet as a matrix of cells: float64 for numeric
// cells, string for everything else.
func readMatrix(f *excelize.File, sheetName string) (tabular.Matrix, string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	if sheetName == "" {
		sheetName = sheets[0]
	} else if !contains(sheets, sheetName) {
		return nil, "", fmt.Errorf("%w: %q (have %s)", ErrSheetNotFound, sheetName, strings.Join(sheets, ", "))
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, "", fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	m := make(tabular.Matrix, len(rows))
	for r, row := range rows {
		cells := make([]any, len(row))
		for c, raw := range row {
			cells[c] = cellValue(f, sheetName, c+1, r+1, raw)
		}
		m[r] = cells
	}
	return m, sheetName, nil
}

func cellValue(f *excelize.File, sheetName string, col, row int, raw string) any {
	if raw == "" {
		return ""
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := f.GetCellType(sheetName, name)
	if err != nil {
		return raw
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeBool, excelize.CellTypeError, excelize.CellTypeDate:
		return raw
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return raw
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

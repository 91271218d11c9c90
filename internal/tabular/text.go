// Package tabular shapes delimited text and cell matrices into canonical
// student records.
package tabular

import (
	"strings"

	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/numeric"
	"github.com/verte-zerg/conselho/internal/schema"
)

// Table is a parsed source: the raw header cells as found, the header row
// index they were taken from, the records keyed by trimmed raw header text
// (Source) and the same records under canonical fields (Dataset).
//
// Header mappings are written against raw header text, so they must be
// applied to Source; Dataset is ApplyMapping(Source, nil).
type Table struct {
	RawHeaders []string
	HeaderRow  int
	Source     model.Dataset
	Dataset    model.Dataset
}

func newTable(rawHeaders []string, headerRow int, columns []model.Field, records []model.Record) Table {
	source := model.Dataset{Headers: orderedFields(columns), Records: records}
	return Table{
		RawHeaders: rawHeaders,
		HeaderRow:  headerRow,
		Source:     source,
		Dataset:    ApplyMapping(source, nil),
	}
}

// ParseText parses delimited text. The delimiter is ';' when the header line
// has a ';' and no ',', otherwise ','. The first non-blank line is the header
// line and blank lines are skipped. A line whose cells are all empty still
// yields a record, which carries the degenerate student key.
//
// Quoted fields are not supported: a delimiter inside quotes splits the cell.
func ParseText(text string) Table {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := make([]string, 0, strings.Count(text, "\n")+1)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return Table{}
	}

	sep := ","
	if strings.Contains(lines[0], ";") && !strings.Contains(lines[0], ",") {
		sep = ";"
	}

	rawHeaders := splitTrim(lines[0], sep)
	cells := make([]any, len(rawHeaders))
	for i, h := range rawHeaders {
		cells[i] = h
	}
	columns := headerColumns(cells)

	records := make([]model.Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cols := splitTrim(line, sep)
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = c
		}
		records = append(records, shapeRow(columns, row))
	}

	return newTable(rawHeaders, 0, columns, records)
}

func splitTrim(line, sep string) []string {
	parts := strings.Split(line, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// headerColumns trims header cells into record keys. Blank headers yield an
// empty field and their column is skipped.
func headerColumns(cells []any) []model.Field {
	out := make([]model.Field, len(cells))
	for i, cell := range cells {
		out[i] = model.Field(strings.TrimSpace(cellString(cell)))
	}
	return out
}

// shapeRow coerces each cell leniently under its column's key. Cells with no
// value are left out.
func shapeRow(columns []model.Field, row []any) model.Record {
	rec := model.Record{}
	for i, field := range columns {
		if field == "" {
			continue
		}
		var cell any
		if i < len(row) {
			cell = row[i]
		}
		v := numeric.Lenient(cell)
		if v.IsNone() {
			continue
		}
		rec[field] = v
	}
	return rec
}

func orderedFields(columns []model.Field) []model.Field {
	seen := make(map[model.Field]struct{}, len(columns))
	out := make([]model.Field, 0, len(columns))
	for _, f := range columns {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Unrecognized returns the headers that did not resolve to a schema field.
func Unrecognized(headers []model.Field) []model.Field {
	var out []model.Field
	for _, h := range headers {
		if !schema.IsCanonical(h) {
			out = append(out, h)
		}
	}
	return out
}

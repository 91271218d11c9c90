package export

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/conselho/internal/model"
)

// Report columns holding numbers are right-aligned.
var reportRightAlign = map[int]bool{0: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true, 9: true, 10: true}

// RenderReportTable lays the report out as aligned text lines, header first.
func RenderReportTable(rows []model.ReportRow) []string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, ReportCells(r))
	}
	return FormatTable(ReportHeaders, cells, reportRightAlign)
}

// WriteReportTable writes RenderReportTable output, one line each.
func WriteReportTable(w io.Writer, rows []model.ReportRow) error {
	lines := RenderReportTable(rows)
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// FormatTable pads cells so columns line up. Widths are measured in terminal
// cells, so accented and wide characters align too.
func FormatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = DisplayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := DisplayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(PadCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

// PadCell pads value with spaces to width terminal cells.
func PadCell(value string, width int, rightAlign bool) string {
	valueWidth := DisplayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

// DisplayWidth returns how many terminal cells value occupies.
func DisplayWidth(value string) int {
	return runewidth.StringWidth(value)
}

// Package export writes reports and datasets as comma-separated text and as
// aligned plain-text tables.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verte-zerg/conselho/internal/model"
)

// BOM is the UTF-8 byte order mark some spreadsheet programs need to pick
// the right encoding.
const BOM = "\ufeff"

// Options controls delimited output.
type Options struct {
	BOM bool
}

// ReportHeaders lists the report columns in output order.
var ReportHeaders = []string{
	"Number",
	"StudentName",
	"Status",
	"Period1Average",
	"Period2Average",
	"Period1And2Average",
	"Period3Average",
	"PartialAverage123",
	"Period1AttendancePercent",
	"Period2AttendancePercent",
	"AccumulatedAttendancePercent",
	"GradeRisk",
	"AttendanceRisk",
	"Alert",
}

// ReportCells renders a row's values in ReportHeaders order. Missing values
// are empty strings.
func ReportCells(r model.ReportRow) []string {
	return []string{
		r.Number,
		r.StudentName,
		r.Status,
		formatNumber(r.Period1Average),
		formatNumber(r.Period2Average),
		formatNumber(r.Period1And2Average),
		formatNumber(r.Period3Average),
		formatNumber(r.PartialAverage123),
		formatNumber(r.Period1AttendancePercent),
		formatNumber(r.Period2AttendancePercent),
		formatNumber(r.AccumulatedAttendancePercent),
		string(r.GradeRisk),
		string(r.AttendanceRisk),
		r.Alert,
	}
}

// WriteReport writes a header line and one line per row.
func WriteReport(w io.Writer, rows []model.ReportRow, opts Options) error {
	lines := make([][]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, ReportCells(r))
	}
	return writeDelimited(w, ReportHeaders, lines, opts)
}

// WriteDataset writes a dataset with its own header order.
func WriteDataset(w io.Writer, ds model.Dataset, opts Options) error {
	headers := make([]string, 0, len(ds.Headers))
	for _, h := range ds.Headers {
		headers = append(headers, string(h))
	}
	lines := make([][]string, 0, len(ds.Records))
	for _, rec := range ds.Records {
		cells := make([]string, 0, len(ds.Headers))
		for _, h := range ds.Headers {
			cells = append(cells, rec.Get(h).String())
		}
		lines = append(lines, cells)
	}
	return writeDelimited(w, headers, lines, opts)
}

func writeDelimited(w io.Writer, headers []string, rows [][]string, opts Options) error {
	bw := bufio.NewWriter(w)
	if opts.BOM {
		if _, err := bw.WriteString(BOM); err != nil {
			return fmt.Errorf("failed to write bom: %w", err)
		}
	}
	if err := writeLine(bw, headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeLine(bw, row); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

func writeLine(w *bufio.Writer, cells []string) error {
	for i, cell := range cells {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		if _, err := w.WriteString(Quote(cell)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Quote wraps a value in double quotes when it holds a comma or a line
// break, doubling any quotes inside. Other values are returned as is.
func Quote(s string) string {
	if !strings.ContainsAny(s, ",\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

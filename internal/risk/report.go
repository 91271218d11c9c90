package risk

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/verte-zerg/conselho/internal/merge"
	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/schema"
	"github.com/verte-zerg/conselho/internal/situation"
)

// DefaultAlertMarker is written to ReportRow.Alert when any flag is raised.
const DefaultAlertMarker = "⚠ Verificar caso"

// Inputs collects everything a report depends on.
type Inputs struct {
	P1, P2, P3  model.Dataset
	Thresholds  model.Thresholds
	AlertMarker string
}

// CurrentPeriod returns the records that stand for period 3: the loaded
// period-3 dataset, or the visible merged base when none is loaded.
func CurrentPeriod(p1, p2, p3 model.Dataset) []model.Record {
	if len(p3.Records) > 0 {
		return p3.Records
	}
	return situation.Visible(merge.BuildCurrentBase(p1, p2, p3).Records)
}

// BuildReport computes one row per student key across the three periods,
// drops excluded statuses and returns the rows sorted.
func BuildReport(in Inputs) []model.ReportRow {
	marker := in.AlertMarker
	if marker == "" {
		marker = DefaultAlertMarker
	}

	current := CurrentPeriod(in.P1, in.P2, in.P3)
	m1 := merge.IndexByKey(in.P1.Records)
	m2 := merge.IndexByKey(in.P2.Records)
	m3 := merge.IndexByKey(current)

	keys := merge.UnionKeys(in.P1.Records, in.P2.Records, current)
	rows := make([]model.ReportRow, 0, len(keys))
	for _, k := range keys {
		r1, r2, r3 := m1[k], m2[k], m3[k]
		id := merge.Identity(r1, r2, r3)
		if situation.IsExcluded(id.Get(schema.Status)) {
			continue
		}

		row := model.ReportRow{
			Number:      id.Get(schema.Number).String(),
			StudentName: id.Get(schema.StudentName).String(),
			Status:      id.Get(schema.Status).String(),
		}
		row.Period1Average = PeriodAverage(r1)
		row.Period2Average = PeriodAverage(r2)
		row.Period1And2Average = CombinedAverage(row.Period1Average, row.Period2Average)
		row.Period3Average = PeriodAverage(r3)
		row.PartialAverage123 = CombinedAverage(row.Period1Average, row.Period2Average, row.Period3Average)
		row.Period1AttendancePercent = Attendance(r1, schema.AttendancePercent)
		row.Period2AttendancePercent = Attendance(r2, schema.AttendancePercent)
		row.AccumulatedAttendancePercent = AttendanceAggregate(r1, r2, r3)

		row.GradeRisk = Flag(row.Period1And2Average, in.Thresholds.MinAverage)
		row.AttendanceRisk = Flag(row.AccumulatedAttendancePercent, in.Thresholds.MinAttendance)
		if row.GradeRisk == model.RiskYes || row.AttendanceRisk == model.RiskYes {
			row.Alert = marker
		}
		rows = append(rows, row)
	}

	SortReport(rows)
	return rows
}

// SortReport orders rows with alerted students first, then by name using
// Brazilian Portuguese collation. Equal names fall back to number.
func SortReport(rows []model.ReportRow) {
	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if (a.Alert != "") != (b.Alert != "") {
			return a.Alert != ""
		}
		if c := col.CompareString(a.StudentName, b.StudentName); c != 0 {
			return c < 0
		}
		return strings.TrimSpace(a.Number) < strings.TrimSpace(b.Number)
	})
}

package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/schema"
)

var defaults = model.Thresholds{MinAverage: 5, MinAttendance: 75}

func rec(number, name string, kv ...any) model.Record {
	r := model.Record{
		schema.Number:      model.Text(number),
		schema.StudentName: model.Text(name),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		var v model.Value
		switch x := kv[i+1].(type) {
		case float64:
			v = model.Number(x)
		case int:
			v = model.Number(float64(x))
		case string:
			v = model.Text(x)
		}
		r[kv[i].(model.Field)] = v
	}
	return r
}

func ds(records ...model.Record) model.Dataset {
	return model.Dataset{Records: records}
}

func TestPeriodAverage(t *testing.T) {
	avg := PeriodAverage(rec("1", "Ana", model.Field("Arte"), 8, model.Field("Fisica"), 6, model.Field("Quimica"), 10))
	require.NotNil(t, avg)
	assert.Equal(t, 8.0, *avg)

	assert.Nil(t, PeriodAverage(rec("1", "Ana")))
	assert.Nil(t, PeriodAverage(nil))

	thirds := PeriodAverage(rec("1", "Ana", model.Field("Arte"), 7, model.Field("Fisica"), 7, model.Field("Quimica"), 8))
	require.NotNil(t, thirds)
	assert.Equal(t, 7.33, *thirds)
}

func TestPeriodAverageIgnoresUnusableGrades(t *testing.T) {
	r := rec("1", "Ana",
		model.Field("Arte"), "7,5",
		model.Field("Fisica"), "faltou",
		model.Field("Quimica"), 250,
		model.Field("Historia"), "",
		model.Field("NaoDisciplina"), 1,
	)
	avg := PeriodAverage(r)
	require.NotNil(t, avg)
	assert.Equal(t, 7.5, *avg)
}

func TestCombinedAverage(t *testing.T) {
	a, b := 4.0, 5.0
	got := CombinedAverage(&a, nil)
	require.NotNil(t, got)
	assert.Equal(t, 4.0, *got)

	got = CombinedAverage(&a, &b)
	require.NotNil(t, got)
	assert.Equal(t, 4.5, *got)

	assert.Nil(t, CombinedAverage(nil, nil))
}

func TestAttendanceAggregateFallbacks(t *testing.T) {
	r1 := rec("1", "Ana", schema.AttendancePercent, 80)
	r2 := rec("1", "Ana", schema.AttendancePercent, 91)

	got := AttendanceAggregate(r1, r2, rec("1", "Ana", schema.AccumulatedAttendancePercent, 70, schema.AttendancePercent, 99))
	require.NotNil(t, got)
	assert.Equal(t, 70.0, *got)

	got = AttendanceAggregate(r1, r2, rec("1", "Ana", schema.AttendancePercent, "88,5"))
	require.NotNil(t, got)
	assert.Equal(t, 88.5, *got)

	got = AttendanceAggregate(r1, r2, nil)
	require.NotNil(t, got)
	assert.Equal(t, 86.0, *got, "85.5 rounds half up")

	got = AttendanceAggregate(nil, r2, nil)
	require.NotNil(t, got)
	assert.Equal(t, 91.0, *got)

	assert.Nil(t, AttendanceAggregate(nil, nil, nil))
	assert.Nil(t, AttendanceAggregate(rec("1", "Ana", schema.AttendancePercent, "n/a"), nil, nil))
}

func TestFlag(t *testing.T) {
	low, high := 4.5, 5.0
	assert.Equal(t, model.RiskYes, Flag(&low, 5))
	assert.Equal(t, model.RiskNo, Flag(&high, 5))
	assert.Equal(t, model.RiskUnset, Flag(nil, 5))
}

func TestBuildReportFlags(t *testing.T) {
	p1 := ds(
		rec("1", "Ana", model.Field("Arte"), 4, schema.AttendancePercent, 80),
		rec("2", "Bia"),
	)
	p2 := ds(rec("1", "Ana", model.Field("Arte"), 5, schema.AttendancePercent, 80))

	rows := BuildReport(Inputs{P1: p1, P2: p2, Thresholds: defaults})
	require.Len(t, rows, 2)

	ana := rows[0]
	assert.Equal(t, "Ana", ana.StudentName)
	require.NotNil(t, ana.Period1And2Average)
	assert.Equal(t, 4.5, *ana.Period1And2Average)
	require.NotNil(t, ana.AccumulatedAttendancePercent)
	assert.Equal(t, 80.0, *ana.AccumulatedAttendancePercent)
	assert.Equal(t, model.RiskYes, ana.GradeRisk)
	assert.Equal(t, model.RiskNo, ana.AttendanceRisk)
	assert.Equal(t, DefaultAlertMarker, ana.Alert)

	bia := rows[1]
	assert.Equal(t, model.RiskUnset, bia.GradeRisk)
	assert.Equal(t, model.RiskUnset, bia.AttendanceRisk)
	assert.Empty(t, bia.Alert)
	assert.Nil(t, bia.Period1Average)
	assert.Nil(t, bia.PartialAverage123)
}

func TestBuildReportCustomMarker(t *testing.T) {
	rows := BuildReport(Inputs{
		P1:          ds(rec("1", "Ana", schema.AttendancePercent, 50)),
		Thresholds:  defaults,
		AlertMarker: "!",
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "!", rows[0].Alert)
}

func TestBuildReportOrdering(t *testing.T) {
	p1 := ds(
		rec("3", "Carla", model.Field("Arte"), 9),
		rec("2", "Bruno", model.Field("Arte"), 2),
		rec("1", "Ana", model.Field("Arte"), 3),
	)
	rows := BuildReport(Inputs{P1: p1, Thresholds: defaults})
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.StudentName)
	}
	assert.Equal(t, []string{"Ana", "Bruno", "Carla"}, names)
}

func TestSortReportCollatesAccents(t *testing.T) {
	rows := []model.ReportRow{
		{StudentName: "Otávio"},
		{StudentName: "Álvaro"},
		{StudentName: "beatriz"},
		{StudentName: "Ana", Number: "9"},
		{StudentName: "Ana", Number: "1"},
	}
	SortReport(rows)
	got := make([]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.StudentName+r.Number)
	}
	assert.Equal(t, []string{"Álvaro", "Ana1", "Ana9", "beatriz", "Otávio"}, got)
}

func TestBuildReportExcludesTransfers(t *testing.T) {
	moved := func() model.Record {
		return rec("7", "Gil", schema.Status, "TRANSFERIDO", model.Field("Arte"), 1)
	}
	rows := BuildReport(Inputs{
		P1:         ds(moved(), rec("1", "Ana")),
		P2:         ds(moved()),
		P3:         ds(moved()),
		Thresholds: defaults,
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0].StudentName)
}

func TestBuildReportRowCountIsUnionMinusExcluded(t *testing.T) {
	p1 := ds(rec("1", "Ana"), rec("2", "Bia"), rec("2", "Bia"))
	p2 := ds(rec("2", "Bia"), rec("3", "Caio", schema.Status, "Remanejado"))
	p3 := ds(rec("4", "Duda"), rec("5", "Eva"))
	rows := BuildReport(Inputs{P1: p1, P2: p2, P3: p3, Thresholds: defaults})
	assert.Len(t, rows, 4)
}

func TestBuildReportUsesMergedBaseWithoutPeriod3(t *testing.T) {
	p1 := ds(rec("1", "Ana", model.Field("Arte"), 6, schema.AttendancePercent, 60))
	p2 := ds(rec("2", "Bia", model.Field("Arte"), 8, schema.AttendancePercent, 90))

	rows := BuildReport(Inputs{P1: p1, P2: p2, Thresholds: defaults})
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Nil(t, r.Period3Average, r.StudentName)
	}

	withP3 := BuildReport(Inputs{
		P1:         p1,
		P2:         p2,
		P3:         ds(rec("1", "Ana", model.Field("Arte"), 10, schema.AccumulatedAttendancePercent, 95)),
		Thresholds: defaults,
	})
	require.Len(t, withP3, 2)
	var ana model.ReportRow
	for _, r := range withP3 {
		if r.StudentName == "Ana" {
			ana = r
		}
	}
	require.NotNil(t, ana.Period3Average)
	assert.Equal(t, 10.0, *ana.Period3Average)
	require.NotNil(t, ana.PartialAverage123)
	assert.Equal(t, 8.0, *ana.PartialAverage123)
	assert.Equal(t, 95.0, *ana.AccumulatedAttendancePercent)
	assert.Equal(t, model.RiskNo, ana.AttendanceRisk)
}

func TestBuildReportEmpty(t *testing.T) {
	assert.Empty(t, BuildReport(Inputs{Thresholds: defaults}))
}

// Package risk derives per-student averages, attendance aggregates and risk
// flags from the three period datasets.
//
// Every function here degrades to absent results on missing input. Numbers
// are always read with the strict policy from package numeric.
package risk

import (
	"math"

	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/numeric"
	"github.com/verte-zerg/conselho/internal/schema"
)

// Grades outside this range are treated as absent.
const (
	MinGrade = 0.0
	MaxGrade = 100.0
)

// Grade returns the numeric value of a subject grade, if it has one within
// the accepted range.
func Grade(v model.Value) (float64, bool) {
	f, ok := numeric.Strict(v)
	if !ok || f < MinGrade || f > MaxGrade {
		return 0, false
	}
	return f, true
}

// PeriodAverage averages the present subject grades of one record, rounded
// to two decimals. Nil when no subject has a grade.
func PeriodAverage(rec model.Record) *float64 {
	if rec == nil {
		return nil
	}
	var sum float64
	var n int
	for _, subject := range schema.Subjects {
		f, ok := Grade(rec.Get(subject))
		if !ok {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return nil
	}
	return ptr(round2(sum / float64(n)))
}

// CombinedAverage averages whichever of avgs are present, rounded to two
// decimals. A missing period never counts as zero.
func CombinedAverage(avgs ...*float64) *float64 {
	m, ok := mean(avgs)
	if !ok {
		return nil
	}
	return ptr(round2(m))
}

// Attendance reads an attendance percentage field.
func Attendance(rec model.Record, field model.Field) *float64 {
	f, ok := numeric.Strict(rec.Get(field))
	if !ok {
		return nil
	}
	return ptr(f)
}

// AttendanceAggregate picks the accumulated attendance for a student: the
// period-3 accumulated percentage, else the period-3 percentage, else the
// mean of the period-1 and period-2 percentages rounded to an integer.
func AttendanceAggregate(r1, r2, r3 model.Record) *float64 {
	if v := Attendance(r3, schema.AccumulatedAttendancePercent); v != nil {
		return v
	}
	if v := Attendance(r3, schema.AttendancePercent); v != nil {
		return v
	}
	m, ok := mean([]*float64{
		Attendance(r1, schema.AttendancePercent),
		Attendance(r2, schema.AttendancePercent),
	})
	if !ok {
		return nil
	}
	return ptr(math.Floor(m + 0.5))
}

// Flag compares a value against its minimum: RiskYes when below, RiskNo when
// not, RiskUnset when the value is missing.
func Flag(v *float64, min float64) model.Risk {
	switch {
	case v == nil:
		return model.RiskUnset
	case *v < min:
		return model.RiskYes
	default:
		return model.RiskNo
	}
}

func mean(vals []*float64) (float64, bool) {
	var sum float64
	var n int
	for _, v := range vals {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func ptr(f float64) *float64 {
	return &f
}

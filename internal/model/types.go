// Package model defines shared data structures.
package model

import (
	"math"
	"strconv"
)

// Field identifies a record column. Recognized columns use one of the
// canonical identifiers from package schema; unrecognized ones keep the raw
// header text until a mapping resolves them.
type Field string

// Ignore marks a mapping entry whose column is dropped.
const Ignore Field = "(ignore)"

// Kind tells which variant a Value holds.
type Kind uint8

// Value kinds.
const (
	KindNone Kind = iota
	KindNumber
	KindText
)

// Value is a cell value: a number, a text, or absent.
type Value struct {
	Kind Kind
	Num  float64
	Text string
}

// Number wraps a float as a Value. Non-finite input yields an absent value.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{Kind: KindNumber, Num: f}
}

// Text wraps a string as a Value.
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// IsNone reports whether the value is absent.
func (v Value) IsNone() bool {
	return v.Kind == KindNone
}

// String renders the value the way it is shown and exported.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

// Record holds one student's data for one grading period.
type Record map[Field]Value

// Get returns the value stored for field, or an absent value.
func (r Record) Get(field Field) Value {
	if r == nil {
		return Value{}
	}
	return r[field]
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is one period's ordered records plus the ordered column list they
// were shaped from.
type Dataset struct {
	Headers []Field
	Records []Record
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.Records)
}

// HeaderMapping maps a record key (raw header or canonical field) to the
// field it should become, or to Ignore.
type HeaderMapping map[string]Field

// Thresholds drives the risk flags.
type Thresholds struct {
	MinAverage    float64
	MinAttendance float64
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{MinAverage: 5, MinAttendance: 75}
}

// Risk is a three-way flag: yes, no, or unset when there is no data.
type Risk string

// Risk values.
const (
	RiskUnset Risk = ""
	RiskYes   Risk = "yes"
	RiskNo    Risk = "no"
)

// ReportRow is the computed per-student line of the risk report.
// Optional numbers are nil when there is no data.
type ReportRow struct {
	Number                       string
	StudentName                  string
	Status                       string
	Period1Average               *float64
	Period2Average               *float64
	Period1And2Average           *float64
	Period3Average               *float64
	PartialAverage123            *float64
	Period1AttendancePercent     *float64
	Period2AttendancePercent     *float64
	AccumulatedAttendancePercent *float64
	GradeRisk                    Risk
	AttendanceRisk               Risk
	Alert                        string
}

// Package numeric converts locale-formatted cell values into numbers.
//
// There are two policies. Lenient is used while shaping records and
// answers "does this cell look like a number at all", treating '.' as a
// thousands separator and ',' as the decimal mark; cells that do not look
// numeric stay as text. Strict is used by arithmetic and yields a number or
// nothing.
package numeric

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/conselho/internal/model"
)

var decimalRe = regexp.MustCompile(`^[-+]?\d+(\.\d+)?$`)

// Lenient shapes a raw cell. Numbers pass through when finite, strings that
// read as locale numbers ("1.234,5", "7,5", "95") become numbers, blank cells
// become absent and everything else is kept as text.
func Lenient(raw any) model.Value {
	switch v := raw.(type) {
	case nil:
		return model.Value{}
	case model.Value:
		if v.Kind == model.KindText {
			return lenientString(v.Text)
		}
		return v
	case string:
		return lenientString(v)
	default:
		if f, ok := toFloat(raw); ok {
			return model.Number(f)
		}
		return lenientString(fmt.Sprint(raw))
	}
}

func lenientString(s string) model.Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Value{}
	}
	candidate := strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
	if decimalRe.MatchString(candidate) {
		if f, err := strconv.ParseFloat(candidate, 64); err == nil {
			return model.Number(f)
		}
	}
	return model.Text(s)
}

// Strict returns a finite number for arithmetic. Text is parsed with its
// first ',' read as the decimal mark; blank, absent and non-numeric values
// report false.
func Strict(v model.Value) (float64, bool) {
	switch v.Kind {
	case model.KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return 0, false
		}
		return v.Num, true
	case model.KindText:
		s := strings.TrimSpace(v.Text)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// StrictAny applies Strict to an arbitrary cell value.
func StrictAny(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case model.Value:
		return Strict(v)
	case string:
		return Strict(model.Text(v))
	default:
		if f, ok := toFloat(raw); ok {
			return Strict(model.Number(f))
		}
		return 0, false
	}
}

// Edit interprets text typed into an editable cell: blank clears the cell,
// strictly numeric input is stored as a number, anything else stays text.
func Edit(raw string) model.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.Value{}
	}
	if f, ok := Strict(model.Text(s)); ok {
		return model.Number(f)
	}
	return model.Text(s)
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

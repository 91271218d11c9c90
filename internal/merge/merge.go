// Package merge correlates student records across grading periods.
package merge

import (
	"strings"

	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/schema"
)

// Separator joins the number and name parts of a student key. Keys stay
// unambiguous while the number part does not contain it, which holds for
// numeric and plain code cells; a name may contain it.
const Separator = "::"

// Key identifies a student: trimmed number and trimmed name. Missing parts
// count as empty, so two records with neither part collide.
func Key(rec model.Record) string {
	return strings.TrimSpace(rec.Get(schema.Number).String()) + Separator +
		strings.TrimSpace(rec.Get(schema.StudentName).String())
}

// IndexByKey maps student keys to records. A later record with the same key
// replaces an earlier one.
func IndexByKey(records []model.Record) map[string]model.Record {
	out := make(map[string]model.Record, len(records))
	for _, rec := range records {
		out[Key(rec)] = rec
	}
	return out
}

// UnionKeys returns every distinct key across the datasets, in first-seen
// order.
func UnionKeys(datasets ...[]model.Record) []string {
	seen := map[string]struct{}{}
	var keys []string
	for _, records := range datasets {
		for _, rec := range records {
			k := Key(rec)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

var identityFields = []model.Field{schema.Number, schema.StudentName, schema.Status}

// Identity builds a record holding only the identification fields, each taken
// from the first of recs that has it.
func Identity(recs ...model.Record) model.Record {
	out := model.Record{}
	for _, f := range identityFields {
		for _, rec := range recs {
			v := rec.Get(f)
			if v.IsNone() || v.String() == "" {
				continue
			}
			out[f] = v
			break
		}
	}
	return out
}

// BuildCurrentBase builds the current-period view: one record per student
// across all three periods, identification taken from period 1, then 2,
// then 3, with period-3 fields laid on top when that student has a period-3
// record. Inputs are not modified.
func BuildCurrentBase(p1, p2, p3 model.Dataset) model.Dataset {
	m1 := IndexByKey(p1.Records)
	m2 := IndexByKey(p2.Records)
	m3 := IndexByKey(p3.Records)

	keys := UnionKeys(p1.Records, p2.Records, p3.Records)
	records := make([]model.Record, 0, len(keys))
	for _, k := range keys {
		base := Identity(m1[k], m2[k], m3[k])
		if r3, ok := m3[k]; ok {
			for f, v := range r3 {
				base[f] = v
			}
		}
		records = append(records, base)
	}

	return model.Dataset{
		Headers: baseHeaders(p3.Headers),
		Records: records,
	}
}

func baseHeaders(extra []model.Field) []model.Field {
	out := append([]model.Field(nil), identityFields...)
	for _, f := range extra {
		dup := false
		for _, have := range out {
			if have == f {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}

// ReplaceField returns a copy of ds in which the record with the given key
// has field set to v; an absent v removes the field. Other records are
// shared with ds, the edited record is copied. ok is false when no record
// has the key.
func ReplaceField(ds model.Dataset, key string, field model.Field, v model.Value) (model.Dataset, bool) {
	idx := -1
	for i, rec := range ds.Records {
		if Key(rec) == key {
			idx = i
		}
	}
	if idx < 0 {
		return ds, false
	}

	records := make([]model.Record, len(ds.Records))
	copy(records, ds.Records)
	rec := records[idx].Clone()
	if v.IsNone() {
		delete(rec, field)
	} else {
		rec[field] = v
	}
	records[idx] = rec

	headers := ds.Headers
	if !v.IsNone() && !containsField(headers, field) {
		headers = append(append([]model.Field(nil), headers...), field)
	}
	return model.Dataset{Headers: headers, Records: records}, true
}

func containsField(fields []model.Field, f model.Field) bool {
	for _, have := range fields {
		if have == f {
			return true
		}
	}
	return false
}

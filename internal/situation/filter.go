// Package situation decides which enrollment statuses are left out of the
// outward-facing views.
package situation

import (
	"regexp"

	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/schema"
)

// Transfers (in or out), non-attendance closures, reassignments and
// transfer write-offs, matched on accent-free lowercase text.
var excludedRe = regexp.MustCompile(`transferencia|transferid[oa]|nao\s*comparec|nao_comparec|remanejad|baixa.*transfer`)

// IsExcluded reports whether a status hides the student from the grid and the
// report. Absent or numeric statuses are never excluded.
func IsExcluded(status model.Value) bool {
	if status.Kind != model.KindText {
		return false
	}
	n := schema.Normalize(status.Text)
	if n == "" {
		return false
	}
	return excludedRe.MatchString(n)
}

// Visible returns the records whose status is not excluded. The input slice
// is not modified.
func Visible(records []model.Record) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if IsExcluded(rec.Get(schema.Status)) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

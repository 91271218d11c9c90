// Package council keeps the state of one class council: the three period
// datasets, their header mappings, the thresholds and the edits made to the
// current period. The report is recomputed only when something changed.
package council

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/conselho/internal/logging"
	"github.com/verte-zerg/conselho/internal/merge"
	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/numeric"
	"github.com/verte-zerg/conselho/internal/risk"
	"github.com/verte-zerg/conselho/internal/situation"
	"github.com/verte-zerg/conselho/internal/tabular"
)

var (
	// ErrUnknownStudent is returned when an edit names a key with no record.
	ErrUnknownStudent = errors.New("unknown student")
	// ErrInvalidPeriod is returned for periods outside 1..3.
	ErrInvalidPeriod = errors.New("invalid period")
)

// Period numbers a grading period. Period 3 is the current, editable one.
type Period int

// Grading periods.
const (
	Period1 Period = iota + 1
	Period2
	Period3
)

// Periods lists the grading periods in order.
var Periods = []Period{Period1, Period2, Period3}

func (p Period) index() (int, error) {
	if p < Period1 || p > Period3 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPeriod, int(p))
	}
	return int(p) - 1, nil
}

// Session is not safe for concurrent use. The grid drives it from the Bubble
// Tea update loop only.
type Session struct {
	raw      [3]model.Dataset
	mappings [3]model.HeaderMapping
	data     [3]model.Dataset

	thresholds  model.Thresholds
	alertMarker string

	rev       uint64
	reportRev uint64
	report    []model.ReportRow
}

// NewSession creates an empty session.
func NewSession(th model.Thresholds, alertMarker string) *Session {
	return &Session{
		thresholds:  th,
		alertMarker: alertMarker,
		rev:         1,
	}
}

// SetDataset replaces a period's data with a freshly parsed dataset and
// applies that period's mapping to it. ds should be keyed by raw header text,
// as tabular.Table.Source is, so overrides of recognized headers apply;
// canonical keys pass through unchanged.
func (s *Session) SetDataset(p Period, ds model.Dataset) error {
	i, err := p.index()
	if err != nil {
		return err
	}
	s.raw[i] = ds
	s.data[i] = tabular.ApplyMapping(ds, s.mappings[i])
	s.rev++
	logging.Logger().Debug("dataset loaded", "period", int(p), "records", ds.Len())
	return nil
}

// SetMapping replaces a period's header mapping and re-derives its dataset.
func (s *Session) SetMapping(p Period, m model.HeaderMapping) error {
	i, err := p.index()
	if err != nil {
		return err
	}
	s.mappings[i] = cloneMapping(m)
	s.data[i] = tabular.ApplyMapping(s.raw[i], s.mappings[i])
	s.rev++
	logging.Logger().Debug("mapping applied", "period", int(p), "entries", len(m))
	return nil
}

// Mapping returns a copy of a period's header mapping.
func (s *Session) Mapping(p Period) (model.HeaderMapping, error) {
	i, err := p.index()
	if err != nil {
		return nil, err
	}
	return cloneMapping(s.mappings[i]), nil
}

// SetThresholds changes the minimum average and attendance.
func (s *Session) SetThresholds(th model.Thresholds) {
	if th == s.thresholds {
		return
	}
	s.thresholds = th
	s.rev++
}

// Thresholds returns the current thresholds.
func (s *Session) Thresholds() model.Thresholds {
	return s.thresholds
}

// Dataset returns a period's mapped dataset.
func (s *Session) Dataset(p Period) (model.Dataset, error) {
	i, err := p.index()
	if err != nil {
		return model.Dataset{}, err
	}
	return s.data[i], nil
}

// Revision changes every time an input of the report changes.
func (s *Session) Revision() uint64 {
	return s.rev
}

// WorkingSet returns the current-period records shown for editing: the
// period-3 dataset when it has records, the merged base otherwise, with
// excluded statuses hidden in both cases.
func (s *Session) WorkingSet() model.Dataset {
	ws := s.workingBase()
	ws.Records = situation.Visible(ws.Records)
	return ws
}

func (s *Session) workingBase() model.Dataset {
	if len(s.data[2].Records) > 0 {
		return s.data[2]
	}
	return merge.BuildCurrentBase(s.data[0], s.data[1], s.data[2])
}

// EditCell sets one field of one current-period record from user input.
// Blank input clears the field, numeric input is stored as a number and
// anything else as text. The first edit without a loaded period-3 dataset
// turns the merged base into the period-3 dataset.
func (s *Session) EditCell(key string, field model.Field, raw string) error {

	current := s.data[2]
	if len(current.Records) == 0 {
		current = s.workingBase()
		current.Records = situation.Visible(current.Records)
	}
	next, ok := merge.ReplaceField(current, key, field, numeric.Edit(raw))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStudent, key)
	}
	s.raw[2] = next
	s.data[2] = next
	s.rev++
	logging.Logger().Info("cell edited", "student", key, "field", string(field))
	return nil
}

// Report returns the sorted risk report, recomputing it only after a change.
// The returned slice is a copy.
func (s *Session) Report() []model.ReportRow {
	if s.reportRev != s.rev {
		s.report = risk.BuildReport(risk.Inputs{
			P1:          s.data[0],
			P2:          s.data[1],
			P3:          s.data[2],
			Thresholds:  s.thresholds,
			AlertMarker: s.alertMarker,
		})
		s.reportRev = s.rev
		logging.Logger().Debug("report computed", "rows", len(s.report), "revision", s.rev)
	}
	return append([]model.ReportRow(nil), s.report...)
}

func cloneMapping(m model.HeaderMapping) model.HeaderMapping {
	if m == nil {
		return nil
	}
	out := make(model.HeaderMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

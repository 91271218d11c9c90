package council

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/conselho/internal/merge"
	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/schema"
	"github.com/verte-zerg/conselho/internal/tabular"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(model.DefaultThresholds(), "")
	p1 := tabular.ParseText("Numero,Aluno,Situacao,Arte,Frequencia_%\n1,Ana,ATIVO,4,80\n2,Bia,TRANSFERIDA,9,90\n")
	p2 := tabular.ParseText("Numero;Aluno;Arte;Frequencia_%\n1;Ana;5;80\n3;Caio;8;95\n")
	require.NoError(t, s.SetDataset(Period1, p1.Source))
	require.NoError(t, s.SetDataset(Period2, p2.Source))
	return s
}

func TestInvalidPeriod(t *testing.T) {
	s := NewSession(model.DefaultThresholds(), "")
	assert.ErrorIs(t, s.SetDataset(Period(4), model.Dataset{}), ErrInvalidPeriod)
	_, err := s.Dataset(Period(0))
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestWorkingSetHidesExcluded(t *testing.T) {
	s := newSession(t)
	ws := s.WorkingSet()
	keys := make([]string, 0, len(ws.Records))
	for _, r := range ws.Records {
		keys = append(keys, merge.Key(r))
	}
	assert.Equal(t, []string{"1::Ana", "3::Caio"}, keys)

	p1, err := s.Dataset(Period1)
	require.NoError(t, err)
	assert.Len(t, p1.Records, 2, "exclusion never deletes source rows")
}

func TestReportIsMemoized(t *testing.T) {
	s := newSession(t)
	first := s.Report()
	require.Len(t, first, 2)
	assert.Equal(t, "Ana", first[0].StudentName)
	assert.Equal(t, model.RiskYes, first[0].GradeRisk)

	rev := s.Revision()
	again := s.Report()
	assert.Equal(t, first, again)
	assert.Equal(t, rev, s.Revision())

	s.SetThresholds(model.DefaultThresholds())
	assert.Equal(t, rev, s.Revision(), "same thresholds keep the report")

	s.SetThresholds(model.Thresholds{MinAverage: 4, MinAttendance: 75})
	assert.NotEqual(t, rev, s.Revision())
	rows := s.Report()
	assert.Equal(t, model.RiskNo, rows[0].GradeRisk)
}

func TestEditCellMaterializesPeriod3(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.EditCell("1::Ana", "Arte", "10"))

	p3, err := s.Dataset(Period3)
	require.NoError(t, err)
	require.Len(t, p3.Records, 2)
	ana := merge.IndexByKey(p3.Records)["1::Ana"]
	assert.Equal(t, model.Number(10), ana["Arte"])
	assert.Equal(t, model.Text("ATIVO"), ana[schema.Status])

	require.NoError(t, s.EditCell("1::Ana", schema.AccumulatedAttendancePercent, "70,5"))
	require.NoError(t, s.EditCell("3::Caio", "Arte", "abc"))
	require.NoError(t, s.EditCell("3::Caio", "Arte", "  "))

	p3, err = s.Dataset(Period3)
	require.NoError(t, err)
	idx := merge.IndexByKey(p3.Records)
	assert.Equal(t, model.Number(70.5), idx["1::Ana"][schema.AccumulatedAttendancePercent])
	_, has := idx["3::Caio"]["Arte"]
	assert.False(t, has)

	rows := s.Report()
	require.NotEmpty(t, rows)
	assert.Equal(t, "Ana", rows[0].StudentName)
	require.NotNil(t, rows[0].Period3Average)
	assert.Equal(t, 10.0, *rows[0].Period3Average)
	assert.Equal(t, 70.5, *rows[0].AccumulatedAttendancePercent)
	assert.Equal(t, model.RiskYes, rows[0].AttendanceRisk)
}

func TestEditCellUnknownStudent(t *testing.T) {
	s := newSession(t)
	err := s.EditCell("9::Zeca", "Arte", "1")
	assert.ErrorIs(t, err, ErrUnknownStudent)
}

func TestSetMappingRederivesDataset(t *testing.T) {
	s := NewSession(model.DefaultThresholds(), "")
	table := tabular.ParseText("Numero,Aluno,Nota Artes,Obs\n1,Ana,7,x\n")
	require.NoError(t, s.SetDataset(Period1, table.Source))

	before, err := s.Dataset(Period1)
	require.NoError(t, err)
	assert.Contains(t, before.Headers, model.Field("Nota Artes"))

	require.NoError(t, s.SetMapping(Period1, model.HeaderMapping{
		"Nota Artes": "Arte",
		"Obs":        model.Ignore,
	}))
	after, err := s.Dataset(Period1)
	require.NoError(t, err)
	assert.Equal(t, []model.Field{schema.Number, schema.StudentName, "Arte"}, after.Headers)
	assert.Equal(t, model.Number(7), after.Records[0]["Arte"])

	m, err := s.Mapping(Period1)
	require.NoError(t, err)
	m["Obs"] = "Arte"
	again, err := s.Mapping(Period1)
	require.NoError(t, err)
	assert.Equal(t, model.Ignore, again["Obs"])

	rows := s.Report()
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Period1Average)
	assert.Equal(t, 7.0, *rows[0].Period1Average)
}

func TestMappingOverridesRecognizedHeader(t *testing.T) {
	s := NewSession(model.DefaultThresholds(), "")
	table := tabular.ParseText("Numero,Aluno,Faltas,Frequência_%\n1,Ana,3,60\n")
	require.NoError(t, s.SetDataset(Period1, table.Source))

	report := s.Report()
	require.Len(t, report, 1)
	require.NotNil(t, report[0].Period1AttendancePercent)
	assert.Equal(t, 60.0, *report[0].Period1AttendancePercent)

	require.NoError(t, s.SetMapping(Period1, model.HeaderMapping{
		"Frequência_%": schema.AccumulatedAttendancePercent,
		"Faltas":       schema.AccumulatedAbsences,
	}))
	ds, err := s.Dataset(Period1)
	require.NoError(t, err)
	assert.Equal(t, []model.Field{
		schema.Number, schema.StudentName, schema.AccumulatedAbsences, schema.AccumulatedAttendancePercent,
	}, ds.Headers)
	assert.Equal(t, model.Number(3), ds.Records[0][schema.AccumulatedAbsences])

	report = s.Report()
	require.Len(t, report, 1)
	assert.Nil(t, report[0].Period1AttendancePercent)
	assert.Equal(t, model.RiskUnset, report[0].AttendanceRisk)
}

func TestMappingIgnoresRecognizedHeader(t *testing.T) {
	s := NewSession(model.DefaultThresholds(), "")
	require.NoError(t, s.SetMapping(Period1, model.HeaderMapping{"numero": model.Ignore}))
	table := tabular.ParseText("Numero,Aluno,Arte\n1,Ana,7\n")
	require.NoError(t, s.SetDataset(Period1, table.Source))

	ds, err := s.Dataset(Period1)
	require.NoError(t, err)
	assert.Equal(t, []model.Field{schema.StudentName, "Arte"}, ds.Headers)
	_, ok := ds.Records[0][schema.Number]
	assert.False(t, ok)
}

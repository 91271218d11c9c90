package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/schema"
)

func sampleMatrix() Matrix {
	return Matrix{
		{"ESCOLA ESTADUAL EXEMPLO"},
		{"Turma: 1A", "", "Bimestre: 1"},
		{},
		{"Nº", "Aluno", "Situação", "Arte", "Matemática", "Frequência %"},
		{1.0, "Ana Lima", "ATIVO", 8.0, "6,5", 90.0},
		{"", "", "", "", "", ""},
		{2.0, "Bruno Reis", "TRANSFERIDO", nil, 4.0, "70"},
	}
}

func TestDetectHeaderRowPicksBestScore(t *testing.T) {
	assert.Equal(t, 3, DetectHeaderRow(sampleMatrix(), DefaultScanRows))
}

func TestDetectHeaderRowTieKeepsEarliest(t *testing.T) {
	m := Matrix{
		{"a", "b"},
		{"Aluno"},
		{"Numero"},
	}
	// Every row scores 2.
	assert.Equal(t, 0, DetectHeaderRow(m, 0))
}

func TestDetectHeaderRowRespectsLimit(t *testing.T) {
	m := Matrix{
		{"titulo"},
		{"x"},
		{"Numero", "Aluno", "Arte"},
	}
	assert.Equal(t, 0, DetectHeaderRow(m, 2))
	assert.Equal(t, 2, DetectHeaderRow(m, 3))
}

func TestDetectHeaderRowEmptyMatrix(t *testing.T) {
	assert.Equal(t, 0, DetectHeaderRow(nil, 20))
}

func TestParseMatrixDetectsAndShapes(t *testing.T) {
	table := ParseMatrix(sampleMatrix(), -1, DefaultScanRows)

	assert.Equal(t, 3, table.HeaderRow)
	require.Len(t, table.Dataset.Records, 2, "blank row is skipped")

	ana := table.Dataset.Records[0]
	assert.Equal(t, model.Number(1), ana[schema.Number])
	assert.Equal(t, model.Number(8), ana["Arte"])
	assert.Equal(t, model.Number(6.5), ana["Matematica"])
	assert.Equal(t, model.Number(90), ana[schema.AttendancePercent])

	bruno := table.Dataset.Records[1]
	_, hasArte := bruno["Arte"]
	assert.False(t, hasArte)
	assert.Equal(t, model.Number(70), bruno[schema.AttendancePercent])
	assert.Equal(t, model.Text("TRANSFERIDO"), bruno[schema.Status])
}

func TestParseMatrixExplicitHeaderRow(t *testing.T) {
	m := Matrix{
		{"Numero", "Aluno"},
		{"Codigo", "Estudante"},
		{"7", "Carla"},
	}
	table := ParseMatrix(m, 1, DefaultScanRows)
	require.Len(t, table.Dataset.Records, 1)
	assert.Equal(t, []model.Field{"Codigo", "Estudante"}, table.Dataset.Headers)
	assert.Equal(t, model.Text("Carla"), table.Dataset.Records[0]["Estudante"])
}

func TestParseMatrixHeaderRowOutOfRange(t *testing.T) {
	table := ParseMatrix(Matrix{{"Numero"}}, 5, DefaultScanRows)
	assert.Empty(t, table.Dataset.Records)
}

func TestParseMatrixShortRows(t *testing.T) {
	m := Matrix{
		{"Numero", "Aluno", "Arte"},
		{"1"},
	}
	table := ParseMatrix(m, 0, 0)
	require.Len(t, table.Dataset.Records, 1)
	assert.Len(t, table.Dataset.Records[0], 1)
}

package situation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/schema"
)

func TestIsExcluded(t *testing.T) {
	excluded := []string{
		"TRANSFERIDO",
		"Transferida",
		"Transferência recebida",
		"NÃO COMPARECIMENTO",
		"nao compareceu",
		"NAO_COMPARECEU",
		"Remanejado",
		"REMANEJADA",
		"Baixa - Transferência",
	}
	for _, s := range excluded {
		assert.True(t, IsExcluded(model.Text(s)), "status %q", s)
	}

	kept := []string{"ATIVO", "Matriculado", "", "   ", "Reclassificado", "Baixa"}
	for _, s := range kept {
		assert.False(t, IsExcluded(model.Text(s)), "status %q", s)
	}
	assert.False(t, IsExcluded(model.Value{}))
	assert.False(t, IsExcluded(model.Number(3)))
}

func TestVisible(t *testing.T) {
	records := []model.Record{
		{schema.StudentName: model.Text("Ana"), schema.Status: model.Text("ATIVO")},
		{schema.StudentName: model.Text("Bia"), schema.Status: model.Text("TRANSFERIDA")},
		{schema.StudentName: model.Text("Caio")},
	}
	got := Visible(records)
	assert.Len(t, got, 2)
	assert.Equal(t, model.Text("Caio"), got[1][schema.StudentName])
	assert.Len(t, records, 3)
}

// Package schema canonicalizes free-form column headers into the fixed
// student record schema.
package schema

import "github.com/verte-zerg/conselho/internal/model"

// Identification and attendance fields.
const (
	Number                       model.Field = "Number"
	StudentName                  model.Field = "StudentName"
	Status                       model.Field = "Status"
	Absences                     model.Field = "Absences"
	AttendancePercent            model.Field = "AttendancePercent"
	AccumulatedAbsences          model.Field = "AccumulatedAbsences"
	AccumulatedAttendancePercent model.Field = "AccumulatedAttendancePercent"
)

// Subjects is the closed list of graded subjects, in display order.
var Subjects = []model.Field{
	"Arte",
	"Biologia",
	"Educacao Financeira",
	"Filosofia",
	"Fisica",
	"Geografia",
	"Historia",
	"Lingua Inglesa",
	"Lingua Portuguesa",
	"Matematica",
	"Quimica",
	"Redacao e Leitura",
}

// Fields lists every canonical field: identification, attendance, subjects.
var Fields = append([]model.Field{
	Number,
	StudentName,
	Status,
	Absences,
	AttendancePercent,
	AccumulatedAbsences,
	AccumulatedAttendancePercent,
}, Subjects...)

// known spellings, keyed by normalized header text.
var dictionary = map[string]model.Field{
	"n":      Number,
	"no":     Number,
	"nº":     Number,
	"numero": Number,

	"aluno":    StudentName,
	"aluno(a)": StudentName,
	"nome":     StudentName,

	"sit":      Status,
	"situacao": Status,

	"faltas":            Absences,
	"faltas acumuladas": AccumulatedAbsences,
	"faltas_acumuladas": AccumulatedAbsences,

	"frequencia_%": AttendancePercent,
	"freq_%":       AttendancePercent,
	"frequencia":   AttendancePercent,
	"frequencia %": AttendancePercent,

	"frequencia_%_acumulada": AccumulatedAttendancePercent,
	"frequencia acumulada":   AccumulatedAttendancePercent,

	"lingua portuguesa":   "Lingua Portuguesa",
	"portugues":           "Lingua Portuguesa",
	"lingua inglesa":      "Lingua Inglesa",
	"ingles":              "Lingua Inglesa",
	"educacao financeira": "Educacao Financeira",
	"redacao e leitura":   "Redacao e Leitura",
	"matematica":          "Matematica",
	"fisica":              "Fisica",
	"historia":            "Historia",
	"geografia":           "Geografia",
	"quimica":             "Quimica",
	"filosofia":           "Filosofia",
	"biologia":            "Biologia",
	"arte":                "Arte",
}

var (
	canonicalSet = map[model.Field]struct{}{}
	subjectSet   = map[model.Field]struct{}{}
)

func init() {
	for _, f := range Fields {
		canonicalSet[f] = struct{}{}
		// Canonical identifiers resolve to themselves so re-canonicalizing an
		// already shaped record is a no-op.
		key := Normalize(string(f))
		if _, ok := dictionary[key]; !ok {
			dictionary[key] = f
		}
	}
	for _, f := range Subjects {
		subjectSet[f] = struct{}{}
	}
}

// IsCanonical reports whether f is one of the schema fields.
func IsCanonical(f model.Field) bool {
	_, ok := canonicalSet[f]
	return ok
}

// IsSubject reports whether f is a graded subject.
func IsSubject(f model.Field) bool {
	_, ok := subjectSet[f]
	return ok
}

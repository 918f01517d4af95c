package phi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varalys/clinprep/internal/table"
)

func TestRedact(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"no markers", "Pt stable, continue current regimen.", "Pt stable, continue current regimen."},
		{"two markers", "Patient [**John Doe**] visited on [**2024-01-01**]", "Patient @@PHI@@ visited on @@PHI@@"},
		{"single asterisk", "[*not a match*]", "[*not a match*]"},
		{"adjacent", "[**A**][**B**]", "@@PHI@@@@PHI@@"},
		{"case sensitive body", "[**Hospital1 18**] f/u", "@@PHI@@ f/u"},
		{"empty body", "[****]", "[****]"},
		{"unterminated", "seen by [**Dr. X on", "seen by [**Dr. X on"},
		{"bracket inside", "[**a]b**]", "[**a]b**]"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Redact(tc.in))
		})
	}
}

func TestCount(t *testing.T) {
	assert.Equal(t, 0, Count("nothing here"))
	assert.Equal(t, 3, Count("[**a**] [**b**] and [**c**]"))
}

func notes(t *testing.T) *table.Table {
	t.Helper()
	tb := table.New("id", AssessmentColumn, PlanColumn)
	require.NoError(t, tb.Append(table.Text("1"), table.Text("Patient [**John Doe**] visited on [**2024-01-01**]"), table.Text("f/u [**Hospital 1**]")))
	require.NoError(t, tb.Append(table.Text("2"), table.Text("no phi"), table.Null()))
	require.NoError(t, tb.Append(table.Text("3"), table.Null(), table.Text("[*not a match*]")))
	return tb
}

func TestReplaceEntities(t *testing.T) {
	in := notes(t)
	before := in.Clone()

	out, err := ReplaceEntities(in)
	require.NoError(t, err)

	assert.Equal(t, before, in, "input table must not change")
	assert.Equal(t, in.Len(), out.Len())
	assert.Equal(t, []string{"id", AssessmentColumn, PlanColumn, AssessmentClean, PlanClean}, out.Columns)

	ac, err := out.Column(AssessmentClean)
	require.NoError(t, err)
	pc, err := out.Column(PlanClean)
	require.NoError(t, err)

	assert.Equal(t, table.Text("Patient @@PHI@@ visited on @@PHI@@"), ac[0])
	assert.Equal(t, table.Text("no phi"), ac[1])
	assert.False(t, ac[2].Valid, "null propagates")

	assert.Equal(t, table.Text("f/u @@PHI@@"), pc[0])
	assert.False(t, pc[1].Valid)
	assert.Equal(t, table.Text("[*not a match*]"), pc[2])

	// originals are carried through untouched
	orig, _ := out.Column(AssessmentColumn)
	want, _ := in.Column(AssessmentColumn)
	assert.Equal(t, want, orig)
}

func TestReplaceEntities_MissingColumn(t *testing.T) {
	tb := table.New("Assessment")
	_, err := ReplaceEntities(tb)
	require.Error(t, err)
	assert.True(t, errors.Is(err, table.ErrNoColumn))
}

func TestRedactor_Stats(t *testing.T) {
	_, stats, err := Default().Apply(notes(t))
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, ColumnStats{Source: AssessmentColumn, Target: AssessmentClean, Rows: 3, Nulls: 1, Changed: 1, Markers: 2}, stats[0])
	assert.Equal(t, ColumnStats{Source: PlanColumn, Target: PlanClean, Rows: 3, Nulls: 1, Changed: 1, Markers: 1}, stats[1])
}

func TestRedactor_CustomReplacementAndMapping(t *testing.T) {
	r := &Redactor{Mappings: []Mapping{{Source: "note", Target: "note"}}, Replacement: "<phi>"}
	tb := table.New("note")
	require.NoError(t, tb.Append(table.Text("seen at [**Hospital**]")))
	out, _, err := r.Apply(tb)
	require.NoError(t, err)
	assert.Equal(t, []string{"note"}, out.Columns)
	assert.Equal(t, "seen at <phi>", out.Rows[0][0].Value)
	assert.Equal(t, "seen at [**Hospital**]", tb.Rows[0][0].Value)
}

// Package phi replaces de-identification markers of the form [**...**] in
// clinical note text with a fixed placeholder token.
package phi

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/varalys/clinprep/internal/table"
)

// Token replaces every PHI marker.
const Token = "@@PHI@@"

// Pattern matches a double-asterisk bracketed marker. The body may not
// contain ']', so matches never span two markers.
var Pattern = regexp.MustCompile(`\[\*\*[^\]]+\*\*\]`)

// Default source and derived column names.
const (
	AssessmentColumn = "Assessment"
	PlanColumn       = "Plan Subsection"
	AssessmentClean  = "assessment_clean"
	PlanClean        = "plan_clean"
)

// Redact replaces every marker in s with Token, left to right.
func Redact(s string) string {
	return Pattern.ReplaceAllLiteralString(s, Token)
}

// Count returns the number of markers in s.
func Count(s string) int {
	return len(Pattern.FindAllStringIndex(s, -1))
}

// ReplaceEntities returns a copy of t with "assessment_clean" and
// "plan_clean" derived from "Assessment" and "Plan Subsection". Null cells
// stay null. The input table is not modified.
func ReplaceEntities(t *table.Table) (*table.Table, error) {
	out, _, err := Default().Apply(t)
	return out, err
}

// Mapping pairs a source column with the column its redacted text goes to.
type Mapping struct {
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`
}

// ColumnStats summarizes one mapping over a table.
type ColumnStats struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Rows    int    `json:"rows"`
	Nulls   int    `json:"nulls"`
	Changed int    `json:"changed"`
	Markers int    `json:"markers"`
}

// Redactor applies the marker pattern to a configurable set of columns.
type Redactor struct {
	Mappings    []Mapping
	Replacement string
	Logger      *zap.Logger
}

// Default is the Assessment/Plan Subsection redactor.
func Default() *Redactor {
	return &Redactor{
		Mappings: []Mapping{
			{Source: AssessmentColumn, Target: AssessmentClean},
			{Source: PlanColumn, Target: PlanClean},
		},
		Replacement: Token,
	}
}

// Apply derives every mapped column and returns the new table with per-column
// stats. A missing source column is an error.
func (r *Redactor) Apply(t *table.Table) (*table.Table, []ColumnStats, error) {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	repl := r.Replacement
	if repl == "" {
		repl = Token
	}
	out := t
	stats := make([]ColumnStats, 0, len(r.Mappings))
	for _, m := range r.Mappings {
		// Read from the input so a target that shadows another mapping's
		// source still sees the original text.
		src, err := t.Column(m.Source)
		if err != nil {
			return nil, nil, err
		}
		st := ColumnStats{Source: m.Source, Target: m.Target, Rows: len(src)}
		dst := make([]table.Cell, len(src))
		for i, c := range src {
			if !c.Valid {
				st.Nulls++
				dst[i] = table.Null()
				continue
			}
			n := Count(c.Value)
			if n > 0 {
				st.Markers += n
				st.Changed++
				dst[i] = table.Text(Pattern.ReplaceAllLiteralString(c.Value, repl))
				continue
			}
			dst[i] = c
		}
		if out, err = out.WithColumn(m.Target, dst); err != nil {
			return nil, nil, err
		}
		log.Debug("redacted column",
			zap.String("source", m.Source),
			zap.String("target", m.Target),
			zap.Int("rows", st.Rows),
			zap.Int("markers", st.Markers))
		stats = append(stats, st)
	}
	if out == t {
		out = t.Clone()
	}
	return out, stats, nil
}

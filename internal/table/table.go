// Package table is a minimal column-named text table with nullable cells,
// enough to carry clinical note exports through redaction and embedding.
package table

import (
	"github.com/pkg/errors"
)

// ErrNoColumn is returned when a named column is absent.
var ErrNoColumn = errors.New("table: no such column")

// Cell is a nullable text value.
type Cell struct {
	Value string
	Valid bool
}

// Text returns a non-null cell.
func Text(s string) Cell { return Cell{Value: s, Valid: true} }

// Null returns a null cell.
func Null() Cell { return Cell{} }

// Table is an ordered set of rows sharing one header.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// New builds an empty table with the given header.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Append adds a row. The row must have one cell per column.
func (t *Table) Append(row ...Cell) error {
	if len(row) != len(t.Columns) {
		return errors.Errorf("table: row has %d cells, header has %d", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, append([]Cell(nil), row...))
	return nil
}

// Len is the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of column name.
func (t *Table) Index(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Column returns a copy of the cells in column name.
func (t *Table) Column(name string) ([]Cell, error) {
	i, ok := t.Index(name)
	if !ok {
		return nil, errors.Wrapf(ErrNoColumn, "%q", name)
	}
	out := make([]Cell, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{Columns: append([]string(nil), t.Columns...), Rows: make([][]Cell, len(t.Rows))}
	for i, row := range t.Rows {
		c.Rows[i] = append([]Cell(nil), row...)
	}
	return c
}

// WithColumn returns a copy of t with column name set to cells. An existing
// column of that name is replaced in place; otherwise the column is appended.
// The receiver is not modified.
func (t *Table) WithColumn(name string, cells []Cell) (*Table, error) {
	if len(cells) != len(t.Rows) {
		return nil, errors.Errorf("table: column %q has %d cells, table has %d rows", name, len(cells), len(t.Rows))
	}
	c := t.Clone()
	i, ok := c.Index(name)
	if !ok {
		c.Columns = append(c.Columns, name)
		for r := range c.Rows {
			c.Rows[r] = append(c.Rows[r], cells[r])
		}
		return c, nil
	}
	for r := range c.Rows {
		c.Rows[r][i] = cells[r]
	}
	return c, nil
}

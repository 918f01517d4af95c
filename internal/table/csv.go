package table

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// ReadCSV parses a CSV document whose first record is the header. Empty
// fields are read as null.
func ReadCSV(r io.Reader) (*Table, error) {
	recs, err := gocsv.DefaultCSVReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("table: csv has no header")
	}
	t := New(recs[0]...)
	for _, rec := range recs[1:] {
		row := make([]Cell, len(rec))
		for i, v := range rec {
			if v == "" {
				row[i] = Null()
				continue
			}
			row[i] = Text(v)
		}
		if err := t.Append(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteCSV writes the header followed by every row. Null cells are written
// as empty fields.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := gocsv.DefaultCSVWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, c := range row {
			rec[i] = c.Value
			if !c.Valid {
				rec[i] = ""
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

package embed

import (
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/mat"
)

// WriteCSV writes m with a header of dim_0..dim_{c-1}, one example per line.
// When ids is non-nil it must have one entry per row and is written as a
// leading "id" column.
func WriteCSV(w io.Writer, m *mat.Dense, ids []string) error {
	cw := gocsv.DefaultCSVWriter(w)
	r, c := 0, 0
	if m != nil {
		r, c = m.Dims()
	}
	header := make([]string, 0, c+1)
	if ids != nil {
		header = append(header, "id")
	}
	for j := 0; j < c; j++ {
		header = append(header, "dim_"+strconv.Itoa(j))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for i := 0; i < r; i++ {
		off := 0
		if ids != nil {
			rec[0] = ids[i]
			off = 1
		}
		for j := 0; j < c; j++ {
			rec[off+j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

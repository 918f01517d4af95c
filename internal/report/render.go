package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/varalys/clinprep/internal/audit"
	"github.com/varalys/clinprep/internal/phi"
)

// PrintOptions controls the footer of text reports.
type PrintOptions struct {
	Duration time.Duration
}

// PrintRedaction renders per-file and per-column redaction results.
func PrintRedaction(w io.Writer, files []audit.FileSummary, columns []phi.ColumnStats, opts PrintOptions) error {
	if len(files) == 0 {
		fmt.Fprintln(w, "No input files matched")
	} else {
		t := tablewriter.NewWriter(w)
		t.Header("FILE", "OUTPUT", "ROWS", "MARKERS", "CACHED")
		for _, f := range files {
			cached := ""
			if f.Cached {
				cached = "yes"
			}
			if err := t.Append([]string{f.Path, f.Output, strconv.Itoa(f.Rows), strconv.Itoa(f.Markers), cached}); err != nil {
				return err
			}
		}
		if err := t.Render(); err != nil {
			return err
		}
	}
	if len(columns) > 0 {
		t := tablewriter.NewWriter(w)
		t.Header("SOURCE", "TARGET", "ROWS", "NULLS", "CHANGED", "MARKERS")
		for _, c := range columns {
			row := []string{c.Source, c.Target, strconv.Itoa(c.Rows), strconv.Itoa(c.Nulls), strconv.Itoa(c.Changed), strconv.Itoa(c.Markers)}
			if err := t.Append(row); err != nil {
				return err
			}
		}
		if err := t.Render(); err != nil {
			return err
		}
	}
	rows, markers := 0, 0
	for _, f := range files {
		rows += f.Rows
		markers += f.Markers
	}
	fmt.Fprintf(w, "Rows: %d  PHI markers replaced: %d\n", rows, markers)
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Duration: %.2fs\n", opts.Duration.Seconds())
	}
	return nil
}

// SeedDraws holds the first draws of each random source for display.
type SeedDraws struct {
	Seed    int64                `json:"seed"`
	Sources map[string][]float64 `json:"sources"`
	Order   []string             `json:"-"`
}

// PrintSeed renders one row per source.
func PrintSeed(w io.Writer, d SeedDraws) error {
	fmt.Fprintf(w, "Seed: %d\n", d.Seed)
	t := tablewriter.NewWriter(w)
	t.Header("SOURCE", "DRAWS")
	for _, name := range d.Order {
		s := ""
		for i, v := range d.Sources[name] {
			if i > 0 {
				s += " "
			}
			s += strconv.FormatFloat(v, 'f', 6, 64)
		}
		if err := t.Append([]string{name, s}); err != nil {
			return err
		}
	}
	return t.Render()
}

// PrintMatrix renders an embedding run summary.
func PrintMatrix(w io.Writer, m audit.MatrixSummary, out string, opts PrintOptions) error {
	t := tablewriter.NewWriter(w)
	t.Header("ROWS", "COLS", "DEVICE", "OUTPUT")
	if err := t.Append([]string{strconv.Itoa(m.Rows), strconv.Itoa(m.Cols), m.Device, out}); err != nil {
		return err
	}
	if err := t.Render(); err != nil {
		return err
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Duration: %.2fs\n", opts.Duration.Seconds())
	}
	return nil
}

// JSON pretty-prints v for pipelines.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintHistory renders audit records, one row per run.
func PrintHistory(w io.Writer, recs []audit.RunRecord) error {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	t := tablewriter.NewWriter(w)
	t.Header("TIME", "COMMAND", "SEED", "INPUTS", "ROWS", "MARKERS", "DURATION")
	for _, r := range recs {
		row := []string{
			r.Timestamp.Format(time.RFC3339),
			r.Command,
			strconv.FormatInt(r.Seed, 10),
			strconv.Itoa(len(r.Inputs)),
			strconv.Itoa(r.Rows),
			strconv.Itoa(r.Markers),
			r.Duration,
		}
		if err := t.Append(row); err != nil {
			return err
		}
	}
	return t.Render()
}

package clinprep

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varalys/clinprep/internal/audit"
	"github.com/varalys/clinprep/internal/cache"
	"github.com/varalys/clinprep/internal/files"
	"github.com/varalys/clinprep/internal/ignore"
	"github.com/varalys/clinprep/internal/phi"
	"github.com/varalys/clinprep/internal/report"
	"github.com/varalys/clinprep/internal/table"
)

const cleanSuffix = ".clean.csv"

var (
	flagOut       string
	flagToken     string
	flagNoCache   bool
	flagDryRun    bool
	flagGitignore bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "redact <csv|glob>...",
		Short: "Replace [**...**] PHI markers in note CSVs",
		Long: `Reads each CSV, writes <name>.clean.csv with "assessment_clean" and "plan_clean"
columns derived from "Assessment" and "Plan Subsection" (or the columns set in
config), and prints a summary. Globs support ** (e.g. "exports/**/*.csv").`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRedact,
	}
	rootCmd.AddCommand(cmd)
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "output directory (default: next to each input)")
	cmd.Flags().StringVar(&flagToken, "token", "", "replacement token (default @@PHI@@)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "reprocess inputs even if unchanged")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "list inputs and outputs without writing")
	cmd.Flags().BoolVar(&flagGitignore, "gitignore", false, "add generated outputs and state files to .gitignore in the working directory")
}

// expandInputs resolves globs and drops our own outputs and anything the
// ignore matcher excludes. Order follows args, then lexical order within a glob.
func expandInputs(args []string, ign *ignore.Matcher) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, a := range args {
		matches := []string{a}
		if strings.ContainsAny(a, "*?[{") {
			m, err := doublestar.FilepathGlob(a)
			if err != nil {
				return nil, errors.Wrapf(err, "bad glob %q", a)
			}
			matches = m
		}
		for _, p := range matches {
			if strings.HasSuffix(p, cleanSuffix) || seen[p] {
				continue
			}
			if ign.Match(p) {
				logger.Debug("ignored input", zap.String("path", p))
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func outputPath(in, dir string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + cleanSuffix
	if dir == "" {
		dir = filepath.Dir(in)
	}
	return filepath.Join(dir, base)
}

func runRedact(cmd *cobra.Command, args []string) error {
	start := time.Now()
	var ign *ignore.Matcher
	if m, err := ignore.Load(ignore.FileName); err == nil {
		ign = m
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, "read "+ignore.FileName)
	}
	inputs, err := expandInputs(args, ign)
	if err != nil {
		return err
	}
	r := redactor(flagToken)
	settings := fmt.Sprintf("%v|%s", r.Mappings, r.Replacement)

	stateDir := flagOut
	if stateDir == "" {
		stateDir, _ = os.Getwd()
	}
	if flagOut != "" && !flagDryRun {
		if err := os.MkdirAll(flagOut, 0o755); err != nil {
			return err
		}
	}

	useCache := !pickBool(cmd, "no-cache", flagNoCache, fileCfg.NoCache)
	db, _ := cache.Load(stateDir)

	summaries := []audit.FileSummary{}
	colTotals := map[string]*phi.ColumnStats{}
	var colOrder []string
	for _, in := range inputs {
		outPath := outputPath(in, flagOut)
		if flagDryRun {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s\n", in, outPath)
			summaries = append(summaries, audit.FileSummary{Path: in, Output: outPath})
			continue
		}
		raw, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		key := cache.Key(raw, settings)
		abs, _ := filepath.Abs(in)
		if useCache && db.Fresh(abs, key) {
			if _, err := os.Stat(outPath); err == nil {
				logger.Debug("skipping unchanged input", zap.String("path", in))
				summaries = append(summaries, audit.FileSummary{Path: in, Output: outPath, Cached: true})
				continue
			}
		}

		t, err := table.ReadCSV(bytes.NewReader(raw))
		if err != nil {
			return errors.Wrapf(err, "read %s", in)
		}
		clean, stats, err := r.Apply(t)
		if err != nil {
			return errors.Wrapf(err, "redact %s", in)
		}
		var buf bytes.Buffer
		if err := clean.WriteCSV(&buf); err != nil {
			return err
		}
		if err := os.WriteFile(outPath, buf.Bytes(), 0o600); err != nil {
			return err
		}

		fs := audit.FileSummary{Path: in, Output: outPath, Rows: clean.Len()}
		for _, st := range stats {
			fs.Markers += st.Markers
			k := st.Source + "\x00" + st.Target
			tot, ok := colTotals[k]
			if !ok {
				tot = &phi.ColumnStats{Source: st.Source, Target: st.Target}
				colTotals[k] = tot
				colOrder = append(colOrder, k)
			}
			tot.Rows += st.Rows
			tot.Nulls += st.Nulls
			tot.Changed += st.Changed
			tot.Markers += st.Markers
		}
		summaries = append(summaries, fs)
		db.Record(abs, key)
		logger.Info("redacted file", zap.String("input", in), zap.String("output", outPath), zap.Int("rows", fs.Rows), zap.Int("markers", fs.Markers))
	}

	columns := make([]phi.ColumnStats, 0, len(colOrder))
	for _, k := range colOrder {
		columns = append(columns, *colTotals[k])
	}
	elapsed := time.Since(start)

	if !flagDryRun {
		if flagGitignore {
			wd, _ := os.Getwd()
			for _, pat := range files.GeneratedIgnores() {
				if err := files.AppendIgnore(wd, pat); err != nil {
					logger.Warn("could not update .gitignore", zap.Error(err))
				}
			}
		}
		if useCache {
			if err := cache.Save(stateDir, db); err != nil {
				logger.Warn("could not save cache", zap.Error(err))
			}
		}
		if resolveAudit(cmd) {
			if err := audit.NewLog(stateDir).Append(audit.RedactRecord(resolveSeed(cmd), summaries, columns, elapsed)); err != nil {
				logger.Warn("could not write audit log", zap.Error(err))
			}
		}
	}

	if flagJSON {
		return report.JSON(cmd.OutOrStdout(), map[string]any{"files": summaries, "columns": columns})
	}
	return report.PrintRedaction(cmd.OutOrStdout(), summaries, columns, report.PrintOptions{Duration: elapsed})
}

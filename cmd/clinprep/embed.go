package clinprep

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varalys/clinprep/internal/audit"
	"github.com/varalys/clinprep/internal/embed"
	"github.com/varalys/clinprep/internal/encoder"
	"github.com/varalys/clinprep/internal/phi"
	"github.com/varalys/clinprep/internal/report"
	"github.com/varalys/clinprep/internal/seed"
	"github.com/varalys/clinprep/internal/table"
	"github.com/varalys/clinprep/internal/tokenize"
)

var (
	flagColumn    string
	flagIDColumn  string
	flagBatchSize int
	flagEmbedOut  string
	flagRedact    bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "embed <csv>",
		Short: "Extract CLS embeddings for a text column",
		Long: `Tokenizes one text column, runs the seeded reference encoder over it in
evaluation mode, and writes one CLS vector per row as CSV. Null cells are
encoded as empty text so row order is preserved.`,
		Args: cobra.ExactArgs(1),
		RunE: runEmbed,
	}
	rootCmd.AddCommand(cmd)
	cmd.Flags().StringVar(&flagColumn, "column", phi.AssessmentClean, "text column to embed")
	cmd.Flags().StringVar(&flagIDColumn, "id-column", "", "column copied into the output as \"id\"")
	cmd.Flags().IntVar(&flagBatchSize, "batch-size", 32, "examples per batch")
	cmd.Flags().StringVarP(&flagEmbedOut, "out", "o", "", "output CSV (required)")
	cmd.Flags().BoolVar(&flagRedact, "redact", false, "apply PHI redaction before embedding")
	_ = cmd.MarkFlagRequired("out")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	start := time.Now()
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	t, err := table.ReadCSV(f)
	f.Close()
	if err != nil {
		return errors.Wrapf(err, "read %s", args[0])
	}
	if flagRedact {
		if t, _, err = redactor("").Apply(t); err != nil {
			return err
		}
	}
	cells, err := t.Column(flagColumn)
	if err != nil {
		return err
	}
	texts := make([]string, len(cells))
	for i, c := range cells {
		texts[i] = c.Value
	}
	var ids []string
	if flagIDColumn != "" {
		idCells, err := t.Column(flagIDColumn)
		if err != nil {
			return err
		}
		ids = make([]string, len(idCells))
		for i, c := range idCells {
			ids[i] = c.Value
		}
	}

	s := resolveSeed(cmd)
	dev, err := resolveDevice(cmd)
	if err != nil {
		return err
	}
	batchSize := pickInt(cmd, "batch-size", flagBatchSize, fileCfg.BatchSize)

	gens := seed.New(s, dev)
	ecfg := encoderConfig()
	model, err := encoder.NewBERT(ecfg, gens)
	if err != nil {
		return err
	}
	model.To(dev)
	tk, err := tokenize.New(ecfg.VocabSize, ecfg.MaxLen)
	if err != nil {
		return err
	}
	ds, err := tk.Dataset(texts, batchSize)
	if err != nil {
		return err
	}
	logger.Debug("tokenized column",
		zap.String("column", flagColumn),
		zap.Int("batches", ds.Len()),
		zap.Int("examples", ds.Examples()))

	ex := &embed.Extractor{Logger: logger}
	cls, err := ex.Extract(context.Background(), model, ds, dev)
	if err != nil {
		return err
	}

	out, err := os.OpenFile(flagEmbedOut, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := embed.WriteCSV(out, cls, ids); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	sum := audit.MatrixSummary{Device: string(dev)}
	if cls != nil {
		sum.Rows, sum.Cols = cls.Dims()
	}
	elapsed := time.Since(start)
	logger.Info("wrote embeddings", zap.String("output", flagEmbedOut), zap.Int("rows", sum.Rows), zap.Int("cols", sum.Cols))

	if resolveAudit(cmd) {
		wd, _ := os.Getwd()
		rec := audit.RunRecord{
			Command:   "embed",
			Seed:      s,
			Inputs:    []audit.FileSummary{{Path: args[0], Output: flagEmbedOut, Rows: t.Len()}},
			Rows:      t.Len(),
			Embedding: &sum,
			Duration:  elapsed.String(),
		}
		if err := audit.NewLog(wd).Append(rec); err != nil {
			logger.Warn("could not write audit log", zap.Error(err))
		}
	}

	if flagJSON {
		return report.JSON(cmd.OutOrStdout(), map[string]any{"embedding": sum, "output": flagEmbedOut, "seed": s})
	}
	if err := report.PrintMatrix(cmd.OutOrStdout(), sum, flagEmbedOut, report.PrintOptions{Duration: elapsed}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seed: %d\n", s)
	return nil
}

package clinprep

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/varalys/clinprep/internal/audit"
	"github.com/varalys/clinprep/internal/report"
)

var (
	flagHistoryDir   string
	flagHistoryLimit int
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs from the audit log",
		Long:  "Lists runs recorded in .clinprep_audit.jsonl, newest first. Redact runs write the log next to their outputs (--out) and embed runs in the working directory.",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	rootCmd.AddCommand(cmd)
	cmd.Flags().StringVar(&flagHistoryDir, "dir", "", "directory holding the audit log (default: working directory)")
	cmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "most recent runs to show (0 for all)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	dir := flagHistoryDir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	log := audit.NewLog(dir)
	recs, err := log.LoadHistory()
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			recs = nil
		} else {
			return err
		}
	}
	if flagHistoryLimit > 0 && len(recs) > flagHistoryLimit {
		recs = recs[:flagHistoryLimit]
	}
	if flagJSON {
		if recs == nil {
			recs = []audit.RunRecord{}
		}
		return report.JSON(cmd.OutOrStdout(), recs)
	}
	return report.PrintHistory(cmd.OutOrStdout(), recs)
}

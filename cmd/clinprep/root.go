package clinprep

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varalys/clinprep/internal/config"
	"github.com/varalys/clinprep/internal/logging"
)

var (
	flagJSON    bool
	flagVerbose bool
	flagSeed    int64
	flagDevice  string
	flagConfig  string
	flagNoAudit bool

	version = "0.1.0"

	// set by PersistentPreRunE
	logger  = zap.NewNop()
	fileCfg config.FileConfig
)

// rootCmd is the base Cobra command for the clinprep CLI.
var rootCmd = &cobra.Command{
	Use:               "clinprep",
	Short:             "Prepare clinical notes for NLP pipelines",
	Long:              "clinprep redacts PHI markers in note exports, extracts encoder CLS embeddings, and checks seeded reproducibility.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the clinprep CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging to stderr")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 42, "seed for every random source")
	rootCmd.PersistentFlags().StringVar(&flagDevice, "device", "cpu", "compute device: cpu | cuda[:N]")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "explicit YAML config file (skips global/local lookup)")
	rootCmd.PersistentFlags().BoolVar(&flagNoAudit, "no-audit", false, "do not append to the run audit log")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the clinprep version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "clinprep", version)
		},
	})
}

func setup(cmd *cobra.Command, _ []string) error {
	logger = logging.NewWithWriters(cmd.ErrOrStderr(), cmd.ErrOrStderr(), flagVerbose)

	// Load configs: explicit file, or global < local < env
	if flagConfig != "" {
		c, err := config.LoadFile(flagConfig)
		if err != nil {
			return errors.Wrap(err, "load config")
		}
		env, err := config.LoadEnv(filepath.Dir(flagConfig))
		if err != nil {
			return err
		}
		fileCfg = config.Merge(c, env)
		return nil
	}
	wd, _ := os.Getwd()
	c, err := config.Resolve(wd)
	if err != nil {
		return err
	}
	fileCfg = c
	return nil
}

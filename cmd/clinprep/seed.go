package clinprep

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varalys/clinprep/internal/report"
	"github.com/varalys/clinprep/internal/seed"
)

var flagDraws int

func init() {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed every random source and print the first draws",
		Long:  "Seeds the general, array, tensor and accelerator sources and prints their first draws, so two runs can be compared for reproducibility.",
		Args:  cobra.NoArgs,
		RunE:  runSeed,
	}
	rootCmd.AddCommand(cmd)
	cmd.Flags().IntVar(&flagDraws, "draws", 3, "draws to print per source")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if flagDraws < 0 {
		return errors.New("--draws must not be negative")
	}
	s := resolveSeed(cmd)
	dev, err := resolveDevice(cmd)
	if err != nil {
		return err
	}
	gens := seed.New(s, dev)
	logger.Debug("seeded generators", zap.Int64("seed", gens.Value()), zap.String("device", string(dev)))

	d := report.SeedDraws{Seed: s, Sources: map[string][]float64{}}
	add := func(name string, next func() float64) {
		d.Order = append(d.Order, name)
		vals := make([]float64, 0, flagDraws)
		for i := 0; i < flagDraws; i++ {
			vals = append(vals, next())
		}
		d.Sources[name] = vals
	}
	norm := gens.Normal(0, 1)
	add("general", gens.General.Float64)
	add("array", norm.Rand)
	add("tensor", gens.Tensor.Float64)
	for _, dv := range gens.Devices() {
		add(string(dv), gens.Device(dv).Float64)
	}

	if flagJSON {
		return report.JSON(cmd.OutOrStdout(), d)
	}
	return report.PrintSeed(cmd.OutOrStdout(), d)
}

package clinprep

import (
	"github.com/spf13/cobra"

	"github.com/varalys/clinprep/internal/encoder"
	"github.com/varalys/clinprep/internal/phi"
	"github.com/varalys/clinprep/internal/tensor"
)

// CLI flags win when explicitly set; otherwise config, then the flag default.

func pickInt64(cmd *cobra.Command, name string, cli int64, cfg *int64) int64 {
	if cmd.Flags().Changed(name) || cfg == nil {
		return cli
	}
	return *cfg
}

func pickInt(cmd *cobra.Command, name string, cli int, cfg *int) int {
	if cmd.Flags().Changed(name) || cfg == nil {
		return cli
	}
	return *cfg
}

func pickString(cmd *cobra.Command, name string, cli string, cfg *string) string {
	if cmd.Flags().Changed(name) || cfg == nil || *cfg == "" {
		return cli
	}
	return *cfg
}

func pickBool(cmd *cobra.Command, name string, cli bool, cfg *bool) bool {
	if cmd.Flags().Changed(name) || cfg == nil {
		return cli
	}
	return *cfg
}

func resolveSeed(cmd *cobra.Command) int64 {
	return pickInt64(cmd, "seed", flagSeed, fileCfg.Seed)
}

func resolveDevice(cmd *cobra.Command) (tensor.Device, error) {
	return tensor.ParseDevice(pickString(cmd, "device", flagDevice, fileCfg.Device))
}

func resolveAudit(cmd *cobra.Command) bool {
	return !pickBool(cmd, "no-audit", flagNoAudit, fileCfg.NoAudit)
}

// redactor builds the PHI redactor from config, falling back to the
// Assessment/Plan Subsection defaults.
func redactor(token string) *phi.Redactor {
	r := phi.Default()
	r.Logger = logger
	if rc := fileCfg.Redact; rc != nil {
		if len(rc.Columns) > 0 {
			r.Mappings = r.Mappings[:0]
			for _, c := range rc.Columns {
				r.Mappings = append(r.Mappings, phi.Mapping{Source: c.Source, Target: c.Target})
			}
		}
		if t := rc.GetToken(); t != "" {
			r.Replacement = t
		}
	}
	if token != "" {
		r.Replacement = token
	}
	return r
}

// encoderConfig overlays config file values on the defaults.
func encoderConfig() encoder.Config {
	cfg := encoder.DefaultConfig()
	ec := fileCfg.Encoder
	if ec == nil {
		return cfg
	}
	if ec.VocabSize != nil {
		cfg.VocabSize = *ec.VocabSize
	}
	if ec.Hidden != nil {
		cfg.Hidden = *ec.Hidden
	}
	if ec.Layers != nil {
		cfg.Layers = *ec.Layers
	}
	if ec.MaxLen != nil {
		cfg.MaxLen = *ec.MaxLen
	}
	if ec.Dropout != nil {
		cfg.Dropout = *ec.Dropout
	}
	return cfg
}

package core

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/varalys/clinprep/internal/embed"
	"github.com/varalys/clinprep/internal/encoder"
	"github.com/varalys/clinprep/internal/phi"
	"github.com/varalys/clinprep/internal/seed"
	"github.com/varalys/clinprep/internal/table"
	"github.com/varalys/clinprep/internal/tensor"
)

// Re-export selected internal types as a stable public API surface.
type (
	Generators = seed.Generators
	Table      = table.Table
	Cell       = table.Cell
	Model      = encoder.Model
	Batch      = tensor.Batch
	Dataset    = tensor.Dataset
	Device     = tensor.Device
)

// SetSeed returns random sources seeded with seed. Accelerator devices in
// devices get their own seeded source; without any, that step is skipped.
func SetSeed(value int64, devices ...Device) *Generators {
	return seed.New(value, devices...)
}

// ReplaceEntitiesWithPHI returns a copy of t with "assessment_clean" and
// "plan_clean" holding the "Assessment" and "Plan Subsection" text with every
// [**...**] marker replaced by @@PHI@@.
func ReplaceEntitiesWithPHI(t *Table) (*Table, error) {
	return phi.ReplaceEntities(t)
}

// GetCLSRepr runs model over every batch of ds on device and stacks the
// last-layer hidden state at position 0 of each example, in order.
func GetCLSRepr(ctx context.Context, model Model, ds Dataset, device Device) (*mat.Dense, error) {
	return embed.CLS(ctx, model, ds, device)
}

// Package embed extracts classification-token representations from a
// transformer encoder.
package embed

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/varalys/clinprep/internal/encoder"
	"github.com/varalys/clinprep/internal/tensor"
)

// Extractor collects the last-layer hidden state at sequence position 0 for
// every example in a dataset.
type Extractor struct {
	Logger *zap.Logger
}

// CLS is Extractor.Extract with no logging.
func CLS(ctx context.Context, m encoder.Model, ds tensor.Dataset, device tensor.Device) (*mat.Dense, error) {
	return (&Extractor{}).Extract(ctx, m, ds, device)
}

// Extract switches m to evaluation mode (and leaves it there), walks ds once
// in order, and returns an examples x hidden matrix whose rows follow the
// dataset's batch order. It returns a nil matrix when ds yields no batches.
// Errors from the dataset or the model are returned as-is.
func (e *Extractor) Extract(ctx context.Context, m encoder.Model, ds tensor.Dataset, device tensor.Device) (*mat.Dense, error) {
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m.Eval()

	var (
		rows    []float64
		n       int
		hidden  int
		batches int
	)
	for {
		batch, err := ds.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out, err := m.Forward(ctx, batch.To(device), encoder.Options{OutputHiddenStates: true})
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, errors.Wrapf(tensor.ErrShape, "batch %d: model returned no output", batches+1)
		}
		last := out.LastHiddenState
		if len(out.HiddenStates) > 0 {
			last = out.HiddenStates[len(out.HiddenStates)-1]
		}
		if last == nil {
			return nil, errors.Wrapf(tensor.ErrShape, "batch %d: model returned no hidden state", batches+1)
		}
		cls, err := last.Position(0)
		if err != nil {
			return nil, err
		}
		cls = cls.To(tensor.CPU)
		if batches == 0 {
			hidden = cls.Dim(1)
		} else if cls.Dim(1) != hidden {
			return nil, errors.Wrapf(tensor.ErrShape, "batch %d has hidden size %d, want %d", batches+1, cls.Dim(1), hidden)
		}
		rows = append(rows, cls.Data()...)
		n += cls.Dim(0)
		batches++
		log.Debug("extracted batch", zap.Int("batch", batches), zap.Int("examples", cls.Dim(0)))
	}
	if n == 0 {
		log.Debug("dataset produced no examples", zap.Int("batches", batches))
		return nil, nil
	}
	log.Info("extracted cls representations",
		zap.Int("batches", batches),
		zap.Int("examples", n),
		zap.Int("hidden", hidden),
		zap.String("device", string(device)))
	return mat.NewDense(n, hidden, rows), nil
}

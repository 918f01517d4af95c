package tensor

import (
	"context"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// Batch maps model input field names (e.g. "input_ids") to tensors. Every
// field shares the same leading (example) dimension.
type Batch map[string]*Tensor

// Keys returns the field names in sorted order.
func (b Batch) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// To returns a new batch with every tensor moved to d.
func (b Batch) To(d Device) Batch {
	out := make(Batch, len(b))
	for k, v := range b {
		out[k] = v.To(d)
	}
	return out
}

// Size returns the number of examples in the batch.
func (b Batch) Size() (int, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	keys := b.Keys()
	if len(keys) == 0 {
		return 0, nil
	}
	return b[keys[0]].Dim(0), nil
}

// Validate checks that all fields are non-nil, at least rank 1, and agree on
// the leading dimension.
func (b Batch) Validate() error {
	n := -1
	for _, k := range b.Keys() {
		t := b[k]
		if t == nil {
			return errors.Errorf("batch field %q is nil", k)
		}
		if t.Rank() == 0 {
			return errors.Wrapf(ErrShape, "batch field %q has no dimensions", k)
		}
		if n >= 0 && t.Dim(0) != n {
			return errors.Wrapf(ErrShape, "batch field %q has %d examples, want %d", k, t.Dim(0), n)
		}
		n = t.Dim(0)
	}
	return nil
}

// Dataset yields batches in a fixed order. Next returns io.EOF once the
// dataset is exhausted.
type Dataset interface {
	Next(ctx context.Context) (Batch, error)
}

// SliceDataset is an in-memory Dataset.
type SliceDataset struct {
	batches []Batch
	pos     int
}

// NewSliceDataset iterates batches in the order given.
func NewSliceDataset(batches ...Batch) *SliceDataset {
	return &SliceDataset{batches: batches}
}

// Next implements Dataset.
func (d *SliceDataset) Next(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.pos >= len(d.batches) {
		return nil, io.EOF
	}
	b := d.batches[d.pos]
	d.pos++
	return b, nil
}

// Reset rewinds the dataset to the first batch.
func (d *SliceDataset) Reset() { d.pos = 0 }

// Len is the number of batches.
func (d *SliceDataset) Len() int { return len(d.batches) }

// Examples is the total number of examples across all batches.
func (d *SliceDataset) Examples() int {
	n := 0
	for _, b := range d.batches {
		if s, err := b.Size(); err == nil {
			n += s
		}
	}
	return n
}

// Package encoder defines the transformer encoder contract consumed by the
// embedding extractor, plus a small self-contained BERT-style reference
// model used by the CLI and tests.
package encoder

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/varalys/clinprep/internal/tensor"
)

// Input field names understood by BERT-style encoders.
const (
	InputIDs      = "input_ids"
	AttentionMask = "attention_mask"
)

// Options controls a forward pass.
type Options struct {
	// OutputHiddenStates asks for every layer's hidden states, not just the
	// last one.
	OutputHiddenStates bool
}

// Output holds the result of a forward pass.
type Output struct {
	// LastHiddenState is [batch, seq, hidden].
	LastHiddenState *tensor.Tensor
	// HiddenStates holds the embedding output followed by each layer, all
	// [batch, seq, hidden]. Nil unless Options.OutputHiddenStates is set.
	HiddenStates []*tensor.Tensor
}

// Model is a transformer encoder that can be switched between training and
// evaluation behavior.
type Model interface {
	// Eval disables training-only behavior such as dropout.
	Eval()
	// Train enables training-only behavior.
	Train()
	// Training reports the current mode.
	Training() bool
	// Forward runs the encoder over one batch.
	Forward(ctx context.Context, batch tensor.Batch, opts Options) (*Output, error)
	// Parameters returns the learnable weights.
	Parameters() []*mat.Dense
	// Hidden is the width of every hidden state.
	Hidden() int
}

// Digest hashes the values of every parameter of m. Two digests are equal
// only if no parameter changed.
func Digest(m Model) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, p := range m.Parameters() {
		r, c := p.Dims()
		binary.LittleEndian.PutUint64(buf[:], uint64(r))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(c))
		_, _ = h.Write(buf[:])
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(p.At(i, j)))
				_, _ = h.Write(buf[:])
			}
		}
	}
	return h.Sum64()
}

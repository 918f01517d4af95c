package encoder

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/varalys/clinprep/internal/seed"
	"github.com/varalys/clinprep/internal/tensor"
)

// Config sizes a BERT reference encoder.
type Config struct {
	VocabSize int     `yaml:"vocab_size" json:"vocab_size"`
	Hidden    int     `yaml:"hidden" json:"hidden"`
	Layers    int     `yaml:"layers" json:"layers"`
	MaxLen    int     `yaml:"max_len" json:"max_len"`
	Dropout   float64 `yaml:"dropout" json:"dropout"`
}

// DefaultConfig is small enough to run on a laptop CPU.
func DefaultConfig() Config {
	return Config{VocabSize: 8192, Hidden: 64, Layers: 2, MaxLen: 128, Dropout: 0.1}
}

func (c Config) validate() error {
	switch {
	case c.VocabSize <= 0:
		return errors.Errorf("encoder: vocab_size must be positive, got %d", c.VocabSize)
	case c.Hidden <= 0:
		return errors.Errorf("encoder: hidden must be positive, got %d", c.Hidden)
	case c.Layers < 0:
		return errors.Errorf("encoder: layers must not be negative, got %d", c.Layers)
	case c.MaxLen <= 0:
		return errors.Errorf("encoder: max_len must be positive, got %d", c.MaxLen)
	case c.Dropout < 0 || c.Dropout >= 1:
		return errors.Errorf("encoder: dropout must be in [0,1), got %v", c.Dropout)
	}
	return nil
}

type layer struct {
	w    *mat.Dense // hidden x hidden, token transform
	u    *mat.Dense // hidden x hidden, pooled context transform
	bias *mat.Dense // 1 x hidden
}

// BERT is a residual encoder: token plus position embeddings followed by
// layers of h + tanh(hW + mean(h)U + b), where mean is over unmasked
// positions. Dropout is applied to each layer update in training mode only.
type BERT struct {
	cfg      Config
	tok      *mat.Dense // vocab x hidden
	pos      *mat.Dense // maxLen x hidden
	layers   []layer
	training bool
	device   tensor.Device
	rng      *rand.Rand
}

// NewBERT initializes weights from gens.Tensor. The model starts in training
// mode on the host, like a freshly constructed network.
func NewBERT(cfg Config, gens *seed.Generators) (*BERT, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := gens.Tensor
	std := 1 / math.Sqrt(float64(cfg.Hidden))
	randn := func(r, c int) *mat.Dense {
		data := make([]float64, r*c)
		for i := range data {
			data[i] = rng.NormFloat64() * std
		}
		return mat.NewDense(r, c, data)
	}
	m := &BERT{
		cfg:      cfg,
		tok:      randn(cfg.VocabSize, cfg.Hidden),
		pos:      randn(cfg.MaxLen, cfg.Hidden),
		training: true,
		device:   tensor.CPU,
		rng:      rng,
	}
	for i := 0; i < cfg.Layers; i++ {
		m.layers = append(m.layers, layer{
			w:    randn(cfg.Hidden, cfg.Hidden),
			u:    randn(cfg.Hidden, cfg.Hidden),
			bias: mat.NewDense(1, cfg.Hidden, nil),
		})
	}
	return m, nil
}

// Config returns the sizes the model was built with.
func (m *BERT) Config() Config { return m.cfg }

// Eval implements Model.
func (m *BERT) Eval() { m.training = false }

// Train implements Model.
func (m *BERT) Train() { m.training = true }

// Training implements Model.
func (m *BERT) Training() bool { return m.training }

// Hidden implements Model.
func (m *BERT) Hidden() int { return m.cfg.Hidden }

// Device reports where the weights live.
func (m *BERT) Device() tensor.Device { return m.device }

// To places the model on d. Inputs must be on the same device.
func (m *BERT) To(d tensor.Device) *BERT {
	m.device = d
	return m
}

// Parameters implements Model.
func (m *BERT) Parameters() []*mat.Dense {
	ps := []*mat.Dense{m.tok, m.pos}
	for _, l := range m.layers {
		ps = append(ps, l.w, l.u, l.bias)
	}
	return ps
}

// Forward implements Model.
func (m *BERT) Forward(ctx context.Context, batch tensor.Batch, opts Options) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, mask, err := m.inputs(batch)
	if err != nil {
		return nil, err
	}
	b, s, h := ids.Dim(0), ids.Dim(1), m.cfg.Hidden

	// One s x h matrix per example.
	states := make([]*mat.Dense, b)
	for i := 0; i < b; i++ {
		x := mat.NewDense(s, h, nil)
		for j := 0; j < s; j++ {
			id := int(ids.At(i, j))
			row := x.RawRowView(j)
			tr := m.tok.RawRowView(id)
			pr := m.pos.RawRowView(j)
			for k := range row {
				row[k] = (tr[k] + pr[k]) * mask.At(i, j)
			}
		}
		states[i] = x
	}

	var hidden []*tensor.Tensor
	if opts.OutputHiddenStates {
		hidden = append(hidden, stack(states, s, h, m.device))
	}
	for _, l := range m.layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, x := range states {
			states[i] = m.apply(l, x, mask, i)
		}
		if opts.OutputHiddenStates {
			hidden = append(hidden, stack(states, s, h, m.device))
		}
	}
	out := &Output{HiddenStates: hidden}
	if len(hidden) > 0 {
		out.LastHiddenState = hidden[len(hidden)-1]
	} else {
		out.LastHiddenState = stack(states, s, h, m.device)
	}
	return out, nil
}

func (m *BERT) apply(l layer, x *mat.Dense, mask *tensor.Tensor, example int) *mat.Dense {
	s, h := x.Dims()

	// masked mean over the sequence
	ctxVec := mat.NewDense(1, h, nil)
	var n float64
	for j := 0; j < s; j++ {
		w := mask.At(example, j)
		if w == 0 {
			continue
		}
		n += w
		row := x.RawRowView(j)
		cv := ctxVec.RawRowView(0)
		for k := range cv {
			cv[k] += w * row[k]
		}
	}
	if n > 0 {
		ctxVec.Scale(1/n, ctxVec)
	}
	var pooled mat.Dense
	pooled.Mul(ctxVec, l.u)
	pooled.Add(&pooled, l.bias)

	var upd mat.Dense
	upd.Mul(x, l.w)
	pr := pooled.RawRowView(0)
	keep := 1 - m.cfg.Dropout
	out := mat.NewDense(s, h, nil)
	for j := 0; j < s; j++ {
		urow := upd.RawRowView(j)
		xrow := x.RawRowView(j)
		orow := out.RawRowView(j)
		w := mask.At(example, j)
		for k := range orow {
			d := math.Tanh(urow[k] + pr[k])
			if m.training && m.cfg.Dropout > 0 {
				if m.rng.Float64() < m.cfg.Dropout {
					d = 0
				} else {
					d /= keep
				}
			}
			orow[k] = (xrow[k] + d) * w
		}
	}
	return out
}

func (m *BERT) inputs(batch tensor.Batch) (ids, mask *tensor.Tensor, err error) {
	if err := batch.Validate(); err != nil {
		return nil, nil, err
	}
	ids, ok := batch[InputIDs]
	if !ok {
		return nil, nil, errors.Errorf("encoder: batch has no %q field", InputIDs)
	}
	if ids.Rank() != 2 {
		return nil, nil, errors.Wrapf(tensor.ErrShape, "encoder: %s must be [batch, seq], have %v", InputIDs, ids.Shape())
	}
	if ids.Dim(1) == 0 || ids.Dim(1) > m.cfg.MaxLen {
		return nil, nil, errors.Wrapf(tensor.ErrShape, "encoder: sequence length %d outside (0, %d]", ids.Dim(1), m.cfg.MaxLen)
	}
	mask, ok = batch[AttentionMask]
	if !ok {
		mask = tensor.Zeros(ids.Shape()...).To(ids.Device())
		for i := range mask.Data() {
			mask.Data()[i] = 1
		}
	}
	if mask.Rank() != 2 || mask.Dim(0) != ids.Dim(0) || mask.Dim(1) != ids.Dim(1) {
		return nil, nil, errors.Wrapf(tensor.ErrShape, "encoder: %s shape %v does not match %s %v", AttentionMask, mask.Shape(), InputIDs, ids.Shape())
	}
	for _, name := range batch.Keys() {
		if d := batch[name].Device(); d != m.device {
			return nil, nil, errors.Wrapf(tensor.ErrDevice, "encoder: %s on %s, model on %s", name, d, m.device)
		}
	}
	for _, v := range ids.Data() {
		if v != math.Trunc(v) || v < 0 || int(v) >= m.cfg.VocabSize {
			return nil, nil, errors.Errorf("encoder: token id %v outside vocabulary of %d", v, m.cfg.VocabSize)
		}
	}
	return ids, mask, nil
}

func stack(states []*mat.Dense, s, h int, d tensor.Device) *tensor.Tensor {
	data := make([]float64, 0, len(states)*s*h)
	for _, x := range states {
		for j := 0; j < s; j++ {
			data = append(data, x.RawRowView(j)...)
		}
	}
	t, _ := tensor.New(data, len(states), s, h)
	return t.To(d)
}

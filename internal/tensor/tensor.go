// Package tensor holds the small dense array, device and batch types shared by
// the encoder and the embedding extractor.
package tensor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrShape is returned when tensor dimensions do not agree.
	ErrShape = errors.New("tensor: shape mismatch")
	// ErrDevice is returned when tensors live on different devices.
	ErrDevice = errors.New("tensor: device mismatch")
)

// Device identifies where tensor memory lives: the host CPU or an
// accelerator such as "cuda:0".
type Device string

// CPU is the host device.
const CPU Device = "cpu"

// ParseDevice validates a device identifier. "cuda" is shorthand for "cuda:0".
func ParseDevice(s string) (Device, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "cpu":
		return CPU, nil
	case s == "cuda":
		return Device("cuda:0"), nil
	case strings.HasPrefix(s, "cuda:"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "cuda:"))
		if err != nil || n < 0 {
			return "", errors.Errorf("invalid device ordinal in %q", s)
		}
		return Device(s), nil
	}
	return "", errors.Errorf("unknown device %q", s)
}

// IsAccelerator reports whether d is not the host.
func (d Device) IsAccelerator() bool { return d != CPU && d != "" }

// Tensor is a dense row-major float64 array.
type Tensor struct {
	shape  []int
	data   []float64
	device Device
}

// New wraps data with the given shape on the host. The product of shape must
// equal len(data).
func New(data []float64, shape ...int) (*Tensor, error) {
	if numel(shape) != len(data) {
		return nil, errors.Wrapf(ErrShape, "shape %v does not hold %d values", shape, len(data))
	}
	return &Tensor{shape: append([]int(nil), shape...), data: data, device: CPU}, nil
}

// Zeros allocates a zero tensor on the host.
func Zeros(shape ...int) *Tensor {
	return &Tensor{shape: append([]int(nil), shape...), data: make([]float64, numel(shape)), device: CPU}
}

func numel(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return -1
		}
		n *= d
	}
	return n
}

// Shape returns a copy of the dimensions.
func (t *Tensor) Shape() []int { return append([]int(nil), t.shape...) }

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int { return t.shape[i] }

// Rank is the number of dimensions.
func (t *Tensor) Rank() int { return len(t.shape) }

// Data exposes the backing slice.
func (t *Tensor) Data() []float64 { return t.data }

// Device reports where the tensor lives.
func (t *Tensor) Device() Device { return t.device }

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index rank %d for shape %v", len(idx), t.shape))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.shape))
		}
		off = off*t.shape[i] + v
	}
	return off
}

// At returns the element at idx.
func (t *Tensor) At(idx ...int) float64 { return t.data[t.offset(idx)] }

// Set stores v at idx.
func (t *Tensor) Set(v float64, idx ...int) { t.data[t.offset(idx)] = v }

// To returns a copy of t placed on device d. The receiver is returned as-is
// when it already lives on d.
func (t *Tensor) To(d Device) *Tensor {
	if t.device == d {
		return t
	}
	return &Tensor{shape: t.Shape(), data: append([]float64(nil), t.data...), device: d}
}

// Position selects index pos along dimension 1 of a [batch, seq, hidden]
// tensor and returns the [batch, hidden] result on the same device.
func (t *Tensor) Position(pos int) (*Tensor, error) {
	if len(t.shape) != 3 {
		return nil, errors.Wrapf(ErrShape, "want rank 3, have %v", t.shape)
	}
	b, s, h := t.shape[0], t.shape[1], t.shape[2]
	if pos < 0 || pos >= s {
		return nil, errors.Wrapf(ErrShape, "position %d outside sequence length %d", pos, s)
	}
	out := &Tensor{shape: []int{b, h}, data: make([]float64, b*h), device: t.device}
	for i := 0; i < b; i++ {
		copy(out.data[i*h:(i+1)*h], t.data[(i*s+pos)*h:(i*s+pos+1)*h])
	}
	return out, nil
}

// Equal reports whether a and b have the same shape and values. Device is
// ignored.
func Equal(a, b *Tensor) bool {
	if len(a.shape) != len(b.shape) || len(a.data) != len(b.data) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}

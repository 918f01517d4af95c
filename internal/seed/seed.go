// Package seed holds the random sources used across the pipeline and seeds
// them together so a run can be reproduced from a single integer.
//
// There is no package-level generator: callers create a Generators value and
// pass it to whatever needs randomness (weight initialization, dropout,
// sampling). Reseeding with the same value restarts every source.
package seed

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/varalys/clinprep/internal/tensor"
)

// Stream constants keep the sources distinct for the same seed.
const (
	streamGeneral uint64 = 0x9e3779b97f4a7c15
	streamArray   uint64 = 0xbf58476d1ce4e5b9
	streamTensor  uint64 = 0x94d049bb133111eb
	streamDevice  uint64 = 0xd6e8feb86659fd93
)

// Generators is the set of seeded random sources for one pipeline run.
type Generators struct {
	// General is the general-purpose source (shuffles, sampling).
	General *rand.Rand
	// Array drives numeric array draws, see Normal.
	Array *rand.Rand
	// Tensor drives model-side randomness such as weight init and dropout.
	Tensor *rand.Rand

	seed    int64
	pcgs    map[uint64]*rand.PCG
	devices map[tensor.Device]*rand.Rand
	devPCG  map[tensor.Device]*rand.PCG
}

// New creates generators seeded with seed. Accelerator devices get their own
// source; the host device and duplicates are ignored.
func New(seed int64, devices ...tensor.Device) *Generators {
	g := &Generators{
		pcgs:    make(map[uint64]*rand.PCG, 3),
		devices: make(map[tensor.Device]*rand.Rand),
		devPCG:  make(map[tensor.Device]*rand.PCG),
	}
	g.General = g.source(streamGeneral)
	g.Array = g.source(streamArray)
	g.Tensor = g.source(streamTensor)
	for _, d := range devices {
		if !d.IsAccelerator() {
			continue
		}
		if _, ok := g.devPCG[d]; ok {
			continue
		}
		p := rand.NewPCG(0, 0)
		g.devPCG[d] = p
		g.devices[d] = rand.New(p)
	}
	g.Seed(seed)
	return g
}

func (g *Generators) source(stream uint64) *rand.Rand {
	p := rand.NewPCG(0, 0)
	g.pcgs[stream] = p
	return rand.New(p)
}

// Seed resets every source to the state derived from seed.
func (g *Generators) Seed(seed int64) {
	g.seed = seed
	s := uint64(seed)
	for stream, p := range g.pcgs {
		p.Seed(s, s^stream)
	}
	for d, p := range g.devPCG {
		p.Seed(s, s^streamDevice^deviceSalt(d))
	}
}

func deviceSalt(d tensor.Device) uint64 {
	// FNV-1a
	h := uint64(14695981039346656037)
	for i := 0; i < len(d); i++ {
		h ^= uint64(d[i])
		h *= 1099511628211
	}
	return h
}

// Value returns the seed most recently applied.
func (g *Generators) Value() int64 { return g.seed }

// Device returns the source for accelerator d, or nil when d was not
// registered.
func (g *Generators) Device(d tensor.Device) *rand.Rand { return g.devices[d] }

// Devices lists registered accelerators in sorted order.
func (g *Generators) Devices() []tensor.Device {
	out := make([]tensor.Device, 0, len(g.devices))
	for d := range g.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Normal returns a normal distribution that draws from the array source.
func (g *Generators) Normal(mu, sigma float64) distuv.Normal {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: g.Array}
}

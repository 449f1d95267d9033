// Package bond implements bonded interactions between explicitly listed
// particles. Indices are absolute positions in the particle store; molecule
// templates hold molecule-relative indices and are shifted on placement.
package bond

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/geometry"
	"github.com/san-kum/mcspace/internal/particle"
)

type Bond interface {
	Kind() string
	Indices() []int
	// Shift adds offset to every index.
	Shift(offset int)
	Clone() Bond
	Energy(p particle.Vector, geo geometry.Geometry) float64
	Config() config.BondConfig
}

// Contains reports whether index i takes part in b.
func Contains(b Bond, i int) bool {
	return slices.Contains(b.Indices(), i)
}

// New builds a bond from its configuration.
func New(cfg config.BondConfig) (Bond, error) {
	idx := slices.Clone(cfg.Index)
	switch cfg.Type {
	case "harmonic":
		if len(idx) != 2 {
			return nil, fmt.Errorf("harmonic bond needs 2 indices, got %d", len(idx))
		}
		return &Harmonic{Index: idx, K: cfg.K, Req: cfg.Req}, nil
	case "fene":
		if len(idx) != 2 {
			return nil, fmt.Errorf("fene bond needs 2 indices, got %d", len(idx))
		}
		if cfg.Rmax <= 0 {
			return nil, fmt.Errorf("fene bond needs positive rmax, got %f", cfg.Rmax)
		}
		return &FENE{Index: idx, K: cfg.K, Rmax: cfg.Rmax}, nil
	case "harmonic_torsion":
		if len(idx) != 3 {
			return nil, fmt.Errorf("harmonic_torsion needs 3 indices, got %d", len(idx))
		}
		return &HarmonicTorsion{Index: idx, K: cfg.K, Aeq: cfg.Aeq * math.Pi / 180}, nil
	default:
		return nil, fmt.Errorf("unknown bond type: %q", cfg.Type)
	}
}

// NewList builds a bond slice, wrapping the first error with its position.
func NewList(cfgs []config.BondConfig) ([]Bond, error) {
	out := make([]Bond, 0, len(cfgs))
	for i, c := range cfgs {
		b, err := New(c)
		if err != nil {
			return nil, fmt.Errorf("bond %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// CloneShifted deep copies templates and shifts them by offset.
func CloneShifted(templates []Bond, offset int) []Bond {
	out := make([]Bond, len(templates))
	for i, b := range templates {
		out[i] = b.Clone()
		out[i].Shift(offset)
	}
	return out
}

// Harmonic is u = k/2 (r - req)^2.
type Harmonic struct {
	Index []int
	K     float64
	Req   float64
}

func (h *Harmonic) Kind() string     { return "harmonic" }
func (h *Harmonic) Indices() []int   { return h.Index }
func (h *Harmonic) Shift(offset int) { shift(h.Index, offset) }

func (h *Harmonic) Clone() Bond {
	return &Harmonic{Index: slices.Clone(h.Index), K: h.K, Req: h.Req}
}

func (h *Harmonic) Energy(p particle.Vector, geo geometry.Geometry) float64 {
	d := geometry.Distance(geo, p[h.Index[0]].Pos, p[h.Index[1]].Pos) - h.Req
	return 0.5 * h.K * d * d
}

func (h *Harmonic) Config() config.BondConfig {
	return config.BondConfig{Type: h.Kind(), Index: slices.Clone(h.Index), K: h.K, Req: h.Req}
}

// FENE is u = -k/2 rmax^2 ln(1 - (r/rmax)^2), infinite beyond rmax.
type FENE struct {
	Index []int
	K     float64
	Rmax  float64
}

func (f *FENE) Kind() string     { return "fene" }
func (f *FENE) Indices() []int   { return f.Index }
func (f *FENE) Shift(offset int) { shift(f.Index, offset) }

func (f *FENE) Clone() Bond {
	return &FENE{Index: slices.Clone(f.Index), K: f.K, Rmax: f.Rmax}
}

func (f *FENE) Energy(p particle.Vector, geo geometry.Geometry) float64 {
	r2 := geo.SqDist(p[f.Index[0]].Pos, p[f.Index[1]].Pos)
	rmax2 := f.Rmax * f.Rmax
	if r2 >= rmax2 {
		return math.Inf(1)
	}
	return -0.5 * f.K * rmax2 * math.Log(1-r2/rmax2)
}

func (f *FENE) Config() config.BondConfig {
	return config.BondConfig{Type: f.Kind(), Index: slices.Clone(f.Index), K: f.K, Rmax: f.Rmax}
}

// HarmonicTorsion is u = k/2 (theta - aeq)^2 for the angle at the middle
// index. Aeq is stored in radians.
type HarmonicTorsion struct {
	Index []int
	K     float64
	Aeq   float64
}

func (h *HarmonicTorsion) Kind() string     { return "harmonic_torsion" }
func (h *HarmonicTorsion) Indices() []int   { return h.Index }
func (h *HarmonicTorsion) Shift(offset int) { shift(h.Index, offset) }

func (h *HarmonicTorsion) Clone() Bond {
	return &HarmonicTorsion{Index: slices.Clone(h.Index), K: h.K, Aeq: h.Aeq}
}

func (h *HarmonicTorsion) Energy(p particle.Vector, geo geometry.Geometry) float64 {
	a := geo.VDist(p[h.Index[0]].Pos, p[h.Index[1]].Pos)
	b := geo.VDist(p[h.Index[2]].Pos, p[h.Index[1]].Pos)
	cos := r3.Dot(a, b) / math.Sqrt(r3.Norm2(a)*r3.Norm2(b))
	d := math.Acos(math.Max(-1, math.Min(1, cos))) - h.Aeq
	return 0.5 * h.K * d * d
}

func (h *HarmonicTorsion) Config() config.BondConfig {
	return config.BondConfig{Type: h.Kind(), Index: slices.Clone(h.Index), K: h.K, Aeq: h.Aeq * 180 / math.Pi}
}

func shift(idx []int, offset int) {
	for i := range idx {
		idx[i] += offset
	}
}

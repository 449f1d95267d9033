// Package potential provides pair potentials in units of kT.
package potential

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mcspace/internal/catalog"
	"github.com/san-kum/mcspace/internal/particle"
)

const (
	elementaryCharge   = 1.602176634e-19
	vacuumPermittivity = 8.8541878128e-12
	boltzmann          = 1.380649e-23
	// MolarGas is R in kJ/(mol K).
	MolarGas = 8.314462618e-3
)

// PairPotential is the interaction energy of two particles separated by
// the minimum image vector r.
type PairPotential interface {
	Name() string
	Energy(a, b *particle.Particle, r r3.Vec) float64
}

// BjerrumLength returns the Bjerrum length in angstrom.
func BjerrumLength(epsr, temperature float64) float64 {
	return elementaryCharge * elementaryCharge /
		(4 * math.Pi * vacuumPermittivity * epsr * boltzmann * temperature) * 1e10
}

// Coulomb is the plain Coulomb potential lB qa qb / r.
type Coulomb struct {
	LB float64
}

func (c Coulomb) Name() string { return "coulomb" }

func (c Coulomb) Energy(a, b *particle.Particle, r r3.Vec) float64 {
	return c.LB * a.Charge * b.Charge / r3.Norm(r)
}

// LennardJones uses Lorentz-Berthelot mixing of the per atom type sigma and
// epsilon. Epsilon is read in kJ/mol and stored in kT.
type LennardJones struct {
	sigma2 [][]float64
	eps4   [][]float64
}

func NewLennardJones(cat *catalog.Catalog, temperature float64) *LennardJones {
	atoms := cat.Atoms()
	n := len(atoms)
	lj := &LennardJones{sigma2: make([][]float64, n), eps4: make([][]float64, n)}
	kT := MolarGas * temperature
	for i := range atoms {
		lj.sigma2[i] = make([]float64, n)
		lj.eps4[i] = make([]float64, n)
		for j := range atoms {
			s := 0.5 * (atoms[i].Sigma + atoms[j].Sigma)
			lj.sigma2[i][j] = s * s
			lj.eps4[i][j] = 4 * math.Sqrt(atoms[i].Epsilon*atoms[j].Epsilon) / kT
		}
	}
	return lj
}

func (lj *LennardJones) Name() string { return "lennardjones" }

func (lj *LennardJones) Energy(a, b *particle.Particle, r r3.Vec) float64 {
	x := lj.sigma2[a.ID][b.ID] / r3.Norm2(r)
	x3 := x * x * x
	return lj.eps4[a.ID][b.ID] * (x3*x3 - x3)
}

// HardSphere is infinite when the particle radii overlap and zero otherwise.
type HardSphere struct{}

func (HardSphere) Name() string { return "hardsphere" }

func (HardSphere) Energy(a, b *particle.Particle, r r3.Vec) float64 {
	d := a.Radius + b.Radius
	if r3.Norm2(r) < d*d {
		return math.Inf(1)
	}
	return 0
}

// Combined sums its parts, stopping at the first infinite contribution.
type Combined []PairPotential

func (c Combined) Name() string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return strings.Join(names, "+")
}

func (c Combined) Energy(a, b *particle.Particle, r r3.Vec) float64 {
	u := 0.0
	for _, p := range c {
		u += p.Energy(a, b, r)
		if math.IsInf(u, 1) {
			return u
		}
	}
	return u
}

// Func adapts a plain function of distance.
type Func func(r float64) float64

func (f Func) Name() string { return "func" }

func (f Func) Energy(_, _ *particle.Particle, r r3.Vec) float64 { return f(r3.Norm(r)) }

package energy

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/potential"
	"github.com/san-kum/mcspace/internal/space"
)

// Constructor builds a term bound to spc from its configuration block.
type Constructor func(spc *space.Space, tc config.TermConfig, env Env) (Term, error)

type Registry struct {
	ctors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// DefaultRegistry knows every term shipped with this package.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, key := range []string{"coulomblj", "coulombhs", "coulomb", "lj", "hs"} {
		r.Register("nonbonded_"+key, nonbondedConstructor(key))
	}
	r.Register("bonded", newBondedTerm)
	r.Register("isobaric", newIsobaricTerm)
	r.Register("container_overlap", newContainerOverlapTerm)
	r.Register("selfenergy", newSelfEnergyTerm)
	r.Register("constrain", newConstrainTerm)
	return r
}

func (r *Registry) Register(key string, ctor Constructor) { r.ctors[key] = ctor }

func (r *Registry) lookup(key string) (Constructor, bool) {
	c, ok := r.ctors[key]
	return c, ok
}

func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.ctors))
	for k := range r.ctors {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type nonbondedBlock struct {
	Epsr   float64  `yaml:"epsr"`
	Cutoff *float64 `yaml:"cutoff_g2g"`
}

func nonbondedConstructor(kind string) Constructor {
	return func(spc *space.Space, tc config.TermConfig, env Env) (Term, error) {
		var b nonbondedBlock
		if err := tc.Decode(&b); err != nil {
			return nil, err
		}
		cutoff := math.Inf(1)
		if b.Cutoff != nil {
			if *b.Cutoff <= 0 {
				return nil, fmt.Errorf("cutoff_g2g must be positive, got %g", *b.Cutoff)
			}
			cutoff = *b.Cutoff
		}

		var pot potential.Combined
		if strings.HasPrefix(kind, "coulomb") {
			if b.Epsr <= 0 {
				return nil, fmt.Errorf("epsr must be positive, got %g", b.Epsr)
			}
			pot = append(pot, potential.Coulomb{LB: potential.BjerrumLength(b.Epsr, env.temperature())})
		}
		switch strings.TrimPrefix(kind, "coulomb") {
		case "lj":
			if spc.Catalog == nil {
				return nil, fmt.Errorf("lennard-jones needs an atom catalog")
			}
			pot = append(pot, potential.NewLennardJones(spc.Catalog, env.temperature()))
		case "hs":
			pot = append(pot, potential.HardSphere{})
		}

		var pp potential.PairPotential = pot
		if len(pot) == 1 {
			pp = pot[0]
		}
		return NewNonbonded(spc, pp, cutoff), nil
	}
}

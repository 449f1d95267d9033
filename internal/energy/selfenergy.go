package energy

import (
	"fmt"

	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/potential"
	"github.com/san-kum/mcspace/internal/space"
)

var selfEnergyPrefactors = map[string]float64{
	"fanourgakis": 0.875,
	"qpotential":  0.5,
}

// SelfEnergy is the charge self term of truncated electrostatics schemes,
// -c lB/rc sum(q^2). It only matters when the set of active charges
// changes.
type SelfEnergy struct {
	spc       *space.Space
	kind      string
	prefactor float64
	cutoff    float64
	lB        float64
}

type selfEnergyBlock struct {
	Type   string  `yaml:"type"`
	Cutoff float64 `yaml:"cutoff"`
	Epsr   float64 `yaml:"epsr"`
}

func newSelfEnergyTerm(spc *space.Space, tc config.TermConfig, env Env) (Term, error) {
	var b selfEnergyBlock
	if err := tc.Decode(&b); err != nil {
		return nil, err
	}
	c, ok := selfEnergyPrefactors[b.Type]
	if !ok {
		return nil, fmt.Errorf("unknown self energy type %q", b.Type)
	}
	if b.Cutoff <= 0 || b.Epsr <= 0 {
		return nil, fmt.Errorf("cutoff and epsr must be positive")
	}
	return &SelfEnergy{
		spc:       spc,
		kind:      b.Type,
		prefactor: c,
		cutoff:    b.Cutoff,
		lB:        potential.BjerrumLength(b.Epsr, env.temperature()),
	}, nil
}

func (s *SelfEnergy) Info() Info {
	return Info{Name: "selfenergy", Params: map[string]any{
		"type":   s.kind,
		"cutoff": s.cutoff,
		"lB":     s.lB,
	}}
}

func (s *SelfEnergy) Energy(c space.Change) float64 {
	q2 := 0.0
	switch {
	case c.DeltaN():
		for _, m := range c.Groups() {
			for _, i := range touched(s.spc, &m) {
				q := s.spc.Particles[i].Charge
				q2 += q * q
			}
		}
	case c.AllChanged():
		for _, p := range s.spc.ActiveParticles() {
			q2 += p.Charge * p.Charge
		}
	default:
		return 0
	}
	return -s.prefactor * q2 * s.lB / s.cutoff
}

package energy

import (
	"errors"
	"math"

	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/space"
)

const (
	avogadro      = 6.02214076e23
	boltzmann     = 1.380649e-23
	pascalsPerAtm = 101325.0
	// cubic angstrom per litre
	a3PerLitre = 1e27
)

// Isobaric is the pressure-volume term of the isothermal-isobaric ensemble
// for log-volume moves: P V - (N+1) ln V, with P in kT per cubic angstrom.
// Atomic groups contribute each particle to N, molecular groups one each.
type Isobaric struct {
	spc *space.Space
	P   float64
	kT  float64
}

type isobaricBlock struct {
	Atm float64 `yaml:"P/atm"`
	Pa  float64 `yaml:"P/Pa"`
	MM  float64 `yaml:"P/mM"`
}

func newIsobaricTerm(spc *space.Space, tc config.TermConfig, env Env) (Term, error) {
	var b isobaricBlock
	if err := tc.Decode(&b); err != nil {
		return nil, err
	}
	t := env.temperature()
	iso := &Isobaric{spc: spc, kT: boltzmann * t}
	switch {
	case b.MM > 0:
		iso.P = b.MM * 1e-3 * avogadro / a3PerLitre
	case b.Pa > 0:
		iso.P = b.Pa / iso.kT * 1e-30
	case b.Atm > 0:
		iso.P = b.Atm * pascalsPerAtm / iso.kT * 1e-30
	default:
		return nil, errors.New("one of P/atm, P/Pa or P/mM must be positive")
	}
	return iso, nil
}

func (iso *Isobaric) Info() Info {
	pa := iso.P * iso.kT * 1e30
	return Info{
		Name: "isobaric",
		Cite: "Frenkel & Smith 2nd Ed (Eq. 5.4.13)",
		Params: map[string]any{
			"P/atm": pa / pascalsPerAtm,
			"P/Pa":  pa,
			"P/mM":  iso.P * a3PerLitre / avogadro * 1e3,
		},
	}
}

func (iso *Isobaric) Energy(c space.Change) float64 {
	if !c.VolumeChanged() && !c.AllChanged() && !c.DeltaN() {
		return 0
	}
	v := iso.spc.Geo.Volume()
	n := 0
	for i := range iso.spc.Groups {
		g := &iso.spc.Groups[i]
		switch {
		case g.Empty():
		case g.Atomic:
			n += g.Size()
		default:
			n++
		}
	}
	return iso.P*v - float64(n+1)*math.Log(v)
}

package energy

import (
	"github.com/san-kum/mcspace/internal/bond"
	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/space"
)

// Bonded sums explicit bonds: an inter-molecular list with absolute indices
// and, per group, the molecule type's bond templates shifted to the
// group's offset.
type Bonded struct {
	spc   *space.Space
	inter []bond.Bond
	intra [][]bond.Bond
}

type bondedBlock struct {
	BondList []config.BondConfig `yaml:"bondlist"`
}

func newBondedTerm(spc *space.Space, tc config.TermConfig, _ Env) (Term, error) {
	var b bondedBlock
	if err := tc.Decode(&b); err != nil {
		return nil, err
	}
	inter, err := bond.NewList(b.BondList)
	if err != nil {
		return nil, err
	}
	return NewBonded(spc, inter), nil
}

func NewBonded(spc *space.Space, inter []bond.Bond) *Bonded {
	b := &Bonded{spc: spc, inter: inter}
	b.Update()
	return b
}

// Update rebuilds the intra-molecular lists from the current groups.
func (b *Bonded) Update() {
	b.intra = make([][]bond.Bond, len(b.spc.Groups))
	if b.spc.Catalog == nil {
		return
	}
	for i := range b.spc.Groups {
		g := &b.spc.Groups[i]
		if m := b.spc.Catalog.Molecule(g.ID); m != nil && len(m.Bonds) > 0 {
			b.intra[i] = bond.CloneShifted(m.Bonds, g.Begin())
		}
	}
}

func (b *Bonded) Info() Info {
	n := 0
	for _, l := range b.intra {
		n += len(l)
	}
	return Info{Name: "bonded", Params: map[string]any{"inter": len(b.inter), "intra": n}}
}

func (b *Bonded) Energy(c space.Change) float64 {
	if c.Empty() {
		return 0
	}
	u := b.sum(b.inter)
	if c.VolumeChanged() || c.AllChanged() {
		for i, l := range b.intra {
			if !b.spc.Groups[i].Empty() {
				u += b.sum(l)
			}
		}
		return u
	}
	for _, m := range c.Groups() {
		if !m.Internal {
			continue
		}
		g := &b.spc.Groups[m.Index]
		if m.All {
			if !g.Empty() {
				u += b.sum(b.intra[m.Index])
			}
			continue
		}
		abs := make([]int, len(m.Atoms))
		for i, a := range m.Atoms {
			abs[i] = g.Index(a)
		}
		u += b.sumTouching(b.intra[m.Index], abs)
	}
	return u
}

func (b *Bonded) sum(bonds []bond.Bond) float64 {
	u := 0.0
	for _, bd := range bonds {
		u += bd.Energy(b.spc.Particles, b.spc.Geo)
	}
	return u
}

// sumTouching adds every bond involving at least one of the given
// absolute indices, each bond at most once.
func (b *Bonded) sumTouching(bonds []bond.Bond, indices []int) float64 {
	u := 0.0
	for _, bd := range bonds {
		for _, i := range indices {
			if bond.Contains(bd, i) {
				u += bd.Energy(b.spc.Particles, b.spc.Geo)
				break
			}
		}
	}
	return u
}

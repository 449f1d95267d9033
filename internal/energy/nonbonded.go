package energy

import (
	"math"
	"slices"

	"github.com/san-kum/mcspace/internal/potential"
	"github.com/san-kum/mcspace/internal/space"
)

// Nonbonded is a pairwise additive term over active particles. Pairs of
// groups whose mass centres are further apart than the group-group cutoff
// are skipped. Pairs inside a group are only counted for atomic groups.
type Nonbonded struct {
	spc     *space.Space
	pot     potential.PairPotential
	cutoff2 float64

	g2gcnt  int
	g2gskip int
}

// NewNonbonded binds pot to spc. Use math.Inf(1) to disable the cutoff.
func NewNonbonded(spc *space.Space, pot potential.PairPotential, cutoff float64) *Nonbonded {
	return &Nonbonded{spc: spc, pot: pot, cutoff2: cutoff * cutoff}
}

func (nb *Nonbonded) Info() Info {
	params := map[string]any{
		"pairpotential": nb.pot.Name(),
		"g2gcnt":        nb.g2gcnt,
		"g2gskip":       nb.g2gskip,
	}
	if !math.IsInf(nb.cutoff2, 1) {
		params["cutoff_g2g"] = math.Sqrt(nb.cutoff2)
	}
	return Info{Name: "nonbonded", Params: params}
}

func (nb *Nonbonded) Energy(c space.Change) float64 {
	switch c.Scope() {
	case space.ScopeNone:
		return 0
	case space.ScopeVolume, space.ScopeGlobal:
		return nb.all()
	}

	groups := c.Groups()
	if len(groups) == 1 {
		m := &groups[0]
		if len(m.Atoms) == 1 && len(m.Activated) == 0 && len(m.Deactivated) == 0 {
			return nb.particleToAll(nb.spc.Groups[m.Index].Index(m.Atoms[0]), m.Index)
		}
		if m.All {
			u := 0.0
			for j := range nb.spc.Groups {
				if j != m.Index {
					u += nb.g2g(m.Index, j)
				}
			}
			if nb.spc.Groups[m.Index].Atomic {
				u += nb.internal(m.Index)
			}
			return u
		}
	}
	return nb.partition(groups)
}

func (nb *Nonbonded) all() float64 {
	u := 0.0
	for i := range nb.spc.Groups {
		for j := i + 1; j < len(nb.spc.Groups); j++ {
			u += nb.g2g(i, j)
		}
		if nb.spc.Groups[i].Atomic {
			u += nb.internal(i)
		}
	}
	return u
}

// partition sums moved groups against each other once and against every
// fixed group, plus the touched atoms of moved atomic groups against the
// rest of their own group.
func (nb *Nonbonded) partition(groups []space.GroupChange) float64 {
	moved := make([]int, len(groups))
	for i := range groups {
		moved[i] = groups[i].Index
	}

	u := 0.0
	for a := range moved {
		for b := a + 1; b < len(moved); b++ {
			u += nb.g2g(moved[a], moved[b])
		}
	}
	for j := range nb.spc.Groups {
		if _, found := slices.BinarySearch(moved, j); found {
			continue
		}
		for _, i := range moved {
			u += nb.g2g(i, j)
		}
	}
	for i := range groups {
		m := &groups[i]
		if !nb.spc.Groups[m.Index].Atomic {
			continue
		}
		if m.All {
			u += nb.internal(m.Index)
		} else {
			u += nb.internalTouched(m.Index, touchedLocal(m))
		}
	}
	return u
}

func (nb *Nonbonded) pair(i, j int) float64 {
	p := nb.spc.Particles
	return nb.pot.Energy(&p[i], &p[j], nb.spc.Geo.VDist(p[i].Pos, p[j].Pos))
}

// cut reports whether the pair of groups can be skipped.
func (nb *Nonbonded) cut(a, b *space.Group) bool {
	nb.g2gcnt++
	if nb.spc.Geo.SqDist(a.CM, b.CM) <= nb.cutoff2 {
		return false
	}
	nb.g2gskip++
	return true
}

func (nb *Nonbonded) g2g(i, j int) float64 {
	a, b := &nb.spc.Groups[i], &nb.spc.Groups[j]
	if a.Empty() || b.Empty() || nb.cut(a, b) {
		return 0
	}
	u := 0.0
	for k := a.Begin(); k < a.End(); k++ {
		for l := b.Begin(); l < b.End(); l++ {
			u += nb.pair(k, l)
		}
	}
	return u
}

func (nb *Nonbonded) internal(i int) float64 {
	g := &nb.spc.Groups[i]
	u := 0.0
	for k := g.Begin(); k < g.End(); k++ {
		for l := k + 1; l < g.End(); l++ {
			u += nb.pair(k, l)
		}
	}
	return u
}

// touchedLocal merges moved, activated and deactivated local indices into
// one sorted set.
func touchedLocal(m *space.GroupChange) []int {
	if len(m.Activated) == 0 && len(m.Deactivated) == 0 {
		return m.Atoms
	}
	atoms := slices.Clone(m.Atoms)
	for _, rs := range [][]space.Range{m.Activated, m.Deactivated} {
		for _, r := range rs {
			for local := r.Begin; local < r.End; local++ {
				atoms = append(atoms, local)
			}
		}
	}
	slices.Sort(atoms)
	return slices.Compact(atoms)
}

// internalTouched counts every pair inside group i with at least one
// touched partner exactly once.
func (nb *Nonbonded) internalTouched(i int, atoms []int) float64 {
	g := &nb.spc.Groups[i]
	u := 0.0
	for _, local := range atoms {
		if local >= g.Size() {
			continue
		}
		k := g.Index(local)
		for l := g.Begin(); l < g.End(); l++ {
			if l == k {
				continue
			}
			if _, found := slices.BinarySearch(atoms, l-g.Begin()); found && l < k {
				continue
			}
			u += nb.pair(k, l)
		}
	}
	return u
}

// particleToAll sums particle k of group gi against every other active
// particle, leaving out its partners in a molecular group. The group-group
// cutoff does not apply. Inactive particles contribute nothing.
func (nb *Nonbonded) particleToAll(k, gi int) float64 {
	g := &nb.spc.Groups[gi]
	if !g.Contains(k) {
		return 0
	}
	u := 0.0
	for j := range nb.spc.Groups {
		if j == gi && !g.Atomic {
			continue
		}
		other := &nb.spc.Groups[j]
		for l := other.Begin(); l < other.End(); l++ {
			if l != k {
				u += nb.pair(k, l)
			}
		}
	}
	return u
}

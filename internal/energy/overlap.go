package energy

import (
	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/space"
)

// ContainerOverlap forbids active particles outside the container.
type ContainerOverlap struct {
	spc *space.Space
}

func newContainerOverlapTerm(spc *space.Space, _ config.TermConfig, _ Env) (Term, error) {
	return &ContainerOverlap{spc: spc}, nil
}

func (o *ContainerOverlap) Info() Info {
	return Info{Name: "container_overlap", Params: map[string]any{"geometry": o.spc.Geo.Name()}}
}

func (o *ContainerOverlap) Energy(c space.Change) float64 {
	switch c.Scope() {
	case space.ScopeNone:
		return 0
	case space.ScopeVolume, space.ScopeGlobal:
		for _, p := range o.spc.ActiveParticles() {
			if o.spc.Geo.Collision(p.Pos) {
				return Infinity
			}
		}
		return 0
	}
	for _, m := range c.Groups() {
		for _, i := range touched(o.spc, &m) {
			if o.spc.Geo.Collision(o.spc.Particles[i].Pos) {
				return Infinity
			}
		}
	}
	return 0
}

// touched returns the absolute indices of the active particles a group
// change refers to: the whole active range for All, otherwise the listed
// atoms and both activation ranges. A deactivated range only yields
// particles in the space where they are still active, so a difference
// between two spaces sees them leave.
func touched(spc *space.Space, m *space.GroupChange) []int {
	g := &spc.Groups[m.Index]
	var out []int
	if m.All {
		for i := g.Begin(); i < g.End(); i++ {
			out = append(out, i)
		}
		return out
	}
	seen := make(map[int]bool, len(m.Atoms))
	add := func(local int) {
		if local < g.Size() && !seen[local] {
			seen[local] = true
			out = append(out, g.Index(local))
		}
	}
	for _, a := range m.Atoms {
		add(a)
	}
	for _, rs := range [][]space.Range{m.Activated, m.Deactivated} {
		for _, r := range rs {
			for a := r.Begin; a < r.End; a++ {
				add(a)
			}
		}
	}
	return out
}

package space

import (
	"fmt"
	"slices"
)

// Sync makes the parts of s named by c equal to other. It is used to
// commit a trial (current.Sync(trial, c)) or to roll one back
// (trial.Sync(current, c)). Both spaces must have been built identically;
// syncing a space from itself or from spaces of different size panics.
func (s *Space) Sync(other *Space, c Change) {
	if s == other || (len(s.Particles) > 0 && len(other.Particles) > 0 && &s.Particles[0] == &other.Particles[0]) {
		panic("space: sync with itself")
	}
	if len(s.Particles) != len(other.Particles) || len(s.Groups) != len(other.Groups) {
		panic(fmt.Sprintf("space: sync between %d/%d and %d/%d particles/groups",
			len(s.Particles), len(s.Groups), len(other.Particles), len(other.Groups)))
	}

	switch c.Scope() {
	case ScopeNone:
	case ScopeVolume:
		s.Geo = other.Geo.Clone()
		s.syncAll(other)
	case ScopeGlobal:
		s.syncAll(other)
	case ScopePartial:
		for _, m := range c.Groups() {
			s.syncGroup(other, &m)
		}
	}
}

func (s *Space) syncAll(other *Space) {
	copy(s.Particles, other.Particles)
	s.Groups = slices.Clone(other.Groups)
}

func (s *Space) syncGroup(other *Space, m *GroupChange) {
	g, o := &s.Groups[m.Index], &other.Groups[m.Index]
	g.copyMeta(o)

	if m.All {
		copy(s.Particles[g.begin:g.limit], other.Particles[o.begin:o.limit])
		return
	}
	for _, i := range m.Atoms {
		s.copyLocal(other, g, o, i)
	}
	for _, rs := range [][]Range{m.Activated, m.Deactivated} {
		for _, r := range rs {
			for i := r.Begin; i < r.End; i++ {
				s.copyLocal(other, g, o, i)
			}
		}
	}
}

func (s *Space) copyLocal(other *Space, g, o *Group, i int) {
	if i < 0 || i >= g.Capacity() {
		panic(fmt.Sprintf("space: local index %d outside %v", i, g))
	}
	s.Particles[g.begin+i] = other.Particles[o.begin+i]
}

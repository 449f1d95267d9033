package space

import (
	"cmp"
	"fmt"
	"slices"
)

// Scope says how much of a Space a trial move touched. Exactly one scope
// applies to a Change.
type Scope uint8

const (
	ScopeNone Scope = iota
	// ScopeVolume: the container was resized and every position scaled.
	ScopeVolume
	// ScopeGlobal: any particle may have moved, geometry is unchanged.
	ScopeGlobal
	// ScopePartial: only the listed groups changed.
	ScopePartial
)

func (s Scope) String() string {
	switch s {
	case ScopeNone:
		return "none"
	case ScopeVolume:
		return "volume"
	case ScopeGlobal:
		return "global"
	case ScopePartial:
		return "partial"
	default:
		return fmt.Sprintf("scope(%d)", uint8(s))
	}
}

// Range is a half-open range of group-local particle indices.
type Range struct {
	Begin int
	End   int
}

func (r Range) Len() int { return r.End - r.Begin }

// GroupChange describes what happened to one group.
type GroupChange struct {
	Index int
	// All marks every particle of the group, including its reserved tail.
	All bool
	// Internal is set when intra-molecular geometry changed, i.e. the move
	// was not a rigid body move.
	Internal bool
	// Atoms are the touched group-local indices, sorted and unique.
	Atoms       []int
	Activated   []Range
	Deactivated []Range
}

// Change is the description of a trial move, consumed by energy
// evaluation and by Sync.
type Change struct {
	scope  Scope
	groups []GroupChange
}

func VolumeChange() Change { return Change{scope: ScopeVolume} }
func GlobalChange() Change { return Change{scope: ScopeGlobal} }

// PartialChange normalises the group list: groups are ordered by index and
// atom indices sorted without duplicates. Naming a group twice panics. An
// empty list gives an empty Change.
func PartialChange(groups ...GroupChange) Change {
	if len(groups) == 0 {
		return Change{}
	}
	gs := make([]GroupChange, len(groups))
	for i, g := range groups {
		g.Atoms = slices.Compact(slices.Sorted(slices.Values(g.Atoms)))
		g.Activated = slices.Clone(g.Activated)
		g.Deactivated = slices.Clone(g.Deactivated)
		gs[i] = g
	}
	slices.SortFunc(gs, func(a, b GroupChange) int { return cmp.Compare(a.Index, b.Index) })
	for i := 1; i < len(gs); i++ {
		if gs[i].Index == gs[i-1].Index {
			panic(fmt.Sprintf("space: group %d named twice in change", gs[i].Index))
		}
	}
	return Change{scope: ScopePartial, groups: gs}
}

func (c Change) Scope() Scope          { return c.scope }
func (c Change) Empty() bool           { return c.scope == ScopeNone }
func (c Change) VolumeChanged() bool   { return c.scope == ScopeVolume }
func (c Change) AllChanged() bool      { return c.scope == ScopeGlobal }
func (c Change) Groups() []GroupChange { return c.groups }

// TouchedGroups returns the sorted indices of the changed groups.
func (c Change) TouchedGroups() []int {
	idx := make([]int, len(c.groups))
	for i := range c.groups {
		idx[i] = c.groups[i].Index
	}
	return idx
}

// DeltaN reports whether any group changed its number of active particles.
func (c Change) DeltaN() bool {
	for i := range c.groups {
		if len(c.groups[i].Activated) > 0 || len(c.groups[i].Deactivated) > 0 {
			return true
		}
	}
	return false
}

func (c Change) String() string {
	if c.scope != ScopePartial {
		return c.scope.String()
	}
	return fmt.Sprintf("partial%v", c.TouchedGroups())
}

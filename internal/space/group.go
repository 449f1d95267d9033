package space

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Group is a contiguous run of particles belonging to one molecule, or to
// all atoms of an atomic molecule type. It stores offsets into the owning
// Space's particle store rather than pointers, so it stays valid when the
// store is reallocated.
//
// The reserved range is [Begin, Begin+Capacity). The active particles are
// the prefix [Begin, End); the tail holds deactivated particles.
type Group struct {
	ID     int
	CM     r3.Vec
	Atomic bool

	begin int
	end   int
	limit int
}

func (g *Group) Begin() int    { return g.begin }
func (g *Group) End() int      { return g.end }
func (g *Group) Size() int     { return g.end - g.begin }
func (g *Group) Capacity() int { return g.limit - g.begin }
func (g *Group) Empty() bool   { return g.end == g.begin }

// Contains reports whether absolute index i is an active particle of g.
func (g *Group) Contains(i int) bool { return i >= g.begin && i < g.end }

// Index converts a group-local index into an absolute one.
func (g *Group) Index(local int) int { return g.begin + local }

func (g *Group) String() string {
	return fmt.Sprintf("group{id=%d [%d,%d) cap=%d}", g.ID, g.begin, g.end, g.Capacity())
}

func (g *Group) shift(delta int) {
	g.begin += delta
	g.end += delta
	g.limit += delta
}

// copyMeta copies the mutable metadata of o: mass centre and active size.
// The reserved range itself is fixed for the lifetime of both spaces and
// must agree.
func (g *Group) copyMeta(o *Group) {
	if g.ID != o.ID || g.Capacity() != o.Capacity() {
		panic(fmt.Sprintf("space: cannot sync %v from %v", g, o))
	}
	g.CM = o.CM
	g.Atomic = o.Atomic
	g.end = g.begin + o.Size()
}

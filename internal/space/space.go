// Package space holds the simulation state: a particle store, the groups
// partitioning it, the container geometry and a shared type catalog.
package space

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"math/rand"
	"slices"

	"github.com/san-kum/mcspace/internal/catalog"
	"github.com/san-kum/mcspace/internal/geometry"
	"github.com/san-kum/mcspace/internal/particle"
)

var (
	ErrEmptyInsert      = errors.New("space: nothing to insert")
	ErrCapacityExceeded = errors.New("space: group capacity exceeded")
	ErrOverlap          = errors.New("space: no overlap free position found")
	ErrParticleCount    = errors.New("space: particle count mismatch")
)

const maxInsertAttempts = 1000

type Space struct {
	Particles particle.Vector
	Groups    []Group
	Geo       geometry.Geometry
	Catalog   *catalog.Catalog
}

func New(geo geometry.Geometry, cat *catalog.Catalog) *Space {
	return &Space{Geo: geo, Catalog: cat}
}

// Clone returns a deep copy sharing only the catalog.
func (s *Space) Clone() *Space {
	return &Space{
		Particles: s.Particles.Clone(),
		Groups:    slices.Clone(s.Groups),
		Geo:       s.Geo.Clone(),
		Catalog:   s.Catalog,
	}
}

type insertOptions struct {
	atomic    bool
	active    int
	hasAtomic bool
	hasActive bool
}

type InsertOption func(*insertOptions)

// WithAtomic overrides the atomic flag otherwise taken from the catalog.
func WithAtomic(atomic bool) InsertOption {
	return func(o *insertOptions) { o.atomic, o.hasAtomic = atomic, true }
}

// WithActive makes only the first n inserted particles active; the rest
// are reserved capacity.
func WithActive(n int) InsertOption {
	return func(o *insertOptions) { o.active, o.hasActive = n, true }
}

// Insert appends particles as a new group of molecule type molID and
// returns the group index. By default every particle is active and the
// capacity equals len(in).
func (s *Space) Insert(molID int, in particle.Vector, opts ...InsertOption) (int, error) {
	if len(in) == 0 {
		return 0, ErrEmptyInsert
	}
	var o insertOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasActive {
		o.active = len(in)
	}
	if !o.hasAtomic && s.Catalog != nil {
		if m := s.Catalog.Molecule(molID); m != nil {
			o.atomic = m.Atomic
		}
	}
	if o.active < 0 || o.active > len(in) {
		return 0, fmt.Errorf("%w: %d active of %d", ErrCapacityExceeded, o.active, len(in))
	}

	begin := len(s.Particles)
	s.Particles = append(s.Particles, in...)
	s.Groups = append(s.Groups, Group{
		ID:     molID,
		Atomic: o.atomic,
		begin:  begin,
		end:    begin + o.active,
		limit:  begin + len(in),
	})
	i := len(s.Groups) - 1
	s.UpdateMassCenter(i)
	return i, nil
}

// Active returns the active particles of group i. The slice aliases the
// store and is capped so appends cannot spill into the reserved tail.
func (s *Space) Active(i int) particle.Vector {
	g := &s.Groups[i]
	return s.Particles[g.begin:g.end:g.end]
}

// Reserved returns the whole reserved range of group i.
func (s *Space) Reserved(i int) particle.Vector {
	g := &s.Groups[i]
	return s.Particles[g.begin:g.limit:g.limit]
}

// GroupOf returns the index of the group whose reserved range holds
// absolute particle index i.
func (s *Space) GroupOf(i int) (int, bool) {
	k, found := slices.BinarySearchFunc(s.Groups, i, func(g Group, i int) int {
		return cmp.Compare(g.begin, i)
	})
	if !found {
		k--
	}
	if k < 0 || k >= len(s.Groups) || i >= s.Groups[k].limit {
		return 0, false
	}
	return k, true
}

// FindGroupsByType yields the groups of molecule type molID in store order.
func (s *Space) FindGroupsByType(molID int) iter.Seq2[int, *Group] {
	return func(yield func(int, *Group) bool) {
		for i := range s.Groups {
			if s.Groups[i].ID == molID && !yield(i, &s.Groups[i]) {
				return
			}
		}
	}
}

// FindParticlesByType yields active particles of atom type atomID together
// with their absolute index.
func (s *Space) FindParticlesByType(atomID int) iter.Seq2[int, *particle.Particle] {
	return func(yield func(int, *particle.Particle) bool) {
		for i, p := range s.ActiveParticles() {
			if p.ID == atomID && !yield(i, p) {
				return
			}
		}
	}
}

// ActiveParticles yields every active particle with its absolute index.
func (s *Space) ActiveParticles() iter.Seq2[int, *particle.Particle] {
	return func(yield func(int, *particle.Particle) bool) {
		for gi := range s.Groups {
			g := &s.Groups[gi]
			for i := g.begin; i < g.end; i++ {
				if !yield(i, &s.Particles[i]) {
					return
				}
			}
		}
	}
}

func (s *Space) NumActive() int {
	n := 0
	for i := range s.Groups {
		n += s.Groups[i].Size()
	}
	return n
}

// Activate grows the active range of group i by n reserved particles and
// returns the activated group-local range.
func (s *Space) Activate(i, n int) (Range, error) {
	g := &s.Groups[i]
	if n < 0 || g.Size()+n > g.Capacity() {
		return Range{}, fmt.Errorf("%w: activate %d in %v", ErrCapacityExceeded, n, g)
	}
	r := Range{Begin: g.Size(), End: g.Size() + n}
	g.end += n
	s.UpdateMassCenter(i)
	return r, nil
}

// Deactivate shrinks the active range of group i by n and returns the
// deactivated group-local range. The particles stay in the reserved tail.
func (s *Space) Deactivate(i, n int) (Range, error) {
	g := &s.Groups[i]
	if n < 0 || n > g.Size() {
		return Range{}, fmt.Errorf("%w: deactivate %d in %v", ErrCapacityExceeded, n, g)
	}
	r := Range{Begin: g.Size() - n, End: g.Size()}
	g.end -= n
	s.UpdateMassCenter(i)
	return r, nil
}

// RemoveGroup deletes group i with its reserved particles and shifts the
// offsets of every later group.
func (s *Space) RemoveGroup(i int) {
	g := s.Groups[i]
	s.Particles = slices.Delete(s.Particles, g.begin, g.limit)
	s.Groups = slices.Delete(s.Groups, i, i+1)
	for j := i; j < len(s.Groups); j++ {
		s.Groups[j].shift(-g.Capacity())
	}
}

// UpdateMassCenter recomputes the mass centre of group i from its active
// particles. Empty groups keep a zero centre.
func (s *Space) UpdateMassCenter(i int) {
	g := &s.Groups[i]
	if g.Empty() {
		g.CM = particle.MassCenter(nil, s.Geo)
		return
	}
	g.CM = particle.MassCenter(s.Active(i), s.Geo)
}

// InsertMolecules fills an empty space from the catalog. Atomic types get
// one group with Capacity repeats of which Ninit are active; molecular
// types get Capacity groups of which Ninit are active. Active particles
// are placed so no two hard spheres overlap.
func (s *Space) InsertMolecules(rng *rand.Rand) error {
	if s.Catalog == nil {
		return errors.New("space: no catalog")
	}
	for _, m := range s.Catalog.Molecules() {
		if m.Capacity == 0 || len(m.Atoms) == 0 {
			continue
		}
		if m.Atomic {
			in, err := s.place(&m, m.Ninit, rng)
			if err != nil {
				return err
			}
			in = append(in, s.Catalog.Conformation(m.ID, m.Capacity-m.Ninit, s.Geo, rng)...)
			if _, err := s.Insert(m.ID, in, WithActive(m.Ninit*len(m.Atoms))); err != nil {
				return fmt.Errorf("molecule %q: %w", m.Name, err)
			}
			continue
		}
		for n := 0; n < m.Capacity; n++ {
			in := s.Catalog.Conformation(m.ID, 1, s.Geo, rng)
			active := 0
			if n < m.Ninit {
				var err error
				if in, err = s.place(&m, 1, rng); err != nil {
					return err
				}
				active = len(in)
			}
			if _, err := s.Insert(m.ID, in, WithActive(active)); err != nil {
				return fmt.Errorf("molecule %q: %w", m.Name, err)
			}
		}
	}
	return nil
}

// place generates n repeats of m one at a time, retrying each until it
// overlaps neither the active store nor the repeats already placed.
func (s *Space) place(m *catalog.MoleculeType, n int, rng *rand.Rand) (particle.Vector, error) {
	out := make(particle.Vector, 0, n*len(m.Atoms))
	for r := 0; r < n; r++ {
		placed := false
		for try := 0; try < maxInsertAttempts && !placed; try++ {
			c := s.Catalog.Conformation(m.ID, 1, s.Geo, rng)
			if s.fits(c, out) {
				out = append(out, c...)
				placed = true
			}
		}
		if !placed {
			return nil, fmt.Errorf("%w: molecule %q after %d attempts", ErrOverlap, m.Name, maxInsertAttempts)
		}
	}
	return out, nil
}

func (s *Space) fits(c, pending particle.Vector) bool {
	for i := range c {
		if s.Geo.Collision(c[i].Pos) {
			return false
		}
		for _, p := range s.ActiveParticles() {
			if overlap(s.Geo, &c[i], p) {
				return false
			}
		}
		for j := range pending {
			if overlap(s.Geo, &c[i], &pending[j]) {
				return false
			}
		}
	}
	return true
}

func overlap(geo geometry.Geometry, a, b *particle.Particle) bool {
	d := a.Radius + b.Radius
	return d > 0 && geo.SqDist(a.Pos, b.Pos) < d*d
}

// Restore overwrites the particle store with p, which must have the same
// length, and recomputes every mass centre.
func (s *Space) Restore(p particle.Vector) error {
	if len(p) != len(s.Particles) {
		return fmt.Errorf("%w: have %d, got %d", ErrParticleCount, len(s.Particles), len(p))
	}
	copy(s.Particles, p)
	for i := range s.Groups {
		s.UpdateMassCenter(i)
	}
	return nil
}

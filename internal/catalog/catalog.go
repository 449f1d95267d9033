// Package catalog holds the read-only atom and molecule type tables. A
// Catalog is built once from configuration and shared by reference; it is
// never mutated after construction.
package catalog

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mcspace/internal/bond"
	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/geometry"
	"github.com/san-kum/mcspace/internal/particle"
)

type AtomType struct {
	ID       int
	Name     string
	Charge   float64
	Radius   float64
	Mw       float64
	Sigma    float64
	Epsilon  float64
	Dp       float64
	Activity float64
}

type MoleculeType struct {
	ID     int
	Name   string
	Atoms  []int
	Atomic bool
	Ninit  int
	// Capacity is the number of repeats reserved for atomic types and the
	// number of instances for molecular ones.
	Capacity  int
	Structure []r3.Vec
	Bonds     []bond.Bond
}

type Catalog struct {
	atoms     []AtomType
	molecules []MoleculeType
	atomIDs   map[string]int
	molIDs    map[string]int
}

// New builds a catalog. Type ids are the slice positions.
func New(atoms []AtomType, molecules []MoleculeType) (*Catalog, error) {
	c := &Catalog{
		atoms:     make([]AtomType, len(atoms)),
		molecules: make([]MoleculeType, len(molecules)),
		atomIDs:   make(map[string]int, len(atoms)),
		molIDs:    make(map[string]int, len(molecules)),
	}
	for i, a := range atoms {
		if _, dup := c.atomIDs[a.Name]; dup {
			return nil, fmt.Errorf("duplicate atom type %q", a.Name)
		}
		a.ID = i
		c.atoms[i] = a
		c.atomIDs[a.Name] = i
	}
	for i, m := range molecules {
		if _, dup := c.molIDs[m.Name]; dup {
			return nil, fmt.Errorf("duplicate molecule type %q", m.Name)
		}
		for _, id := range m.Atoms {
			if id < 0 || id >= len(atoms) {
				return nil, fmt.Errorf("molecule %q references atom id %d", m.Name, id)
			}
		}
		m.ID = i
		if m.Capacity < m.Ninit {
			m.Capacity = m.Ninit
		}
		c.molecules[i] = m
		c.molIDs[m.Name] = i
	}
	return c, nil
}

// FromConfig converts the atomlist and moleculelist sections.
func FromConfig(cfg *config.Config) (*Catalog, error) {
	atoms := make([]AtomType, len(cfg.Atoms))
	names := make(map[string]int, len(cfg.Atoms))
	for i, a := range cfg.Atoms {
		atoms[i] = AtomType{
			Name: a.Name, Charge: a.Charge, Radius: a.Radius, Mw: a.Mw,
			Sigma: a.Sigma, Epsilon: a.Epsilon, Dp: a.Dp, Activity: a.Activity,
		}
		names[a.Name] = i
	}

	molecules := make([]MoleculeType, len(cfg.Molecules))
	for i, m := range cfg.Molecules {
		ids := make([]int, len(m.Atoms))
		for j, name := range m.Atoms {
			id, ok := names[name]
			if !ok {
				return nil, fmt.Errorf("molecule %q: unknown atom %q", m.Name, name)
			}
			ids[j] = id
		}
		bonds, err := bond.NewList(m.Bonds)
		if err != nil {
			return nil, fmt.Errorf("molecule %q: %w", m.Name, err)
		}
		structure := make([]r3.Vec, len(m.Structure))
		for j, p := range m.Structure {
			structure[j] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
		}
		molecules[i] = MoleculeType{
			Name: m.Name, Atoms: ids, Atomic: m.Atomic, Ninit: m.Ninit,
			Capacity: m.Capacity, Structure: structure, Bonds: bonds,
		}
	}
	return New(atoms, molecules)
}

func (c *Catalog) Atoms() []AtomType         { return c.atoms }
func (c *Catalog) Molecules() []MoleculeType { return c.molecules }

func (c *Catalog) Atom(id int) *AtomType {
	if id < 0 || id >= len(c.atoms) {
		return nil
	}
	return &c.atoms[id]
}

func (c *Catalog) Molecule(id int) *MoleculeType {
	if id < 0 || id >= len(c.molecules) {
		return nil
	}
	return &c.molecules[id]
}

func (c *Catalog) AtomByName(name string) (*AtomType, bool) {
	id, ok := c.atomIDs[name]
	if !ok {
		return nil, false
	}
	return &c.atoms[id], true
}

func (c *Catalog) MoleculeByName(name string) (*MoleculeType, bool) {
	id, ok := c.molIDs[name]
	if !ok {
		return nil, false
	}
	return &c.molecules[id], true
}

// NewParticle returns a particle carrying the type defaults.
func (c *Catalog) NewParticle(atomID int) particle.Particle {
	a := c.Atom(atomID)
	if a == nil {
		panic(fmt.Sprintf("catalog: unknown atom id %d", atomID))
	}
	return particle.Particle{ID: a.ID, Charge: a.Charge, Radius: a.Radius, Mw: a.Mw, Dir: r3.Vec{Z: 1}}
}

// Conformation returns particles for n repeats of molecule molID. Atomic
// types get independent random positions; molecular types get their
// structure translated to a random point. No overlap checking is done here.
func (c *Catalog) Conformation(molID, n int, geo geometry.Geometry, rng *rand.Rand) particle.Vector {
	m := c.Molecule(molID)
	if m == nil {
		panic(fmt.Sprintf("catalog: unknown molecule id %d", molID))
	}
	out := make(particle.Vector, 0, n*len(m.Atoms))
	for r := 0; r < n; r++ {
		var origin r3.Vec
		if !m.Atomic {
			origin = geo.RandomPos(rng)
		}
		for j, id := range m.Atoms {
			p := c.NewParticle(id)
			if m.Atomic || len(m.Structure) == 0 {
				p.Pos = geo.RandomPos(rng)
			} else {
				p.Pos = r3.Add(origin, m.Structure[j])
				geo.Boundary(&p.Pos)
			}
			out = append(out, p)
		}
	}
	return out
}

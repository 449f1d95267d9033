package mc

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mcspace/internal/space"
)

// Move proposes a trial configuration by modifying spc in place and
// returns what it changed. An empty change means nothing was proposed.
type Move interface {
	Name() string
	Propose(spc *space.Space, rng *rand.Rand) space.Change
}

func randomDisplacement(rng *rand.Rand, dp float64) r3.Vec {
	return r3.Vec{
		X: dp * (rng.Float64() - 0.5),
		Y: dp * (rng.Float64() - 0.5),
		Z: dp * (rng.Float64() - 0.5),
	}
}

// randomGroup picks a non-empty group of molecule type molID.
func randomGroup(spc *space.Space, molID int, rng *rand.Rand) (int, bool) {
	var candidates []int
	for i, g := range spc.FindGroupsByType(molID) {
		if !g.Empty() {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[rng.Intn(len(candidates))], true
}

// AtomTranslate displaces a single active particle of a random group.
type AtomTranslate struct {
	Molecule int
	Dp       float64
}

func (m *AtomTranslate) Name() string { return "atom_translate" }

func (m *AtomTranslate) Propose(spc *space.Space, rng *rand.Rand) space.Change {
	gi, ok := randomGroup(spc, m.Molecule, rng)
	if !ok || m.Dp <= 0 {
		return space.Change{}
	}
	g := &spc.Groups[gi]
	local := rng.Intn(g.Size())
	p := &spc.Particles[g.Index(local)]
	p.Pos = r3.Add(p.Pos, randomDisplacement(rng, m.Dp))
	spc.Geo.Boundary(&p.Pos)
	spc.UpdateMassCenter(gi)
	return space.PartialChange(space.GroupChange{Index: gi, Atoms: []int{local}, Internal: true})
}

// MoleculeTranslate displaces all active particles of a random group
// rigidly.
type MoleculeTranslate struct {
	Molecule int
	Dp       float64
}

func (m *MoleculeTranslate) Name() string { return "molecule_translate" }

func (m *MoleculeTranslate) Propose(spc *space.Space, rng *rand.Rand) space.Change {
	gi, ok := randomGroup(spc, m.Molecule, rng)
	if !ok || m.Dp <= 0 {
		return space.Change{}
	}
	d := randomDisplacement(rng, m.Dp)
	g := &spc.Groups[gi]
	spc.Active(gi).Translate(d, spc.Geo)
	g.CM = r3.Add(g.CM, d)
	spc.Geo.Boundary(&g.CM)
	return space.PartialChange(space.GroupChange{Index: gi, All: true})
}

// VolumeMove performs a random walk in ln V and scales positions
// isotropically. Molecular groups are moved rigidly with their mass
// centre.
type VolumeMove struct {
	Dp float64
}

func (m *VolumeMove) Name() string { return "volume" }

func (m *VolumeMove) Propose(spc *space.Space, rng *rand.Rand) space.Change {
	if m.Dp <= 0 {
		return space.Change{}
	}
	v := spc.Geo.Volume() * math.Exp(m.Dp*(rng.Float64()-0.5))
	s, err := spc.Geo.SetVolume(v)
	if err != nil {
		return space.Change{}
	}
	for i := range spc.Groups {
		g := &spc.Groups[i]
		if g.Atomic {
			for j := g.Begin(); j < g.End(); j++ {
				spc.Particles[j].Pos = r3.Scale(s, spc.Particles[j].Pos)
			}
			spc.UpdateMassCenter(i)
			continue
		}
		if g.Empty() {
			continue
		}
		d := r3.Scale(s-1, g.CM)
		spc.Active(i).Translate(d, spc.Geo)
		g.CM = r3.Add(g.CM, d)
		spc.Geo.Boundary(&g.CM)
	}
	return space.VolumeChange()
}

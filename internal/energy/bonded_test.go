package energy

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mcspace/internal/bond"
	"github.com/san-kum/mcspace/internal/catalog"
	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/geometry"
	"github.com/san-kum/mcspace/internal/space"
)

// chainSpace holds a three particle spacer group followed by one
// molecular chain of eight particles with a single template bond {2, 5}.
func chainSpace() *space.Space {
	cat, err := catalog.New(
		[]catalog.AtomType{{Name: "X", Mw: 1}},
		[]catalog.MoleculeType{
			{Name: "spacer", Atoms: []int{0, 0, 0}},
			{
				Name:  "chain",
				Atoms: []int{0, 0, 0, 0, 0, 0, 0, 0},
				Bonds: []bond.Bond{&bond.Harmonic{Index: []int{2, 5}, K: 2}},
			},
		},
	)
	Expect(err).NotTo(HaveOccurred())
	spc := space.New(geometry.NewCuboid(r3.Vec{X: 50, Y: 50, Z: 50}), cat)
	_, err = spc.Insert(0, onLine(-10, -11, -12))
	Expect(err).NotTo(HaveOccurred())
	_, err = spc.Insert(1, onLine(0, 1, 2, 3, 4, 5, 6, 7))
	Expect(err).NotTo(HaveOccurred())
	return spc
}

var _ = Describe("Bonded", func() {
	var (
		spc *space.Space
		b   *Bonded
	)

	BeforeEach(func() {
		spc = chainSpace()
		inter, err := bond.NewList([]config.BondConfig{{Type: "harmonic", Index: []int{0, 3}, K: 1}})
		Expect(err).NotTo(HaveOccurred())
		b = NewBonded(spc, inter)
	})

	// template bond {2,5} sits at absolute {5,8}: r = 3, u = 9
	const intra = 9.0
	// inter bond between particles 0 and 3: r = 10, u = 50
	const inter = 50.0

	It("shifts templates by the group offset", func() {
		Expect(b.intra[1]).To(HaveLen(1))
		Expect(b.intra[1][0].Indices()).To(Equal([]int{5, 8}))
		Expect(spc.Catalog.Molecule(1).Bonds[0].Indices()).To(Equal([]int{2, 5}))
	})

	It("returns zero for an empty change", func() {
		Expect(b.Energy(space.Change{})).To(Equal(0.0))
	})

	It("counts a bond once when several of its atoms are touched", func() {
		c := space.PartialChange(space.GroupChange{Index: 1, Atoms: []int{2, 5, 7}, Internal: true})
		Expect(b.Energy(c)).To(BeNumerically("~", inter+intra, 1e-12))
	})

	It("ignores intra bonds of atoms not in any bond", func() {
		c := space.PartialChange(space.GroupChange{Index: 1, Atoms: []int{0, 7}, Internal: true})
		Expect(b.Energy(c)).To(BeNumerically("~", inter, 1e-12))
	})

	It("skips intra bonds for rigid moves", func() {
		c := space.PartialChange(space.GroupChange{Index: 1, All: true})
		Expect(b.Energy(c)).To(BeNumerically("~", inter, 1e-12))

		c = space.PartialChange(space.GroupChange{Index: 1, All: true, Internal: true})
		Expect(b.Energy(c)).To(BeNumerically("~", inter+intra, 1e-12))
	})

	It("sums every non-empty group on global changes", func() {
		Expect(b.Energy(space.GlobalChange())).To(BeNumerically("~", inter+intra, 1e-12))

		_, err := spc.Deactivate(1, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Energy(space.VolumeChange())).To(BeNumerically("~", inter, 1e-12))
	})

	It("rebuilds intra lists on update", func() {
		spc.RemoveGroup(0)
		b.Update()
		Expect(b.intra[0][0].Indices()).To(Equal([]int{2, 5}))
	})
})

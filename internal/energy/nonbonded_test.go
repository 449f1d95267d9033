package energy

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mcspace/internal/geometry"
	"github.com/san-kum/mcspace/internal/particle"
	"github.com/san-kum/mcspace/internal/potential"
	"github.com/san-kum/mcspace/internal/space"
)

func inverse() potential.PairPotential {
	return potential.Func(func(r float64) float64 { return 1 / r })
}

func onLine(xs ...float64) particle.Vector {
	v := make(particle.Vector, len(xs))
	for i, x := range xs {
		v[i] = particle.Particle{Pos: r3.Vec{X: x}, Mw: 1, Charge: 1}
	}
	return v
}

func randomParticles(rng *rand.Rand, geo geometry.Geometry, n int) particle.Vector {
	v := make(particle.Vector, n)
	for i := range v {
		v[i] = particle.Particle{Pos: geo.RandomPos(rng), Mw: 1, Charge: float64(rng.Intn(3) - 1)}
	}
	return v
}

// mixedSpace has an atomic group, two molecular groups and a partly
// inactive atomic group.
func mixedSpace(seed int64) *space.Space {
	rng := rand.New(rand.NewSource(seed))
	spc := space.New(geometry.NewCuboid(r3.Vec{X: 30, Y: 30, Z: 30}), nil)
	insert := func(n int, opts ...space.InsertOption) {
		if _, err := spc.Insert(0, randomParticles(rng, spc.Geo, n), opts...); err != nil {
			panic(err)
		}
	}
	insert(5, space.WithAtomic(true))
	insert(3, space.WithAtomic(false))
	insert(4, space.WithAtomic(false))
	insert(6, space.WithAtomic(true), space.WithActive(4))
	return spc
}

// reference sums every active pair except those inside a molecular group.
func reference(spc *space.Space, pot potential.PairPotential) float64 {
	u := 0.0
	for i, a := range spc.ActiveParticles() {
		for j, b := range spc.ActiveParticles() {
			if j <= i {
				continue
			}
			gi, _ := spc.GroupOf(i)
			gj, _ := spc.GroupOf(j)
			if gi == gj && !spc.Groups[gi].Atomic {
				continue
			}
			u += pot.Energy(a, b, spc.Geo.VDist(a.Pos, b.Pos))
		}
	}
	return u
}

var _ = Describe("Nonbonded", func() {
	It("returns zero for an empty change", func() {
		spc := mixedSpace(1)
		nb := NewNonbonded(spc, inverse(), math.Inf(1))
		Expect(nb.Energy(space.Change{})).To(Equal(0.0))
		Expect(nb.Energy(space.PartialChange())).To(Equal(0.0))
	})

	It("skips group pairs beyond the cutoff", func() {
		spc := space.New(geometry.NewCuboid(r3.Vec{X: 100, Y: 100, Z: 100}), nil)
		_, err := spc.Insert(0, onLine(0, 1, 2), space.WithAtomic(true))
		Expect(err).NotTo(HaveOccurred())
		_, err = spc.Insert(0, onLine(10, 11, 12), space.WithAtomic(true))
		Expect(err).NotTo(HaveOccurred())

		Expect(spc.Groups[0].CM.X).To(BeNumerically("~", 1, 1e-12))
		Expect(spc.Groups[1].CM.X).To(BeNumerically("~", 11, 1e-12))

		cut := NewNonbonded(spc, inverse(), 5)
		Expect(cut.g2g(0, 1)).To(Equal(0.0))

		full := NewNonbonded(spc, inverse(), math.Inf(1))
		direct := 0.0
		for _, a := range []float64{0, 1, 2} {
			for _, b := range []float64{10, 11, 12} {
				direct += 1 / (b - a)
			}
		}
		Expect(direct).To(BeNumerically(">", 0))
		Expect(full.g2g(0, 1)).To(BeNumerically("~", direct, 1e-12))

		// atomic internal pairs remain: 1 + 1/2 + 1 per group
		Expect(cut.Energy(space.GlobalChange())).To(BeNumerically("~", 5, 1e-12))

		info := cut.Info()
		Expect(info.Params["g2gskip"]).To(BeNumerically(">=", 1))
		Expect(info.Params["cutoff_g2g"]).To(Equal(5.0))
	})

	It("matches brute force for a single atom", func() {
		spc := mixedSpace(2)
		nb := NewNonbonded(spc, inverse(), math.Inf(1))

		for _, tc := range []struct{ group, local int }{{0, 2}, {1, 1}, {3, 0}} {
			g := &spc.Groups[tc.group]
			k := g.Index(tc.local)
			want := 0.0
			for l, p := range spc.ActiveParticles() {
				if l == k || (!g.Atomic && g.Contains(l)) {
					continue
				}
				want += inverse().Energy(&spc.Particles[k], p, spc.Geo.VDist(spc.Particles[k].Pos, p.Pos))
			}
			c := space.PartialChange(space.GroupChange{Index: tc.group, Atoms: []int{tc.local}})
			Expect(nb.Energy(c)).To(BeNumerically("~", want, 1e-9), "group %d", tc.group)
		}

		inactive := space.PartialChange(space.GroupChange{Index: 3, Atoms: []int{5}})
		Expect(nb.Energy(inactive)).To(Equal(0.0))
	})

	It("ignores the cutoff for a single atom", func() {
		spc := space.New(geometry.NewCuboid(r3.Vec{X: 100, Y: 100, Z: 100}), nil)
		_, err := spc.Insert(0, onLine(0, 1, 2), space.WithAtomic(true))
		Expect(err).NotTo(HaveOccurred())
		_, err = spc.Insert(0, onLine(10, 11, 12), space.WithAtomic(true))
		Expect(err).NotTo(HaveOccurred())

		nb := NewNonbonded(spc, inverse(), 5)
		c := space.PartialChange(space.GroupChange{Index: 0, Atoms: []int{2}})
		want := 1.0/2 + 1.0/1 + 1.0/8 + 1.0/9 + 1.0/10
		Expect(nb.Energy(c)).To(BeNumerically("~", want, 1e-12))
	})

	It("counts particles leaving an atomic group", func() {
		current := space.New(geometry.NewCuboid(r3.Vec{X: 100, Y: 100, Z: 100}), nil)
		_, err := current.Insert(0, onLine(0, 1, 2, 3), space.WithAtomic(true))
		Expect(err).NotTo(HaveOccurred())
		_, err = current.Insert(0, onLine(20), space.WithAtomic(true))
		Expect(err).NotTo(HaveOccurred())

		trial := current.Clone()
		r, err := trial.Deactivate(0, 1)
		Expect(err).NotTo(HaveOccurred())
		c := space.PartialChange(space.GroupChange{Index: 0, Deactivated: []space.Range{r}})

		du := NewNonbonded(trial, inverse(), math.Inf(1)).Energy(c) -
			NewNonbonded(current, inverse(), math.Inf(1)).Energy(c)
		Expect(du).To(BeNumerically("~", -(1.0/3+1.0/2+1.0+1.0/17), 1e-12))
	})

	It("counts particles entering an atomic group", func() {
		current := space.New(geometry.NewCuboid(r3.Vec{X: 100, Y: 100, Z: 100}), nil)
		_, err := current.Insert(0, onLine(0, 3, 7), space.WithAtomic(true), space.WithActive(1))
		Expect(err).NotTo(HaveOccurred())
		_, err = current.Insert(0, onLine(20), space.WithAtomic(true))
		Expect(err).NotTo(HaveOccurred())

		trial := current.Clone()
		r, err := trial.Activate(0, 1)
		Expect(err).NotTo(HaveOccurred())
		c := space.PartialChange(space.GroupChange{Index: 0, Atoms: []int{0}, Activated: []space.Range{r}})

		du := NewNonbonded(trial, inverse(), math.Inf(1)).Energy(c) -
			NewNonbonded(current, inverse(), math.Inf(1)).Energy(c)
		Expect(du).To(BeNumerically("~", 1.0/3+1.0/17, 1e-12))
	})

	It("never skips with an infinite cutoff", func() {
		spc := mixedSpace(3)
		pot := potential.Coulomb{LB: 7}
		nb := NewNonbonded(spc, pot, math.Inf(1))

		Expect(nb.Energy(space.GlobalChange())).To(BeNumerically("~", reference(spc, pot), 1e-9))
		Expect(nb.Energy(space.VolumeChange())).To(BeNumerically("~", reference(spc, pot), 1e-9))
		Expect(nb.Info().Params["g2gskip"]).To(Equal(0))
		Expect(nb.Info().Params).NotTo(HaveKey("cutoff_g2g"))
	})

	DescribeTable("gives the same energy difference as a full evaluation",
		func(move func(spc *space.Space) space.Change) {
			current := mixedSpace(4)
			trial := current.Clone()
			c := move(trial)
			for i := range trial.Groups {
				trial.UpdateMassCenter(i)
			}

			pot := potential.Coulomb{LB: 7}
			uc := NewNonbonded(current, pot, math.Inf(1))
			ut := NewNonbonded(trial, pot, math.Inf(1))

			du := ut.Energy(c) - uc.Energy(c)
			want := reference(trial, pot) - reference(current, pot)
			Expect(du).To(BeNumerically("~", want, 1e-9))
		},
		Entry("single atom in atomic group", func(spc *space.Space) space.Change {
			spc.Particles[spc.Groups[0].Index(3)].Pos.X += 1.5
			return space.PartialChange(space.GroupChange{Index: 0, Atoms: []int{3}})
		}),
		Entry("single atom in molecular group", func(spc *space.Space) space.Change {
			spc.Particles[spc.Groups[2].Index(1)].Pos.Y -= 0.7
			return space.PartialChange(space.GroupChange{Index: 2, Atoms: []int{1}, Internal: true})
		}),
		Entry("whole molecular group", func(spc *space.Space) space.Change {
			spc.Active(1).Translate(r3.Vec{X: 1, Y: 2}, spc.Geo)
			return space.PartialChange(space.GroupChange{Index: 1, All: true})
		}),
		Entry("whole atomic group", func(spc *space.Space) space.Change {
			spc.Active(3).Translate(r3.Vec{Z: -2}, spc.Geo)
			return space.PartialChange(space.GroupChange{Index: 3, All: true})
		}),
		Entry("activated particle", func(spc *space.Space) space.Change {
			r, err := spc.Activate(3, 1)
			if err != nil {
				panic(err)
			}
			spc.Particles[spc.Groups[3].Index(0)].Pos.X += 0.5
			return space.PartialChange(space.GroupChange{Index: 3, Atoms: []int{0}, Activated: []space.Range{r}})
		}),
		Entry("deactivated particle", func(spc *space.Space) space.Change {
			r, err := spc.Deactivate(0, 1)
			if err != nil {
				panic(err)
			}
			return space.PartialChange(space.GroupChange{Index: 0, Deactivated: []space.Range{r}})
		}),
		Entry("several groups and atoms", func(spc *space.Space) space.Change {
			spc.Particles[spc.Groups[0].Index(1)].Pos.X += 1
			spc.Particles[spc.Groups[0].Index(4)].Pos.Z += 2
			spc.Active(2).Translate(r3.Vec{Y: 1}, spc.Geo)
			return space.PartialChange(
				space.GroupChange{Index: 0, Atoms: []int{1, 4}},
				space.GroupChange{Index: 2, All: true},
			)
		}),
	)
})

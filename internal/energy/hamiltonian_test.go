package energy

import (
	"bytes"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mcspace/internal/catalog"
	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/geometry"
	"github.com/san-kum/mcspace/internal/potential"
	"github.com/san-kum/mcspace/internal/space"
)

func term(key string, block any) config.TermConfig {
	tc, err := config.Term(key, block)
	Expect(err).NotTo(HaveOccurred())
	return tc
}

type constTerm float64

func (c constTerm) Energy(space.Change) float64 { return float64(c) }
func (c constTerm) Info() Info                  { return Info{Name: "const"} }

// saltSpace is a small charged atomic system in a sphere.
func saltSpace() *space.Space {
	cat, err := catalog.New(
		[]catalog.AtomType{
			{Name: "Na", Charge: 1, Radius: 1, Mw: 23, Sigma: 2, Epsilon: 0.5},
			{Name: "Cl", Charge: -1, Radius: 1, Mw: 35, Sigma: 3, Epsilon: 0.5},
		},
		[]catalog.MoleculeType{{Name: "salt", Atoms: []int{0, 1}, Atomic: true}},
	)
	Expect(err).NotTo(HaveOccurred())
	spc := space.New(geometry.NewSphere(20), cat)
	ions := onLine(-6, -2, 2, 6)
	for i := range ions {
		p := cat.NewParticle(i % 2)
		p.Pos = ions[i].Pos
		ions[i] = p
	}
	_, err = spc.Insert(0, ions)
	Expect(err).NotTo(HaveOccurred())
	return spc
}

var _ = Describe("Hamiltonian", func() {
	var (
		logs *bytes.Buffer
		env  Env
	)

	BeforeEach(func() {
		logs = &bytes.Buffer{}
		env = Env{Temperature: 298.15, Logger: slog.New(slog.NewTextHandler(logs, nil))}
	})

	It("knows every shipped key", func() {
		Expect(DefaultRegistry().Keys()).To(ConsistOf(
			"nonbonded_coulomblj", "nonbonded_coulombhs", "nonbonded_coulomb",
			"nonbonded_lj", "nonbonded_hs", "bonded", "isobaric",
			"constrain", "container_overlap", "selfenergy",
		))
	})

	It("warns about unknown keys and skips them", func() {
		list := config.EnergyList{
			term("nonbonded_coulomb", map[string]any{"epsr": 80}),
			term("nonbonded_magic", map[string]any{}),
			term("container_overlap", map[string]any{}),
		}
		h, err := NewHamiltonian(saltSpace(), list, env, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(h.Terms()).To(HaveLen(2))
		Expect(logs.String()).To(ContainSubstring("ignoring unknown energy term"))
		Expect(logs.String()).To(ContainSubstring("nonbonded_magic"))
	})

	It("names the key of a malformed block", func() {
		list := config.EnergyList{term("nonbonded_coulomb", map[string]any{"epsr": "water"})}
		_, err := NewHamiltonian(saltSpace(), list, env, nil)
		Expect(err).To(MatchError(ContainSubstring(`energy term "nonbonded_coulomb"`)))

		list = config.EnergyList{term("isobaric", map[string]any{})}
		_, err = NewHamiltonian(saltSpace(), list, env, nil)
		Expect(err).To(MatchError(ContainSubstring(`energy term "isobaric"`)))
	})

	It("returns zero from every term for an empty change", func() {
		spc := saltSpace()
		list := config.EnergyList{
			term("nonbonded_coulomblj", map[string]any{"epsr": 80, "cutoff_g2g": 10}),
			term("nonbonded_hs", nil),
			term("bonded", nil),
			term("isobaric", map[string]any{"P/atm": 1}),
			term("container_overlap", nil),
			term("selfenergy", map[string]any{"type": "fanourgakis", "cutoff": 10, "epsr": 80}),
			term("constrain", map[string]any{"type": "system", "property": "V", "range": []float64{0, 1}}),
		}
		h, err := NewHamiltonian(spc, list, env, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(h.Terms()).To(HaveLen(len(list)))
		for _, t := range h.Terms() {
			Expect(t.Energy(space.Change{})).To(Equal(0.0), t.Info().Name)
		}
		Expect(h.Energy(space.Change{})).To(Equal(0.0))
	})

	It("sums terms and stops at infinity", func() {
		h := &Hamiltonian{}
		h.Add(constTerm(1.5))
		h.Add(constTerm(2))
		Expect(h.Energy(space.GlobalChange())).To(Equal(3.5))

		h.Add(constTerm(math.Inf(1)))
		h.Add(constTerm(math.Inf(-1)))
		Expect(h.Energy(space.GlobalChange())).To(Equal(Infinity))
		Expect(h.Info().Params["terms"]).To(HaveLen(4))
	})

	It("matches a nonbonded term built by hand", func() {
		spc := saltSpace()
		h, err := NewHamiltonian(spc, config.EnergyList{term("nonbonded_coulomb", map[string]any{"epsr": 80})}, env, nil)
		Expect(err).NotTo(HaveOccurred())
		nb := NewNonbonded(spc, potential.Coulomb{LB: potential.BjerrumLength(80, 298.15)}, math.Inf(1))
		Expect(h.Energy(space.GlobalChange())).To(BeNumerically("~", nb.Energy(space.GlobalChange()), 1e-12))
	})

	It("accepts a custom registry", func() {
		reg := NewRegistry()
		reg.Register("constant", func(*space.Space, config.TermConfig, Env) (Term, error) { return constTerm(4), nil })
		h, err := NewHamiltonian(saltSpace(), config.EnergyList{term("constant", nil), term("bonded", nil)}, env, reg)
		Expect(err).NotTo(HaveOccurred())
		Expect(h.Energy(space.GlobalChange())).To(Equal(4.0))
	})
})

var _ = Describe("Isobaric", func() {
	It("reports P V - (N+1) ln V on volume and particle number changes", func() {
		spc := saltSpace()
		t, err := newIsobaricTerm(spc, term("isobaric", map[string]any{"P/atm": 1}), Env{Temperature: 298.15})
		Expect(err).NotTo(HaveOccurred())
		iso := t.(*Isobaric)

		v := spc.Geo.Volume()
		want := iso.P*v - 5*math.Log(v)
		Expect(iso.Energy(space.VolumeChange())).To(BeNumerically("~", want, 1e-9))
		Expect(iso.Energy(space.GlobalChange())).To(BeNumerically("~", want, 1e-9))
		Expect(iso.Energy(space.PartialChange(space.GroupChange{Index: 0, Atoms: []int{1}}))).To(Equal(0.0))
		dn := space.PartialChange(space.GroupChange{Index: 0, Deactivated: []space.Range{{Begin: 3, End: 4}}})
		Expect(iso.Energy(dn)).To(BeNumerically("~", want, 1e-9))

		Expect(iso.Info().Params["P/atm"]).To(BeNumerically("~", 1, 1e-9))
		Expect(iso.Info().Cite).NotTo(BeEmpty())
	})

	It("counts molecular groups once", func() {
		spc := chainSpace()
		t, err := newIsobaricTerm(spc, term("isobaric", map[string]any{"P/mM": 10}), Env{})
		Expect(err).NotTo(HaveOccurred())
		v := spc.Geo.Volume()
		p := 10 * 1e-3 * avogadro / a3PerLitre
		Expect(t.Energy(space.VolumeChange())).To(BeNumerically("~", p*v-3*math.Log(v), 1e-9))
	})
})

var _ = Describe("ContainerOverlap", func() {
	It("is infinite only when a touched particle is outside", func() {
		spc := saltSpace()
		o := &ContainerOverlap{spc: spc}
		spc.Particles[3].Pos = r3.Vec{X: 25}

		Expect(o.Energy(space.PartialChange(space.GroupChange{Index: 0, Atoms: []int{0}}))).To(Equal(0.0))
		Expect(o.Energy(space.PartialChange(space.GroupChange{Index: 0, Atoms: []int{3}}))).To(Equal(Infinity))
		Expect(o.Energy(space.PartialChange(space.GroupChange{Index: 0, All: true}))).To(Equal(Infinity))
		Expect(o.Energy(space.VolumeChange())).To(Equal(Infinity))

		_, err := spc.Deactivate(0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(o.Energy(space.GlobalChange())).To(Equal(0.0))
	})
})

var _ = Describe("SelfEnergy", func() {
	It("counts charges entering or leaving and all charges on global changes", func() {
		spc := saltSpace()
		t, err := newSelfEnergyTerm(spc, term("selfenergy", map[string]any{"type": "qpotential", "cutoff": 10, "epsr": 80}), Env{Temperature: 298.15})
		Expect(err).NotTo(HaveOccurred())
		lB := potential.BjerrumLength(80, 298.15)

		dn := space.PartialChange(space.GroupChange{Index: 0, Atoms: []int{0}, Activated: []space.Range{{Begin: 1, End: 2}}})
		Expect(t.Energy(dn)).To(BeNumerically("~", -0.5*2*lB/10, 1e-12))
		Expect(t.Energy(space.GlobalChange())).To(BeNumerically("~", -0.5*4*lB/10, 1e-12))
		Expect(t.Energy(space.VolumeChange())).To(Equal(0.0))
		Expect(t.Energy(space.PartialChange(space.GroupChange{Index: 0, Atoms: []int{0}}))).To(Equal(0.0))

		trial := spc.Clone()
		r, err := trial.Deactivate(0, 1)
		Expect(err).NotTo(HaveOccurred())
		tt, err := newSelfEnergyTerm(trial, term("selfenergy", map[string]any{"type": "qpotential", "cutoff": 10, "epsr": 80}), Env{Temperature: 298.15})
		Expect(err).NotTo(HaveOccurred())
		leave := space.PartialChange(space.GroupChange{Index: 0, Deactivated: []space.Range{r}})
		Expect(tt.Energy(leave) - t.Energy(leave)).To(BeNumerically("~", 0.5*lB/10, 1e-12))

		_, err = newSelfEnergyTerm(spc, term("selfenergy", map[string]any{"type": "ewald", "cutoff": 10, "epsr": 80}), Env{})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Constrain", func() {
	DescribeTable("reaction coordinates",
		func(block map[string]any, inside bool) {
			spc := saltSpace()
			t, err := newConstrainTerm(spc, term("constrain", block), Env{})
			Expect(err).NotTo(HaveOccurred())
			want := 0.0
			if !inside {
				want = Infinity
			}
			Expect(t.Energy(space.GlobalChange())).To(Equal(want))
			Expect(t.Energy(space.Change{})).To(Equal(0.0))
		},
		Entry("system volume inside", map[string]any{"type": "system", "property": "V", "range": []float64{1000, 1e6}}, true),
		Entry("system charge outside", map[string]any{"type": "system", "property": "Q", "range": []float64{1, 2}}, false),
		Entry("atom x inside", map[string]any{"type": "atom", "index": 1, "property": "x", "range": []float64{-3, -1}}, true),
		Entry("atom R outside", map[string]any{"type": "atom", "index": 3, "property": "R", "range": []float64{0, 5}}, false),
		Entry("molecule size inside", map[string]any{"type": "molecule", "index": 0, "property": "N", "range": []float64{4, 4}}, true),
	)

	It("measures mass centre separations", func() {
		spc := chainSpace()
		t, err := newConstrainTerm(spc, term("constrain", map[string]any{"type": "cmcm", "index": []int{0, 1}, "range": []float64{0, 10}}), Env{})
		Expect(err).NotTo(HaveOccurred())
		Expect(t.(*Constrain).Value()).To(BeNumerically("~", 14.5, 1e-9))
		Expect(t.Energy(space.GlobalChange())).To(Equal(Infinity))
	})

	It("rejects bad blocks", func() {
		spc := saltSpace()
		for _, block := range []map[string]any{
			{"type": "dihedral"},
			{"type": "atom", "index": 99, "property": "x"},
			{"type": "cmcm", "index": 0},
			{"type": "system", "property": "V", "range": []float64{2, 1}},
			{"type": "molecule", "index": 0, "property": "spin"},
		} {
			_, err := newConstrainTerm(spc, term("constrain", block), Env{})
			Expect(err).To(HaveOccurred(), "%v", block)
		}
	})
})

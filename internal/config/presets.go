package config

import "sort"

var presets = map[string]string{
	"salt": `
seed: 7
macrosteps: 10
microsteps: 2000
atomlist:
  - {name: Na, q: 1.0, r: 1.5, mw: 22.99, sigma: 3.0, eps: 0.1, dp: 2.0}
  - {name: Cl, q: -1.0, r: 2.0, mw: 35.45, sigma: 4.0, eps: 0.1, dp: 2.0}
moleculelist:
  - {name: salt, atoms: [Na, Cl], atomic: true, ninit: 20}
geometry: {type: cuboid, length: [40]}
energy:
  - nonbonded_coulombhs: {epsr: 80}
moves:
  - {type: atom_translate, molecule: salt, dp: 2.0}
`,
	"dimers": `
seed: 11
macrosteps: 10
microsteps: 1000
atomlist:
  - {name: A, q: 1.0, r: 2.0, mw: 10}
  - {name: B, q: -1.0, r: 2.0, mw: 10}
moleculelist:
  - name: dimer
    atoms: [A, B]
    ninit: 10
    structure: [[0, 0, 0], [5, 0, 0]]
    bonds:
      - {type: harmonic, index: [0, 1], k: 1.0, req: 5.0}
geometry: {type: sphere, radius: 40}
energy:
  - nonbonded_coulombhs: {epsr: 80, cutoff_g2g: 30}
  - bonded: {}
  - container_overlap: {}
moves:
  - {type: molecule_translate, molecule: dimer, dp: 3.0, weight: 1}
  - {type: atom_translate, molecule: dimer, dp: 0.5, weight: 1}
`,
	"npt": `
seed: 3
macrosteps: 10
microsteps: 500
atomlist:
  - {name: LJ, r: 1.0, mw: 1, sigma: 2.0, eps: 0.5, dp: 1.0}
moleculelist:
  - {name: fluid, atoms: [LJ], atomic: true, ninit: 50}
geometry: {type: cuboid, length: [30]}
energy:
  - nonbonded_lj: {}
  - isobaric: {P/atm: 1.0}
moves:
  - {type: atom_translate, molecule: fluid, dp: 1.0, weight: 10}
  - {type: volume, dp: 0.05, weight: 1}
`,
}

// GetPreset returns a parsed copy of the named preset, or nil.
func GetPreset(name string) *Config {
	src, ok := presets[name]
	if !ok {
		return nil
	}
	cfg, err := Parse([]byte(src))
	if err != nil {
		panic("config: broken preset " + name + ": " + err.Error())
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

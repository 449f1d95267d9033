package energy

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/geometry"
	"github.com/san-kum/mcspace/internal/space"
)

// Constrain keeps a reaction coordinate inside [Min, Max] by returning
// Infinity whenever a change moves it outside.
type Constrain struct {
	kind     string
	property string
	coord    func() float64
	Min, Max float64
}

type constrainBlock struct {
	Type     string     `yaml:"type"`
	Property string     `yaml:"property"`
	Index    any        `yaml:"index"`
	Range    [2]float64 `yaml:"range,flow"`
}

func newConstrainTerm(spc *space.Space, tc config.TermConfig, _ Env) (Term, error) {
	var b constrainBlock
	if err := tc.Decode(&b); err != nil {
		return nil, err
	}
	if b.Range[0] > b.Range[1] {
		return nil, fmt.Errorf("range [%g, %g] is empty", b.Range[0], b.Range[1])
	}
	idx, err := indexList(b.Index)
	if err != nil {
		return nil, err
	}
	coord, err := reactionCoordinate(spc, b.Type, b.Property, idx)
	if err != nil {
		return nil, fmt.Errorf("reaction coordinate %q: %w", b.Type, err)
	}
	return &Constrain{kind: b.Type, property: b.Property, coord: coord, Min: b.Range[0], Max: b.Range[1]}, nil
}

func (c *Constrain) Info() Info {
	return Info{Name: "constrain", Params: map[string]any{
		"type":     c.kind,
		"property": c.property,
		"range":    []float64{c.Min, c.Max},
	}}
}

// Value returns the current reaction coordinate.
func (c *Constrain) Value() float64 { return c.coord() }

func (c *Constrain) Energy(ch space.Change) float64 {
	if ch.Empty() {
		return 0
	}
	if v := c.coord(); v < c.Min || v > c.Max {
		return Infinity
	}
	return 0
}

func reactionCoordinate(spc *space.Space, kind, property string, idx []int) (func() float64, error) {
	switch kind {
	case "system":
		switch property {
		case "V":
			return func() float64 { return spc.Geo.Volume() }, nil
		case "N":
			return func() float64 { return float64(spc.NumActive()) }, nil
		case "Q":
			return func() float64 {
				q := 0.0
				for _, p := range spc.ActiveParticles() {
					q += p.Charge
				}
				return q
			}, nil
		}
	case "atom":
		if len(idx) != 1 || idx[0] < 0 || idx[0] >= len(spc.Particles) {
			return nil, fmt.Errorf("atom index %v out of range", idx)
		}
		i := idx[0]
		if property == "q" {
			return func() float64 { return spc.Particles[i].Charge }, nil
		}
		if f := vectorProperty(property); f != nil {
			return func() float64 { return f(spc.Particles[i].Pos) }, nil
		}
	case "molecule":
		if len(idx) != 1 || idx[0] < 0 || idx[0] >= len(spc.Groups) {
			return nil, fmt.Errorf("group index %v out of range", idx)
		}
		i := idx[0]
		switch property {
		case "N":
			return func() float64 { return float64(spc.Groups[i].Size()) }, nil
		case "Q":
			return func() float64 { return spc.Active(i).Charge() }, nil
		}
		if f := vectorProperty(property); f != nil {
			return func() float64 { return f(spc.Groups[i].CM) }, nil
		}
	case "cmcm":
		if len(idx) != 2 || idx[0] < 0 || idx[1] < 0 || idx[0] >= len(spc.Groups) || idx[1] >= len(spc.Groups) {
			return nil, fmt.Errorf("cmcm needs two group indices, got %v", idx)
		}
		i, j := idx[0], idx[1]
		return func() float64 {
			return geometry.Distance(spc.Geo, spc.Groups[i].CM, spc.Groups[j].CM)
		}, nil
	default:
		return nil, fmt.Errorf("unknown coordinate type")
	}
	return nil, fmt.Errorf("unknown property %q", property)
}

func vectorProperty(name string) func(r3.Vec) float64 {
	switch name {
	case "x":
		return func(v r3.Vec) float64 { return v.X }
	case "y":
		return func(v r3.Vec) float64 { return v.Y }
	case "z":
		return func(v r3.Vec) float64 { return v.Z }
	case "R":
		return r3.Norm
	}
	return nil
}

// indexList accepts a single integer or a list of integers.
func indexList(v any) ([]int, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int:
		return []int{x}, nil
	case []any:
		out := make([]int, len(x))
		for i, e := range x {
			n, ok := e.(int)
			if !ok {
				return nil, fmt.Errorf("index entry %v is not an integer", e)
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("index %v is not an integer or list", v)
	}
}

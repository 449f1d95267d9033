// Package particle holds the particle record and the particle store that
// groups and spaces index into.
package particle

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mcspace/internal/geometry"
)

// Particle is a single interaction site. ID is the atom type and never
// changes after creation; everything else is mutable state.
type Particle struct {
	ID     int     `json:"id"`
	Pos    r3.Vec  `json:"pos"`
	Dir    r3.Vec  `json:"dir"`
	Charge float64 `json:"q"`
	Radius float64 `json:"r"`
	Mw     float64 `json:"mw"`
}

// Vector is the particle store. Anything holding a view into it must do
// so by offset since appends may move the backing array.
type Vector []Particle

func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

// Charge returns the net charge.
func (v Vector) Charge() float64 {
	q := 0.0
	for i := range v {
		q += v[i].Charge
	}
	return q
}

// Translate displaces every particle by d and applies the boundary.
func (v Vector) Translate(d r3.Vec, geo geometry.Geometry) {
	for i := range v {
		v[i].Pos = r3.Add(v[i].Pos, d)
		geo.Boundary(&v[i].Pos)
	}
}

// MassCenter returns the mass weighted centre, unwrapped about the first
// particle so molecules straddling a periodic boundary come out right.
// Massless particles count with unit weight.
func MassCenter(v Vector, geo geometry.Geometry) r3.Vec {
	if len(v) == 0 {
		return r3.Vec{}
	}
	origin := v[0].Pos
	var sum r3.Vec
	w := 0.0
	for i := range v {
		m := v[i].Mw
		if m <= 0 {
			m = 1
		}
		sum = r3.Add(sum, r3.Scale(m, geo.VDist(v[i].Pos, origin)))
		w += m
	}
	cm := r3.Add(origin, r3.Scale(1/w, sum))
	geo.Boundary(&cm)
	return cm
}

package geometry

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Cuboid is a box centred at the origin, periodic in all directions.
type Cuboid struct {
	Len r3.Vec
}

func NewCuboid(l r3.Vec) *Cuboid { return &Cuboid{Len: l} }

func (c *Cuboid) Name() string    { return "cuboid" }
func (c *Cuboid) Volume() float64 { return c.Len.X * c.Len.Y * c.Len.Z }

func (c *Cuboid) Clone() Geometry {
	cp := *c
	return &cp
}

func (c *Cuboid) SqDist(a, b r3.Vec) float64 { return r3.Norm2(c.VDist(a, b)) }

func (c *Cuboid) SetVolume(v float64) (float64, error) {
	s, err := scaleFor(c.Volume(), v)
	if err != nil {
		return 0, err
	}
	c.Len = r3.Scale(s, c.Len)
	return s, nil
}

func (c *Cuboid) Boundary(p *r3.Vec) {
	p.X = wrap(p.X, c.Len.X)
	p.Y = wrap(p.Y, c.Len.Y)
	p.Z = wrap(p.Z, c.Len.Z)
}

func (c *Cuboid) VDist(a, b r3.Vec) r3.Vec {
	d := r3.Sub(a, b)
	c.Boundary(&d)
	return d
}

func (c *Cuboid) Collision(p r3.Vec) bool {
	return math.Abs(p.X) > c.Len.X/2 || math.Abs(p.Y) > c.Len.Y/2 || math.Abs(p.Z) > c.Len.Z/2
}

func (c *Cuboid) RandomPos(rng *rand.Rand) r3.Vec {
	return r3.Vec{X: half(rng) * c.Len.X, Y: half(rng) * c.Len.Y, Z: half(rng) * c.Len.Z}
}

// Slit is periodic in x and y and has hard walls in z.
type Slit struct {
	Cuboid
}

func NewSlit(l r3.Vec) *Slit { return &Slit{Cuboid{Len: l}} }

func (s *Slit) Name() string { return "slit" }

func (s *Slit) Clone() Geometry {
	cp := *s
	return &cp
}

func (s *Slit) Boundary(p *r3.Vec) {
	p.X = wrap(p.X, s.Len.X)
	p.Y = wrap(p.Y, s.Len.Y)
}

func (s *Slit) VDist(a, b r3.Vec) r3.Vec {
	d := r3.Sub(a, b)
	s.Boundary(&d)
	return d
}

func (s *Slit) SqDist(a, b r3.Vec) float64 { return r3.Norm2(s.VDist(a, b)) }

func (s *Slit) Collision(p r3.Vec) bool { return math.Abs(p.Z) > s.Len.Z/2 }

// Sphere is a hard spherical cell without periodicity.
type Sphere struct {
	Radius float64
}

func NewSphere(radius float64) *Sphere { return &Sphere{Radius: radius} }

func (s *Sphere) Name() string    { return "sphere" }
func (s *Sphere) Volume() float64 { return 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius }

func (s *Sphere) Clone() Geometry {
	cp := *s
	return &cp
}

func (s *Sphere) Boundary(p *r3.Vec)         {}
func (s *Sphere) VDist(a, b r3.Vec) r3.Vec   { return r3.Sub(a, b) }
func (s *Sphere) SqDist(a, b r3.Vec) float64 { return r3.Norm2(r3.Sub(a, b)) }
func (s *Sphere) Collision(p r3.Vec) bool    { return r3.Norm2(p) > s.Radius*s.Radius }

func (s *Sphere) SetVolume(v float64) (float64, error) {
	f, err := scaleFor(s.Volume(), v)
	if err != nil {
		return 0, err
	}
	s.Radius *= f
	return f, nil
}

func (s *Sphere) RandomPos(rng *rand.Rand) r3.Vec {
	d := 2 * s.Radius
	for {
		p := r3.Vec{X: half(rng) * d, Y: half(rng) * d, Z: half(rng) * d}
		if !s.Collision(p) {
			return p
		}
	}
}

// Cylinder has a hard circular wall and is periodic along z.
type Cylinder struct {
	Length float64
	Radius float64
}

func NewCylinder(length, radius float64) *Cylinder {
	return &Cylinder{Length: length, Radius: radius}
}

func (c *Cylinder) Name() string    { return "cylinder" }
func (c *Cylinder) Volume() float64 { return math.Pi * c.Radius * c.Radius * c.Length }

func (c *Cylinder) Clone() Geometry {
	cp := *c
	return &cp
}

func (c *Cylinder) SetVolume(v float64) (float64, error) {
	f, err := scaleFor(c.Volume(), v)
	if err != nil {
		return 0, err
	}
	c.Radius *= f
	c.Length *= f
	return f, nil
}

func (c *Cylinder) Boundary(p *r3.Vec) { p.Z = wrap(p.Z, c.Length) }

func (c *Cylinder) VDist(a, b r3.Vec) r3.Vec {
	d := r3.Sub(a, b)
	c.Boundary(&d)
	return d
}

func (c *Cylinder) SqDist(a, b r3.Vec) float64 { return r3.Norm2(c.VDist(a, b)) }

func (c *Cylinder) Collision(p r3.Vec) bool {
	return p.X*p.X+p.Y*p.Y > c.Radius*c.Radius || math.Abs(p.Z) > c.Length/2
}

func (c *Cylinder) RandomPos(rng *rand.Rand) r3.Vec {
	d := 2 * c.Radius
	for {
		p := r3.Vec{X: half(rng) * d, Y: half(rng) * d, Z: half(rng) * c.Length}
		if !c.Collision(p) {
			return p
		}
	}
}

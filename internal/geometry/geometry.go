package geometry

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Geometry is the simulation container. Core components only talk to it
// through this interface so containers can be swapped freely.
type Geometry interface {
	Name() string
	Volume() float64
	// SetVolume rescales the container isotropically and returns the
	// linear scaling factor applied to every length.
	SetVolume(v float64) (float64, error)
	// Boundary applies periodic wrapping in place.
	Boundary(p *r3.Vec)
	// VDist returns the minimum image vector a-b.
	VDist(a, b r3.Vec) r3.Vec
	SqDist(a, b r3.Vec) float64
	// Collision reports whether p lies outside the container.
	Collision(p r3.Vec) bool
	RandomPos(rng *rand.Rand) r3.Vec
	Clone() Geometry
}

// Distance returns the minimum image distance between a and b.
func Distance(g Geometry, a, b r3.Vec) float64 {
	return math.Sqrt(g.SqDist(a, b))
}

// New creates a geometry by name. Cuboid and slit take a box length,
// sphere takes a radius and cylinder takes both.
func New(name string, length []float64, radius float64) (Geometry, error) {
	switch name {
	case "cuboid":
		l, err := boxLength(length)
		if err != nil {
			return nil, err
		}
		return NewCuboid(l), nil
	case "slit":
		l, err := boxLength(length)
		if err != nil {
			return nil, err
		}
		return NewSlit(l), nil
	case "sphere":
		if radius <= 0 {
			return nil, fmt.Errorf("sphere radius must be positive, got %f", radius)
		}
		return NewSphere(radius), nil
	case "cylinder":
		if radius <= 0 || len(length) == 0 || length[0] <= 0 {
			return nil, fmt.Errorf("cylinder needs positive radius and length")
		}
		return NewCylinder(length[0], radius), nil
	default:
		return nil, fmt.Errorf("unknown geometry: %s", name)
	}
}

func boxLength(length []float64) (r3.Vec, error) {
	switch len(length) {
	case 1:
		return r3.Vec{X: length[0], Y: length[0], Z: length[0]}, checkPositive(length)
	case 3:
		return r3.Vec{X: length[0], Y: length[1], Z: length[2]}, checkPositive(length)
	default:
		return r3.Vec{}, fmt.Errorf("box length needs 1 or 3 values, got %d", len(length))
	}
}

func checkPositive(v []float64) error {
	for _, x := range v {
		if x <= 0 {
			return fmt.Errorf("box length must be positive, got %f", x)
		}
	}
	return nil
}

func scaleFor(oldV, newV float64) (float64, error) {
	if newV <= 0 || math.IsNaN(newV) || math.IsInf(newV, 0) {
		return 0, fmt.Errorf("volume must be positive and finite, got %f", newV)
	}
	return math.Cbrt(newV / oldV), nil
}

// wrap folds x into [-l/2, l/2).
func wrap(x, l float64) float64 {
	return x - l*math.Round(x/l)
}

func half(rng *rand.Rand) float64 { return rng.Float64() - 0.5 }

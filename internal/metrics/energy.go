package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/mcspace/internal/mc"
)

// Energy averages the running total energy over every observed step. With
// std set it reports the standard deviation instead.
type Energy struct {
	name    string
	std     bool
	samples []float64
}

func NewEnergyMean() *Energy { return &Energy{name: "energy_mean"} }
func NewEnergyStd() *Energy  { return &Energy{name: "energy_std", std: true} }

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s mc.Sample) {
	if math.IsInf(s.Energy, 0) || math.IsNaN(s.Energy) {
		return
	}
	e.samples = append(e.samples, s.Energy)
}

func (e *Energy) Value() float64 {
	if len(e.samples) == 0 {
		return 0
	}
	mean, std := stat.MeanStdDev(e.samples, nil)
	if e.std {
		if len(e.samples) < 2 {
			return 0
		}
		return std
	}
	return mean
}

func (e *Energy) Reset() { e.samples = e.samples[:0] }

// EnergyDrift tracks the largest relative excursion of the running energy
// from the first observed value.
type EnergyDrift struct {
	name    string
	initial float64
	samples []float64
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s mc.Sample) {
	if len(e.samples) == 0 {
		e.initial = s.Energy
		if s.Accepted {
			e.initial -= s.Du
		}
	}
	e.samples = append(e.samples, s.Energy)
}

func (e *EnergyDrift) Value() float64 {
	if len(e.samples) == 0 || e.initial == 0 {
		return 0
	}
	dev := make([]float64, len(e.samples))
	copy(dev, e.samples)
	floats.AddConst(-e.initial, dev)
	return math.Max(math.Abs(floats.Max(dev)), math.Abs(floats.Min(dev))) / math.Abs(e.initial)
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.samples = e.samples[:0]
}

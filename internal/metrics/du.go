package metrics

import (
	"math"

	"github.com/san-kum/mcspace/internal/mc"
)

// MeanAbsDu is the mean magnitude of finite proposed energy changes, a
// rough gauge of how aggressive the moves are.
type MeanAbsDu struct {
	name    string
	sum     float64
	samples int
}

func NewMeanAbsDu() *MeanAbsDu {
	return &MeanAbsDu{
		name: "mean_abs_du",
	}
}

func (m *MeanAbsDu) Name() string {
	return m.name
}

func (m *MeanAbsDu) Observe(s mc.Sample) {
	if math.IsInf(s.Du, 0) || math.IsNaN(s.Du) {
		return
	}
	m.sum += math.Abs(s.Du)
	m.samples++
}

func (m *MeanAbsDu) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanAbsDu) Reset() {
	m.sum = 0
	m.samples = 0
}

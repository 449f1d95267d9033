package metrics

import "github.com/san-kum/mcspace/internal/mc"

// Acceptance is the fraction of accepted steps, optionally restricted to a
// single move.
type Acceptance struct {
	name     string
	move     string
	accepted int
	samples  int
}

func NewAcceptance(move string) *Acceptance {
	name := "acceptance"
	if move != "" {
		name += "_" + move
	}
	return &Acceptance{name: name, move: move}
}

func (a *Acceptance) Name() string { return a.name }

func (a *Acceptance) Observe(s mc.Sample) {
	if a.move != "" && s.Move != a.move {
		return
	}
	a.samples++
	if s.Accepted {
		a.accepted++
	}
}

func (a *Acceptance) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.accepted) / float64(a.samples)
}

func (a *Acceptance) Reset() {
	a.accepted = 0
	a.samples = 0
}

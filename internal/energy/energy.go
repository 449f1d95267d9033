// Package energy evaluates the potential energy of a Space, restricted to
// what a Change says has moved. Energies are in units of kT.
package energy

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/space"
)

// Infinity marks a forbidden configuration, e.g. a hard sphere overlap.
var Infinity = math.Inf(1)

// Info describes a term for reports and run metadata.
type Info struct {
	Name   string         `json:"name"`
	Cite   string         `json:"cite,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// Term is one additive contribution to the energy. Energy must be a pure
// function of the bound space and the change; only the parts the change
// touched need to be included since callers work with differences between
// two spaces evaluated for the same change.
type Term interface {
	Energy(c space.Change) float64
	Info() Info
}

// Updater is implemented by terms caching data derived from the group
// layout. Update must be called after groups are inserted or removed.
type Updater interface {
	Update()
}

// Env carries what constructors need beyond the space and their block.
type Env struct {
	Temperature float64
	Logger      *slog.Logger
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e Env) temperature() float64 {
	if e.Temperature <= 0 {
		return config.DefaultTemperature
	}
	return e.Temperature
}

// Hamiltonian is the ordered sum of its terms.
type Hamiltonian struct {
	terms []Term
}

// NewHamiltonian builds one term per entry of list, in order, bound to spc.
// Unknown keys are logged and skipped; a failing constructor aborts the
// whole construction.
func NewHamiltonian(spc *space.Space, list config.EnergyList, env Env, reg *Registry) (*Hamiltonian, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	log := env.logger()
	h := &Hamiltonian{}
	for _, tc := range list {
		ctor, ok := reg.lookup(tc.Key)
		if !ok {
			log.Warn("ignoring unknown energy term", "key", tc.Key)
			continue
		}
		t, err := ctor(spc, tc, env)
		if err != nil {
			return nil, fmt.Errorf("energy term %q: %w", tc.Key, err)
		}
		h.terms = append(h.terms, t)
		log.Debug("energy term added", "key", tc.Key, "name", t.Info().Name)
	}
	return h, nil
}

func (h *Hamiltonian) Add(t Term)    { h.terms = append(h.terms, t) }
func (h *Hamiltonian) Terms() []Term { return h.terms }

// Energy sums the terms and stops at the first infinite one.
func (h *Hamiltonian) Energy(c space.Change) float64 {
	u := 0.0
	for _, t := range h.terms {
		u += t.Energy(c)
		if math.IsInf(u, 1) {
			return Infinity
		}
	}
	return u
}

func (h *Hamiltonian) Info() Info {
	terms := make([]Info, len(h.terms))
	for i, t := range h.terms {
		terms[i] = t.Info()
	}
	return Info{Name: "hamiltonian", Params: map[string]any{"terms": terms}}
}

func (h *Hamiltonian) Update() {
	for _, t := range h.terms {
		if u, ok := t.(Updater); ok {
			u.Update()
		}
	}
}

// Package mc drives Metropolis Monte Carlo on a pair of spaces: moves are
// proposed on a trial copy and either committed into the current space or
// rolled back from it.
package mc

import (
	"fmt"

	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/energy"
	"github.com/san-kum/mcspace/internal/space"
)

// State is the current/trial pair with one Hamiltonian bound to each.
// Outside of a step both spaces are equal.
type State struct {
	Current  *space.Space
	Trial    *space.Space
	HCurrent *energy.Hamiltonian
	HTrial   *energy.Hamiltonian
}

// NewState clones current into a trial space and builds both Hamiltonians
// from the same energy list.
func NewState(current *space.Space, list config.EnergyList, env energy.Env, reg *energy.Registry) (*State, error) {
	trial := current.Clone()
	hc, err := energy.NewHamiltonian(current, list, env, reg)
	if err != nil {
		return nil, err
	}
	// unknown keys were already reported for the current space
	env.Logger = discardLogger
	ht, err := energy.NewHamiltonian(trial, list, env, reg)
	if err != nil {
		return nil, fmt.Errorf("trial: %w", err)
	}
	return &State{Current: current, Trial: trial, HCurrent: hc, HTrial: ht}, nil
}

// Evaluate returns the energy change of the trial space relative to the
// current one for change c. Forbidden trial states give +Inf.
func (s *State) Evaluate(c space.Change) float64 {
	ut := s.HTrial.Energy(c)
	if ut == energy.Infinity {
		return energy.Infinity
	}
	return ut - s.HCurrent.Energy(c)
}

func (s *State) Commit(c space.Change)   { s.Current.Sync(s.Trial, c) }
func (s *State) Rollback(c space.Change) { s.Trial.Sync(s.Current, c) }

// Energy is the total energy of the current space. A volume change is the
// widest scope, so every term contributes.
func (s *State) Energy() float64 {
	return s.HCurrent.Energy(space.VolumeChange())
}

// Update refreshes cached layouts after groups were inserted or removed
// in both spaces.
func (s *State) Update() {
	s.HCurrent.Update()
	s.HTrial.Update()
}

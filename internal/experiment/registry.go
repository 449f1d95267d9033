package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/mcspace/internal/catalog"
	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/mc"
	"github.com/san-kum/mcspace/internal/metrics"
)

// MoveBuilder turns one moves entry into a move bound to catalog ids.
type MoveBuilder func(cfg config.MoveConfig, cat *catalog.Catalog) (mc.Move, error)

type Registry struct {
	moves map[string]MoveBuilder
}

func NewRegistry() *Registry {
	r := &Registry{
		moves: make(map[string]MoveBuilder),
	}

	r.moves["atom_translate"] = func(cfg config.MoveConfig, cat *catalog.Catalog) (mc.Move, error) {
		mol, err := molecule(cfg, cat)
		if err != nil {
			return nil, err
		}
		dp := cfg.Dp
		if dp == 0 {
			dp = cat.Atom(mol.Atoms[0]).Dp
		}
		return &mc.AtomTranslate{Molecule: mol.ID, Dp: dp}, nil
	}
	r.moves["molecule_translate"] = func(cfg config.MoveConfig, cat *catalog.Catalog) (mc.Move, error) {
		mol, err := molecule(cfg, cat)
		if err != nil {
			return nil, err
		}
		return &mc.MoleculeTranslate{Molecule: mol.ID, Dp: cfg.Dp}, nil
	}
	r.moves["volume"] = func(cfg config.MoveConfig, _ *catalog.Catalog) (mc.Move, error) {
		return &mc.VolumeMove{Dp: cfg.Dp}, nil
	}

	return r
}

func molecule(cfg config.MoveConfig, cat *catalog.Catalog) (*catalog.MoleculeType, error) {
	if cfg.Molecule == "" {
		return nil, fmt.Errorf("move %s: molecule missing", cfg.Type)
	}
	mol, ok := cat.MoleculeByName(cfg.Molecule)
	if !ok {
		return nil, fmt.Errorf("move %s: unknown molecule %q", cfg.Type, cfg.Molecule)
	}
	return mol, nil
}

// Register adds or replaces the builder for a move type.
func (r *Registry) Register(name string, b MoveBuilder) { r.moves[name] = b }

func (r *Registry) GetMove(cfg config.MoveConfig, cat *catalog.Catalog) (mc.Move, error) {
	fn, ok := r.moves[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown move: %s", cfg.Type)
	}
	return fn(cfg, cat)
}

func (r *Registry) ListMoves() []string {
	names := make([]string, 0, len(r.moves))
	for name := range r.moves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns fresh metrics for one simulator, including a
// per-move acceptance for each configured move type.
func (r *Registry) DefaultMetrics(moves []config.MoveConfig) []mc.Metric {
	list := []mc.Metric{
		metrics.NewAcceptance(""),
		metrics.NewEnergyMean(),
		metrics.NewEnergyStd(),
		metrics.NewEnergyDrift(),
		metrics.NewMeanAbsDu(),
	}
	seen := make(map[string]bool, len(moves))
	for _, mv := range moves {
		if !seen[mv.Type] {
			seen[mv.Type] = true
			list = append(list, metrics.NewAcceptance(mv.Type))
		}
	}
	return list
}

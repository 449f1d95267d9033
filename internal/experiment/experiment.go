package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/san-kum/mcspace/internal/catalog"
	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/energy"
	"github.com/san-kum/mcspace/internal/geometry"
	"github.com/san-kum/mcspace/internal/mc"
	"github.com/san-kum/mcspace/internal/space"
)

// Experiment builds spaces, states and simulators from one configuration.
// Every call returns independent objects, so replicas may run
// concurrently.
type Experiment struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	registry *Registry
	terms    *energy.Registry
	log      *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cat, err := catalog.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Experiment{
		cfg:      cfg,
		catalog:  cat,
		registry: NewRegistry(),
		terms:    energy.DefaultRegistry(),
		log:      logger,
	}, nil
}

func (e *Experiment) Config() *config.Config    { return e.cfg }
func (e *Experiment) Catalog() *catalog.Catalog { return e.catalog }
func (e *Experiment) Registry() *Registry       { return e.registry }

func (e *Experiment) RunConfig() mc.RunConfig {
	return mc.RunConfig{
		MacroSteps: e.cfg.MacroSteps,
		MicroSteps: e.cfg.MicroSteps,
		Seed:       e.cfg.Seed,
	}
}

// Space creates the container and inserts the initial molecules at random
// positions drawn from seed.
func (e *Experiment) Space(seed int64) (*space.Space, error) {
	g := e.cfg.Geometry
	geo, err := geometry.New(g.Type, g.Length, g.Radius)
	if err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	spc := space.New(geo, e.catalog)
	if err := spc.InsertMolecules(rand.New(rand.NewSource(seed))); err != nil {
		return nil, fmt.Errorf("insert molecules: %w", err)
	}
	return spc, nil
}

func (e *Experiment) State(spc *space.Space) (*mc.State, error) {
	env := energy.Env{Temperature: e.cfg.Temperature, Logger: e.log}
	return mc.NewState(spc, e.cfg.Energy, env, e.terms)
}

// Simulator builds a state from a fresh space and attaches the configured
// moves and the default metrics.
func (e *Experiment) Simulator(seed int64) (*mc.Simulator, error) {
	spc, err := e.Space(seed)
	if err != nil {
		return nil, err
	}
	st, err := e.State(spc)
	if err != nil {
		return nil, err
	}
	return e.Setup(st)
}

// Setup wraps an existing state, for example one restored from disk.
func (e *Experiment) Setup(st *mc.State) (*mc.Simulator, error) {
	sim := mc.New(st, e.log)
	for _, mv := range e.cfg.Moves {
		m, err := e.registry.GetMove(mv, e.catalog)
		if err != nil {
			return nil, err
		}
		sim.AddMove(m, mv.Weight)
	}
	for _, m := range e.registry.DefaultMetrics(e.cfg.Moves) {
		sim.AddMetric(m)
	}
	return sim, nil
}

// Factory gives replica i its own space placed with seed+i.
func (e *Experiment) Factory() mc.Factory {
	return func(replica int) (*mc.Simulator, error) {
		return e.Simulator(e.cfg.Seed + int64(replica))
	}
}

func (e *Experiment) Run(ctx context.Context) (*mc.Result, *mc.Simulator, error) {
	sim, err := e.Simulator(e.cfg.Seed)
	if err != nil {
		return nil, nil, err
	}
	res, err := sim.Run(ctx, e.RunConfig())
	return res, sim, err
}

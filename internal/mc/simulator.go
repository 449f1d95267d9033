package mc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/mcspace/internal/space"
)

var (
	ErrNoMoves       = errors.New("mc: no moves")
	ErrInvalidConfig = errors.New("mc: invalid run configuration")
)

var discardLogger = slog.New(slog.DiscardHandler)

// Sample is what metrics observe after every step.
type Sample struct {
	Step     int
	Move     string
	Du       float64
	Accepted bool
	// Energy is the running total, initial energy plus accepted changes.
	Energy float64
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type RunConfig struct {
	MacroSteps int
	MicroSteps int
	Seed       int64
}

type MoveStats struct {
	Trials   int `json:"trials"`
	Accepted int `json:"accepted"`
}

func (m MoveStats) Ratio() float64 {
	if m.Trials == 0 {
		return 0
	}
	return float64(m.Accepted) / float64(m.Trials)
}

type Result struct {
	Steps    int                  `json:"steps"`
	Accepted int                  `json:"accepted"`
	Moves    map[string]MoveStats `json:"moves"`
	// Energies holds the total energy after each macro step.
	Energies      []float64 `json:"energies"`
	InitialEnergy float64   `json:"initial_energy"`
	FinalEnergy   float64   `json:"final_energy"`
	// Drift is the recomputed final energy minus the initial energy plus
	// every accepted change. It is zero up to rounding for exact terms.
	Drift    float64            `json:"drift"`
	Metrics  map[string]float64 `json:"metrics"`
	Duration time.Duration      `json:"duration"`
}

type weightedMove struct {
	move   Move
	weight float64
}

type Simulator struct {
	state   *State
	moves   []weightedMove
	total   float64
	metrics []Metric
	log     *slog.Logger
}

func New(state *State, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = discardLogger
	}
	return &Simulator{state: state, log: logger}
}

// AddMove registers m, picked with probability proportional to weight.
func (s *Simulator) AddMove(m Move, weight float64) {
	if weight <= 0 {
		weight = 1
	}
	s.moves = append(s.moves, weightedMove{move: m, weight: weight})
	s.total += weight
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }
func (s *Simulator) State() *State      { return s.state }

func (s *Simulator) validate(cfg RunConfig) error {
	if len(s.moves) == 0 {
		return ErrNoMoves
	}
	if cfg.MacroSteps <= 0 || cfg.MicroSteps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d x %d", ErrInvalidConfig, cfg.MacroSteps, cfg.MicroSteps)
	}
	return nil
}

// Run performs MacroSteps x MicroSteps Metropolis steps. The context is
// checked between steps; on cancellation the partial result is returned
// with the context error.
func (s *Simulator) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := s.validate(cfg); err != nil {
		return nil, err
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	start := time.Now()
	result := &Result{
		Moves:    make(map[string]MoveStats, len(s.moves)),
		Energies: make([]float64, 0, cfg.MacroSteps),
		Metrics:  make(map[string]float64, len(s.metrics)),
	}
	result.InitialEnergy = s.state.Energy()
	u := result.InitialEnergy

	var err error
loop:
	for macro := 0; macro < cfg.MacroSteps; macro++ {
		for micro := 0; micro < cfg.MicroSteps; micro++ {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break loop
			default:
			}

			sample := s.step(rng)
			sample.Step = result.Steps
			if sample.Accepted {
				u += sample.Du
				result.Accepted++
			}
			sample.Energy = u
			result.Steps++

			st := result.Moves[sample.Move]
			st.Trials++
			if sample.Accepted {
				st.Accepted++
			}
			result.Moves[sample.Move] = st

			for _, m := range s.metrics {
				m.Observe(sample)
			}
		}
		result.Energies = append(result.Energies, s.state.Energy())
		s.log.Info("macro step",
			"step", macro+1,
			"energy", result.Energies[macro],
			"acceptance", float64(result.Accepted)/float64(result.Steps))
	}

	result.FinalEnergy = s.state.Energy()
	result.Drift = result.FinalEnergy - u
	result.Duration = time.Since(start)
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if math.Abs(result.Drift) > 1e-6*math.Max(1, math.Abs(result.FinalEnergy)) {
		s.log.Warn("energy drift", "drift", result.Drift)
	}
	return result, err
}

// step proposes one move on the trial space and commits or rolls it back.
func (s *Simulator) step(rng *rand.Rand) Sample {
	m := s.pick(rng)
	c := m.Propose(s.state.Trial, rng)
	sample := Sample{Move: m.Name()}
	if c.Empty() {
		return sample
	}
	sample.Du = s.state.Evaluate(c)
	if Metropolis(sample.Du, rng) {
		s.state.Commit(c)
		sample.Accepted = true
	} else {
		s.state.Rollback(c)
	}
	return sample
}

func (s *Simulator) pick(rng *rand.Rand) Move {
	if len(s.moves) == 1 {
		return s.moves[0].move
	}
	x := rng.Float64() * s.total
	for _, wm := range s.moves {
		if x < wm.weight {
			return wm.move
		}
		x -= wm.weight
	}
	return s.moves[len(s.moves)-1].move
}

// Metropolis accepts du <= 0 and otherwise with probability exp(-du). NaN
// and +Inf are always rejected.
func Metropolis(du float64, rng *rand.Rand) bool {
	switch {
	case math.IsNaN(du) || math.IsInf(du, 1):
		return false
	case du <= 0:
		return true
	default:
		return rng.Float64() < math.Exp(-du)
	}
}

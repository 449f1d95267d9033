package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTemperature = 298.15
	DefaultMacroSteps  = 10
	DefaultMicroSteps  = 1000
	DefaultSeed        = 1
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Seed        int64            `yaml:"seed"`
	Temperature float64          `yaml:"temperature"`
	MacroSteps  int              `yaml:"macrosteps"`
	MicroSteps  int              `yaml:"microsteps"`
	Atoms       []AtomConfig     `yaml:"atomlist"`
	Molecules   []MoleculeConfig `yaml:"moleculelist"`
	Geometry    GeometryConfig   `yaml:"geometry"`
	Energy      EnergyList       `yaml:"energy"`
	Moves       []MoveConfig     `yaml:"moves"`
}

type AtomConfig struct {
	Name     string  `yaml:"name"`
	Charge   float64 `yaml:"q"`
	Radius   float64 `yaml:"r"`
	Mw       float64 `yaml:"mw"`
	Sigma    float64 `yaml:"sigma"`
	Epsilon  float64 `yaml:"eps"`
	Dp       float64 `yaml:"dp"`
	Activity float64 `yaml:"activity"`
}

type MoleculeConfig struct {
	Name      string       `yaml:"name"`
	Atoms     []string     `yaml:"atoms"`
	Atomic    bool         `yaml:"atomic"`
	Ninit     int          `yaml:"ninit"`
	Capacity  int          `yaml:"capacity"`
	Structure [][3]float64 `yaml:"structure"`
	Bonds     []BondConfig `yaml:"bonds"`
}

// BondConfig describes one bond. Index holds particle indices relative to
// the molecule for templates and absolute indices for inter-molecular bonds.
type BondConfig struct {
	Type  string  `yaml:"type"`
	Index []int   `yaml:"index,flow"`
	K     float64 `yaml:"k"`
	Req   float64 `yaml:"req,omitempty"`
	Rmax  float64 `yaml:"rmax,omitempty"`
	Aeq   float64 `yaml:"aeq,omitempty"`
}

type GeometryConfig struct {
	Type   string    `yaml:"type"`
	Length []float64 `yaml:"length,flow,omitempty"`
	Radius float64   `yaml:"radius,omitempty"`
}

type MoveConfig struct {
	Type     string  `yaml:"type"`
	Molecule string  `yaml:"molecule,omitempty"`
	Dp       float64 `yaml:"dp"`
	Weight   float64 `yaml:"weight,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Seed:        DefaultSeed,
		Temperature: DefaultTemperature,
		MacroSteps:  DefaultMacroSteps,
		MicroSteps:  DefaultMicroSteps,
		Geometry:    GeometryConfig{Type: "cuboid", Length: []float64{50}},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Temperature <= 0 {
		return fmt.Errorf("%w: temperature must be positive, got %f", ErrInvalid, c.Temperature)
	}
	if c.MacroSteps < 0 || c.MicroSteps < 0 {
		return fmt.Errorf("%w: step counts must not be negative", ErrInvalid)
	}
	if c.Geometry.Type == "" {
		return fmt.Errorf("%w: geometry type missing", ErrInvalid)
	}

	atoms := make(map[string]bool, len(c.Atoms))
	for _, a := range c.Atoms {
		if a.Name == "" {
			return fmt.Errorf("%w: atom without name", ErrInvalid)
		}
		if atoms[a.Name] {
			return fmt.Errorf("%w: duplicate atom %q", ErrInvalid, a.Name)
		}
		atoms[a.Name] = true
	}

	molecules := make(map[string]bool, len(c.Molecules))
	for _, m := range c.Molecules {
		if m.Name == "" {
			return fmt.Errorf("%w: molecule without name", ErrInvalid)
		}
		if molecules[m.Name] {
			return fmt.Errorf("%w: duplicate molecule %q", ErrInvalid, m.Name)
		}
		molecules[m.Name] = true
		if len(m.Atoms) == 0 {
			return fmt.Errorf("%w: molecule %q has no atoms", ErrInvalid, m.Name)
		}
		for _, a := range m.Atoms {
			if !atoms[a] {
				return fmt.Errorf("%w: molecule %q uses unknown atom %q", ErrInvalid, m.Name, a)
			}
		}
		if !m.Atomic && len(m.Structure) != 0 && len(m.Structure) != len(m.Atoms) {
			return fmt.Errorf("%w: molecule %q has %d atoms but %d structure positions",
				ErrInvalid, m.Name, len(m.Atoms), len(m.Structure))
		}
		if m.Capacity != 0 && m.Capacity < m.Ninit {
			return fmt.Errorf("%w: molecule %q capacity %d below ninit %d", ErrInvalid, m.Name, m.Capacity, m.Ninit)
		}
		for _, b := range m.Bonds {
			for _, i := range b.Index {
				if i < 0 || i >= len(m.Atoms) {
					return fmt.Errorf("%w: molecule %q bond index %d out of range", ErrInvalid, m.Name, i)
				}
			}
		}
	}

	for _, mv := range c.Moves {
		if mv.Type == "" {
			return fmt.Errorf("%w: move without type", ErrInvalid)
		}
		if mv.Molecule != "" && !molecules[mv.Molecule] {
			return fmt.Errorf("%w: move %q uses unknown molecule %q", ErrInvalid, mv.Type, mv.Molecule)
		}
		if mv.Weight < 0 {
			return fmt.Errorf("%w: move %q has negative weight", ErrInvalid, mv.Type)
		}
	}
	return nil
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/energy"
	"github.com/san-kum/mcspace/internal/mc"
	"github.com/san-kum/mcspace/internal/space"
)

const (
	metadataFile = "metadata.json"
	energyFile   = "energy.csv"
	stateFile    = "state.json.gz"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Timestamp time.Time     `json:"timestamp"`
	Seed      int64         `json:"seed"`
	Config    string        `json:"config"`
	Summary   space.Summary `json:"summary"`
	Energy    energy.Info   `json:"energy"`
	Result    *mc.Result    `json:"result"`
}

// Run is everything a finished simulation leaves behind.
type Run struct {
	Name   string
	Config *config.Config
	State  *mc.State
	Result *mc.Result
}

// Save writes metadata.json, the energy trace and the final particle state
// into a new run directory and returns its id.
func (s *Store) Save(run Run) (string, error) {
	runID := fmt.Sprintf("%s_%s", run.Name, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	cfg, err := yaml.Marshal(run.Config)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	meta := RunMetadata{
		ID:        runID,
		Name:      run.Name,
		Timestamp: time.Now(),
		Seed:      run.Config.Seed,
		Config:    string(cfg),
		Summary:   run.State.Current.Summary(),
		Energy:    run.State.HCurrent.Info(),
		Result:    run.Result,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeEnergies(filepath.Join(runDir, energyFile), run.Result); err != nil {
		return "", err
	}
	if err := SaveState(filepath.Join(runDir, stateFile), run.State.Current); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ExportJSON(f, v)
}

// ExportJSON writes v as indented JSON.
func ExportJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeEnergies(path string, result *mc.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"macrostep", "energy"}); err != nil {
		return err
	}
	for i, u := range result.Energies {
		row := []string{strconv.Itoa(i + 1), strconv.FormatFloat(u, 'g', -1, 64)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig parses the configuration a run was started with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	return config.Parse([]byte(meta.Config))
}

// LoadEnergies reads the energy trace, one value per macro step.
func (s *Store) LoadEnergies(runID string) ([]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, energyFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []float64{}, nil
	}

	energies := make([]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 2 {
			return nil, fmt.Errorf("%s line %d: expected 2 fields", energyFile, i+2)
		}
		u, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", energyFile, i+2, err)
		}
		energies = append(energies, u)
	}
	return energies, nil
}

// StatePath is where Save put the final particle state of a run.
func (s *Store) StatePath(runID string) string {
	return filepath.Join(s.baseDir, runID, stateFile)
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/finsim/internal/hydro"
	"github.com/san-kum/finsim/internal/solver"
	"github.com/san-kum/finsim/internal/sweep"
)

const (
	metadataFile = "metadata.json"
	recordsFile  = "equilibria.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

// Header is the column layout of equilibria.csv.
var Header = []string{
	"mass_kg", "speed_kmh", "freq_hz", "trim_deg", "amp_m", "power_w", "efficiency_w_per_kg",
}

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
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Timestamp time.Time          `json:"timestamp"`
	Steps     int                `json:"steps"`
	Workers   int                `json:"workers"`
	Base      hydro.Params       `json:"base"`
	Grid      sweep.Grid         `json:"grid"`
	Attempted int                `json:"attempted"`
	Solved    int                `json:"solved"`
	Dropped   []sweep.Drop       `json:"dropped,omitempty"`
	Summary   map[string]float64 `json:"summary,omitempty"`
}

// Save writes a sweep under a new run directory and returns its ID. ID,
// Timestamp and the counts of meta are filled in from the dataset.
func (s *Store) Save(meta RunMetadata, ds *sweep.Dataset) (string, error) {
	if meta.Label == "" {
		meta.Label = "sweep"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Label, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Attempted = ds.Attempted
	meta.Solved = len(ds.Records)
	meta.Dropped = ds.Dropped

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, recordsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := ExportCSV(csvFile, ds.Records); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns every readable run, oldest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// Latest returns the ID of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w: store is empty", ErrRunNotFound)
	}
	return runs[len(runs)-1].ID, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadRecords(runID string) ([]solver.Record, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, recordsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV parses records written by ExportCSV.
func ReadCSV(r io.Reader) ([]solver.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return []solver.Record{}, nil
	}

	records := make([]solver.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		vals := make([]float64, len(row))
		for j, field := range row {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, Header[j], err)
			}
			vals[j] = v
		}
		records = append(records, solver.Record{
			Mass:             vals[0],
			Speed:            vals[1],
			Freq:             vals[2],
			TrimDeg:          vals[3],
			AmpM:             vals[4],
			PowerW:           vals[5],
			EfficiencyWPerKg: vals[6],
		})
	}
	return records, nil
}

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

	"github.com/san-kum/sandsim/internal/config"
	"github.com/san-kum/sandsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statsFile    = "stats.csv"
	framesFile   = "frames.jsonl.zst"
)

var statsHeader = []string{"tick", "particles", "objects", "settled", "total_mass", "peak_pressure", "fractures"}

// StatsColumns lists the numeric stats.csv columns that can be plotted.
func StatsColumns() []string { return statsHeader[1:] }

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
	ID        string              `json:"id"`
	Scenario  string              `json:"scenario"`
	Timestamp time.Time           `json:"timestamp"`
	Seed      int64               `json:"seed"`
	Width     int                 `json:"width"`
	Height    int                 `json:"height"`
	Gravity   float64             `json:"gravity"`
	Ticks     int                 `json:"ticks"`
	TicksRun  int                 `json:"ticks_run"`
	Recorded  bool                `json:"recorded"`
	Metrics   map[string]float64  `json:"metrics"`
	Fractures []sim.FractureEvent `json:"fractures"`
	Config    *config.Config      `json:"config"`
}

// Create allocates a new run directory and returns its ID.
func (s *Store) Create(scenario string) (string, error) {
	if scenario == "" {
		scenario = "run"
	}
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().UnixNano())
	if err := os.MkdirAll(s.RunDir(runID), 0755); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) RunDir(runID string) string { return filepath.Join(s.baseDir, runID) }

func (s *Store) FramesPath(runID string) string {
	return filepath.Join(s.RunDir(runID), framesFile)
}

// Save writes metadata.json and stats.csv for a run created by Create.
func (s *Store) Save(runID string, cfg *config.Config, result *sim.Result) error {
	runDir := s.RunDir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	_, err := os.Stat(s.FramesPath(runID))
	meta := RunMetadata{
		ID:        runID,
		Scenario:  cfg.Name,
		Timestamp: time.Now(),
		Seed:      cfg.Seed,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Gravity:   cfg.Gravity,
		Ticks:     cfg.Ticks,
		TicksRun:  result.TicksRun,
		Recorded:  err == nil,
		Metrics:   result.Metrics,
		Fractures: result.Fractures,
		Config:    cfg,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}
	return writeStats(filepath.Join(runDir, statsFile), result.Stats)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStats(path string, stats []sim.Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeStatsCSV(f, stats)
}

func writeStatsCSV(out io.Writer, stats []sim.Stats) error {
	w := csv.NewWriter(out)
	if err := w.Write(statsHeader); err != nil {
		return err
	}
	for _, st := range stats {
		row := []string{
			strconv.Itoa(st.Tick),
			strconv.Itoa(st.Particles),
			strconv.Itoa(st.Objects),
			strconv.Itoa(st.Settled),
			strconv.FormatFloat(st.TotalMass, 'f', 6, 64),
			strconv.FormatFloat(st.PeakPressure, 'f', 6, 64),
			strconv.Itoa(st.Fractures),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStats reads stats.csv back. Malformed rows are skipped.
func (s *Store) LoadStats(runID string) ([]sim.Stats, error) {
	file, err := os.Open(filepath.Join(s.RunDir(runID), statsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Stats{}, nil
	}

	stats := make([]sim.Stats, 0, len(records)-1)
	for _, record := range records[1:] {
		st, ok := parseStats(record)
		if !ok {
			continue
		}
		stats = append(stats, st)
	}
	return stats, nil
}

func parseStats(record []string) (sim.Stats, bool) {
	if len(record) != len(statsHeader) {
		return sim.Stats{}, false
	}
	var ints [5]int
	for i, col := range []int{0, 1, 2, 3, 6} {
		v, err := strconv.Atoi(record[col])
		if err != nil {
			return sim.Stats{}, false
		}
		ints[i] = v
	}
	mass, err1 := strconv.ParseFloat(record[4], 64)
	peak, err2 := strconv.ParseFloat(record[5], 64)
	if err1 != nil || err2 != nil {
		return sim.Stats{}, false
	}
	return sim.Stats{
		Tick:         ints[0],
		Particles:    ints[1],
		Objects:      ints[2],
		Settled:      ints[3],
		TotalMass:    mass,
		PeakPressure: peak,
		Fractures:    ints[4],
	}, true
}

// Column extracts one named stats column as floats for plotting.
func Column(stats []sim.Stats, name string) ([]float64, error) {
	out := make([]float64, len(stats))
	for i, st := range stats {
		switch name {
		case "particles":
			out[i] = float64(st.Particles)
		case "objects":
			out[i] = float64(st.Objects)
		case "settled":
			out[i] = float64(st.Settled)
		case "total_mass":
			out[i] = st.TotalMass
		case "peak_pressure":
			out[i] = st.PeakPressure
		case "fractures":
			out[i] = float64(st.Fractures)
		default:
			return nil, fmt.Errorf("unknown stats column %q (have %v)", name, StatsColumns())
		}
	}
	return out, nil
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/sandsim/internal/sim"
)

type ExportData struct {
	Metadata *RunMetadata `json:"metadata"`
	Stats    []sim.Stats  `json:"stats"`
}

// ExportJSON writes a run's metadata and stats history as one JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	stats, err := s.LoadStats(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Metadata: meta, Stats: stats})
}

// ExportCSV writes a run's stats history as CSV.
func (s *Store) ExportCSV(runID string, w io.Writer) error {
	stats, err := s.LoadStats(runID)
	if err != nil {
		return err
	}
	return writeStatsCSV(w, stats)
}

// ExportFracturesCSV writes a run's fracture log as CSV.
func (s *Store) ExportFracturesCSV(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"tick", "object_id", "cause", "fragments"}); err != nil {
		return err
	}
	for _, ev := range meta.Fractures {
		row := []string{
			strconv.Itoa(ev.Tick),
			strconv.Itoa(ev.ObjectID),
			ev.Cause,
			strconv.Itoa(ev.Fragments),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/sandsim/internal/config"
	"github.com/san-kum/sandsim/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		TicksRun: 2,
		Stats: []sim.Stats{
			{Tick: 0, Particles: 3, Objects: 1, Settled: 0, TotalMass: 10034.5, PeakPressure: 4.5},
			{Tick: 2, Particles: 3, Objects: 2, Settled: 3, TotalMass: 10034.5, PeakPressure: 6.25, Fractures: 1},
		},
		Fractures: []sim.FractureEvent{{Tick: 2, ObjectID: 1, Cause: "impact", Fragments: 2}},
		Metrics:   map[string]float64{"fractures": 1},
	}
}

func saveSample(t *testing.T, st *Store) string {
	t.Helper()
	runID, err := st.Create("seam")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := st.Save(runID, config.GetPreset("seam"), sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	return runID
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID := saveSample(t, st)
	if !strings.HasPrefix(runID, "seam_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scenario != "seam" || meta.Seed != 1 || meta.TicksRun != 2 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.Recorded {
		t.Error("run without frames marked as recorded")
	}
	if meta.Metrics["fractures"] != 1 {
		t.Errorf("expected fractures 1, got %f", meta.Metrics["fractures"])
	}
	if diff := cmp.Diff(config.GetPreset("seam"), meta.Config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	stats, err := st.LoadStats(runID)
	if err != nil {
		t.Fatalf("load stats failed: %v", err)
	}
	if diff := cmp.Diff(sampleResult().Stats, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "runs"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first := saveSample(t, st)
	second := saveSample(t, st)
	if err := os.MkdirAll(filepath.Join(st.baseDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("runs out of order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	runID := saveSample(t, st)

	for _, name := range []string{metadataFile, statsFile} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestLoadStatsSkipsMalformedRows(t *testing.T) {
	st := New(t.TempDir())
	runID, _ := st.Create("broken")
	content := "tick,particles,objects,settled,total_mass,peak_pressure,fractures\n" +
		"0,1,0,1,1.5,1.5,0\n" +
		"x,1,0,1,1.5,1.5,0\n" +
		"1,1,0\n" +
		"2,1,0,1,1.5,nan?,0\n"
	if err := os.WriteFile(filepath.Join(st.RunDir(runID), statsFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	stats, err := st.LoadStats(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].TotalMass != 1.5 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestColumn(t *testing.T) {
	stats := sampleResult().Stats

	got, err := Column(stats, "peak_pressure")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{4.5, 6.25}, got); diff != "" {
		t.Errorf("column mismatch (-want +got):\n%s", diff)
	}

	if _, err := Column(stats, "temperature"); err == nil {
		t.Error("expected error for unknown column")
	}
	for _, name := range StatsColumns() {
		if _, err := Column(stats, name); err != nil {
			t.Errorf("column %s: %v", name, err)
		}
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID := saveSample(t, st)

	var buf bytes.Buffer
	if err := st.ExportJSON(runID, &buf); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if data.Metadata.ID != runID || len(data.Stats) != 2 {
		t.Errorf("unexpected export: id=%s stats=%d", data.Metadata.ID, len(data.Stats))
	}
}

func TestExportCSV(t *testing.T) {
	st := New(t.TempDir())
	runID := saveSample(t, st)

	var stats bytes.Buffer
	if err := st.ExportCSV(runID, &stats); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&stats).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[0][0] != "tick" {
		t.Errorf("unexpected stats csv: %v", records)
	}

	var fractures bytes.Buffer
	if err := st.ExportFracturesCSV(runID, &fractures); err != nil {
		t.Fatal(err)
	}
	want := "tick,object_id,cause,fragments\n2,1,impact,2\n"
	if fractures.String() != want {
		t.Errorf("fracture csv = %q, want %q", fractures.String(), want)
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error for missing run")
	}
	if _, err := st.LoadStats("nope"); err == nil {
		t.Error("expected error for missing stats")
	}
}

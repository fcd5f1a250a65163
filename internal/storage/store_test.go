package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/blocksim/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Columns:   []string{"theta", "beta"},
		Times:     []float64{0, 0.01},
		Rows:      [][]float64{{0, 0.5}, {0.001, -0.25}},
		Metrics:   map[string]float64{"control_effort": 1.5},
		CyclesRun: 2,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Scenario: "pitch", Seed: 42, Integrator: "rk4"}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "pitch_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scenario != "pitch" || meta.Seed != 42 {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.Cycles != 2 {
		t.Errorf("expected 2 cycles, got %d", meta.Cycles)
	}
	if meta.Metrics["control_effort"] != 1.5 {
		t.Errorf("expected control_effort 1.5, got %f", meta.Metrics["control_effort"])
	}

	tr, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatalf("load trace failed: %v", err)
	}
	if len(tr.Times) != 2 || len(tr.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tr.Rows))
	}
	beta, ok := tr.Column("beta")
	if !ok {
		t.Fatal("beta column missing")
	}
	if beta[1] != -0.25 {
		t.Errorf("expected -0.25, got %v", beta[1])
	}
	if _, ok := tr.Column("missing"); ok {
		t.Error("unexpected column")
	}
}

func TestRunIDsAreUnique(t *testing.T) {
	st := New(t.TempDir())
	a, err := st.Save(RunMetadata{Scenario: "timer"}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	b, err := st.Save(RunMetadata{Scenario: "timer"}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if a == b {
		t.Errorf("run ids collide: %s", a)
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

	if _, err := st.Save(RunMetadata{Scenario: "pitch"}, sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(st.Dir(), "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(RunMetadata{Scenario: "pitch"}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "signals.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResult()); err != nil {
		t.Fatal(err)
	}
	want := "time,theta,beta\n0,0,0.5\n0.01,0.001,-0.25\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestExportJSON(t *testing.T) {
	res := sampleResult()
	res.Errors = []error{sim.SimError{Cycle: 1, Time: 0.01, Message: "non-finite value"}}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := ExportJSON(path, NewExport("pitch", "rk4", 0.01, res)); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatal(err)
	}
	if data.Cycles != 2 || len(data.Signals["theta"]) != 2 {
		t.Errorf("unexpected export: %+v", data)
	}
	if len(data.Errors) != 1 || !strings.Contains(data.Errors[0], "non-finite") {
		t.Errorf("errors not exported: %v", data.Errors)
	}
}

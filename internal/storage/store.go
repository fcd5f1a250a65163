// Package storage persists simulation runs on disk. Each run gets its own
// directory holding metadata.json and the probe trace as signals.csv.
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
	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "signals.csv"
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

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Integrator string             `json:"integrator"`
	MinorFrame float64            `json:"minor_frame"`
	MajorFrame float64            `json:"major_frame"`
	Cycles     int                `json:"cycles"`
	Params     map[string]float64 `json:"params,omitempty"`
	Columns    []string           `json:"columns"`
	Metrics    map[string]float64 `json:"metrics"`
	Errors     []string           `json:"errors,omitempty"`
}

// Trace is a probe history read back from signals.csv.
type Trace struct {
	Columns []string
	Times   []float64
	Rows    [][]float64
}

func newRunID(scenario string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%s", scenario, now.Unix(), uuid.NewString()[:8])
}

// Save writes a run and returns its id. ID, Timestamp, Columns, Metrics,
// Cycles and Errors are filled from the result.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	meta.ID = newRunID(meta.Scenario, now)
	meta.Timestamp = now
	meta.Columns = result.Columns
	meta.Metrics = result.Metrics
	meta.Cycles = result.CyclesRun
	meta.Errors = meta.Errors[:0]
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrap(err, "create run directory")
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, traceFile))
	if err != nil {
		return "", errors.Wrap(err, "create trace")
	}
	defer f.Close()

	if err := WriteCSV(f, result); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", filepath.Base(path))
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Wrapf(enc.Encode(v), "encode %s", filepath.Base(path))
}

// WriteCSV writes a time column followed by one column per probe.
func WriteCSV(w io.Writer, result *sim.Result) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time"}, result.Columns...)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}

	row := make([]string, len(header))
	for i, values := range result.Rows {
		row = row[:0]
		row = append(row, strconv.FormatFloat(result.Times[i], 'g', -1, 64))
		for _, v := range values {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flush trace")
}

// List returns the stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
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

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "run %s metadata", runID)
	}
	return &meta, nil
}

func (s *Store) LoadTrace(runID string) (*Trace, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "run %s trace", runID)
	}
	if len(records) == 0 {
		return nil, errors.Errorf("run %s: empty trace", runID)
	}

	tr := &Trace{Columns: records[0][1:]}
	for i, record := range records[1:] {
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "run %s row %d", runID, i+1)
			}
			values[j] = v
		}
		tr.Times = append(tr.Times, values[0])
		tr.Rows = append(tr.Rows, values[1:])
	}
	return tr, nil
}

// Column returns one probe's history.
func (t *Trace) Column(name string) ([]float64, bool) {
	for i, c := range t.Columns {
		if c != name {
			continue
		}
		out := make([]float64, len(t.Rows))
		for k, row := range t.Rows {
			out[k] = row[i]
		}
		return out, true
	}
	return nil, false
}

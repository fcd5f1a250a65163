package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/sim"
)

type ExportData struct {
	Scenario   string               `json:"scenario"`
	Integrator string               `json:"integrator"`
	MinorFrame float64              `json:"minor_frame"`
	Cycles     int                  `json:"cycles"`
	Times      []float64            `json:"times"`
	Signals    map[string][]float64 `json:"signals"`
	Metrics    map[string]float64   `json:"metrics"`
	Errors     []string             `json:"errors,omitempty"`
}

// NewExport lays a result out column-wise.
func NewExport(scenario, integrator string, minorFrame float64, result *sim.Result) ExportData {
	data := ExportData{
		Scenario:   scenario,
		Integrator: integrator,
		MinorFrame: minorFrame,
		Cycles:     result.CyclesRun,
		Times:      result.Times,
		Signals:    make(map[string][]float64, len(result.Columns)),
		Metrics:    result.Metrics,
	}
	for _, c := range result.Columns {
		data.Signals[c], _ = result.Column(c)
	}
	for _, e := range result.Errors {
		data.Errors = append(data.Errors, e.Error())
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(data), "encode export")
}

// ExportJSON writes data to path, or to stdout when path is "-".
func ExportJSON(path string, data ExportData) error {
	if path == "-" {
		return WriteJSON(os.Stdout, data)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export")
	}
	defer f.Close()
	return WriteJSON(f, data)
}

// ExportCSV writes the trace of result to path, or to stdout when path is "-".
func ExportCSV(path string, result *sim.Result) error {
	if path == "-" {
		return WriteCSV(os.Stdout, result)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export")
	}
	defer f.Close()
	return WriteCSV(f, result)
}

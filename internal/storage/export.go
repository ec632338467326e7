package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	ID         string               `json:"id"`
	Label      string               `json:"label"`
	Integrator string               `json:"integrator"`
	Controller string               `json:"controller"`
	Dt         float64              `json:"dt"`
	Duration   float64              `json:"duration"`
	Samples    int                  `json:"samples"`
	Times      []float64            `json:"times"`
	Series     map[string][]float64 `json:"series"`
	Metrics    map[string]float64   `json:"metrics"`
}

// ExportJSON writes a stored run as one JSON document, each column under
// its name.
func ExportJSON(w io.Writer, meta *RunMetadata, series *Series) error {
	data := ExportData{
		ID:         meta.ID,
		Label:      meta.Label,
		Integrator: meta.Integrator,
		Controller: meta.Controller,
		Dt:         meta.Dt,
		Duration:   meta.Duration,
		Samples:    series.Len(),
		Times:      series.Times,
		Series:     make(map[string][]float64, len(series.Columns)),
		Metrics:    meta.Metrics,
	}

	for _, name := range series.Columns[min(1, len(series.Columns)):] {
		col, err := series.Column(name)
		if err != nil {
			return err
		}
		data.Series[name] = col
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

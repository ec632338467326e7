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

	"github.com/google/uuid"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/config"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var ErrColumnNotFound = errors.New("storage: column not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a result was produced.
type RunInfo struct {
	Label      string
	Integrator string
	Controller string
	Config     *config.Config
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Label      string             `json:"label"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Decimate   int                `json:"decimate"`
	Integrator string             `json:"integrator"`
	Controller string             `json:"controller"`
	Samples    int                `json:"samples"`
	Columns    []string           `json:"columns"`
	Metrics    map[string]float64 `json:"metrics"`
	Config     *config.Config     `json:"config,omitempty"`
}

func (s *Store) Save(info RunInfo, result *dynamo.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d_%s", info.Label, now.Unix(), uuid.New().String()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Label:      info.Label,
		Timestamp:  now,
		Integrator: info.Integrator,
		Controller: info.Controller,
		Samples:    len(result.Times),
		Columns:    Columns(result),
		Metrics:    result.Metrics,
		Config:     info.Config,
	}
	if info.Config != nil {
		meta.Dt = info.Config.Sim.Dt
		meta.Duration = info.Config.Sim.Duration
		meta.Decimate = info.Config.Sim.Decimate
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, result); err != nil {
		return "", err
	}
	return runID, csvFile.Close()
}

// Columns names every CSV column written for result: time, the state, the
// switch vector and, when recorded, the diagnostic vector. Vectors that do
// not have the motor's shape get positional names.
func Columns(result *dynamo.Result) []string {
	cols := []string{"time"}
	if len(result.States) == 0 {
		return cols
	}
	cols = append(cols, labels(bldc.StateLabels, "x", len(result.States[0]))...)
	if len(result.Controls) > 0 {
		cols = append(cols, labels(bldc.SwitchLabels, "u", len(result.Controls[0]))...)
	}
	if len(result.Debug) > 0 {
		cols = append(cols, labels(bldc.DebugLabels, "d", len(result.Debug[0]))...)
	}
	return cols
}

func labels(named []string, prefix string, n int) []string {
	if len(named) == n {
		return named
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

// WriteCSV writes result with a header row of [Columns].
func WriteCSV(out io.Writer, result *dynamo.Result) error {
	w := csv.NewWriter(out)

	if len(result.States) == 0 {
		w.Flush()
		return w.Error()
	}

	header := Columns(result)
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for i := range result.States {
		row = append(row[:0], formatFloat(result.Times[i]))
		row = appendFloats(row, result.States[i])
		if i < len(result.Controls) {
			row = appendFloats(row, result.Controls[i])
		}
		if i < len(result.Debug) {
			row = appendFloats(row, result.Debug[i])
		}
		if len(row) != len(header) {
			return fmt.Errorf("sample %d has %d fields, header has %d: %w", i, len(row), len(header), dynamo.ErrDimensionMismatch)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func appendFloats(row []string, vals []float64) []string {
	for _, v := range vals {
		row = append(row, formatFloat(v))
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns every stored run, oldest first.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// StatesPath is the CSV file holding the samples of a run.
func (s *Store) StatesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, statesFile)
}

// Series is a stored run read back column by column.
type Series struct {
	Columns []string
	Times   []float64
	Rows    [][]float64 // every column except time
	index   map[string]int
}

func (s *Series) Column(name string) ([]float64, error) {
	if name == "time" {
		return s.Times, nil
	}
	j, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	out := make([]float64, len(s.Rows))
	for i, row := range s.Rows {
		out[i] = row[j]
	}
	return out, nil
}

func (s *Series) Len() int { return len(s.Times) }

func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(s.StatesPath(runID))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadSeries(file)
}

// ReadSeries parses CSV written by [WriteCSV].
func ReadSeries(in io.Reader) (*Series, error) {
	r := csv.NewReader(in)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	series := &Series{index: make(map[string]int)}
	if len(records) == 0 {
		return series, nil
	}

	series.Columns = records[0]
	for j, name := range series.Columns[1:] {
		series.index[name] = j
	}

	series.Times = make([]float64, 0, len(records)-1)
	series.Rows = make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, series.Columns[j], err)
			}
			vals[j] = v
		}
		series.Times = append(series.Times, vals[0])
		series.Rows = append(series.Rows, vals[1:])
	}

	return series, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

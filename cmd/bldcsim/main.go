package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/igorwolfs/bldc-pysim/internal/analysis"
	"github.com/igorwolfs/bldc-pysim/internal/automation"
	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/config"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
	"github.com/igorwolfs/bldc-pysim/internal/experiment"
	"github.com/igorwolfs/bldc-pysim/internal/export"
	"github.com/igorwolfs/bldc-pysim/internal/optim"
	"github.com/igorwolfs/bldc-pysim/internal/sim"
	"github.com/igorwolfs/bldc-pysim/internal/storage"
	"github.com/igorwolfs/bldc-pysim/internal/viz"
)

var (
	dataDir string

	// Simulation flags, shared by every command that builds a run.
	configFile  string
	preset      string
	label       string
	dt          float64
	duration    float64
	substeps    int
	decimate    int
	integrator  string
	controller  string
	adaptive    bool
	tolerance   float64
	duty        float64
	frequency   float64
	theta       float64
	omega       float64
	loadTorque  float64
	supplyVolts float64
	target      float64
	kp          float64
	ki          float64
	kd          float64
	coastAfter  float64

	// Output flags
	quiet     bool
	columns   []string
	column    string
	outDir    string
	format    string
	outFile   string
	sweepName string
	values    []float64
	workers   int
	save      bool
	grid      []string
	metric    string
	maximize  bool
	trials    int
	spread    float64
	seed      int64

	// scenario stores its runs by default, sweep does not
	saveScenario bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "bldcsim",
		Short:        "BLDC motor six-step commutation simulator",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".bldcsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&label, "label", "", "run label (defaults to the preset name)")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress output")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run columns in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&columns, "columns", []string{"omega", "iu", "iv", "iw"}, "columns to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	pngCmd := &cobra.Command{
		Use:   "png [run_id]",
		Short: "render state, switch and debug figures",
		Args:  cobra.ExactArgs(1),
		RunE:  renderFigures,
	}
	pngCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (defaults to the run directory)")
	pngCmd.Flags().StringVar(&format, "format", "png", "image format (png, svg, pdf)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum and ripple analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "omega", "column to analyze")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print or write the resolved configuration",
		Args:  cobra.NoArgs,
		RunE:  writeConfig,
	}
	addSimFlags(configCmd)
	configCmd.Flags().StringVarP(&outFile, "out", "o", "", "write to file instead of stdout")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one parameter over several values concurrently",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepName, "param", "duty", "parameter to sweep")
	sweepCmd.Flags().Float64SliceVar(&values, "values", []float64{0.2, 0.4, 0.6, 0.8, 1.0}, "parameter values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unlimited)")
	sweepCmd.Flags().BoolVar(&save, "save", false, "store every run")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search over parameters",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", []string{"duty=0.2:1:5"}, "grid axis as name=lo:hi:n (repeatable)")
	tuneCmd.Flags().StringVar(&metric, "metric", "mean_speed_rpm", "metric to optimize")
	tuneCmd.Flags().BoolVar(&maximize, "maximize", true, "maximize instead of minimize")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unlimited)")
	scenarioCmd.Flags().BoolVar(&saveScenario, "save", true, "store every run")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "repeat a run from random rotor start angles",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&spread, "spread", 2*math.Pi, "start angles drawn from [0, spread) rad")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unlimited)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, pngCmd, analyzeCmd, presetsCmd, configCmd, sweepCmd, tuneCmd, liveCmd, scenarioCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&dt, "dt", d.Sim.Dt, "timestep")
	f.Float64Var(&duration, "time", d.Sim.Duration, "duration")
	f.IntVar(&substeps, "substeps", d.Sim.Substeps, "integrator steps per timestep")
	f.IntVar(&decimate, "decimate", d.Sim.Decimate, "record every n-th step")
	f.StringVar(&integrator, "integrator", d.Sim.Integrator, "integrator")
	f.StringVar(&controller, "controller", d.Sim.Controller, "controller")
	f.BoolVar(&adaptive, "adaptive", d.Sim.Adaptive, "adaptive stepping (rk45)")
	f.Float64Var(&tolerance, "tol", d.Sim.Tolerance, "adaptive error tolerance")
	f.Float64Var(&duty, "duty", d.PWM.Duty, "pwm duty cycle")
	f.Float64Var(&frequency, "freq", d.PWM.Frequency, "pwm frequency (Hz)")
	f.Float64Var(&theta, "theta", d.InitState.Theta, "initial rotor angle (rad)")
	f.Float64Var(&omega, "omega", d.InitState.Omega, "initial rotor speed (rad/s)")
	f.Float64Var(&loadTorque, "load", d.Motor.LoadTorque, "load torque (Nm)")
	f.Float64Var(&supplyVolts, "vdc", d.Motor.SupplyVoltage, "supply voltage (V)")
	f.Float64Var(&target, "target", d.SpeedLoop.Target, "speed loop target (rad/s)")
	f.Float64Var(&kp, "kp", d.SpeedLoop.Kp, "speed loop kp")
	f.Float64Var(&ki, "ki", d.SpeedLoop.Ki, "speed loop ki")
	f.Float64Var(&kd, "kd", d.SpeedLoop.Kd, "speed loop kd")
	f.Float64Var(&coastAfter, "coast-after", d.Sim.CoastAfter, "coast controller switch-off time (s)")
}

// resolveConfig builds the run configuration. Explicit flags override the
// config file, which overrides the preset.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOnto(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Changed("substeps") {
		cfg.Sim.Substeps = substeps
	}
	if flags.Changed("decimate") {
		cfg.Sim.Decimate = decimate
	}
	if flags.Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Sim.Controller = controller
	}
	if flags.Changed("adaptive") {
		cfg.Sim.Adaptive = adaptive
		if adaptive && !flags.Changed("integrator") {
			cfg.Sim.Integrator = "rk45"
		}
	}
	if flags.Changed("tol") {
		cfg.Sim.Tolerance = tolerance
	}
	if flags.Changed("theta") {
		cfg.InitState.Theta = theta
	}
	if flags.Changed("omega") {
		cfg.InitState.Omega = omega
	}

	tunables := []struct {
		flag, name string
		value      float64
	}{
		{"duty", "duty", duty},
		{"freq", "frequency", frequency},
		{"load", "load_torque", loadTorque},
		{"vdc", "supply_voltage", supplyVolts},
		{"target", "target", target},
		{"kp", "kp", kp},
		{"ki", "ki", ki},
		{"kd", "kd", kd},
		{"coast-after", "coast_after", coastAfter},
	}
	for _, t := range tunables {
		if flags.Changed(t.flag) {
			if err := cfg.Set(t.name, t.value); err != nil {
				return nil, err
			}
		}
	}

	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func heading(s string) {
	fmt.Println(viz.HeaderStyle.Render(s))
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s %s\n", viz.MetricLabel.Render(fmt.Sprintf("%-18s", name)), viz.MetricValue.Render(fmt.Sprintf("%.6f", metrics[name])))
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp, err := experiment.New(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	if !quiet {
		exp.GetSimulator().AddObserver(sim.NewProgress(cfg.Sim.Duration, func(percent int) {
			fmt.Fprintf(os.Stderr, "\r%s %3d%%", viz.ProgressBar(float64(percent)/100, 30), percent)
			if percent == 100 {
				fmt.Fprintln(os.Stderr)
			}
		}))
	}

	name := label
	if name == "" {
		name = preset
	}
	if name == "" {
		name = "run"
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%s, %s, dt=%g, %g s)...\n", name, cfg.Sim.Integrator, cfg.Sim.Controller, cfg.Sim.Dt, cfg.Sim.Duration)
	start := time.Now()
	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)

	if runErr != nil && (result == nil || len(result.States) == 0) {
		return runErr
	}

	info := storage.RunInfo{
		Label:      name,
		Integrator: cfg.Sim.Integrator,
		Controller: cfg.Sim.Controller,
		Config:     cfg,
	}
	runID, err := st.Save(info, result)
	if err != nil {
		return err
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr)
		fmt.Println(viz.StatusFailed.Render("simulation failed: " + runErr.Error()))
		var simErr *dynamo.SimulationError
		if errors.As(runErr, &simErr) {
			fmt.Printf("state at failure: %v\n", simErr.State)
		}
		fmt.Printf("partial run id: %s\n", runID)
		return runErr
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d, samples: %d\n", result.StepsTaken, len(result.States))
	fmt.Println()
	heading("metrics")
	printMetrics(result.Metrics)

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tTIME\tDURATION\tDT\tINTEG\tCTRL\tSAMPLES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%gs\t%gs\t%s\t%s\t%d\n",
			run.ID,
			run.Label,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Controller,
			run.Samples,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *storage.Series, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, err
	}
	if series.Len() == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, series, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", series.Len())

	for _, name := range columns {
		data, err := series.Column(name)
		if err != nil {
			return err
		}
		caption := name
		if name == "omega" {
			caption = "omega (rad/s)"
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if _, err := st.Load(args[0]); err != nil {
		return err
	}

	f, err := os.Open(st.StatesPath(args[0]))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(os.Stdout, f)
	return err
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, series)
}

func renderFigures(cmd *cobra.Command, args []string) error {
	_, series, err := loadRun(args[0])
	if err != nil {
		return err
	}

	dir := outDir
	if dir == "" {
		dir = filepath.Dir(storage.New(dataDir).StatesPath(args[0]))
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	paths, err := export.SaveRun(series, dir, format)
	for _, p := range paths {
		fmt.Printf("wrote %s\n", p)
	}
	return err
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}

	data, err := series.Column(column)
	if err != nil {
		return err
	}

	decim := max(meta.Decimate, 1)
	sampleRate := 1 / (meta.Dt * float64(decim))

	heading(fmt.Sprintf("analysis: %s (%s)", meta.ID, column))
	fmt.Println()

	spectrum, err := analysis.PowerSpectrum(data, sampleRate)
	if err != nil {
		return err
	}
	plotData := spectrum.Amplitude[:max(len(spectrum.Amplitude)/4, 1)]
	fmt.Println(asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("amplitude spectrum (%s), 0-%.0f Hz", column, spectrum.Freqs[len(plotData)-1])),
	))
	fmt.Println()

	freq, err := analysis.DominantFrequency(data, sampleRate)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.3f Hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.6f s\n", 1.0/freq)
	}

	stats, err := analysis.Ripple(data)
	if err != nil {
		return err
	}
	fmt.Println()
	heading("ripple: " + column)
	printRipple(stats)

	params := bldc.DefaultParams()
	if meta.Config != nil {
		params = meta.Config.Motor
	}
	torque, err := torqueOf(series, params)
	if err != nil {
		return err
	}
	torqueStats, err := analysis.Ripple(torque)
	if err != nil {
		return err
	}
	fmt.Println()
	heading("ripple: electromagnetic torque")
	printRipple(torqueStats)

	return nil
}

func torqueOf(series *storage.Series, p bldc.Params) ([]float64, error) {
	cols := make([][]float64, len(bldc.StateLabels))
	for i, name := range bldc.StateLabels {
		c, err := series.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return analysis.Torque(p, cols[0], cols[1], cols[2], cols[3], cols[4])
}

func printRipple(s analysis.RippleStats) {
	printMetrics(map[string]float64{
		"mean":         s.Mean,
		"min":          s.Min,
		"max":          s.Max,
		"peak_to_peak": s.PeakToPeak,
		"rms":          s.RMS,
		"ratio":        s.Ratio,
	})
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tCTRL\tINTEG\tDURATION\tDUTY\tLOAD")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%gs\t%g\t%g\n",
			name,
			cfg.Sim.Controller,
			cfg.Sim.Integrator,
			cfg.Sim.Duration,
			cfg.PWM.Duty,
			cfg.Motor.LoadTorque,
		)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if outFile != "" {
		if err := config.Save(outFile, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
		return nil
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if len(values) == 0 {
		return fmt.Errorf("sweep needs at least one value")
	}

	reg := experiment.NewRegistry()
	jobs := make([]sim.Job, 0, len(values))
	configs := make([]*config.Config, 0, len(values))
	for _, v := range values {
		cfg := base.Clone()
		if err := cfg.Set(sweepName, v); err != nil {
			return err
		}
		exp, err := experiment.New(reg, cfg)
		if err != nil {
			return fmt.Errorf("%s=%g: %w", sweepName, v, err)
		}
		jobs = append(jobs, exp.Job(fmt.Sprintf("%s=%g", sweepName, v)))
		configs = append(configs, cfg)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("sweeping %s over %d values...\n", sweepName, len(values))
	start := time.Now()
	results, err := sim.Sweep(ctx, jobs, workers)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	var names []string
	for name := range results[0].Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(sweepName)+"\t"+strings.ToUpper(strings.Join(names, "\t")))
	for i, res := range results {
		row := []string{strconv.FormatFloat(values[i], 'g', -1, 64)}
		for _, name := range names {
			row = append(row, strconv.FormatFloat(res.Metrics[name], 'f', 4, 64))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !save {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	fmt.Println()
	for i, res := range results {
		info := storage.RunInfo{
			Label:      fmt.Sprintf("sweep_%s_%g", sweepName, values[i]),
			Integrator: configs[i].Sim.Integrator,
			Controller: configs[i].Sim.Controller,
			Config:     configs[i],
		}
		runID, err := st.Save(info, res)
		if err != nil {
			return err
		}
		fmt.Printf("saved %s\n", runID)
	}
	return nil
}

// parseAxis reads name=lo:hi:n.
func parseAxis(s string) (string, []float64, error) {
	name, bounds, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("grid axis %q: want name=lo:hi:n", s)
	}
	parts := strings.Split(bounds, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("grid axis %q: want name=lo:hi:n", s)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid axis %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid axis %q: %w", s, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("grid axis %q: point count must be a positive integer", s)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func runTune(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(grid))
	ranges := make([][]float64, 0, len(grid))
	points := 1
	for _, axis := range grid {
		name, vals, err := parseAxis(axis)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
		points *= len(vals)
	}

	reg := experiment.NewRegistry()
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.Set(name, v); err != nil {
				return nil, err
			}
		}
		return experiment.New(reg, cfg)
	}

	ctx, cancel := signalContext()
	defer cancel()

	gs := optim.NewGridSearch(names, ranges)
	gs.Maximize = maximize

	goal := "minimizing"
	if maximize {
		goal = "maximizing"
	}
	fmt.Printf("%s %s over %d grid points...\n", goal, metric, points)
	start := time.Now()
	best, value, err := gs.Search(ctx, build, metric)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	heading("best parameters")
	printMetrics(best)
	fmt.Printf("\n%s: %s\n", metric, viz.MetricValue.Render(fmt.Sprintf("%.6f", value)))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp, err := experiment.New(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	title := preset
	if title == "" {
		title = "bldc " + cfg.Sim.Controller
	}

	m := viz.NewModel(exp.GetSimulator(), exp.Motor(), cfg.GetInitState(), cfg.GetSimConfig(), title)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	heading("scenario: " + sc.Name)
	if sc.Description != "" {
		fmt.Println(viz.Subtle.Render(sc.Description))
	}
	start := time.Now()
	results, configs, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), workers)
	if err != nil {
		return err
	}
	fmt.Printf("%d runs completed in %v\n\n", len(results), time.Since(start))

	var st *storage.Store
	if saveScenario {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	for i, res := range results {
		name := sc.Steps[i].Name(i)
		heading(name)
		printMetrics(res.Metrics)
		if st != nil {
			info := storage.RunInfo{
				Label:      name,
				Integrator: configs[i].Sim.Integrator,
				Controller: configs[i].Sim.Controller,
				Config:     configs[i],
			}
			runID, err := st.Save(info, res)
			if err != nil {
				return err
			}
			fmt.Printf("  run id: %s\n", runID)
		}
		fmt.Println()
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	mc := &automation.MonteCarloConfig{
		Base:        cfg,
		NumTrials:   trials,
		AngleSpread: spread,
		Seed:        seed,
		Limit:       workers,
	}

	fmt.Printf("running %d trials...\n", trials)
	start := time.Now()
	results, err := automation.RunMonteCarlo(ctx, mc, experiment.NewRegistry())
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tTHETA0\tFINAL RPM\tSTATUS")
	for _, r := range results {
		status := "ok"
		if !r.Completed() {
			status = r.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%.4f\t%.1f\t%s\n", r.TrialID, r.Theta0, r.FinalSpeed, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	s := automation.MonteCarloStats(results)
	fmt.Println()
	heading("summary")
	printMetrics(map[string]float64{
		"completed": float64(s.Completed),
		"failed":    float64(s.Failed),
		"mean_rpm":  s.MeanSpeed,
		"std_rpm":   s.StdSpeed,
		"min_rpm":   s.MinSpeed,
		"max_rpm":   s.MaxSpeed,
	})
	return nil
}

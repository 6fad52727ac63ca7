package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/sandsim/internal/analysis"
	"github.com/san-kum/sandsim/internal/config"
	"github.com/san-kum/sandsim/internal/export"
	"github.com/san-kum/sandsim/internal/metrics"
	"github.com/san-kum/sandsim/internal/scenario"
	"github.com/san-kum/sandsim/internal/sim"
	"github.com/san-kum/sandsim/internal/storage"
	"github.com/san-kum/sandsim/internal/sweep"
	"github.com/san-kum/sandsim/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string

	width      int
	height     int
	gravity    float64
	ticks      int
	seed       int64
	statsEvery int
	record     int
	dump       bool
	show       bool
	trace      bool

	plain   bool
	gifPath string

	column    string
	fractures bool
	runs      int

	sweepParams []string
	objective   string
	maximize    bool
	frameIndex  int
	svgScale    float64
	outPath     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sandsim",
		Short: "falling-sand and rigid-body sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(viz.LiveOptions{GIFPath: gifPath})
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".sandsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log simulation events to stderr")
	rootCmd.Flags().StringVar(&gifPath, "gif", "sandsim.gif", "where the live view writes recordings")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario headless and store the results",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().IntVar(&statsEvery, "stats-every", 1, "sample stats every n ticks")
	runCmd.Flags().IntVar(&record, "record", 0, "record a frame every n ticks (0 disables)")
	runCmd.Flags().BoolVar(&dump, "dump", false, "print every cell of the final world")
	runCmd.Flags().BoolVar(&show, "show", false, "print the final grid")
	runCmd.Flags().BoolVar(&trace, "trace", false, "print every particle position after each tick")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a scenario in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().BoolVar(&plain, "plain", false, "draw frame codes instead of coloured blocks")
	liveCmd.Flags().StringVar(&gifPath, "gif", "sandsim.gif", "where the g key writes recordings")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "", "stats column to plot (default: all)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and stats as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], os.Stdout)
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run stats to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			if fractures {
				return st.ExportFracturesCSV(args[0], os.Stdout)
			}
			return st.ExportCSV(args[0], os.Stdout)
		},
	}
	exportCSVCmd.Flags().BoolVar(&fractures, "fractures", false, "export the fracture log instead of stats")

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "replay recorded frames",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}
	replayCmd.Flags().BoolVar(&plain, "plain", false, "draw frame codes instead of coloured blocks")
	replayCmd.Flags().StringVar(&gifPath, "gif", "", "write the frames to a GIF instead of playing them")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "run a scenario under several seeds in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScenario,
	}
	addScenarioFlags(benchCmd)
	benchCmd.Flags().IntVar(&runs, "runs", 4, "number of seeds")

	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "check a scenario file against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Printf("%s: ok\n", args[0])
			return nil
		},
	}

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "print the scenario JSON schema",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.Schema())
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write a scenario file to start from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, nil)
			if err != nil {
				return err
			}
			return config.Save(args[0], cfg)
		},
	}
	addScenarioFlags(initCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "settling, fracture and pile-shape summary",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run a scenario over a grid of parameter values",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepScenario,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVarP(&sweepParams, "param", "p", nil, "name=lo:hi:steps or name=v1,v2 (repeatable)")
	sweepCmd.Flags().StringVar(&objective, "metric", "fractures", "metric used to pick the best point")
	sweepCmd.Flags().BoolVar(&maximize, "max", false, "pick the highest metric value instead of the lowest")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a recorded frame, or a stats column, as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&frameIndex, "frame", -1, "frame index (negative counts from the end)")
	exportSVGCmd.Flags().StringVar(&column, "column", "", "plot this stats column instead of a frame")
	exportSVGCmd.Flags().Float64Var(&svgScale, "scale", 8, "pixels per cell")
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, replayCmd, presetsCmd,
		benchCmd, sweepCmd, analyzeCmd, validateCmd, schemaCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().IntVar(&width, "width", config.DefaultWidth, "grid width")
	cmd.Flags().IntVar(&height, "height", config.DefaultHeight, "grid height")
	cmd.Flags().Float64Var(&gravity, "gravity", config.DefaultGravity, "vertical gravity per tick")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "ticks to run")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
}

// resolveConfig starts from the named preset (or the defaults), applies the
// scenario file and then any flag the user set explicitly.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		p, err := scenario.Lookup(args[0])
		if err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, config.ListPresets())
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() *log.Logger {
	if verbose {
		return log.New(os.Stderr, "sandsim: ", log.Ltime|log.Lmicroseconds)
	}
	return log.New(io.Discard, "", 0)
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger()

	s, err := scenario.Build(cfg, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	metrics.Attach(s, metrics.Default()...)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Create(cfg.Name)
	if err != nil {
		return err
	}

	var rec *storage.Recorder
	var fw *storage.FrameWriter
	if record > 0 {
		fw, err = storage.NewFrameWriter(st.FramesPath(runID))
		if err != nil {
			return err
		}
		defer fw.Close()
		rec = storage.NewRecorder(fw, record)
		rec.Initial(s)
		s.AddObserver(rec)
	}

	if trace {
		s.AddObserver(sim.ObserverFunc(traceTick))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, runErr := s.Run(ctx, sim.RunConfig{Ticks: cfg.Ticks, StatsEvery: statsEvery})
	elapsed := time.Since(start)
	if result == nil {
		return runErr
	}
	if runErr != nil {
		logger.Printf("run interrupted after %d ticks: %v", result.TicksRun, runErr)
	}

	if fw != nil {
		if err := rec.Err(); err != nil {
			return fmt.Errorf("record frames: %w", err)
		}
		if err := fw.Close(); err != nil {
			return err
		}
	}
	if err := st.Save(runID, cfg, result); err != nil {
		return err
	}

	final := s.Stats()
	fmt.Printf("run: %s\n", runID)
	fmt.Printf("scenario: %s (%dx%d, gravity %.2f, seed %d)\n", cfg.Name, cfg.Width, cfg.Height, cfg.Gravity, cfg.Seed)
	fmt.Printf("ticks: %d in %v\n", result.TicksRun, elapsed.Round(time.Millisecond))
	fmt.Printf("particles: %d  objects: %d  fractures: %d\n", final.Particles, final.Objects, final.Fractures)
	printMetrics(os.Stdout, result.Metrics)

	if show {
		fmt.Println()
		fmt.Println(viz.RenderFrame(storage.Capture(s), true))
	}
	if dump {
		if err := s.World().Dump(os.Stdout); err != nil {
			return err
		}
	}
	return runErr
}

func traceTick(s *sim.Simulation, fractures []sim.Fracture) {
	fmt.Printf("tick %d\n", s.TickCount())
	for _, p := range s.Particles() {
		fmt.Printf("  particle %d %s at (%.0f, %.0f) v=(%.2f, %.2f)\n",
			p.ID, p.Material, p.Position.X, p.Position.Y, p.Velocity.X, p.Velocity.Y)
	}
	for _, f := range fractures {
		fmt.Printf("  object %d split by %s into %d fragments\n", f.ObjectID, f.Cause, len(f.Fragments))
	}
}

func printMetrics(out io.Writer, m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.4f\n", name, m[name])
	}
	w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	return viz.RunLive(cfg, viz.LiveOptions{GIFPath: gifPath, Plain: plain})
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tGRID\tTICKS\tFRACTURES\tFRAMES")
	for _, run := range runs {
		frames := "-"
		if run.Recorded {
			frames = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d/%d\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width, run.Height,
			run.TicksRun, run.Ticks,
			len(run.Fractures),
			frames,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	stats, err := st.LoadStats(runID)
	if err != nil {
		return err
	}
	if len(stats) < 2 {
		return fmt.Errorf("not enough samples to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(stats))

	columns := storage.StatsColumns()
	if column != "" {
		columns = []string{column}
	}
	for _, name := range columns {
		data, err := storage.Column(stats, name)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func replayRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if !meta.Recorded {
		return fmt.Errorf("run %s has no recorded frames (use run --record)", runID)
	}
	frames, err := storage.ReadFrames(st.FramesPath(runID))
	if err != nil {
		return err
	}

	if gifPath != "" {
		f, err := os.Create(gifPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := viz.WriteGIF(f, frames, 4, 3); err != nil {
			return err
		}
		fmt.Printf("wrote %d frames to %s\n", len(frames), gifPath)
		return nil
	}
	return viz.RunReplay(meta.Scenario, frames, plain)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGRID\tGRAVITY\tTICKS\tTERRAIN\tEMITTERS\tOBJECTS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%dx%d\t%.2f\t%d\t%s\t%d\t%d\n",
			name, p.Width, p.Height, p.Gravity, p.Ticks, p.Terrain.Kind, len(p.Emitters), len(p.Objects))
	}
	return w.Flush()
}

func benchScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if runs < 1 {
		return fmt.Errorf("runs must be positive, got %d", runs)
	}

	build := func(seed int64) (*sim.Simulation, error) {
		c := cfg.Clone()
		c.Seed = seed
		s, err := scenario.Build(c)
		if err != nil {
			return nil, err
		}
		metrics.Attach(s, metrics.Default()...)
		return s, nil
	}

	fmt.Printf("benchmarking %s: %d seeds x %d ticks\n\n", cfg.Name, runs, cfg.Ticks)
	start := time.Now()
	results, err := sim.NewEnsemble(build, runs, cfg.Seed).Run(context.Background(), sim.RunConfig{Ticks: cfg.Ticks, StatsEvery: cfg.Ticks})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tTICKS\tFRACTURES\tSETTLED\tMASS DRIFT\tPEAK PRESSURE")
	total := 0
	for i, r := range results {
		total += r.TicksRun
		fmt.Fprintf(w, "%d\t%d\t%d\t%.3f\t%.2e\t%.2f\n",
			cfg.Seed+int64(i), r.TicksRun, len(r.Fractures),
			r.Metrics["settled_ratio"], r.Metrics["mass_drift"], r.Metrics["peak_pressure"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d ticks in %v (%.0f ticks/sec)\n", total, elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds())
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	stats, err := st.LoadStats(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Scenario)

	if tick, ok := analysis.SettleTick(stats); ok {
		fmt.Printf("settled at tick %d\n", tick)
	} else {
		fmt.Println("particles still moving at the end of the run")
	}

	fs := analysis.SummarizeFractures(meta.Fractures)
	if fs.Total() == 0 {
		fmt.Println("no fractures")
	} else {
		fmt.Printf("fractures: %d (impact %d, pressure %d), %d fragments, ticks %d..%d\n",
			fs.Total(), fs.Impact, fs.Pressure, fs.Fragments, fs.FirstTick, fs.LastTick)
	}
	printMetrics(os.Stdout, meta.Metrics)

	if !meta.Recorded {
		return nil
	}
	frames, err := storage.ReadFrames(st.FramesPath(runID))
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return nil
	}
	profile := analysis.SurfaceProfile(frames[len(frames)-1], analysis.FreeParticles)
	fmt.Printf("\nrepose angle: %.1f deg\n", analysis.ReposeAngle(profile))

	data := make([]float64, len(profile))
	for i, h := range profile {
		data[i] = float64(h)
	}
	if len(data) > 1 {
		fmt.Println(asciigraph.Plot(data, asciigraph.Height(8), asciigraph.Caption("pile surface")))
	}
	return nil
}

func sweepScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("no --param given (known: %v)", sweep.Names())
	}
	params := make([]sweep.Param, 0, len(sweepParams))
	for _, raw := range sweepParams {
		p, err := sweep.ParseParam(raw)
		if err != nil {
			return err
		}
		params = append(params, p)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	points, err := sweep.NewGridSearch(params).Run(ctx, cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := ""
	for _, p := range params {
		header += strings.ToUpper(p.Name) + "\t"
	}
	fmt.Fprintln(w, header+"TICKS\tFRACTURES\tSETTLED\tPEAK PRESSURE\tMASS DRIFT")
	for _, pt := range points {
		row := ""
		for _, p := range params {
			row += fmt.Sprintf("%g\t", pt.Params[p.Name])
		}
		fmt.Fprintf(w, "%s%d\t%d\t%.3f\t%.2f\t%.2e\n", row, pt.TicksRun, pt.Fractures,
			pt.Metrics["settled_ratio"], pt.Metrics["peak_pressure"], pt.Metrics["mass_drift"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d points in %v\n", len(points), time.Since(start).Round(time.Millisecond))
	if best, ok := sweep.Best(points, objective, maximize); ok {
		fmt.Printf("best %s = %.4f at %v\n", objective, best.Metrics[objective], best.Params)
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	var svg string
	if column != "" {
		stats, err := st.LoadStats(runID)
		if err != nil {
			return err
		}
		data, err := storage.Column(stats, column)
		if err != nil {
			return err
		}
		svg = export.SeriesToSVG(data, 800, 300, "#00ff88")
	} else {
		frames, err := storage.ReadFrames(st.FramesPath(runID))
		if err != nil {
			return fmt.Errorf("run %s has no readable frames: %w", runID, err)
		}
		idx := frameIndex
		if idx < 0 {
			idx += len(frames)
		}
		if idx < 0 || idx >= len(frames) {
			return fmt.Errorf("frame %d out of range (run has %d)", frameIndex, len(frames))
		}
		svg = export.FrameToSVG(frames[idx], svgScale)
	}
	if svg == "" {
		return fmt.Errorf("nothing to draw")
	}

	if outPath == "" {
		_, err := fmt.Fprintln(os.Stdout, svg)
		return err
	}
	return os.WriteFile(outPath, []byte(svg), 0644)
}

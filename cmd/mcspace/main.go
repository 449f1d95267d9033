package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mcspace/internal/config"
	"github.com/san-kum/mcspace/internal/experiment"
	"github.com/san-kum/mcspace/internal/mc"
	"github.com/san-kum/mcspace/internal/space"
	"github.com/san-kum/mcspace/internal/storage"
	"github.com/san-kum/mcspace/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	seed       int64
	macroSteps int
	microSteps int
	replicas   int
	parallel   int
	restore    string
	showPlot   bool
	noSave     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mcspace",
		Short:         "metropolis monte carlo for particles and molecules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mcspace", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store the result",
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().Int64Var(&seed, "seed", 0, "override the configured seed")
	runCmd.Flags().IntVar(&macroSteps, "macro", 0, "override macro steps")
	runCmd.Flags().IntVar(&microSteps, "micro", 0, "override micro steps")
	runCmd.Flags().IntVar(&replicas, "replicas", 1, "independent replicas run concurrently")
	runCmd.Flags().IntVar(&parallel, "parallel", 0, "replicas running at once (0 = all)")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the energy trace when done")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the run to the data directory")

	energyCmd := &cobra.Command{
		Use:   "energy",
		Short: "print the energy of every term for the initial or a stored state",
		RunE:  printEnergy,
	}
	addConfigFlags(energyCmd)

	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "describe the space a configuration builds",
		RunE:  describe,
	}
	addConfigFlags(describeCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy trace of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in configurations",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	rootCmd.AddCommand(runCmd, energyCmd, describeCmd, listCmd, plotCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a built-in configuration")
	cmd.Flags().StringVar(&restore, "restore", "", "load particles from a state file or stored run id")
}

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}

// loadConfig resolves --config and --preset. A config file wins over a
// preset.
func loadConfig() (*config.Config, string, error) {
	switch {
	case configFile != "":
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, "", err
		}
		name := strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		return cfg, name, nil
	case preset != "":
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		return cfg, preset, nil
	default:
		return nil, "", errors.New("one of --config or --preset is required")
	}
}

// restorePath accepts either a state file or the id of a stored run.
func restorePath(st *storage.Store) string {
	if _, err := os.Stat(restore); err == nil {
		return restore
	}
	return st.StatePath(restore)
}

// initialState builds the state for a run, restoring particles first when
// --restore is set.
func initialState(e *experiment.Experiment, seed int64) (*mc.State, error) {
	spc, err := e.Space(seed)
	if err != nil {
		return nil, err
	}
	if restore != "" {
		path := restorePath(storage.New(dataDir))
		if err := storage.Restore(path, spc); err != nil {
			return nil, err
		}
		slog.Info("restored state", "path", path, "particles", len(spc.Particles))
	}
	return e.State(spc)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if macroSteps > 0 {
		cfg.MacroSteps = macroSteps
	}
	if microSteps > 0 {
		cfg.MicroSteps = microSteps
	}
	if replicas < 1 {
		return fmt.Errorf("replicas must be at least 1, got %d", replicas)
	}

	e, err := experiment.New(cfg, slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sims := make([]*mc.Simulator, replicas)
	factory := func(replica int) (*mc.Simulator, error) {
		st, err := initialState(e, cfg.Seed+int64(replica))
		if err != nil {
			return nil, err
		}
		sim, err := e.Setup(st)
		if err != nil {
			return nil, err
		}
		sims[replica] = sim
		return sim, nil
	}

	slog.Info("starting run", "name", name, "replicas", replicas,
		"steps", humanize.Comma(int64(cfg.MacroSteps*cfg.MicroSteps)))

	ens := mc.NewEnsemble(factory, replicas, cfg.Seed)
	ens.SetLimit(parallel)
	results, err := ens.Run(ctx, e.RunConfig())
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if !noSave {
		if err := st.Init(); err != nil {
			return err
		}
	}
	for i, res := range results {
		printResult(i, res)
		if !noSave {
			runID, err := st.Save(storage.Run{Name: name, Config: cfg, State: sims[i].State(), Result: res})
			if err != nil {
				return err
			}
			fmt.Println(viz.Field("saved", runID, 12))
		}
		if showPlot && len(res.Energies) > 1 {
			fmt.Println(plotEnergies(res.Energies, fmt.Sprintf("replica %d energy (kT)", i)))
		}
		fmt.Println()
	}
	return nil
}

func printResult(replica int, res *mc.Result) {
	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("replica %d", replica)))
	fmt.Println(viz.Field("steps", humanize.Comma(int64(res.Steps)), 12))
	fmt.Println(viz.Field("acceptance", fmt.Sprintf("%.3f", float64(res.Accepted)/float64(max(res.Steps, 1))), 12))
	fmt.Println(viz.Field("energy", fmt.Sprintf("%.4f -> %.4f kT", res.InitialEnergy, res.FinalEnergy), 12))
	drift := viz.StatusOK.Render(fmt.Sprintf("%.3g", res.Drift))
	if math.Abs(res.Drift) > 1e-6*math.Max(1, math.Abs(res.FinalEnergy)) {
		drift = viz.StatusWarn.Render(fmt.Sprintf("%.3g", res.Drift))
	}
	fmt.Println(viz.MetricLabel.Render(fmt.Sprintf("%-12s", "drift")) + " " + drift)
	fmt.Println(viz.Field("time", res.Duration.Round(time.Millisecond), 12))
	if len(res.Energies) > 1 {
		fmt.Println(viz.Field("trace", viz.SparklineChart(res.Energies, 40), 12))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MOVE\tTRIALS\tACCEPTED\tRATIO")
	for name, ms := range res.Moves {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\n", name, humanize.Comma(int64(ms.Trials)), humanize.Comma(int64(ms.Accepted)), ms.Ratio())
	}
	w.Flush()

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	for name, v := range res.Metrics {
		fmt.Fprintf(w, "%s\t%.6g\n", name, v)
	}
	w.Flush()
}

func printEnergy(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := experiment.New(cfg, slog.Default())
	if err != nil {
		return err
	}
	st, err := initialState(e, cfg.Seed)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TERM\tENERGY (kT)")
	total := 0.0
	for _, t := range st.HCurrent.Terms() {
		u := t.Energy(space.VolumeChange())
		total += u
		fmt.Fprintf(w, "%s\t%.6g\n", t.Info().Name, u)
	}
	fmt.Fprintf(w, "total\t%.6g\n", total)
	return w.Flush()
}

func describe(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := experiment.New(cfg, slog.Default())
	if err != nil {
		return err
	}
	st, err := initialState(e, cfg.Seed)
	if err != nil {
		return err
	}
	sum := st.Current.Summary()

	fmt.Println(viz.HeaderStyle.Render(name))
	fmt.Println(viz.Field("geometry", sum.Geometry, 12))
	fmt.Println(viz.Field("volume", humanize.CommafWithDigits(sum.Volume, 2)+" Å³", 12))
	fmt.Println(viz.Field("particles", fmt.Sprintf("%d (%d active)", sum.Particles, sum.Active), 12))
	fmt.Println(viz.Field("charge", fmt.Sprintf("%.3g", sum.Charge), 12))
	fmt.Println(viz.Field("temperature", fmt.Sprintf("%g K", cfg.Temperature), 12))
	fmt.Println(viz.Separator(40))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tMOLECULE\tSIZE\tCAPACITY\tRANGE\tCHARGE\tATOMIC")
	for i, g := range sum.Groups {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t[%d,%d)\t%.3g\t%v\n", i, g.Name, g.Size, g.Capacity, g.Begin, g.End, g.Charge, g.Atomic)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println(viz.Separator(40))

	fmt.Println(viz.Subtle.Render("energy terms"))
	for _, t := range st.HCurrent.Terms() {
		info := t.Info()
		line := "  " + info.Name
		if info.Cite != "" {
			line += viz.Subtle.Render("  (" + info.Cite + ")")
		}
		fmt.Println(line)
	}
	fmt.Println(viz.Subtle.Render("moves"))
	for _, mv := range cfg.Moves {
		fmt.Printf("  %s %s dp=%g weight=%g\n", mv.Type, mv.Molecule, mv.Dp, mv.Weight)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tWHEN\tSEED\tPARTICLES\tSTEPS\tFINAL ENERGY")
	for _, run := range runs {
		steps, final := 0, 0.0
		if run.Result != nil {
			steps, final = run.Result.Steps, run.Result.FinalEnergy
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%.4f\n",
			run.ID,
			run.Name,
			humanize.Time(run.Timestamp),
			run.Seed,
			run.Summary.Particles,
			humanize.Comma(int64(steps)),
			final,
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
	energies, err := st.LoadEnergies(runID)
	if err != nil {
		return err
	}
	if len(energies) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("macro steps: %d\n\n", len(energies))
	fmt.Println(plotEnergies(energies, "energy (kT) per macro step"))
	return nil
}

func plotEnergies(energies []float64, caption string) string {
	return asciigraph.Plot(energies,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"court-kinetics/internal/analysis"
	"court-kinetics/internal/config"
	"court-kinetics/internal/plots"
	"court-kinetics/internal/points"
	"court-kinetics/internal/service"
	"court-kinetics/internal/store"
	"court-kinetics/internal/tui"
)

const usage = `Usage: court-kinetics [-config path] <command> [flags]

Commands:
  metrics    compute work, distance and player load for every point
  plots      draw position, velocity, acceleration or energy figures
  heartrate  score the heart rate sessions of a discipline
  view       browse stored runs
  init       write an example config file
`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "", "config file (default ~/.court-kinetics/config.json)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cmd := flag.Arg(0)
	args := flag.Args()
	if len(args) > 0 {
		args = args[1:]
	}

	if cmd == "init" {
		return initConfig(*configPath)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		return initConfig(*configPath)
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s\n", displayConfigPath(*configPath))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cmd {
	case "metrics", "":
		return runMetrics(ctx, cfg, args)
	case "plots":
		return runPlots(ctx, cfg, args)
	case "heartrate":
		return runHeartRate(ctx, cfg)
	case "view":
		return runView(cfg)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func initConfig(path string) error {
	if err := config.CreateExample(path); err != nil {
		return fmt.Errorf("creating example config: %w", err)
	}
	fmt.Printf("\nPlease edit the config file at:\n  %s\n\n", displayConfigPath(path))
	fmt.Println("Set the participant mass and age, the kinematics folder and the points table.")
	return nil
}

func displayConfigPath(path string) string {
	if path != "" {
		return path
	}
	dir, err := config.GetConfigDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(dir, "config.json")
}

func runMetrics(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("metrics", flag.ContinueOnError)
	metricFlag := fs.String("metric", "all", "metric to compute: all, work, distance or player-load")
	if err := fs.Parse(args); err != nil {
		return err
	}

	metrics := analysis.AllMetrics
	if *metricFlag != "all" {
		m, err := analysis.ParseMetric(*metricFlag)
		if err != nil {
			return err
		}
		metrics = []analysis.Metric{m}
	}

	pm, err := points.Load(cfg.Points.File, cfg.Points.Sheet)
	if err != nil {
		return fmt.Errorf("loading points table: %w", err)
	}

	db, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Computing %s for %s points in %d trials...\n",
		metricNames(metrics), humanize.Comma(int64(pm.Len())), len(pm.Trials()))

	progress := make(chan service.Progress)
	done := printProgress(progress)
	result, err := service.NewPipeline(*cfg, db).Metrics(ctx, pm, metrics, progress)
	<-done
	if err != nil {
		return err
	}

	for _, f := range result.Files {
		fmt.Printf("  wrote %s\n", f)
	}
	printErrors(result.Errors)
	fmt.Printf("Done: %s points, %d skipped, run %s in %s\n",
		humanize.Comma(int64(result.Points)), result.Skipped, result.RunID, service.FormatDuration(result.Elapsed))
	return nil
}

func runPlots(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("plots", flag.ContinueOnError)
	typeFlag := fs.String("type", cfg.Output.PlotData, "data to plot: Position, Velocity, Acceleration or Energy")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dt, err := plots.ParseDataType(*typeFlag)
	if err != nil {
		return err
	}

	pm, err := points.Load(cfg.Points.File, cfg.Points.Sheet)
	if err != nil {
		return fmt.Errorf("loading points table: %w", err)
	}

	progress := make(chan service.Progress)
	done := printProgress(progress)
	result, err := service.NewPipeline(*cfg, nil).Plots(ctx, pm, dt, progress)
	<-done
	if err != nil {
		return err
	}

	printErrors(result.Errors)
	fmt.Printf("Done: %s %s plots\n", humanize.Comma(int64(len(result.Files))), dt)
	return nil
}

func runHeartRate(ctx context.Context, cfg *config.Config) error {
	db, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	result, err := service.NewPipeline(*cfg, db).HeartRate(ctx)
	if err != nil {
		return err
	}

	for _, s := range result.Sessions {
		fmt.Printf("  %-30s avg %5.1f  max %3.0f  %8s  TRIMP %6.1f  Banister %6.1f\n",
			s.File, s.Summary.Average, s.Summary.Max, service.FormatDuration(s.Summary.Duration),
			s.Load.TRIMP, s.Banister)
	}
	printErrors(result.Errors)
	fmt.Printf("Done: %d sessions written to %s\n", len(result.Sessions), result.File)
	return nil
}

func runView(cfg *config.Config) error {
	db, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Energy traces need the points table; the viewer works without it
	pm, err := points.Load(cfg.Points.File, cfg.Points.Sheet)
	if err != nil {
		log.Printf("points table unavailable, energy traces disabled: %v", err)
		pm = nil
	}

	pipeline := service.NewPipeline(*cfg, db)
	querySvc := service.NewQueryService(db, pipeline.Engine(), pm)

	p := tea.NewProgram(tui.NewApp(querySvc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// printProgress prints updates until progress is closed, then closes the returned channel
func printProgress(progress <-chan service.Progress) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		last := ""
		for p := range progress {
			if p.Phase != last && last != "" {
				fmt.Println()
			}
			last = p.Phase
			fmt.Printf("\r  %-12s %d/%d %s", p.Phase, p.Completed, p.Total, p.Current)
		}
		if last != "" {
			fmt.Println()
		}
	}()
	return done
}

func printErrors(errs []error) {
	if len(errs) == 0 {
		return
	}
	fmt.Printf("%d problems:\n", len(errs))
	for _, err := range errs {
		fmt.Printf("  %v\n", err)
	}
}

func metricNames(metrics []analysis.Metric) string {
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = m.Label()
	}
	return strings.Join(names, ", ")
}

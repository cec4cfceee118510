package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/akmonengine/helium/config"
	"github.com/akmonengine/helium/scene"
	"github.com/akmonengine/helium/viewer"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configFile string
	preset     string
	logLevel   string
	ticks      int
	frameRate  float64
	noPlot     bool
	addCount   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "helium",
		Short:        "helium balloons in a box",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	rootCmd.MarkFlagsMutuallyExclusive("config", "preset")

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "run the interactive terminal scene",
		RunE:  runView,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the scene headless and plot balloon statistics",
		RunE:  runHeadless,
	}
	runCmd.Flags().IntVar(&ticks, "ticks", 600, "number of frames to simulate")
	runCmd.Flags().Float64Var(&frameRate, "fps", 60, "simulated frame rate")
	runCmd.Flags().IntVar(&addCount, "add", 0, "balloons added before the first frame")
	runCmd.Flags().BoolVar(&noPlot, "no-plot", false, "print the final statistics only")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the resolved configuration as yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}

	rootCmd.AddCommand(viewCmd, runCmd, configCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	switch {
	case configFile != "":
		return config.Load(configFile)
	case preset != "":
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q, available: %v", preset, config.ListPresets())
		}
		return cfg, nil
	default:
		return config.DefaultConfig(), nil
	}
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.SlogLevel()
	if logLevel != "" {
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The terminal belongs to tcell while the viewer runs.
	if logLevel == "" {
		cfg.LogLevel = "error"
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	s, err := scene.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return viewer.New(s, logger).Run(ctx)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	if ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", ticks)
	}
	if frameRate <= 0 {
		return fmt.Errorf("fps must be positive, got %g", frameRate)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	s, err := scene.New(cfg, logger)
	if err != nil {
		return err
	}
	for range addCount {
		if _, err := s.AddBalloon(); err != nil {
			return err
		}
	}

	counts := make([]float64, 0, ticks)
	altitudes := make([]float64, 0, ticks)
	for i := range ticks {
		if err := s.Update(float64(i) / frameRate); err != nil {
			logger.Warn("frame", "tick", i, "error", err)
		}
		counts = append(counts, float64(s.Balloons.Len()))
		altitudes = append(altitudes, meanAltitude(s))
	}

	out := cmd.OutOrStdout()
	if !noPlot {
		plots := []struct {
			data    []float64
			caption string
		}{
			{counts, "balloons"},
			{altitudes, "mean envelope altitude"},
		}
		for _, p := range plots {
			graph := asciigraph.Plot(p.data,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption(p.caption),
			)
			fmt.Fprintln(out, graph)
			fmt.Fprintln(out)
		}
	}

	stats := s.Stats()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ticks\t%d\n", stats.Ticks)
	fmt.Fprintf(w, "steps\t%d\n", stats.Steps)
	fmt.Fprintf(w, "simulated time\t%.3f\n", stats.Time)
	fmt.Fprintf(w, "balloons\t%d\n", stats.Balloons)
	fmt.Fprintf(w, "bodies\t%d\n", stats.Bodies)
	fmt.Fprintf(w, "joints\t%d\n", stats.Joints)
	fmt.Fprintf(w, "collisions\t%d\n", stats.Collisions)

	return w.Flush()
}

func meanAltitude(s *scene.Scene) float64 {
	balloons := s.Balloons.Balloons()
	if len(balloons) == 0 {
		return 0
	}

	sum := 0.0
	for _, b := range balloons {
		sum += b.Center().Y()
	}

	return sum / float64(len(balloons))
}

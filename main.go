package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"btmcts/config"
	"btmcts/experiments"
	"btmcts/space"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "btmcts",
	Short: "Comparison-based tree policies for Monte Carlo tree search",
	Long: `btmcts searches a synthetic pipeline composition space with a Monte Carlo tree search whose
tree policy compares the playout scores below the two children of every node.

Configuration is read from the --config file over the defaults. Every key can be overridden
from the environment, e.g. BTMCTS_SEARCH_EPISODES=500.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		return setupLogging(cfg.Logging.Level)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single search with the configured policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		p, err := cfg.NewPolicy(cfg.Policy.Kind, cfg.Search.Seed)
		if err != nil {
			return err
		}
		pipeline := space.NewPipeline(cfg.Space.Stages, cfg.Space.Branching, cfg.Space.Seed, cfg.Space.Noise)
		result, err := experiments.NewMCTS(cfg, cfg.Policy.Kind, cfg.Search.Seed, p).Search(ctx, pipeline.Root())
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "policy:     %s\n", cfg.Policy.Kind)
		fmt.Fprintf(out, "best path:  %v\n", result.BestPath)
		fmt.Fprintf(out, "best score: %.6f\n", result.BestScore)
		fmt.Fprintf(out, "optimum:    %.6f\n", pipeline.Optimum())
		fmt.Fprintf(out, "episodes:   %d in %s\n", result.Metric.Episodes, result.Metric.Duration)
		return nil
	},
}

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Compare the configured policies over repeated searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		summary, err := experiments.Run(ctx, cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "records: %s\n", summary.Dir)
		fmt.Fprintf(out, "optimum: %.6f\n", summary.Optimum)
		kinds := maps.Keys(summary.MeanScores)
		slices.Sort(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(out, "%-12s mean best score %.6f\n", kind, summary.MeanScores[kind])
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create configuration files",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write the default configuration to path",
	Args:  cobra.ExactArgs(1),
	// the file to write need not be loadable yet
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(config.Default().Logging.Level)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(args[0]); err == nil {
			return fmt.Errorf("config file %s already exists", args[0])
		}
		if err := config.Write(args[0], config.Default()); err != nil {
			return err
		}
		log.Info().Msgf("wrote default config to %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(experimentCmd)
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func setupLogging(level string) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return nil
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(parsed)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

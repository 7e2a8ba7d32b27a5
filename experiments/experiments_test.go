package experiments

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"btmcts/config"

	"github.com/stretchr/testify/require"
)

func smallConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Space = config.Space{Stages: 4, Branching: 2, Seed: 3}
	cfg.Search = config.Search{Goroutines: 2, Episodes: 60, Seed: 5}
	cfg.Experiment = config.Experiment{
		Name:         "small",
		Output:       t.TempDir(),
		Runs:         2,
		Policies:     []string{config.KindUniform, config.KindComparison, config.KindComparison},
		RecordEvents: true,
	}
	return cfg
}

func TestRun(t *testing.T) {
	t.Run("running every policy", func(t *testing.T) {
		cfg := smallConfig(t)

		summary, err := Run(context.Background(), cfg)

		require.NoError(t, err)
		require.Len(t, summary.MeanScores, 2, "Should run each kind once")
		for kind, score := range summary.MeanScores {
			require.GreaterOrEqual(t, score, summary.Optimum-1e-9, "Should not beat the optimum with %s", kind)
		}
		for _, file := range []string{"setup.yaml", "runs.csv", "events.csv"} {
			_, err := os.Stat(filepath.Join(summary.Dir, file))
			require.NoError(t, err, "Should write %s", file)
		}
	})

	t.Run("cancelled experiment", func(t *testing.T) {
		cfg := smallConfig(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Run(ctx, cfg)

		require.ErrorIs(t, err, context.Canceled)
		entries, err := os.ReadDir(cfg.Experiment.Output)
		require.NoError(t, err)
		require.Empty(t, entries, "Should not write records of an aborted experiment")
	})
}

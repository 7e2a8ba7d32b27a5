// Package experiments runs repeated searches with several tree policies on the same space and
// records how they fare.
package experiments

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"btmcts/comparison"
	"btmcts/config"
	"btmcts/experiments/metrics"
	"btmcts/searcher"
	"btmcts/space"
)

// Summary is the outcome of an experiment: the directory written to and the mean best score per
// policy kind.
type Summary struct {
	Dir        string
	MeanScores map[string]float64
	Optimum    float64
}

// Run executes cfg.Experiment.Runs searches for every configured policy kind. Run r of every kind
// uses the same seeds, so kinds are compared on equal footing.
func Run(ctx context.Context, cfg config.Config) (Summary, error) {
	name := cfg.Experiment.Name
	log.Info().Msgf("starting %s experiment...", name)

	pipeline := space.NewPipeline(cfg.Space.Stages, cfg.Space.Branching, cfg.Space.Seed, cfg.Space.Noise)
	recorder := metrics.NewEventRecorder[space.NodeID]()

	// Each kind is run once, in a stable order
	kinds := map[string]bool{}
	for _, kind := range cfg.Experiment.Policies {
		kinds[kind] = true
	}
	order := maps.Keys(kinds)
	slices.Sort(order)

	count := 0
	records := []metrics.RunRecord{}
	totals := map[string]float64{}
	for ki, kind := range order {
		log.Info().Msgf("starting policy %d of %d: %s...", ki+1, len(order), kind)

		for run := 0; run < cfg.Experiment.Runs; run++ {
			count++
			recorder.SetRun(count)
			seed := cfg.Search.Seed + uint64(run)

			metric, err := runSearch(ctx, cfg, kind, seed, pipeline, recorder)
			if err != nil {
				return Summary{}, fmt.Errorf("failed run %d of policy %s: %w", run+1, kind, err)
			}
			records = append(records, metrics.RunRecord{ID: count, Optimum: pipeline.Optimum(), SearchMetric: metric})
			totals[kind] += metric.BestScore

			log.Info().Msgf("completed policy %s run %d of %d with best score %.4f", kind, run+1, cfg.Experiment.Runs, metric.BestScore)
		}
		log.Info().Msgf("completed policy %d of %d", ki+1, len(order))
	}

	log.Info().Msgf("completed %s experiment", name)

	writer, err := metrics.NewWriter(cfg.Experiment.Output, name)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteSetup(cfg); err != nil {
		return Summary{}, fmt.Errorf("failed to store setup: %w", err)
	}
	log.Info().Msg("stored setup")

	if err := writer.WriteRunRecords(records); err != nil {
		return Summary{}, fmt.Errorf("failed to write run records: %w", err)
	}
	log.Info().Msg("stored run records")

	if cfg.Experiment.RecordEvents {
		if err := writer.WriteEventRecords(recorder.Records()); err != nil {
			return Summary{}, fmt.Errorf("failed to write event records: %w", err)
		}
		log.Info().Msg("stored event records")
	}

	summary := Summary{Dir: writer.Dir(), MeanScores: map[string]float64{}, Optimum: pipeline.Optimum()}
	for kind, total := range totals {
		summary.MeanScores[kind] = total / float64(cfg.Experiment.Runs)
	}
	return summary, nil
}

func runSearch(ctx context.Context, cfg config.Config, kind string, seed uint64, pipeline *space.Pipeline,
	recorder *metrics.EventRecorder[space.NodeID]) (metrics.SearchMetric, error) {
	p, err := cfg.NewPolicy(kind, seed, recorderListener(cfg, recorder)...)
	if err != nil {
		return metrics.SearchMetric{}, err
	}

	result, err := NewMCTS(cfg, kind, seed, p).Search(ctx, pipeline.Root())
	return result.Metric, err
}

func recorderListener(cfg config.Config, recorder *metrics.EventRecorder[space.NodeID]) []func(comparison.Event[space.NodeID]) {
	if !cfg.Experiment.RecordEvents {
		return nil
	}
	return []func(comparison.Event[space.NodeID]){recorder.Listen}
}

// NewMCTS creates the search executor configured by cfg.
func NewMCTS(cfg config.Config, kind string, seed uint64, p config.SearchPolicy) *searcher.MCTS {
	options := []searcher.Option{searcher.WithSeed(seed), searcher.WithLabel(kind)}

	if cfg.Search.Episodes > 0 {
		options = append(options, searcher.WithEpisodes(cfg.Search.Episodes))
	}
	if cfg.Search.Duration > 0 {
		options = append(options, searcher.WithDuration(cfg.Search.Duration))
	}

	options = append(options, searcher.WithMetrics())
	return searcher.NewMCTS(cfg.Search.Goroutines, p, options...)
}

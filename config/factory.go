package config

import (
	"fmt"

	"golang.org/x/exp/rand"

	"btmcts/comparison"
	"btmcts/gamma"
	"btmcts/observation"
	"btmcts/plackett"
	"btmcts/policy"
	"btmcts/space"
	"btmcts/threshold"
)

type SearchPolicy = policy.Policy[space.NodeID, space.Action]

// NewPolicy builds the tree policy of the given kind, seeding every random source it needs from seed.
// Listeners are registered with comparison policies and ignored by the other kinds.
func (c Config) NewPolicy(kind string, seed uint64, listeners ...func(comparison.Event[space.NodeID])) (SearchPolicy, error) {
	if err := c.validateKind(kind); err != nil {
		return nil, err
	}

	switch kind {
	case KindComparison:
		return c.newComparison(seed, listeners), nil
	case KindThreshold:
		options := []threshold.Option{threshold.WithMetric(c.thresholdMetric())}
		return threshold.NewPolicy[space.NodeID, space.Action](c.Policy.Threshold.K, options...), nil
	case KindPlackett:
		return c.newPlackett(seed), nil
	case KindUniform:
		return policy.NewUniform[space.NodeID, space.Action](rand.New(rand.NewSource(seed))), nil
	default:
		return nil, fmt.Errorf("unknown policy kind %q", kind)
	}
}

func (c Config) newComparison(seed uint64, listeners []func(comparison.Event[space.NodeID])) *comparison.Policy[space.NodeID, space.Action] {
	cfg := c.Policy.Comparison
	options := []comparison.Option[space.NodeID]{
		comparison.WithGamma[space.NodeID](gamma.Combined{
			Short: gamma.NewCosLin(cfg.Gamma.Short.MaxGamma, cfg.Gamma.Short.VisitsForOne, cfg.Gamma.Short.MinShallow, cfg.Gamma.Short.MinDeep),
			Long: gamma.NewDepthScaled(cfg.Gamma.Long.MaxGamma, cfg.Gamma.Long.MinObservations,
				cfg.Gamma.Long.VisitsForOne, cfg.Gamma.Long.VisitsForMax, cfg.Gamma.Long.MinScale),
		}),
	}
	if cfg.Stochastic {
		options = append(options,
			comparison.WithSeed[space.NodeID](seed),
			comparison.WithExplorationProbability[space.NodeID](cfg.ExplorationProbability))
	}

	switch cfg.Store {
	case "keep_all":
		options = append(options, comparison.WithObservationStore[space.NodeID](observation.KeepAllFactory()))
	case "mixed":
		random := rand.New(rand.NewSource(seed + 1))
		options = append(options, comparison.WithObservationStore[space.NodeID](
			observation.MixedWindowFactory(cfg.BestK, cfg.ShallowN, cfg.DeepK, cfg.Epsilon, random)))
	default:
		options = append(options, comparison.WithObservationStore[space.NodeID](observation.EpsilonWindowFactory(cfg.Epsilon)))
	}

	if cfg.Evaluator == "pairwise" {
		options = append(options, comparison.WithWinEvaluator[space.NodeID](comparison.Pairwise{}))
	}

	for _, listener := range listeners {
		options = append(options, comparison.WithListener[space.NodeID](listener))
	}
	return comparison.NewPolicy[space.NodeID, space.Action](options...)
}

func (c Config) thresholdMetric() threshold.Metric {
	switch c.Policy.Threshold.Metric {
	case "mean":
		return threshold.Mean
	case "best":
		return threshold.Best
	default:
		return threshold.LowerConfidenceBound(c.Policy.Threshold.CSquared)
	}
}

func (c Config) newPlackett(seed uint64) *plackett.Policy[space.NodeID, space.Action] {
	cfg := c.Policy.Plackett
	statistic := plackett.MinStatistic
	if cfg.Statistic == "mean" {
		statistic = plackett.MeanStatistic
	}
	kernel := plackett.NewBootstrapKernel[space.NodeID](
		plackett.WithMaxHistory(cfg.MaxHistory),
		plackett.WithMinSamples(cfg.MinSamples),
		plackett.WithBootstraps(cfg.Bootstraps, cfg.SampleSize),
		plackett.WithStatistic(statistic),
		plackett.WithKernelRand(rand.New(rand.NewSource(seed+1))),
	)
	return plackett.NewPolicy[space.NodeID, space.Action](kernel, rand.New(rand.NewSource(seed)))
}

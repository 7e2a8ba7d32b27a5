// Package config holds the settings of searches and experiments and turns them into tree policies.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

const (
	KindComparison = "comparison"
	KindThreshold  = "threshold"
	KindPlackett   = "plackett"
	KindUniform    = "uniform"
)

var Kinds = []string{KindComparison, KindThreshold, KindPlackett, KindUniform}

type Config struct {
	Logging    Logging    `mapstructure:"logging" yaml:"logging"`
	Space      Space      `mapstructure:"space" yaml:"space"`
	Search     Search     `mapstructure:"search" yaml:"search"`
	Policy     Policy     `mapstructure:"policy" yaml:"policy"`
	Experiment Experiment `mapstructure:"experiment" yaml:"experiment"`
}

type Logging struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Space describes the synthetic pipeline space searched.
type Space struct {
	Stages    int     `mapstructure:"stages" yaml:"stages"`
	Branching int     `mapstructure:"branching" yaml:"branching"`
	Seed      uint64  `mapstructure:"seed" yaml:"seed"`
	Noise     float64 `mapstructure:"noise" yaml:"noise"`
}

type Search struct {
	Goroutines int           `mapstructure:"goroutines" yaml:"goroutines"`
	Episodes   int           `mapstructure:"episodes" yaml:"episodes"`
	Duration   time.Duration `mapstructure:"duration" yaml:"duration"`
	Seed       uint64        `mapstructure:"seed" yaml:"seed"`
}

type Policy struct {
	Kind       string     `mapstructure:"kind" yaml:"kind"`
	Comparison Comparison `mapstructure:"comparison" yaml:"comparison"`
	Threshold  Threshold  `mapstructure:"threshold" yaml:"threshold"`
	Plackett   Plackett   `mapstructure:"plackett" yaml:"plackett"`
}

type Comparison struct {
	Stochastic             bool    `mapstructure:"stochastic" yaml:"stochastic"`
	ExplorationProbability float64 `mapstructure:"exploration_probability" yaml:"exploration_probability"`
	// keep_all, epsilon or mixed
	Store    string  `mapstructure:"store" yaml:"store"`
	Epsilon  float64 `mapstructure:"epsilon" yaml:"epsilon"`
	BestK    int     `mapstructure:"best_k" yaml:"best_k"`
	ShallowN int     `mapstructure:"shallow_n" yaml:"shallow_n"`
	DeepK    int     `mapstructure:"deep_k" yaml:"deep_k"`
	// best or pairwise
	Evaluator string `mapstructure:"evaluator" yaml:"evaluator"`
	Gamma     Gamma  `mapstructure:"gamma" yaml:"gamma"`
}

type Gamma struct {
	Short CosLin      `mapstructure:"short" yaml:"short"`
	Long  DepthScaled `mapstructure:"long" yaml:"long"`
}

type CosLin struct {
	MaxGamma     float64 `mapstructure:"max_gamma" yaml:"max_gamma"`
	VisitsForOne int     `mapstructure:"visits_for_one" yaml:"visits_for_one"`
	MinShallow   int     `mapstructure:"min_shallow" yaml:"min_shallow"`
	MinDeep      int     `mapstructure:"min_deep" yaml:"min_deep"`
}

type DepthScaled struct {
	MaxGamma        float64 `mapstructure:"max_gamma" yaml:"max_gamma"`
	MinObservations int     `mapstructure:"min_observations" yaml:"min_observations"`
	VisitsForOne    int     `mapstructure:"visits_for_one" yaml:"visits_for_one"`
	VisitsForMax    int     `mapstructure:"visits_for_max" yaml:"visits_for_max"`
	MinScale        float64 `mapstructure:"min_scale" yaml:"min_scale"`
}

type Threshold struct {
	K int `mapstructure:"k" yaml:"k"`
	// mean, best or lcb
	Metric   string  `mapstructure:"metric" yaml:"metric"`
	CSquared float64 `mapstructure:"c_squared" yaml:"c_squared"`
}

type Plackett struct {
	MaxHistory int `mapstructure:"max_history" yaml:"max_history"`
	MinSamples int `mapstructure:"min_samples" yaml:"min_samples"`
	Bootstraps int `mapstructure:"bootstraps" yaml:"bootstraps"`
	SampleSize int `mapstructure:"sample_size" yaml:"sample_size"`
	// mean or min
	Statistic string `mapstructure:"statistic" yaml:"statistic"`
}

type Experiment struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	Output   string   `mapstructure:"output" yaml:"output"`
	Runs     int      `mapstructure:"runs" yaml:"runs"`
	Policies []string `mapstructure:"policies" yaml:"policies"`
	// RecordEvents writes the observation events of comparison policies.
	RecordEvents bool `mapstructure:"record_events" yaml:"record_events"`
}

func Default() Config {
	return Config{
		Logging: Logging{Level: "info"},
		Space:   Space{Stages: 8, Branching: 2, Seed: 1, Noise: 0.05},
		Search:  Search{Goroutines: 8, Episodes: 2000},
		Policy: Policy{
			Kind: KindComparison,
			Comparison: Comparison{
				Store:     "epsilon",
				Epsilon:   0.2,
				BestK:     3,
				ShallowN:  10,
				DeepK:     2,
				Evaluator: "best",
				Gamma: Gamma{
					Short: CosLin{MaxGamma: 5, VisitsForOne: 4, MinShallow: 2, MinDeep: 2},
					Long:  DepthScaled{MaxGamma: 1, MinObservations: 5, VisitsForOne: 50, VisitsForMax: 50, MinScale: 0.1},
				},
			},
			Threshold: Threshold{K: 2, Metric: "lcb", CSquared: 2},
			Plackett:  Plackett{MaxHistory: 1000, MinSamples: 2, Bootstraps: 20, SampleSize: 10, Statistic: "min"},
		},
		Experiment: Experiment{
			Name:     "policies",
			Output:   "experiments",
			Runs:     10,
			Policies: []string{KindComparison, KindThreshold, KindUniform},
		},
	}
}

// Load reads the YAML file at path over the defaults; an empty path keeps the defaults. Environment
// variables such as BTMCTS_SEARCH_EPISODES override both.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BTMCTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, fmt.Errorf("failed to read default config: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Space.Stages < 1 || c.Space.Branching < 1 {
		return fmt.Errorf("space needs at least one stage and one component, got %d stages and %d components", c.Space.Stages, c.Space.Branching)
	}
	if c.Search.Goroutines < 1 {
		return fmt.Errorf("search needs at least one goroutine, got %d", c.Search.Goroutines)
	}
	if c.Search.Episodes <= 0 && c.Search.Duration <= 0 {
		return fmt.Errorf("search needs episodes or a duration")
	}
	if err := c.validateKind(c.Policy.Kind); err != nil {
		return err
	}
	for _, kind := range c.Experiment.Policies {
		if err := c.validateKind(kind); err != nil {
			return fmt.Errorf("experiment: %w", err)
		}
	}
	if c.Experiment.Runs < 1 {
		return fmt.Errorf("experiment needs at least one run, got %d", c.Experiment.Runs)
	}

	comparison := c.Policy.Comparison
	if comparison.ExplorationProbability < 0 || comparison.ExplorationProbability > 1 {
		return fmt.Errorf("exploration probability %v outside [0, 1]", comparison.ExplorationProbability)
	}
	if !slices.Contains([]string{"keep_all", "epsilon", "mixed"}, comparison.Store) {
		return fmt.Errorf("unknown observation store %q: must be one of keep_all, epsilon, mixed", comparison.Store)
	}
	if !slices.Contains([]string{"best", "pairwise"}, comparison.Evaluator) {
		return fmt.Errorf("unknown win evaluator %q: must be one of best, pairwise", comparison.Evaluator)
	}
	if g := comparison.Gamma.Long; g.MaxGamma < 1 || g.VisitsForMax < g.VisitsForOne {
		return fmt.Errorf("long-term gamma needs max_gamma >= 1 and visits_for_max >= visits_for_one")
	}
	if c.Policy.Threshold.K < 1 {
		return fmt.Errorf("visit threshold must be at least 1, got %d", c.Policy.Threshold.K)
	}
	if !slices.Contains([]string{"mean", "best", "lcb"}, c.Policy.Threshold.Metric) {
		return fmt.Errorf("unknown threshold metric %q: must be one of mean, best, lcb", c.Policy.Threshold.Metric)
	}
	if !slices.Contains([]string{"mean", "min"}, c.Policy.Plackett.Statistic) {
		return fmt.Errorf("unknown kernel statistic %q: must be one of mean, min", c.Policy.Plackett.Statistic)
	}
	return nil
}

func (c Config) validateKind(kind string) error {
	if !slices.Contains(Kinds, kind) {
		return fmt.Errorf("unknown policy kind %q: must be one of %s", kind, strings.Join(Kinds, ", "))
	}
	// the comparison policy models exactly two children per node
	if kind == KindComparison && c.Space.Branching != 2 {
		return fmt.Errorf("policy %s needs a branching of 2, got %d", kind, c.Space.Branching)
	}
	return nil
}

package plackett

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"

	"btmcts/stats"
)

var ErrNoObservations = errors.New("no observations for child")

// Kernel turns the scores observed below the children of a node into rankings of those children.
type Kernel[N comparable] interface {
	SignalScore(path []N, score float64)
	// Reliable reports whether enough evidence was collected to rank children.
	Reliable(node N, children []N) bool
	// Rankings returns several plausible orderings of children, best first.
	Rankings(node N, children []N) ([][]N, error)
}

// Statistic condenses a bootstrap sample into the value children are ranked by (lower is better).
type Statistic func(sample []float64) float64

func MeanStatistic(sample []float64) float64 {
	var s stats.Summary
	for _, x := range sample {
		s.Add(x)
	}
	return s.Mean()
}

func MinStatistic(sample []float64) float64 {
	return slices.Min(sample)
}

type KernelOption func(*kernelSettings)

type kernelSettings struct {
	maxHistory int
	minSamples int
	bootstraps int
	sampleSize int
	statistic  Statistic
	random     *rand.Rand
}

// WithMaxHistory bounds the number of scores kept per child. The oldest scores are dropped first.
func WithMaxHistory(n int) KernelOption {
	return func(s *kernelSettings) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithMinSamples is the number of scores every child needs before rankings are considered reliable.
func WithMinSamples(n int) KernelOption {
	return func(s *kernelSettings) {
		if n > 0 {
			s.minSamples = n
		}
	}
}

// WithBootstraps sets the number of rankings drawn and the number of scores in every bootstrap sample.
func WithBootstraps(bootstraps, sampleSize int) KernelOption {
	return func(s *kernelSettings) {
		if bootstraps > 0 {
			s.bootstraps = bootstraps
		}
		if sampleSize > 0 {
			s.sampleSize = sampleSize
		}
	}
}

func WithStatistic(statistic Statistic) KernelOption {
	return func(s *kernelSettings) {
		if statistic != nil {
			s.statistic = statistic
		}
	}
}

func WithKernelRand(random *rand.Rand) KernelOption {
	return func(s *kernelSettings) {
		if random != nil {
			s.random = random
		}
	}
}

// BootstrapKernel ranks children by a statistic of bootstrap samples of their observed scores. Every
// sample contains the best score ever seen for the child. It is not safe for concurrent use.
type BootstrapKernel[N comparable] struct {
	kernelSettings
	// node -> child -> recent scores
	observations map[N]map[N][]float64
	best         map[N]map[N]float64
}

func NewBootstrapKernel[N comparable](options ...KernelOption) *BootstrapKernel[N] {
	s := kernelSettings{
		maxHistory: 1000,
		minSamples: 2,
		bootstraps: 20,
		sampleSize: 10,
		statistic:  MeanStatistic,
	}
	for _, option := range options {
		option(&s)
	}
	if s.random == nil {
		s.random = rand.New(rand.NewSource(0))
	}
	return &BootstrapKernel[N]{
		kernelSettings: s,
		observations:   make(map[N]map[N][]float64),
		best:           make(map[N]map[N]float64),
	}
}

// SignalScore records score for every parent-child step of path.
func (k *BootstrapKernel[N]) SignalScore(path []N, score float64) {
	for i := 0; i+1 < len(path); i++ {
		node, child := path[i], path[i+1]
		children, ok := k.observations[node]
		if !ok {
			children = make(map[N][]float64)
			k.observations[node] = children
			k.best[node] = make(map[N]float64)
		}
		scores := append(children[child], score)
		if len(scores) > k.maxHistory {
			scores = scores[len(scores)-k.maxHistory:]
		}
		children[child] = scores

		best, ok := k.best[node][child]
		if !ok || score < best {
			k.best[node][child] = score
		}
	}
}

func (k *BootstrapKernel[N]) Reliable(node N, children []N) bool {
	observed, ok := k.observations[node]
	if !ok {
		return false
	}
	for _, child := range children {
		if len(observed[child]) < k.minSamples {
			log.Trace().Interface("node", node).Msgf("Fewer than %d observations for %v", k.minSamples, child)
			return false
		}
	}
	return true
}

func (k *BootstrapKernel[N]) Rankings(node N, children []N) ([][]N, error) {
	for _, child := range children {
		if len(k.observations[node][child]) == 0 {
			return nil, fmt.Errorf("%w: %v under %v", ErrNoObservations, child, node)
		}
	}

	rankings := make([][]N, k.bootstraps)
	values := make(map[N]float64, len(children))
	sample := make([]float64, k.sampleSize)
	for b := range rankings {
		for _, child := range children {
			scores := k.observations[node][child]
			sample[0] = k.best[node][child]
			for i := 1; i < len(sample); i++ {
				sample[i] = scores[k.random.Intn(len(scores))]
			}
			values[child] = k.statistic(sample)
		}
		ranking := slices.Clone(children)
		slices.SortStableFunc(ranking, func(a, b N) int {
			switch {
			case values[a] < values[b]:
				return -1
			case values[a] > values[b]:
				return 1
			}
			return 0
		})
		rankings[b] = ranking
	}
	return rankings, nil
}

// Clear forgets everything observed below node.
func (k *BootstrapKernel[N]) Clear(node N) {
	if n := len(k.observations[node]); n > 0 {
		log.Debug().Interface("node", node).Msgf("Removing observations of %d children", n)
	}
	delete(k.observations, node)
	delete(k.best, node)
}

// Observations returns the number of scores kept for child below node.
func (k *BootstrapKernel[N]) Observations(node, child N) int {
	return len(k.observations[node][child])
}

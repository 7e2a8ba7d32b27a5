// Package plackett implements a tree policy that aggregates bootstrapped rankings of the children
// of a node into Plackett-Luce skills and samples the next action proportionally to them.
package plackett

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"btmcts/gamma"
	"btmcts/policy"
)

// Parameters of the long-term gamma schedule, per child of the node.
const (
	longMaxGamma     = 5
	longVisitsForOne = 10
	longMinShallow   = 5
	longMinDeep      = 2
)

type Policy[N comparable, A comparable] struct {
	mu     sync.Mutex
	kernel Kernel[N]
	random *rand.Rand
	short  gamma.Function

	// node -> child -> last skill, used to warm start the solver
	skills        map[N]map[N]float64
	visits        map[N]int
	relativeDepth map[N]float64
	parent        map[N]N
	// last local selection probability of a node under its parent
	local map[N]float64
}

func NewPolicy[N comparable, A comparable](kernel Kernel[N], random *rand.Rand) *Policy[N, A] {
	if random == nil {
		panic("Plackett-Luce policy needs a random source")
	}
	return &Policy[N, A]{
		kernel:        kernel,
		random:        random,
		short:         gamma.NewCosLin(3, 4, 2, 2),
		skills:        make(map[N]map[N]float64),
		visits:        make(map[N]int),
		relativeDepth: make(map[N]float64),
		parent:        make(map[N]N),
		local:         make(map[N]float64),
	}
}

func (p *Policy[N, A]) SelectAction(node N, edges []policy.Edge[N, A]) (A, error) {
	var zero A
	if len(edges) == 0 {
		return zero, fmt.Errorf("%w at %v", policy.ErrNoActions, node)
	}
	if len(edges) == 1 {
		return edges[0].Action, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	children := policy.Successors(edges)
	if !p.kernel.Reliable(node, children) {
		log.Trace().Interface("node", node).Msg("Rankings not reliable yet, choosing uniformly")
		return edges[p.random.Intn(len(edges))].Action, nil
	}

	rankings, err := p.kernel.Rankings(node, children)
	if err != nil {
		return zero, err
	}
	problem, err := Encode(rankings)
	if err != nil {
		return zero, err
	}

	k := len(children)
	schedule := gamma.Combined{
		Short: p.short,
		Long:  gamma.NewCosLin(longMaxGamma, k*longVisitsForOne, k*longMinShallow, k*longMinDeep),
	}
	probability := p.nodeProbability(node)
	g := schedule.Gamma(p.visits[node], probability, p.relativeDepth[node])

	skills := Uniform(len(problem.Objects))
	if g != 0 {
		if skills, err = Solve(problem, p.warmStart(node, problem)); err != nil {
			return zero, err
		}
		cache := make(map[N]float64, len(skills))
		for i, object := range problem.Objects {
			cache[object] = skills[i]
		}
		p.skills[node] = cache
	}
	skills = gamma.Sharpen(skills, g)
	log.Trace().
		Interface("node", node).
		Int("visits", p.visits[node]).
		Float64("gamma", g).
		Float64("probability", probability).
		Msgf("Skills %v", skills)

	distribution := make([]float64, len(edges))
	mass := 0.0
	for i, edge := range edges {
		index := problem.Index(edge.Successor)
		if index < 0 {
			return zero, fmt.Errorf("%w: %v has no skill", ErrInvalidProblem, edge.Successor)
		}
		distribution[i] = skills[index]
		mass += skills[index]
	}
	if mass == 0 || math.IsNaN(mass) {
		log.Debug().Interface("node", node).Msg("All available options have probability 0")
		return edges[0].Action, nil
	}
	for i := range distribution {
		distribution[i] /= mass
	}

	chosen := sample(distribution, p.random)
	for i, edge := range edges {
		p.local[edge.Successor] = distribution[i]
	}
	return edges[chosen].Action, nil
}

// sample draws an index with the given probabilities from a single uniform number.
func sample(distribution []float64, random *rand.Rand) int {
	sampled := random.Float64()
	cumulative := 0.0
	last := 0
	for i, prob := range distribution {
		if prob > 0 {
			last = i
		}
		cumulative += prob
		if sampled < cumulative {
			return i
		}
	}
	return last // rounding errors
}

func (p *Policy[N, A]) warmStart(node N, problem Problem[N]) []float64 {
	cached, ok := p.skills[node]
	if !ok {
		return nil
	}
	warm := make([]float64, len(problem.Objects))
	for i, object := range problem.Objects {
		s, ok := cached[object]
		if !ok {
			return nil
		}
		warm[i] = s
	}
	return warm
}

// nodeProbability multiplies the last known local probabilities from node up to the root.
func (p *Policy[N, A]) nodeProbability(node N) float64 {
	probability := 1.0
	seen := map[N]bool{node: true}
	for current := node; ; {
		parent, ok := p.parent[current]
		if !ok {
			return probability
		}
		if local, known := p.local[current]; known {
			probability *= local
		}
		if seen[parent] {
			return probability
		}
		seen[parent] = true
		current = parent
	}
}

// UpdatePath forwards the score to the kernel and tracks visits, depths and parents of the path.
func (p *Policy[N, A]) UpdatePath(path []N, score float64) error {
	if len(path) == 0 {
		return policy.ErrEmptyPath
	}
	if math.IsNaN(score) {
		return fmt.Errorf("%w: NaN for path ending in %v", policy.ErrInvalidScore, path[len(path)-1])
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.kernel.SignalScore(path, score)
	length := len(path) - 1
	for depth, node := range path {
		p.visits[node]++
		rd := 0.0
		if length > 0 {
			rd = float64(depth) / float64(length)
		}
		if current, ok := p.relativeDepth[node]; !ok || rd > current {
			p.relativeDepth[node] = rd
		}
		if depth > 0 {
			p.parent[node] = path[depth-1]
		}
	}
	return nil
}

// Visits is the number of paths through node.
func (p *Policy[N, A]) Visits(node N) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visits[node]
}

// Skills returns the last skills estimated for the children of node.
func (p *Policy[N, A]) Skills(node N) map[N]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	skills := make(map[N]float64, len(p.skills[node]))
	for child, s := range p.skills[node] {
		skills[child] = s
	}
	return skills
}

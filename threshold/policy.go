// Package threshold implements a tree policy that forces every child to be tried k times before it
// exploits the child with the best metric.
package threshold

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog/log"

	"btmcts/policy"
	"btmcts/stats"
)

type Option func(*settings)

type settings struct {
	metric Metric
}

func WithMetric(metric Metric) Option {
	return func(s *settings) {
		if metric != nil {
			s.metric = metric
		}
	}
}

type Policy[N comparable, A comparable] struct {
	mu        sync.Mutex
	k         int
	metric    Metric
	summaries map[N]*stats.Summary
}

func NewPolicy[N comparable, A comparable](k int, options ...Option) *Policy[N, A] {
	if k < 1 {
		panic("visit threshold must be at least 1")
	}
	s := settings{metric: Mean}
	for _, option := range options {
		option(&s)
	}
	return &Policy[N, A]{
		k:         k,
		metric:    s.metric,
		summaries: make(map[N]*stats.Summary),
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

	least, leastVisits := 0, p.visits(edges[0].Successor)
	for i, edge := range edges[1:] {
		if visits := p.visits(edge.Successor); visits < leastVisits {
			least, leastVisits = i+1, visits
		}
	}
	if leastVisits < p.k {
		log.Trace().Interface("node", node).Msgf("Forcing exploration of %v with %d visits", edges[least].Action, leastVisits)
		return edges[least].Action, nil
	}

	parentVisits := p.visits(node)
	if parentVisits == 0 {
		for _, edge := range edges {
			parentVisits += p.visits(edge.Successor)
		}
	}
	best, bestValue := 0, p.metric(p.summaries[edges[0].Successor], parentVisits)
	for i, edge := range edges[1:] {
		if value := p.metric(p.summaries[edge.Successor], parentVisits); value < bestValue {
			best, bestValue = i+1, value
		}
	}
	return edges[best].Action, nil
}

func (p *Policy[N, A]) visits(node N) int {
	if s, ok := p.summaries[node]; ok {
		return s.Count()
	}
	return 0
}

// UpdatePath adds the score to the statistics of every node on the path.
func (p *Policy[N, A]) UpdatePath(path []N, score float64) error {
	if len(path) == 0 {
		return policy.ErrEmptyPath
	}
	if math.IsNaN(score) {
		return fmt.Errorf("%w: NaN for path ending in %v", policy.ErrInvalidScore, path[len(path)-1])
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, node := range path {
		s, ok := p.summaries[node]
		if !ok {
			s = &stats.Summary{}
			p.summaries[node] = s
		}
		s.Add(score)
	}
	return nil
}

// Summary returns a copy of the statistics of node.
func (p *Policy[N, A]) Summary(node N) (stats.Summary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.summaries[node]
	if !ok {
		return stats.Summary{}, false
	}
	return *s, true
}

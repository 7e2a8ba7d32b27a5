// Package comparison implements a tree policy that keeps a Bradley-Terry model per node, comparing
// the two children of every node by the playout scores observed below them.
package comparison

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"

	"btmcts/gamma"
	"btmcts/observation"
	"btmcts/policy"
)

type Policy[N comparable, A comparable] struct {
	settings[N]
	mu    sync.Mutex
	arena *arena[N]
}

type settings[N comparable] struct {
	// nil selects deterministically
	random                 *rand.Rand
	explorationProbability float64
	stores                 observation.Factory
	evaluator              WinEvaluator
	gamma                  gamma.Function
	listeners              []Listener[N]
}

type Option[N comparable] func(*settings[N])

// WithRand switches to stochastic selection driven by random.
func WithRand[N comparable](random *rand.Rand) Option[N] {
	return func(s *settings[N]) {
		s.random = random
	}
}

func WithSeed[N comparable](seed uint64) Option[N] {
	return WithRand[N](rand.New(rand.NewSource(seed)))
}

// WithExplorationProbability makes a stochastic policy ignore its models and pick uniformly with
// the given probability.
func WithExplorationProbability[N comparable](probability float64) Option[N] {
	return func(s *settings[N]) {
		s.explorationProbability = probability
	}
}

func WithObservationStore[N comparable](stores observation.Factory) Option[N] {
	return func(s *settings[N]) {
		s.stores = stores
	}
}

func WithWinEvaluator[N comparable](evaluator WinEvaluator) Option[N] {
	return func(s *settings[N]) {
		s.evaluator = evaluator
	}
}

func WithGamma[N comparable](function gamma.Function) Option[N] {
	return func(s *settings[N]) {
		s.gamma = function
	}
}

// WithListener registers a listener for observation events. It can be given several times.
// Listeners run after the policy lock is released, so events of concurrent UpdatePath calls may
// arrive concurrently and out of update order; listeners keeping state must lock it themselves.
func WithListener[N comparable](listener func(Event[N])) Option[N] {
	return func(s *settings[N]) {
		s.listeners = append(s.listeners, listener)
	}
}

func NewPolicy[N comparable, A comparable](options ...Option[N]) *Policy[N, A] {
	s := settings[N]{
		stores:    observation.EpsilonWindowFactory(observation.DefaultEpsilon),
		evaluator: BestObservation{},
		gamma:     gamma.Default(),
	}
	for _, option := range options {
		option(&s)
	}
	if s.explorationProbability < 0 || s.explorationProbability > 1 {
		panic("exploration probability must be in [0, 1]")
	}
	return &Policy[N, A]{settings: s, arena: newArena[N]()}
}

func (p *Policy[N, A]) SelectAction(node N, edges []policy.Edge[N, A]) (A, error) {
	var zero A
	if len(edges) == 0 {
		return zero, fmt.Errorf("%w at %v", ErrNoActions, node)
	}
	if len(edges) == 1 {
		return edges[0].Action, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.random != nil && p.explorationProbability > 0 && p.random.Float64() < p.explorationProbability {
		edge := edges[p.random.Intn(len(edges))]
		log.Debug().Interface("node", node).Msgf("Exploring action %v", edge.Action)
		return edge.Action, nil
	}

	m, _, ok := p.arena.lookup(node)
	if !ok {
		return zero, fmt.Errorf("%w: %v", ErrNoModel, node)
	}
	if m.left == none || m.right == none {
		return zero, fmt.Errorf("%w: %v (left=%d right=%d)", ErrIncompleteModel, node, m.left, m.right)
	}
	left, right := p.arena.models[m.left].node, p.arena.models[m.right].node

	var leftAction, rightAction A
	var hasLeft, hasRight bool
	for _, edge := range edges {
		switch edge.Successor {
		case left:
			leftAction, hasLeft = edge.Action, true
		case right:
			rightAction, hasRight = edge.Action, true
		default:
			return zero, fmt.Errorf("%w: %v under %v (left=%v right=%v)", ErrUnknownSuccessor, edge.Successor, node, left, right)
		}
	}
	if !hasLeft || !hasRight {
		return zero, fmt.Errorf("%w: candidates of %v do not lead to both %v and %v", ErrIncompleteModel, node, left, right)
	}
	if err := m.checkProbabilities(); err != nil {
		return zero, err
	}

	var chooseLeft bool
	if p.random == nil {
		chooseLeft = m.pLeft >= m.pRight
	} else {
		chooseLeft = p.random.Float64() < m.pLeft
	}
	action := rightAction
	if chooseLeft {
		action = leftAction
	}
	log.Trace().
		Interface("node", node).
		Bool("stochastic", p.random != nil).
		Msgf("Recommending %v with probabilities %.4f/%.4f", action, m.pLeft, m.pRight)
	return action, nil
}

// UpdatePath adds the playout score of a root-to-leaf path. Models are created for unseen nodes
// and children are linked in the order they are first seen. A path that would give a node a third
// child, a second parent or a second depth is rejected before anything changes.
func (p *Policy[N, A]) UpdatePath(path []N, score float64) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	if math.IsNaN(score) {
		return fmt.Errorf("%w: NaN for path ending in %v", ErrInvalidScore, path[len(path)-1])
	}

	p.mu.Lock()
	events, err := p.updatePath(path, score)
	p.mu.Unlock()

	for _, event := range events {
		for _, listener := range p.listeners {
			listener(event)
		}
	}
	return err
}

func (p *Policy[N, A]) updatePath(path []N, score float64) ([]Event[N], error) {
	if err := p.validate(path); err != nil {
		return nil, err
	}

	leaf := len(path) - 1
	ids := make([]int, len(path))
	for i := leaf; i >= 0; i-- {
		m, id, ok := p.arena.lookup(path[i])
		if !ok {
			m = newNodeModel(path[i], i, p.stores)
			id = p.arena.add(m)
		}
		m.maxDepthBelow = max(m.maxDepthBelow, leaf-i)
		if i < leaf {
			child := ids[i+1]
			p.arena.models[child].parent = id
			m.visits++
			switch {
			case m.left == none:
				m.left = child
			case m.left != child && m.right == none:
				m.right = child
			}
		}
		ids[i] = id
	}

	events := make([]Event[N], 0, leaf)
	for i := leaf - 1; i >= 0; i-- {
		m := p.arena.models[ids[i]]
		event, err := p.addScore(ids[i], score, m.right == ids[i+1])
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
	return events, nil
}

// validate checks the structural consequences of a path against the known models.
func (p *Policy[N, A]) validate(path []N) error {
	pending := make(map[N]int)
	for i := len(path) - 1; i >= 0; i-- {
		node := path[i]
		m, _, known := p.arena.lookup(node)
		depth, seen := pending[node]
		switch {
		case known && m.depth != i:
			return fmt.Errorf("%w: %v has depth %d but is at position %d", ErrDepthMismatch, node, m.depth, i)
		case seen:
			return fmt.Errorf("%w: %v appears at positions %d and %d", ErrDepthMismatch, node, depth, i)
		case !known:
			pending[node] = i
		}
		if i == len(path)-1 {
			continue
		}

		child := path[i+1]
		if c, _, ok := p.arena.lookup(child); ok && c.parent != none && p.arena.models[c.parent].node != node {
			return fmt.Errorf("%w: %v is below %v, not %v", ErrSecondParent, child, p.arena.models[c.parent].node, node)
		}
		if known && m.left != none && m.right != none &&
			p.arena.models[m.left].node != child && p.arena.models[m.right].node != child {
			return fmt.Errorf("%w: %v already has %v and %v, got %v", ErrThirdChild, node,
				p.arena.models[m.left].node, p.arena.models[m.right].node, child)
		}
	}
	return nil
}

// PathProbability is the probability of the current policy reaching node from the root.
func (p *Policy[N, A]) PathProbability(node N) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, id, ok := p.arena.lookup(node)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrNoModel, node)
	}
	return p.arena.pathProbability(id)
}

// Likelihood multiplies the selection probabilities along path. Decisions at nodes with fewer than
// two known children count as certain.
func (p *Policy[N, A]) Likelihood(path []N) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.likelihood(path)
}

func (p *Policy[N, A]) likelihood(path []N) (float64, error) {
	likelihood := 1.0
	for i := 1; i < len(path); i++ {
		m, _, ok := p.arena.lookup(path[i-1])
		if !ok {
			return 0, fmt.Errorf("%w: %v", ErrNoModel, path[i-1])
		}
		if m.left == none || m.right == none {
			continue
		}
		switch path[i] {
		case p.arena.models[m.left].node:
			likelihood *= m.pLeft
		case p.arena.models[m.right].node:
			likelihood *= m.pRight
		default:
			return 0, fmt.Errorf("%w: %v under %v", ErrUnknownSuccessor, path[i], path[i-1])
		}
	}
	return likelihood, nil
}

// KnownPaths lists every known path from the root through node to a node without children,
// left subtrees first.
func (p *Policy[N, A]) KnownPaths(node N) ([][]N, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.knownPaths(node)
}

func (p *Policy[N, A]) knownPaths(node N) ([][]N, error) {
	_, id, ok := p.arena.lookup(node)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoModel, node)
	}

	var prefix []N
	for up := p.arena.models[id].parent; up != none; up = p.arena.models[up].parent {
		prefix = append(prefix, p.arena.models[up].node)
	}
	slices.Reverse(prefix)

	type frame struct {
		id   int
		path []N
	}
	var paths [][]N
	stack := []frame{{id: id, path: append(prefix, node)}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		m := p.arena.models[top.id]
		if m.left == none && m.right == none {
			paths = append(paths, top.path)
			continue
		}
		// right is pushed first so that the left subtree is listed first
		for _, child := range []int{m.right, m.left} {
			if child == none {
				continue
			}
			next := append(slices.Clone(top.path), p.arena.models[child].node)
			stack = append(stack, frame{id: child, path: next})
		}
	}
	return paths, nil
}

// MostLikelyPaths returns at most k known paths through node ordered by decreasing likelihood.
func (p *Policy[N, A]) MostLikelyPaths(node N, k int) ([][]N, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	paths, err := p.knownPaths(node)
	if err != nil {
		return nil, err
	}
	likelihoods := make(map[int]float64, len(paths))
	order := make([]int, len(paths))
	for i, path := range paths {
		if likelihoods[i], err = p.likelihood(path); err != nil {
			return nil, err
		}
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case likelihoods[a] > likelihoods[b]:
			return -1
		case likelihoods[a] < likelihoods[b]:
			return 1
		}
		return 0
	})

	k = min(max(k, 0), len(order))
	result := make([][]N, k)
	for i := range result {
		result[i] = paths[order[i]]
	}
	return result, nil
}

// Model returns a copy of the model of node.
func (p *Policy[N, A]) Model(node N) (Snapshot[N], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, _, ok := p.arena.lookup(node)
	if !ok {
		return Snapshot[N]{}, false
	}
	return m.snapshot(p.arena), true
}

// Len is the number of node models.
func (p *Policy[N, A]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.arena.models)
}

// Reset discards all node models.
func (p *Policy[N, A]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.arena = newArena[N]()
}

package searcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"btmcts/experiments/metrics"
	"btmcts/policy"
	"btmcts/space"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

var ErrIllegalAction = errors.New("policy selected an action without a committed child")

type Option func(mcts *MCTS)

type Result struct {
	BestScore float64
	// BestPath holds the actions from the root to the best terminal state found.
	BestPath []space.Action
	Metric   metrics.SearchMetric
}

type MCTS struct {
	goroutines int
	duration   time.Duration
	episodes   int
	seed       uint64
	label      string
	policy     policy.Policy[space.NodeID, space.Action]
	metrics    metrics.Collector

	// guards the tree, the expansion random source and the best result
	mu        sync.Mutex
	root      *node
	random    *rand.Rand
	bestScore float64
	bestPath  []space.Action
}

func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithEpisodes(episodes int) Option {
	return func(m *MCTS) {
		if episodes > 0 {
			m.episodes = episodes
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.seed = seed
	}
}

// WithLabel names the policy in the collected metrics.
func WithLabel(label string) Option {
	return func(m *MCTS) {
		m.label = label
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = metrics.NewCollector()
	}
}

func NewMCTS(goroutines int, p policy.Policy[space.NodeID, space.Action], options ...Option) *MCTS {
	if goroutines < 1 {
		panic("Must search with at least one goroutine")
	}
	if p == nil {
		panic("Must search with a tree policy")
	}
	m := &MCTS{ // Default values
		goroutines: goroutines,
		policy:     p,
		label:      fmt.Sprintf("%T", p),
		metrics:    metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.episodes <= 0 && m.duration <= 0 {
		panic("Must specify search episodes or duration")
	}
	return m
}

// Search runs episodes from root until the episode budget or the duration is spent, ctx is done
// or the policy reports an error. The result holds the best terminal state found so far, also when
// an error is returned.
func (m *MCTS) Search(ctx context.Context, root space.State) (Result, error) {
	m.reset(root)
	m.metrics.Start(m.goroutines, m.label)
	log.Info().Msgf("starting search with %d goroutines using %s...", m.goroutines, m.label)

	searchCtx, cancel := ctx, context.CancelFunc(func() {})
	if m.duration > 0 {
		searchCtx, cancel = context.WithTimeout(ctx, m.duration)
	}
	defer cancel()

	g, gctx := errgroup.WithContext(searchCtx)
	var claimed atomic.Int64
	for i := 0; i < m.goroutines; i++ {
		// Rollouts run outside the lock, so each worker owns its random source
		random := rand.New(rand.NewSource(m.seed + uint64(i) + 1))
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				if m.episodes > 0 && claimed.Add(1) > int64(m.episodes) {
					return nil
				}
				if err := m.simulate(random); err != nil {
					return err
				}
				m.metrics.AddEpisode()
			}
		})
	}

	err := g.Wait()
	result := m.result()
	if err != nil {
		log.Error().Err(err).Msg("search aborted")
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	log.Info().Msgf("completed search with %d episodes, best score %.4f", result.Metric.Episodes, result.BestScore)
	return result, nil
}

func (m *MCTS) reset(root space.State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.root = newNode(root)
	m.random = rand.New(rand.NewSource(m.seed))
	m.bestScore = math.Inf(1)
	m.bestPath = nil
}

func (m *MCTS) result() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Result{
		BestScore: m.bestScore,
		BestPath:  slices.Clone(m.bestPath),
		Metric:    m.metrics.Complete(),
	}
}

// expansion is an action being added below a tree node by one episode.
type expansion struct {
	parent *node
	action space.Action
	state  space.State
}

func (m *MCTS) simulate(random *rand.Rand) error {
	states, actions, expanded, err := m.selectThenExpand()
	if err != nil {
		return err
	}
	states, actions = rollout(states, actions, random)
	score := states[len(states)-1].Score()
	m.metrics.AddScore(score)
	return m.backup(states, actions, expanded, score)
}

// selectThenExpand descends with the tree policy until it reaches a node with an open action, which
// it expands, or a terminal node, or a node whose remaining actions are all being expanded.
func (m *MCTS) selectThenExpand() ([]space.State, []space.Action, *expansion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.root
	states := []space.State{n.state}
	actions := []space.Action{}
	for !n.state.IsTerminal() {
		if open := n.open(); len(open) > 0 {
			action := open[m.random.Intn(len(open))]
			n.pending[action] = true
			child := n.state.Play(action)
			m.metrics.AddExpansion()
			return append(states, child), append(actions, action), &expansion{parent: n, action: action, state: child}, nil
		}
		edges := n.edges()
		if len(edges) == 0 {
			break
		}
		action, err := m.policy.SelectAction(n.state.ID(), edges)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to select action at depth %d: %w", n.state.Depth(), err)
		}
		child, ok := n.children[action]
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: action %d at depth %d", ErrIllegalAction, action, n.state.Depth())
		}
		n = child
		states = append(states, n.state)
		actions = append(actions, action)
	}
	return states, actions, nil, nil
}

func rollout(states []space.State, actions []space.Action, random *rand.Rand) ([]space.State, []space.Action) {
	state := states[len(states)-1]
	for !state.IsTerminal() {
		legal := state.Actions()
		action := legal[random.Intn(len(legal))] // Random rollout policy
		state = state.Play(action)
		states = append(states, state)
		actions = append(actions, action)
	}
	return states, actions
}

func (m *MCTS) backup(states []space.State, actions []space.Action, expanded *expansion, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := make([]space.NodeID, len(states))
	for i, state := range states {
		path[i] = state.ID()
	}
	if err := m.policy.UpdatePath(path, score); err != nil {
		if expanded != nil {
			expanded.parent.release(expanded.action)
		}
		return fmt.Errorf("failed to update path of length %d: %w", len(path), err)
	}
	if expanded != nil {
		expanded.parent.commit(expanded.action, expanded.state)
	}
	if score < m.bestScore {
		m.bestScore = score
		m.bestPath = slices.Clone(actions)
		log.Debug().Float64("score", score).Interface("path", m.bestPath).Msg("found better terminal state")
	}
	return nil
}

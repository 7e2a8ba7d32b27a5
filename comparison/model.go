package comparison

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"btmcts/gamma"
	"btmcts/observation"
)

const (
	none = -1
	// Tolerance for p_left + p_right deviating from 1.
	probabilityTolerance = 1e-6
	// Gaps above which a best observation in the less likely branch is reported.
	suspiciousScoreGap       = 0.05
	suspiciousProbabilityGap = 0.2
)

// nodeModel is the Bradley-Terry model of one node: the two children distinguished so far, their
// observations, win counters and selection probabilities. Links are indices into the arena.
type nodeModel[N comparable] struct {
	node          N
	depth         int
	visits        int
	maxDepthBelow int
	parent        int
	left          int
	right         int
	scoresLeft    observation.Store
	scoresRight   observation.Store
	winsLeft      int
	winsRight     int
	pLeft         float64
	pRight        float64
}

func newNodeModel[N comparable](node N, depth int, stores observation.Factory) *nodeModel[N] {
	return &nodeModel[N]{
		node:          node,
		depth:         depth,
		maxDepthBelow: none,
		parent:        none,
		left:          none,
		right:         none,
		scoresLeft:    stores(depth),
		scoresRight:   stores(depth),
		pLeft:         0.5,
		pRight:        0.5,
	}
}

// arena owns every node model. Models are never removed individually.
type arena[N comparable] struct {
	models []*nodeModel[N]
	index  map[N]int
}

func newArena[N comparable]() *arena[N] {
	return &arena[N]{index: make(map[N]int)}
}

func (a *arena[N]) lookup(node N) (*nodeModel[N], int, bool) {
	id, ok := a.index[node]
	if !ok {
		return nil, none, false
	}
	return a.models[id], id, true
}

func (a *arena[N]) add(m *nodeModel[N]) int {
	id := len(a.models)
	a.models = append(a.models, m)
	a.index[m.node] = id
	return id
}

// pathProbability multiplies the selection probabilities from the root down to the model.
func (a *arena[N]) pathProbability(id int) (float64, error) {
	probability := 1.0
	for child := id; a.models[child].parent != none; child = a.models[child].parent {
		parent := a.models[a.models[child].parent]
		switch child {
		case parent.left:
			probability *= parent.pLeft
		case parent.right:
			probability *= parent.pRight
		default:
			return 0, fmt.Errorf("%w: %v is not a child of %v (left=%d right=%d)",
				ErrOrphanedChild, a.models[child].node, parent.node, parent.left, parent.right)
		}
	}
	return probability, nil
}

// relativeDepth is depth / (depth + deepest distance below), 0 for a root without descendants.
func (m *nodeModel[N]) relativeDepth() (float64, error) {
	if m.maxDepthBelow < 0 {
		return 0, fmt.Errorf("%w: %v", ErrDepthUnobserved, m.node)
	}
	total := m.depth + m.maxDepthBelow
	if total == 0 {
		return 0, nil
	}
	return float64(m.depth) / float64(total), nil
}

func (m *nodeModel[N]) checkProbabilities() error {
	if math.Abs(m.pLeft+m.pRight-1) >= probabilityTolerance || math.IsNaN(m.pLeft) || math.IsNaN(m.pRight) {
		return fmt.Errorf("%w: %v has %v + %v", ErrProbabilityDrift, m.node, m.pLeft, m.pRight)
	}
	return nil
}

func (m *nodeModel[N]) snapshot(a *arena[N]) Snapshot[N] {
	s := Snapshot[N]{
		Node:          m.node,
		Depth:         m.depth,
		Visits:        m.visits,
		MaxDepthBelow: m.maxDepthBelow,
		ScoresLeft:    m.scoresLeft.Values(),
		ScoresRight:   m.scoresRight.Values(),
		WinsLeft:      m.winsLeft,
		WinsRight:     m.winsRight,
		PLeft:         m.pLeft,
		PRight:        m.pRight,
	}
	if m.parent != none {
		s.Parent, s.HasParent = a.models[m.parent].node, true
	}
	if m.left != none {
		s.Left, s.HasLeft = a.models[m.left].node, true
	}
	if m.right != none {
		s.Right, s.HasRight = a.models[m.right].node, true
	}
	return s
}

// addScore records a playout score for one side of the model and refreshes wins and probabilities.
func (p *Policy[N, A]) addScore(id int, score float64, right bool) (Event[N], error) {
	m := p.arena.models[id]
	store := m.scoresLeft
	if right {
		store = m.scoresRight
	}
	evicted := store.Add(score)

	winsLeftBefore, winsRightBefore := m.winsLeft, m.winsRight
	m.winsLeft, m.winsRight = p.evaluator.Evaluate(m.scoresLeft, m.scoresRight)
	log.Trace().
		Interface("node", m.node).
		Msgf("Updated wins from %d/%d to %d/%d", winsLeftBefore, winsRightBefore, m.winsLeft, m.winsRight)

	g := 0.0
	if m.winsLeft+m.winsRight > 0 {
		m.updateProbabilities()
		pLeft, pRight := m.pLeft, m.pRight

		var err error
		if g, err = p.gammaOf(id); err != nil {
			return Event[N]{}, err
		}
		if g > 0 {
			scaled := gamma.Sharpen([]float64{m.pLeft, m.pRight}, g)
			m.pLeft, m.pRight = scaled[0], scaled[1]
			warnIfBestIsUnlikely(m)
		}
		log.Trace().
			Interface("node", m.node).
			Int("visits", m.visits).
			Float64("gamma", g).
			Msgf("Probabilities %.4f/%.4f scaled to %.4f/%.4f", pLeft, pRight, m.pLeft, m.pRight)

		if err := m.checkProbabilities(); err != nil {
			return Event[N]{}, err
		}
		return p.event(m, evicted, pLeft, pRight, g), nil
	}

	bestLeft, okLeft := m.scoresLeft.Best()
	bestRight, okRight := m.scoresRight.Best()
	if okLeft && okRight && bestLeft != bestRight {
		return Event[N]{}, fmt.Errorf("%w: %v has best scores %v (left) and %v (right)",
			ErrUndecided, m.node, bestLeft, bestRight)
	}
	log.Debug().
		Interface("node", m.node).
		Int("left", m.scoresLeft.Len()).
		Int("right", m.scoresRight.Len()).
		Msg("No decision between children yet, keeping probabilities")

	if err := m.checkProbabilities(); err != nil {
		return Event[N]{}, err
	}
	return p.event(m, evicted, m.pLeft, m.pRight, g), nil
}

// updateProbabilities is a single Bradley-Terry step: each side gets its share of the wins.
func (m *nodeModel[N]) updateProbabilities() {
	factor := (m.pLeft + m.pRight) / float64(m.winsLeft+m.winsRight)
	pLeft := factor * float64(m.winsLeft)
	pRight := factor * float64(m.winsRight)
	sum := pLeft + pRight
	m.pLeft = pLeft / sum
	m.pRight = pRight / sum
}

func (p *Policy[N, A]) gammaOf(id int) (float64, error) {
	m := p.arena.models[id]
	rd, err := m.relativeDepth()
	if err != nil {
		return 0, err
	}
	probability, err := p.arena.pathProbability(id)
	if err != nil {
		return 0, err
	}
	g := p.gamma.Gamma(m.visits, probability, rd)
	if math.IsNaN(g) {
		return 0, fmt.Errorf("gamma of %v is NaN at %d visits", m.node, m.visits)
	}
	return g, nil
}

func warnIfBestIsUnlikely[N comparable](m *nodeModel[N]) {
	bestLeft, okLeft := m.scoresLeft.Best()
	bestRight, okRight := m.scoresRight.Best()
	if !okLeft || !okRight {
		return
	}
	bestIsLeft := bestLeft < bestRight
	if math.Abs(bestLeft-bestRight) <= suspiciousScoreGap || math.Abs(m.pLeft-m.pRight) <= suspiciousProbabilityGap {
		return
	}
	if bestIsLeft && m.pRight > m.pLeft || !bestIsLeft && m.pLeft > m.pRight {
		log.Warn().
			Interface("node", m.node).
			Int("depth", m.depth).
			Int("visits", m.visits).
			Msgf("Best observation is in the less likely branch: best %v/%v, probabilities %.4f/%.4f",
				bestLeft, bestRight, m.pLeft, m.pRight)
	}
}

func (p *Policy[N, A]) event(m *nodeModel[N], evicted bool, pLeftBefore, pRightBefore, g float64) Event[N] {
	return Event[N]{
		Node:         m.node,
		Visits:       m.visits,
		ScoresLeft:   m.scoresLeft.Values(),
		ScoresRight:  m.scoresRight.Values(),
		Evicted:      evicted,
		WinsLeft:     m.winsLeft,
		WinsRight:    m.winsRight,
		PLeftBefore:  pLeftBefore,
		PRightBefore: pRightBefore,
		PLeft:        m.pLeft,
		PRight:       m.pRight,
		Gamma:        g,
	}
}

package policy

import (
	"errors"

	"golang.org/x/exp/rand"
)

var (
	ErrNoActions = errors.New("no actions available")
	ErrEmptyPath = errors.New("empty path")

	// ErrInvalidScore rejects NaN playout scores. Infinite costs are valid.
	ErrInvalidScore = errors.New("invalid playout score")
)

// Edge is one candidate decision at a node: the action and the node it leads to.
type Edge[N comparable, A comparable] struct {
	Action    A
	Successor N
}

// Policy is the tree policy contract the search executor drives. SelectAction picks among the
// candidate edges of node; UpdatePath reports a root-to-leaf path together with its playout
// score (lower is better).
type Policy[N comparable, A comparable] interface {
	SelectAction(node N, edges []Edge[N, A]) (A, error)
	UpdatePath(path []N, score float64) error
}

// Uniform picks any candidate with equal probability and keeps no statistics.
type Uniform[N comparable, A comparable] struct {
	random *rand.Rand
}

func NewUniform[N comparable, A comparable](random *rand.Rand) *Uniform[N, A] {
	if random == nil {
		random = rand.New(rand.NewSource(0))
	}
	return &Uniform[N, A]{random: random}
}

func (u *Uniform[N, A]) SelectAction(node N, edges []Edge[N, A]) (A, error) {
	var none A
	if len(edges) == 0 {
		return none, ErrNoActions
	}
	return edges[u.random.Intn(len(edges))].Action, nil
}

func (u *Uniform[N, A]) UpdatePath(path []N, score float64) error {
	return nil
}

// Successors lists the successor of every edge in edge order.
func Successors[N comparable, A comparable](edges []Edge[N, A]) []N {
	successors := make([]N, len(edges))
	for i, edge := range edges {
		successors[i] = edge.Successor
	}
	return successors
}

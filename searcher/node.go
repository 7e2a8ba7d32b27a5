package searcher

import (
	"btmcts/policy"
	"btmcts/space"
)

// node is a tree node of the executor. Children are committed only once the policy has accepted a
// path through them, pending marks actions some worker is currently expanding.
type node struct {
	state    space.State
	actions  []space.Action
	children map[space.Action]*node
	pending  map[space.Action]bool
}

func newNode(state space.State) *node {
	return &node{
		state:    state,
		actions:  state.Actions(),
		children: map[space.Action]*node{},
		pending:  map[space.Action]bool{},
	}
}

// open lists the actions neither expanded nor being expanded, in action order.
func (n *node) open() []space.Action {
	open := []space.Action{}
	for _, action := range n.actions {
		if _, ok := n.children[action]; ok {
			continue
		}
		if n.pending[action] {
			continue
		}
		open = append(open, action)
	}
	return open
}

// edges lists the committed children in action order.
func (n *node) edges() []policy.Edge[space.NodeID, space.Action] {
	edges := make([]policy.Edge[space.NodeID, space.Action], 0, len(n.children))
	for _, action := range n.actions {
		child, ok := n.children[action]
		if !ok {
			continue
		}
		edges = append(edges, policy.Edge[space.NodeID, space.Action]{Action: action, Successor: child.state.ID()})
	}
	return edges
}

func (n *node) commit(action space.Action, state space.State) {
	delete(n.pending, action)
	if _, ok := n.children[action]; !ok {
		n.children[action] = newNode(state)
	}
}

func (n *node) release(action space.Action) {
	delete(n.pending, action)
}

// Package space provides search spaces the tree policies can be driven over.
package space

type NodeID uint64

type Action int

// State should be immutable - operations on State always return a new copy
type State interface {
	// ID identifies the tree node of the state; equal paths give equal IDs.
	ID() NodeID
	Depth() int
	Actions() []Action
	Play(Action) State
	IsTerminal() bool
	// Score is the cost of a terminal state, lower is better.
	Score() float64
}

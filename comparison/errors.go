package comparison

import (
	"errors"

	"btmcts/policy"
)

var (
	ErrNoActions        = policy.ErrNoActions
	ErrEmptyPath        = policy.ErrEmptyPath
	ErrInvalidScore     = policy.ErrInvalidScore
	ErrNoModel          = errors.New("node has no model")
	ErrIncompleteModel  = errors.New("node model does not know both children")
	ErrUnknownSuccessor = errors.New("successor is neither the left nor the right child")
	ErrThirdChild       = errors.New("node already has two distinct children")
	ErrSecondParent     = errors.New("node is already the child of another node")
	ErrDepthMismatch    = errors.New("node seen at a different depth")
	ErrOrphanedChild    = errors.New("parent does not reference its child")
	ErrDepthUnobserved  = errors.New("no depth observed below node")
	ErrProbabilityDrift = errors.New("selection probabilities do not sum to one")
	ErrUndecided        = errors.New("unequal observations on both sides but no wins")
)

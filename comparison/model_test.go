package comparison

import (
	"testing"

	"github.com/stretchr/testify/require"

	"btmcts/observation"
)

func TestPathProbability(t *testing.T) {
	stores := observation.KeepAllFactory()

	t.Run("multiplying probabilities down from the root", func(t *testing.T) {
		a := newArena[string]()
		root := a.add(newNodeModel("r", 0, stores))
		child := a.add(newNodeModel("c", 1, stores))
		grandchild := a.add(newNodeModel("g", 2, stores))
		a.models[root].left, a.models[root].pLeft, a.models[root].pRight = child, 0.25, 0.75
		a.models[child].parent = root
		a.models[child].right, a.models[child].pLeft, a.models[child].pRight = grandchild, 0.6, 0.4
		a.models[grandchild].parent = child

		p, err := a.pathProbability(root)
		require.NoError(t, err)
		require.Equal(t, 1.0, p, "Root should have path probability 1")

		p, err = a.pathProbability(grandchild)
		require.NoError(t, err)
		require.InDelta(t, 0.25*0.4, p, 1e-12)
	})

	t.Run("rejecting a child its parent does not know", func(t *testing.T) {
		a := newArena[string]()
		root := a.add(newNodeModel("r", 0, stores))
		child := a.add(newNodeModel("c", 1, stores))
		a.models[child].parent = root

		_, err := a.pathProbability(child)
		require.ErrorIs(t, err, ErrOrphanedChild)
	})
}

func TestRelativeDepth(t *testing.T) {
	m := newNodeModel("n", 3, observation.KeepAllFactory())

	_, err := m.relativeDepth()
	require.ErrorIs(t, err, ErrDepthUnobserved, "Should refuse before any depth below was seen")

	m.maxDepthBelow = 1
	rd, err := m.relativeDepth()
	require.NoError(t, err)
	require.Equal(t, 0.75, rd)

	root := newNodeModel("r", 0, observation.KeepAllFactory())
	root.maxDepthBelow = 0
	rd, err = root.relativeDepth()
	require.NoError(t, err)
	require.Zero(t, rd)
}

func TestUpdateProbabilities(t *testing.T) {
	m := newNodeModel("n", 0, observation.KeepAllFactory())
	m.winsLeft, m.winsRight = 3, 1

	m.updateProbabilities()

	require.InDelta(t, 0.75, m.pLeft, 1e-12)
	require.InDelta(t, 0.25, m.pRight, 1e-12)
	require.NoError(t, m.checkProbabilities())

	m.pLeft = 0.7
	require.ErrorIs(t, m.checkProbabilities(), ErrProbabilityDrift)
}

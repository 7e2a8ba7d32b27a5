package plackett

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"btmcts/policy"
)

func edges(successors ...string) []policy.Edge[string, string] {
	result := make([]policy.Edge[string, string], len(successors))
	for i, s := range successors {
		result[i] = policy.Edge[string, string]{Action: "to" + s, Successor: s}
	}
	return result
}

func newTestPolicy(seed uint64) *Policy[string, string] {
	kernel := NewBootstrapKernel[string](WithKernelRand(rand.New(rand.NewSource(seed))))
	return NewPolicy[string, string](kernel, rand.New(rand.NewSource(seed)))
}

func TestSelectAction(t *testing.T) {
	t.Run("returning the only action", func(t *testing.T) {
		action, err := newTestPolicy(1).SelectAction("r", edges("a"))

		require.NoError(t, err)
		require.Equal(t, "toa", action)
	})

	t.Run("failing without actions", func(t *testing.T) {
		_, err := newTestPolicy(1).SelectAction("r", nil)

		require.ErrorIs(t, err, policy.ErrNoActions)
	})

	t.Run("choosing uniformly while the kernel is unreliable", func(t *testing.T) {
		p := newTestPolicy(2)
		seen := map[string]bool{}

		for i := 0; i < 100; i++ {
			action, err := p.SelectAction("r", edges("a", "b", "c"))
			require.NoError(t, err)
			seen[action] = true
		}

		require.Len(t, seen, 3, "Every action should be drawn")
		require.Empty(t, p.Skills("r"), "No skills are estimated without rankings")
	})

	t.Run("exploiting the better child once gamma is positive", func(t *testing.T) {
		p := newTestPolicy(3)
		for i := 0; i < 15; i++ {
			require.NoError(t, p.UpdatePath([]string{"r", "a"}, 1+0.01*float64(i)))
			require.NoError(t, p.UpdatePath([]string{"r", "b"}, 5+0.01*float64(i)))
		}
		require.Equal(t, 30, p.Visits("r"))

		for i := 0; i < 50; i++ {
			action, err := p.SelectAction("r", edges("a", "b"))
			require.NoError(t, err)
			require.Equal(t, "toa", action, "b never wins a ranking")
		}
		require.InDelta(t, 1.0, p.Skills("r")["a"], 1e-6)
	})
}

func TestSample(t *testing.T) {
	random := rand.New(rand.NewSource(4))
	for i := 0; i < 20; i++ {
		require.Equal(t, 1, sample([]float64{0, 1, 0}, random))
	}
}

func TestUpdatePath(t *testing.T) {
	t.Run("counting visits of every node", func(t *testing.T) {
		p := newTestPolicy(1)
		require.NoError(t, p.UpdatePath([]string{"r", "a", "aa"}, 1))
		require.NoError(t, p.UpdatePath([]string{"r", "b"}, 1))

		require.Equal(t, 2, p.Visits("r"))
		require.Equal(t, 1, p.Visits("aa"))
		require.Equal(t, 0, p.Visits("zz"))
	})

	t.Run("rejecting an empty path", func(t *testing.T) {
		require.ErrorIs(t, newTestPolicy(1).UpdatePath(nil, 1), policy.ErrEmptyPath)
	})

	t.Run("rejecting NaN scores", func(t *testing.T) {
		p := newTestPolicy(1)

		require.ErrorIs(t, p.UpdatePath([]string{"r", "a"}, math.NaN()), policy.ErrInvalidScore)
		require.Zero(t, p.Visits("r"), "Should not record anything")
	})
}

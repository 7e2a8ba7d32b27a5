package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestUniformSelectAction(t *testing.T) {
	t.Run("failing without candidates", func(t *testing.T) {
		u := NewUniform[int, string](nil)

		_, err := u.SelectAction(0, nil)

		require.ErrorIs(t, err, ErrNoActions, "Should refuse to choose among no actions")
	})

	t.Run("choosing every candidate eventually", func(t *testing.T) {
		u := NewUniform[int, string](rand.New(rand.NewSource(7)))
		edges := []Edge[int, string]{{"a", 1}, {"b", 2}, {"c", 3}}

		seen := map[string]int{}
		for i := 0; i < 300; i++ {
			action, err := u.SelectAction(0, edges)
			require.NoError(t, err)
			seen[action]++
		}

		require.Len(t, seen, 3, "Should pick each action at least once")
		for action, count := range seen {
			require.Greater(t, count, 50, "Action %s should be picked roughly a third of the time", action)
		}
	})
}

func TestSuccessors(t *testing.T) {
	edges := []Edge[int, string]{{"a", 4}, {"b", 9}}

	require.Equal(t, []int{4, 9}, Successors(edges), "Should list successors in edge order")
}

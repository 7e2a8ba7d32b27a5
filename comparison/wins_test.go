package comparison

import (
	"testing"

	"github.com/stretchr/testify/require"

	"btmcts/observation"
)

func storeOf(scores ...float64) observation.Store {
	s := observation.NewKeepAll()
	for _, score := range scores {
		s.Add(score)
	}
	return s
}

func TestBestObservation(t *testing.T) {
	t.Run("crediting observations below the other best", func(t *testing.T) {
		wl, wr := BestObservation{}.Evaluate(storeOf(1.0, 1.2), storeOf(5.0))

		require.Equal(t, 2, wl, "Both left observations beat 5.0")
		require.Equal(t, 0, wr, "5.0 beats no left observation")
	})

	t.Run("no wins while a side is empty", func(t *testing.T) {
		wl, wr := BestObservation{}.Evaluate(storeOf(1.0), storeOf())

		require.Zero(t, wl)
		require.Zero(t, wr)
	})

	t.Run("breaking equal bests with the latest observation", func(t *testing.T) {
		wl, wr := BestObservation{}.Evaluate(storeOf(2, 3), storeOf(4, 2))

		require.Equal(t, 0, wl)
		require.Equal(t, 1, wr, "Right saw 2 most recently, left saw 3")
	})

	t.Run("no wins for identical observations", func(t *testing.T) {
		wl, wr := BestObservation{}.Evaluate(storeOf(2), storeOf(2))

		require.Zero(t, wl)
		require.Zero(t, wr)
	})
}

func TestPairwise(t *testing.T) {
	wl, wr := Pairwise{}.Evaluate(storeOf(1, 2, 4), storeOf(3))

	require.Equal(t, 2, wl)
	require.Equal(t, 1, wr)
}

package plackett

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestBootstrapKernel(t *testing.T) {
	t.Run("becoming reliable with enough samples per child", func(t *testing.T) {
		k := NewBootstrapKernel[string](WithMinSamples(2))
		k.SignalScore([]string{"r", "a", "aa"}, 1)
		k.SignalScore([]string{"r", "b"}, 5)

		require.False(t, k.Reliable("r", []string{"a", "b"}), "One sample per child is not enough")
		require.False(t, k.Reliable("x", []string{"a"}), "Unknown node is never reliable")

		k.SignalScore([]string{"r", "a"}, 2)
		k.SignalScore([]string{"r", "b"}, 6)

		require.True(t, k.Reliable("r", []string{"a", "b"}))
		require.Equal(t, 1, k.Observations("a", "aa"), "Every step of the path is recorded")
	})

	t.Run("ranking clearly separated children consistently", func(t *testing.T) {
		k := NewBootstrapKernel[string](WithBootstraps(15, 5), WithKernelRand(rand.New(rand.NewSource(3))))
		for _, score := range []float64{1, 1.5, 2} {
			k.SignalScore([]string{"r", "good"}, score)
			k.SignalScore([]string{"r", "bad"}, score+10)
		}

		rankings, err := k.Rankings("r", []string{"bad", "good"})

		require.NoError(t, err)
		require.Len(t, rankings, 15)
		for _, ranking := range rankings {
			require.Equal(t, []string{"good", "bad"}, ranking)
		}
	})

	t.Run("always including the best score", func(t *testing.T) {
		k := NewBootstrapKernel[string](WithBootstraps(10, 1), WithStatistic(MinStatistic))
		k.SignalScore([]string{"r", "a"}, 0)
		for i := 0; i < 5; i++ {
			k.SignalScore([]string{"r", "a"}, 9)
			k.SignalScore([]string{"r", "b"}, 1)
		}

		rankings, err := k.Rankings("r", []string{"b", "a"})

		require.NoError(t, err)
		for _, ranking := range rankings {
			require.Equal(t, []string{"a", "b"}, ranking, "A sample of size one is just the best score")
		}
	})

	t.Run("bounding the history", func(t *testing.T) {
		k := NewBootstrapKernel[string](WithMaxHistory(2))
		for i := 0; i < 5; i++ {
			k.SignalScore([]string{"r", "a"}, float64(i))
		}

		require.Equal(t, 2, k.Observations("r", "a"))
	})

	t.Run("failing without observations", func(t *testing.T) {
		k := NewBootstrapKernel[string]()
		k.SignalScore([]string{"r", "a"}, 1)

		_, err := k.Rankings("r", []string{"a", "b"})

		require.ErrorIs(t, err, ErrNoObservations)
	})

	t.Run("clearing a node", func(t *testing.T) {
		k := NewBootstrapKernel[string](WithMinSamples(1))
		k.SignalScore([]string{"r", "a"}, 1)
		k.Clear("r")

		require.False(t, k.Reliable("r", []string{"a"}))
	})
}

func TestStatistics(t *testing.T) {
	require.Equal(t, 2.0, MeanStatistic([]float64{1, 2, 3}))
	require.Equal(t, 1.0, MinStatistic([]float64{3, 1, 2}))
}

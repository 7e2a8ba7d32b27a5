package threshold

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"btmcts/stats"
)

func TestNewLCB(t *testing.T) {
	t.Run("panics with zero parent visits", func(t *testing.T) {
		require.Panics(t, func() {
			newLCB(2.0, 0)
		}, "Should panic when N is 0")
	})
}

func TestLCBEvaluate(t *testing.T) {
	t.Run("computing the bound", func(t *testing.T) {
		got := newLCB(2.0, 100).evaluate(0.5, 10)

		expected := 0.5 - math.Sqrt(2.0*math.Log(100)/10.0)
		require.InDelta(t, expected, got, 0.0001, "Should compute mean - sqrt(c^2*ln(N)/n)")
	})

	t.Run("panics with zero child visits", func(t *testing.T) {
		require.Panics(t, func() {
			newLCB(2.0, 100).evaluate(0.5, 0)
		}, "Should panic when n is 0")
	})

	t.Run("optimism grows with parent visits", func(t *testing.T) {
		require.Less(t, newLCB(2.0, 1000).evaluate(5, 10), newLCB(2.0, 100).evaluate(5, 10),
			"More parent visits should lower the bound")
	})

	t.Run("optimism shrinks with child visits", func(t *testing.T) {
		l := newLCB(2.0, 100)

		require.Less(t, l.evaluate(5, 10), l.evaluate(5, 20), "More child visits should raise the bound")
	})
}

func TestMetrics(t *testing.T) {
	var s stats.Summary
	s.Add(3)
	s.Add(1)

	require.Equal(t, 2.0, Mean(&s, 4))
	require.Equal(t, 1.0, Best(&s, 4))
	require.InDelta(t, 2-math.Sqrt(math.Log(4)/2), LowerConfidenceBound(1)(&s, 4), 1e-12)
}

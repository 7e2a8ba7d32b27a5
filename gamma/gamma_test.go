package gamma

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRaisedCosine(t *testing.T) {
	t.Run("ramping from 0 to 1", func(t *testing.T) {
		require.InDelta(t, 0.0, RaisedCosine(0), 1e-12)
		require.InDelta(t, 0.5, RaisedCosine(0.5), 1e-12)
		require.InDelta(t, 1.0, RaisedCosine(1), 1e-12)
	})

	t.Run("being monotone and clamped", func(t *testing.T) {
		last := RaisedCosine(-1)
		for f := -0.5; f <= 1.5; f += 0.01 {
			v := RaisedCosine(f)
			require.GreaterOrEqual(t, v, last, "Ramp should never decrease")
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 1.0)
			last = v
		}
	})
}

func TestSharpen(t *testing.T) {
	t.Run("keeping probabilities at gamma zero", func(t *testing.T) {
		require.Equal(t, []float64{0.8, 0.2}, Sharpen([]float64{0.8, 0.2}, 0))
	})

	t.Run("sharpening with gamma above one", func(t *testing.T) {
		got := Sharpen([]float64{0.6, 0.4}, 2)

		require.InDelta(t, 0.36/0.52, got[0], 1e-12)
		require.InDelta(t, 1.0, got[0]+got[1], 1e-12, "Should renormalise")
	})

	t.Run("flattening with gamma below one", func(t *testing.T) {
		got := Sharpen([]float64{0.9, 0.1}, 0.5)

		require.Less(t, got[0], 0.9, "Favourite should lose mass")
		require.InDelta(t, 1.0, got[0]+got[1], 1e-12)
	})
}

func TestCosLin(t *testing.T) {
	c := NewCosLin(5, 20, 2, 10)

	t.Run("moving the threshold with relative depth", func(t *testing.T) {
		require.Equal(t, 2, c.MinObservations(0), "Shallow nodes use the shallow threshold")
		require.Equal(t, 6, c.MinObservations(0.5), "Midway is between both thresholds")
		require.Equal(t, 10, c.MinObservations(1), "Deep nodes use the deep threshold")
	})

	t.Run("staying zero below the threshold", func(t *testing.T) {
		for visits := 0; visits < 10; visits++ {
			require.Zero(t, c.Gamma(visits, 1, 1), "Gamma should be 0 with %d visits", visits)
		}
	})

	t.Run("reaching one at the configured visits", func(t *testing.T) {
		require.InDelta(t, 1.0, c.Gamma(20, 0.5, 0.5), 1e-12)
		require.Less(t, c.Gamma(19, 0.5, 0.5), 1.0)
	})

	t.Run("growing by cube root and capping", func(t *testing.T) {
		require.InDelta(t, 3.0, c.Gamma(28, 1, 0), 1e-9, "1 + cbrt(8)")
		require.Equal(t, 5.0, c.Gamma(10000, 1, 0), "Should cap at the maximum")
	})
}

func TestDepthScaled(t *testing.T) {
	d := NewDepthScaled(3, 5, 50, 100, 0.1)

	t.Run("shrinking requirements for deeper nodes", func(t *testing.T) {
		one, top := d.Requirements(0)
		require.Equal(t, 50, one)
		require.Equal(t, 100, top)

		one, top = d.Requirements(0.8)
		require.Equal(t, 10, one)
		require.Equal(t, 20, top)

		one, _ = d.Requirements(1)
		require.Equal(t, 6, one, "Should never fall to the minimum observations")
	})

	t.Run("committing faster in deep nodes", func(t *testing.T) {
		require.Greater(t, d.Gamma(15, 1, 0.8), d.Gamma(15, 1, 0), "Same visits should give larger gamma deeper down")
	})

	t.Run("interpolating linearly beyond one", func(t *testing.T) {
		require.InDelta(t, 2.0, d.Gamma(75, 1, 0), 1e-12)
		require.Equal(t, 3.0, d.Gamma(500, 1, 0))
	})
}

func TestCombined(t *testing.T) {
	short := NewCosLin(5, 4, 2, 2)
	long := NewDepthScaled(1, 5, 50, 50, 0.1)
	c := Combined{Short: short, Long: long}

	t.Run("leaning on the short term for unlikely nodes", func(t *testing.T) {
		require.Equal(t, short.Gamma(30, 0, 0.3), c.Gamma(30, 0, 0.3))
	})

	t.Run("leaning on the long term for likely nodes", func(t *testing.T) {
		require.Equal(t, long.Gamma(30, 1, 0.3), c.Gamma(30, 1, 0.3))
	})

	t.Run("weighting the long term by the path probability", func(t *testing.T) {
		require.Equal(t, 0.0, c.LongTermWeight(-0.5))
		require.Equal(t, 1.0, c.LongTermWeight(2))
		require.Equal(t, 0.25, c.LongTermWeight(0.25))

		want := 0.25*long.Gamma(30, 0.25, 0.3) + 0.75*short.Gamma(30, 0.25, 0.3)
		require.InDelta(t, want, c.Gamma(30, 0.25, 0.3), 1e-12)
	})

	t.Run("being zero below both thresholds", func(t *testing.T) {
		for _, p := range []float64{0, 0.3, 1} {
			require.Zero(t, c.Gamma(1, p, 0.5))
		}
	})

	t.Run("staying within bounds", func(t *testing.T) {
		for visits := 0; visits < 400; visits += 3 {
			for p := 0.0; p <= 1.0; p += 0.1 {
				for rd := 0.0; rd <= 1.0; rd += 0.1 {
					g := c.Gamma(visits, p, rd)
					require.False(t, math.IsNaN(g))
					require.GreaterOrEqual(t, g, 0.0)
					require.LessOrEqual(t, g, c.Max())
				}
			}
		}
	})

	t.Run("default schedule matches its parts", func(t *testing.T) {
		require.Equal(t, 5.0, Default().Max())
	})
}

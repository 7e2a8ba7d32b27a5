package threshold

import (
	"math"

	"btmcts/stats"
)

// Metric scores a child for exploitation. Lower is better since scores are costs.
type Metric func(child *stats.Summary, parentVisits int) float64

func Mean(child *stats.Summary, _ int) float64 {
	return child.Mean()
}

func Best(child *stats.Summary, _ int) float64 {
	return child.Min()
}

// LowerConfidenceBound is the UCT rule for costs: mean - sqrt(c^2*ln(N)/n).
func LowerConfidenceBound(cSquared float64) Metric {
	return func(child *stats.Summary, parentVisits int) float64 {
		return newLCB(cSquared, float64(parentVisits)).evaluate(child.Mean(), float64(child.Count()))
	}
}

type lcb struct {
	numerator float64
}

func newLCB(cSquared float64, N float64) *lcb {
	if N == 0 {
		panic("N cannot be 0")
	}
	return &lcb{numerator: cSquared * math.Log(N)}
}

func (l lcb) evaluate(mean float64, n float64) float64 {
	if n == 0 {
		panic("n cannot be 0")
	}
	return mean - math.Sqrt(l.numerator/n)
}

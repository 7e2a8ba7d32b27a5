package comparison

import "btmcts/observation"

// WinEvaluator turns the observations of both sides of a node into the current win counters.
// The result replaces the node's counters; it reflects the current standing, not a history.
type WinEvaluator interface {
	Evaluate(left, right observation.Store) (winsLeft, winsRight int)
}

// BestObservation credits a side with one win for each of its observations that beats the best
// observation of the other side. Equal bests are decided by the most recent observation of each side.
type BestObservation struct{}

func (BestObservation) Evaluate(left, right observation.Store) (int, int) {
	bestLeft, okLeft := left.Best()
	bestRight, okRight := right.Best()
	if !okLeft || !okRight {
		return 0, 0
	}
	if bestLeft == bestRight {
		latestLeft, _ := left.Latest()
		latestRight, _ := right.Latest()
		switch {
		case latestLeft < latestRight:
			return 1, 0
		case latestRight < latestLeft:
			return 0, 1
		}
		return 0, 0
	}
	return countBelow(left.Values(), bestRight), countBelow(right.Values(), bestLeft)
}

// Pairwise compares every retained observation of one side with every one of the other side and
// credits the lower score of each pair.
type Pairwise struct{}

func (Pairwise) Evaluate(left, right observation.Store) (int, int) {
	winsLeft, winsRight := 0, 0
	rightValues := right.Values()
	for _, l := range left.Values() {
		for _, r := range rightValues {
			switch {
			case l < r:
				winsLeft++
			case r < l:
				winsRight++
			}
		}
	}
	return winsLeft, winsRight
}

// countBelow counts the values strictly below bound. values must be sorted ascending.
func countBelow(values []float64, bound float64) int {
	n := 0
	for _, v := range values {
		if v >= bound {
			break
		}
		n++
	}
	return n
}

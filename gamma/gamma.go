// Package gamma provides exploration schedules: functions mapping the visits of a node, its path
// probability and its relative depth to an exponent that sharpens (gamma > 1) or flattens
// (gamma < 1) selection probabilities.
package gamma

import "math"

type Function interface {
	Gamma(visits int, nodeProbability, relativeDepth float64) float64
	// Max is the largest value Gamma can return.
	Max() float64
}

// RaisedCosine maps f in [0,1] onto a smooth monotone ramp from 0 to 1.
func RaisedCosine(f float64) float64 {
	f = clamp01(f)
	return (1 - math.Cos(math.Pi*f)) / 2
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Sharpen raises every probability to gamma and renormalises. A gamma of zero leaves the
// probabilities untouched.
func Sharpen(probabilities []float64, gamma float64) []float64 {
	out := make([]float64, len(probabilities))
	if gamma == 0 {
		copy(out, probabilities)
		return out
	}
	sum := 0.0
	for i, p := range probabilities {
		out[i] = math.Pow(p, gamma)
		sum += out[i]
	}
	if sum == 0 {
		copy(out, probabilities)
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Default is the schedule of the comparison policy: a fast depth independent short-term ramp
// blended with a depth scaled long-term ramp by the node's path probability.
func Default() Function {
	return Combined{
		Short: NewCosLin(5, 4, 2, 2),
		Long:  NewDepthScaled(1, 5, 50, 50, 0.1),
	}
}

package gamma

import "math"

// Steepness of the logistic curve that moves the minimum visit threshold from shallow to deep nodes.
const thresholdSteepness = 12.0

// CosLin is zero below a depth dependent minimum number of visits, follows a raised cosine up to
// gamma=1 at VisitsForOne and then grows with the cube root of the excess visits up to MaxGamma.
type CosLin struct {
	MaxGamma     float64
	VisitsForOne int
	MinShallow   int
	MinDeep      int
}

func NewCosLin(maxGamma float64, visitsForOne, minShallow, minDeep int) CosLin {
	if maxGamma < 1 {
		panic("cosine-linear schedule needs a maximum gamma of at least 1")
	}
	if visitsForOne < 1 || minShallow < 0 || minDeep < 0 {
		panic("cosine-linear schedule needs positive visit bounds")
	}
	return CosLin{
		MaxGamma:     maxGamma,
		VisitsForOne: visitsForOne,
		MinShallow:   minShallow,
		MinDeep:      minDeep,
	}
}

// MinObservations is the number of visits below which gamma is zero for the given relative depth.
func (c CosLin) MinObservations(relativeDepth float64) int {
	s := 1 / (1 + math.Exp(-thresholdSteepness*(clamp01(relativeDepth)-0.5)))
	threshold := float64(c.MinShallow) + float64(c.MinDeep-c.MinShallow)*s
	return int(math.Round(threshold))
}

func (c CosLin) Gamma(visits int, nodeProbability, relativeDepth float64) float64 {
	threshold := c.MinObservations(relativeDepth)
	if visits < threshold {
		return 0
	}
	if visits < c.VisitsForOne {
		return RaisedCosine(float64(visits-threshold) / float64(c.VisitsForOne-threshold))
	}
	return math.Min(c.MaxGamma, 1+math.Cbrt(float64(visits-c.VisitsForOne)))
}

func (c CosLin) Max() float64 {
	return c.MaxGamma
}

package gamma

import "math"

// DepthScaled is a long-term schedule. The visits needed to reach gamma=1 and MaxGamma shrink
// with the relative depth of the node, so nodes deep in an explored subtree commit faster than
// nodes near the unexplored frontier.
type DepthScaled struct {
	MaxGamma        float64
	MinObservations int
	VisitsForOne    int
	VisitsForMax    int
	// MinScale bounds how far the visit requirements may shrink for the deepest nodes.
	MinScale float64
}

func NewDepthScaled(maxGamma float64, minObservations, visitsForOne, visitsForMax int, minScale float64) DepthScaled {
	if maxGamma < 1 {
		panic("depth scaled schedule needs a maximum gamma of at least 1")
	}
	if visitsForMax < visitsForOne {
		panic("visits for max gamma must not be below the visits for gamma one")
	}
	return DepthScaled{
		MaxGamma:        maxGamma,
		MinObservations: minObservations,
		VisitsForOne:    visitsForOne,
		VisitsForMax:    visitsForMax,
		MinScale:        clamp01(minScale),
	}
}

// Requirements returns the visits needed for gamma=1 and for MaxGamma at the given relative depth.
func (d DepthScaled) Requirements(relativeDepth float64) (forOne, forMax int) {
	scale := math.Max(d.MinScale, 1-clamp01(relativeDepth))
	forOne = max(d.MinObservations+1, int(math.Ceil(float64(d.VisitsForOne)*scale)))
	forMax = max(forOne, int(math.Ceil(float64(d.VisitsForMax)*scale)))
	return forOne, forMax
}

func (d DepthScaled) Gamma(visits int, nodeProbability, relativeDepth float64) float64 {
	if visits < d.MinObservations {
		return 0
	}
	forOne, forMax := d.Requirements(relativeDepth)
	if visits < forOne {
		return RaisedCosine(float64(visits-d.MinObservations) / float64(forOne-d.MinObservations))
	}
	if visits >= forMax {
		return d.MaxGamma
	}
	return 1 + (d.MaxGamma-1)*float64(visits-forOne)/float64(forMax-forOne)
}

func (d DepthScaled) Max() float64 {
	return d.MaxGamma
}

// Combined blends a short-term and a long-term schedule with the path probability of the node as
// the weight of the long-term one.
type Combined struct {
	Short Function
	Long  Function
}

func (c Combined) Gamma(visits int, nodeProbability, relativeDepth float64) float64 {
	w := c.LongTermWeight(nodeProbability)
	long := c.Long.Gamma(visits, nodeProbability, relativeDepth)
	short := c.Short.Gamma(visits, nodeProbability, relativeDepth)
	return w*long + (1-w)*short
}

// LongTermWeight is the share the long-term schedule gets at the given path probability.
func (c Combined) LongTermWeight(nodeProbability float64) float64 {
	return clamp01(nodeProbability)
}

func (c Combined) Max() float64 {
	return math.Max(c.Short.Max(), c.Long.Max())
}

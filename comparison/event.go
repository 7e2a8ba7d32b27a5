package comparison

// Event is emitted every time a score is added to a node model.
type Event[N comparable] struct {
	Node        N
	Visits      int
	ScoresLeft  []float64
	ScoresRight []float64
	// Evicted reports whether adding the score pruned the observations of its side.
	Evicted   bool
	WinsLeft  int
	WinsRight int
	// Probabilities after the Bradley-Terry update and before scaling with Gamma.
	PLeftBefore  float64
	PRightBefore float64
	PLeft        float64
	PRight       float64
	Gamma        float64
}

type Listener[N comparable] func(Event[N])

// Snapshot is a read-only copy of a node model.
type Snapshot[N comparable] struct {
	Node          N
	Depth         int
	Visits        int
	MaxDepthBelow int
	Parent        N
	HasParent     bool
	Left          N
	HasLeft       bool
	Right         N
	HasRight      bool
	ScoresLeft    []float64
	ScoresRight   []float64
	WinsLeft      int
	WinsRight     int
	PLeft         float64
	PRight        float64
}

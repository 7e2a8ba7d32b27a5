package observation

import (
	"math"

	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
)

const (
	DefaultEpsilon = 0.2
	// Depth at which a mixed window reaches its deep capacity.
	saturationDepth = 100
)

// Store is the working set of playout scores observed on one side of a node. Scores are costs,
// so the best observation is the smallest one.
type Store interface {
	// Add inserts a score and reports whether any observation was evicted as a consequence.
	Add(score float64) (removed bool)
	Best() (float64, bool)
	// Latest is the last score passed to Add, whether or not it is still retained.
	Latest() (float64, bool)
	Len() int
	// Values returns a sorted copy of the retained scores.
	Values() []float64
}

// Factory creates the store for a node at the given depth.
type Factory func(depth int) Store

// sorted keeps the retained scores in ascending order.
type sorted struct {
	values    []float64
	latest    float64
	hasLatest bool
}

func (s *sorted) insert(score float64) {
	i, _ := slices.BinarySearch(s.values, score)
	s.values = slices.Insert(s.values, i, score)
	s.latest = score
	s.hasLatest = true
}

func (s *sorted) Best() (float64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	return s.values[0], true
}

func (s *sorted) Latest() (float64, bool) {
	return s.latest, s.hasLatest
}

func (s *sorted) Len() int {
	return len(s.values)
}

func (s *sorted) Values() []float64 {
	return slices.Clone(s.values)
}

// evictWorst drops the worst scores while they exceed the epsilon bound around the best one.
func (s *sorted) evictWorst(epsilon float64) bool {
	removed := false
	for len(s.values) > 1 {
		best := s.values[0]
		worst := s.values[len(s.values)-1]
		if worst <= best+epsilon*math.Abs(best) {
			break
		}
		s.values = s.values[:len(s.values)-1]
		removed = true
	}
	return removed
}

// KeepAll retains every observation.
type KeepAll struct {
	sorted
}

func NewKeepAll() *KeepAll {
	return &KeepAll{}
}

func (s *KeepAll) Add(score float64) bool {
	s.insert(score)
	return false
}

// EpsilonWindow retains only observations within a factor (1+epsilon) of the best one.
type EpsilonWindow struct {
	sorted
	epsilon float64
}

func NewEpsilonWindow(epsilon float64) *EpsilonWindow {
	if epsilon < 0 {
		panic("epsilon must not be negative")
	}
	return &EpsilonWindow{epsilon: epsilon}
}

func (s *EpsilonWindow) Add(score float64) bool {
	s.insert(score)
	return s.evictWorst(s.epsilon)
}

// MixedWindow retains the best k observations plus a depth dependent number of randomly kept
// further observations, and applies the epsilon eviction on top.
type MixedWindow struct {
	sorted
	bestK    int
	capacity int
	epsilon  float64
	random   *rand.Rand
}

// NewMixedWindow builds the store for a node at depth. Beyond the bestK best observations it keeps
// between shallowN (depth 0) and deepK (depth >= 100) additional ones, interpolated linearly.
func NewMixedWindow(depth, bestK, shallowN, deepK int, epsilon float64, random *rand.Rand) *MixedWindow {
	if bestK < 1 {
		panic("mixed window must keep at least one best observation")
	}
	if random == nil {
		random = rand.New(rand.NewSource(uint64(depth)))
	}
	return &MixedWindow{
		bestK:    bestK,
		capacity: bestK + extraCapacity(depth, shallowN, deepK),
		epsilon:  epsilon,
		random:   random,
	}
}

func extraCapacity(depth, shallowN, deepK int) int {
	d := math.Min(float64(max(depth, 0)), saturationDepth) / saturationDepth
	extra := float64(shallowN) + (float64(deepK)-float64(shallowN))*d
	return max(0, int(math.Round(extra)))
}

func (s *MixedWindow) Capacity() int {
	return s.capacity
}

func (s *MixedWindow) Add(score float64) bool {
	s.insert(score)
	removed := false
	for len(s.values) > s.capacity {
		// only observations outside the best k are candidates for random eviction
		i := s.bestK + s.random.Intn(len(s.values)-s.bestK)
		s.values = slices.Delete(s.values, i, i+1)
		removed = true
	}
	if s.evictWorst(s.epsilon) {
		removed = true
	}
	return removed
}

func KeepAllFactory() Factory {
	return func(int) Store { return NewKeepAll() }
}

func EpsilonWindowFactory(epsilon float64) Factory {
	return func(int) Store { return NewEpsilonWindow(epsilon) }
}

// MixedWindowFactory shares one random source between all stores it creates; the stores must
// therefore be used under the owner's lock.
func MixedWindowFactory(bestK, shallowN, deepK int, epsilon float64, random *rand.Rand) Factory {
	if random == nil {
		random = rand.New(rand.NewSource(0))
	}
	return func(depth int) Store {
		return NewMixedWindow(depth, bestK, shallowN, deepK, epsilon, random)
	}
}

package metrics

import (
	"math"
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Policy     string
	Goroutines int
	Duration   time.Duration
	Episodes   int
	Expansions int
	BestScore  float64
}

type Collector interface {
	Start(goroutines int, policy string)
	AddEpisode()
	AddExpansion()
	AddScore(score float64)
	Complete() SearchMetric
}

type collector struct {
	goroutines int
	policy     string
	startTime  time.Time
	episodes   atomic.Int64
	expansions atomic.Int64
	// math.Float64bits of the lowest score
	bestScore atomic.Uint64
}

func NewCollector() Collector {
	c := &collector{}
	c.bestScore.Store(math.Float64bits(math.Inf(1)))
	return c
}

func (m *collector) Start(goroutines int, policy string) {
	m.startTime = time.Now()
	m.goroutines = goroutines
	m.policy = policy
	m.episodes.Store(0)
	m.expansions.Store(0)
	m.bestScore.Store(math.Float64bits(math.Inf(1)))
}

func (m *collector) AddEpisode() {
	m.episodes.Add(1)
}

func (m *collector) AddExpansion() {
	m.expansions.Add(1)
}

func (m *collector) AddScore(score float64) {
	for {
		current := m.bestScore.Load()
		if score >= math.Float64frombits(current) {
			return
		}
		if m.bestScore.CompareAndSwap(current, math.Float64bits(score)) {
			return
		}
	}
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Policy:     m.policy,
		Goroutines: m.goroutines,
		Duration:   time.Since(m.startTime),
		Episodes:   int(m.episodes.Load()),
		Expansions: int(m.expansions.Load()),
		BestScore:  math.Float64frombits(m.bestScore.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(goroutines int, policy string) {}
func (m *dummyCollector) AddEpisode()                         {}
func (m *dummyCollector) AddExpansion()                       {}
func (m *dummyCollector) AddScore(score float64)              {}
func (m *dummyCollector) Complete() SearchMetric              { return SearchMetric{} }

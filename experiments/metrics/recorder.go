package metrics

import (
	"fmt"
	"sync"

	"btmcts/comparison"
)

type EventRecord struct {
	Run          int
	Node         string
	Visits       int
	ScoresLeft   int
	ScoresRight  int
	Evicted      bool
	WinsLeft     int
	WinsRight    int
	PLeftBefore  float64
	PRightBefore float64
	PLeft        float64
	PRight       float64
	Gamma        float64
}

// EventRecorder collects the observation events of comparison policies, tagged with the current run.
type EventRecorder[N comparable] struct {
	mu      sync.Mutex
	run     int
	records []EventRecord
}

func NewEventRecorder[N comparable]() *EventRecorder[N] {
	return &EventRecorder[N]{}
}

func (r *EventRecorder[N]) SetRun(run int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.run = run
}

// Listen is meant to be registered with comparison.WithListener.
func (r *EventRecorder[N]) Listen(event comparison.Event[N]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, EventRecord{
		Run:          r.run,
		Node:         fmt.Sprint(event.Node),
		Visits:       event.Visits,
		ScoresLeft:   len(event.ScoresLeft),
		ScoresRight:  len(event.ScoresRight),
		Evicted:      event.Evicted,
		WinsLeft:     event.WinsLeft,
		WinsRight:    event.WinsRight,
		PLeftBefore:  event.PLeftBefore,
		PRightBefore: event.PRightBefore,
		PLeft:        event.PLeft,
		PRight:       event.PRight,
		Gamma:        event.Gamma,
	})
}

func (r *EventRecorder[N]) Records() []EventRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]EventRecord, len(r.records))
	copy(records, r.records)
	return records
}

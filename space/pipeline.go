package space

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"

	"golang.org/x/exp/rand"
)

// Pipeline is a synthetic pipeline composition problem: at each of its stages one of a fixed number
// of components is chosen. A complete pipeline costs the sum of the penalties of its components plus
// a deterministic jitter.
type Pipeline struct {
	stages     int
	components int
	seed       uint64
	noise      float64
	// penalties[stage][component]
	penalties [][]float64
}

// NewPipeline creates a pipeline space with the given number of stages and components per stage.
// Earlier stages weigh more, so decisions near the root matter most.
func NewPipeline(stages, components int, seed uint64, noise float64) *Pipeline {
	if stages < 1 || components < 1 {
		panic("pipeline needs at least one stage and one component")
	}
	random := rand.New(rand.NewSource(seed))
	penalties := make([][]float64, stages)
	for s := range penalties {
		weight := float64(stages - s)
		penalties[s] = make([]float64, components)
		for c := range penalties[s] {
			penalties[s][c] = weight * random.Float64()
		}
	}
	return &Pipeline{
		stages:     stages,
		components: components,
		seed:       seed,
		noise:      math.Abs(noise),
		penalties:  penalties,
	}
}

func (p *Pipeline) Root() State {
	return pipelineState{space: p}
}

// Optimum is the cost of the best pipeline without jitter.
func (p *Pipeline) Optimum() float64 {
	total := 0.0
	for _, stage := range p.penalties {
		best := stage[0]
		for _, penalty := range stage[1:] {
			best = math.Min(best, penalty)
		}
		total += best
	}
	return total
}

type pipelineState struct {
	space   *Pipeline
	choices []Action
}

func (s pipelineState) ID() NodeID {
	return NodeID(s.hash())
}

func (s pipelineState) hash() uint64 {
	hasher := fnv.New64a()

	// Hash the space seed
	binary.Write(hasher, binary.LittleEndian, s.space.seed)

	// Hash the choices so far, the depth is implied by their number
	for _, choice := range s.choices {
		binary.Write(hasher, binary.LittleEndian, int64(choice))
	}
	return hasher.Sum64()
}

func (s pipelineState) Depth() int {
	return len(s.choices)
}

func (s pipelineState) Actions() []Action {
	if s.IsTerminal() {
		return nil
	}
	actions := make([]Action, s.space.components)
	for i := range actions {
		actions[i] = Action(i)
	}
	return actions
}

func (s pipelineState) Play(action Action) State {
	if s.IsTerminal() || action < 0 || int(action) >= s.space.components {
		panic(fmt.Sprintf("illegal action %d at depth %d", action, len(s.choices)))
	}
	choices := make([]Action, len(s.choices), len(s.choices)+1)
	copy(choices, s.choices)
	return pipelineState{space: s.space, choices: append(choices, action)}
}

func (s pipelineState) IsTerminal() bool {
	return len(s.choices) == s.space.stages
}

func (s pipelineState) Score() float64 {
	total := 0.0
	for stage, choice := range s.choices {
		total += s.space.penalties[stage][choice]
	}
	// jitter in [0, noise) derived from the node identity
	jitter := float64(s.hash()>>11) / (1 << 53)
	return total + s.space.noise*jitter
}

func (s pipelineState) String() string {
	return fmt.Sprintf("pipeline%v", s.choices)
}

package plackett

import (
	"fmt"
	"math"
)

const (
	convergence   = 1e-5
	maxIterations = 10000
)

// Uniform is the skill vector that gives every one of n objects the same skill.
func Uniform(n int) []float64 {
	skills := make([]float64, n)
	for i := range skills {
		skills[i] = 1 / float64(n)
	}
	return skills
}

// Solve estimates normalised Plackett-Luce skills with the minorize-maximize fixed point of
// Hunter (2004). Only full rankings are supported. warm, if given, is the starting point.
func Solve[T comparable](problem Problem[T], warm []float64) ([]float64, error) {
	n := len(problem.Objects)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least two objects, got %d", ErrInvalidProblem, n)
	}
	if len(problem.Rankings) == 0 {
		return nil, fmt.Errorf("%w: no rankings", ErrInvalidProblem)
	}
	for _, ranking := range problem.Rankings {
		if len(ranking) != n {
			return nil, fmt.Errorf("%w: ranking of %d objects among %d", ErrInvalidProblem, len(ranking), n)
		}
	}

	skills := Uniform(n)
	if len(warm) == n {
		var err error
		if skills, err = normalise(warm); err != nil {
			skills = Uniform(n)
		}
	}
	wins := winVector(problem.Rankings, n)

	for iteration := 0; iteration < maxIterations; iteration++ {
		next, err := normalise(update(problem.Rankings, skills, wins))
		if err != nil {
			return nil, err
		}
		change := 0.0
		for i := range next {
			change += math.Abs(next[i] - skills[i])
		}
		skills = next
		if change <= convergence {
			break
		}
	}
	return skills, nil
}

// winVector counts for every object the stages of all rankings it wins, i.e. every ranking where it
// is not last.
func winVector(rankings [][]int, n int) []float64 {
	wins := make([]float64, n)
	for _, ranking := range rankings {
		for _, object := range ranking[:n-1] {
			wins[object]++
		}
	}
	return wins
}

func update(rankings [][]int, skills, wins []float64) []float64 {
	n := len(skills)
	// inverse of the skill mass still in play at every stage of every ranking
	inverse := make([][]float64, len(rankings))
	for j, ranking := range rankings {
		stages := make([]float64, n-1)
		stages[n-2] = skills[ranking[n-1]] + skills[ranking[n-2]]
		for i := n - 3; i >= 0; i-- {
			stages[i] = stages[i+1] + skills[ranking[i]]
		}
		for i := range stages {
			stages[i] = 1 / stages[i]
		}
		inverse[j] = stages
	}

	updated := make([]float64, n)
	for t := 0; t < n; t++ {
		denominator := 0.0
		for j, ranking := range rankings {
			for i, stage := range inverse[j] {
				denominator += stage
				if ranking[i] == t {
					break
				}
			}
		}
		updated[t] = wins[t] / denominator
	}
	return updated
}

func normalise(skills []float64) ([]float64, error) {
	sum := 0.0
	for _, s := range skills {
		if math.IsNaN(s) {
			return nil, fmt.Errorf("%w: skill vector %v has NaN entry", ErrInvalidProblem, skills)
		}
		sum += s
	}
	sum = math.Abs(sum)
	if sum == 0 {
		return nil, fmt.Errorf("%w: cannot normalise zero skill vector", ErrInvalidProblem)
	}
	normalised := make([]float64, len(skills))
	for i, s := range skills {
		normalised[i] = s / sum
	}
	return normalised, nil
}

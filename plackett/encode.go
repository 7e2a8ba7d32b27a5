package plackett

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

var ErrInvalidProblem = errors.New("invalid Plackett-Luce problem")

// Problem is a set of rankings over objects referred to by index. Rankings list the best object first.
type Problem[T comparable] struct {
	Objects  []T
	Rankings [][]int
}

// Encode indexes the objects of the rankings in the order they are first seen.
func Encode[T comparable](rankings [][]T) (Problem[T], error) {
	var problem Problem[T]
	for _, ranking := range rankings {
		encoded := make([]int, len(ranking))
		for i, object := range ranking {
			index := slices.Index(problem.Objects, object)
			if index < 0 {
				index = len(problem.Objects)
				problem.Objects = append(problem.Objects, object)
			}
			if slices.Index(encoded[:i], index) >= 0 {
				return Problem[T]{}, fmt.Errorf("%w: %v ranked twice", ErrInvalidProblem, object)
			}
			encoded[i] = index
		}
		problem.Rankings = append(problem.Rankings, encoded)
	}
	return problem, nil
}

// Index returns the index of object or -1.
func (p Problem[T]) Index(object T) int {
	return slices.Index(p.Objects, object)
}

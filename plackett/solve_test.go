package plackett

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSolve(t *testing.T) {
	t.Run("matching win shares for two objects", func(t *testing.T) {
		problem, err := Encode([][]string{{"a", "b"}, {"a", "b"}, {"a", "b"}, {"b", "a"}})
		require.NoError(t, err)

		skills, err := Solve(problem, nil)

		require.NoError(t, err)
		require.InDelta(t, 0.75, skills[0], 1e-6)
		require.InDelta(t, 0.25, skills[1], 1e-6)
	})

	t.Run("ordering skills by consistent rankings", func(t *testing.T) {
		problem, err := Encode([][]string{{"a", "b", "c"}, {"a", "c", "b"}, {"a", "b", "c"}, {"b", "a", "c"}})
		require.NoError(t, err)

		skills, err := Solve(problem, nil)

		require.NoError(t, err)
		require.Greater(t, skills[0], skills[1])
		require.Greater(t, skills[1], skills[2])
		require.InDelta(t, 1.0, skills[0]+skills[1]+skills[2], 1e-9, "Skills should be normalised")
	})

	t.Run("converging to the same skills from a warm start", func(t *testing.T) {
		problem, err := Encode([][]string{{"a", "b", "c"}, {"b", "a", "c"}, {"a", "c", "b"}, {"c", "a", "b"}})
		require.NoError(t, err)

		cold, err := Solve(problem, nil)
		require.NoError(t, err)
		warm, err := Solve(problem, []float64{0.1, 0.1, 0.8})
		require.NoError(t, err)

		require.InDeltaSlice(t, cold, warm, 1e-3)
	})

	t.Run("rejecting degenerate problems", func(t *testing.T) {
		_, err := Solve(Problem[string]{Objects: []string{"a"}, Rankings: [][]int{{0}}}, nil)
		require.ErrorIs(t, err, ErrInvalidProblem, "One object cannot be ranked")

		_, err = Solve(Problem[string]{Objects: []string{"a", "b", "c"}, Rankings: [][]int{{0, 1}}}, nil)
		require.ErrorIs(t, err, ErrInvalidProblem, "Partial rankings are not supported")

		_, err = Solve(Problem[string]{Objects: []string{"a", "b"}}, nil)
		require.ErrorIs(t, err, ErrInvalidProblem, "Rankings are required")
	})
}

func TestUniform(t *testing.T) {
	require.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, Uniform(4))
}

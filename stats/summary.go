package stats

import "math"

// Summary accumulates descriptive statistics of a stream of scores in one pass.
type Summary struct {
	count int
	mean  float64
	m2    float64
	min   float64
	max   float64
}

func (s *Summary) Add(x float64) {
	s.count++
	if s.count == 1 {
		s.min, s.max = x, x
	} else {
		s.min = math.Min(s.min, x)
		s.max = math.Max(s.max, x)
	}
	// Welford
	delta := x - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (x - s.mean)
}

func (s *Summary) Count() int {
	return s.count
}

// Mean is 0 for an empty summary.
func (s *Summary) Mean() float64 {
	return s.mean
}

func (s *Summary) Min() float64 {
	return s.min
}

func (s *Summary) Max() float64 {
	return s.max
}

// Variance is the sample variance, 0 with fewer than two scores.
func (s *Summary) Variance() float64 {
	if s.count < 2 {
		return 0
	}
	return s.m2 / float64(s.count-1)
}

// Package keyset allocates surrogate keys: distinct integers drawn uniformly
// without replacement from a bounded inclusive range.
//
// The implementation is a partial Fisher–Yates shuffle over the virtual
// sequence [min..max], tracked with a sparse swap map so memory is O(drawn)
// rather than O(range). Exhaustion is a pigeonhole check performed up front,
// never discovered by retrying.
//
// Each allocation scope (one dimension's key space) uses its own Sampler, so
// "reset between scopes" is simply constructing a new Sampler.
package keyset

import (
	"fmt"
	"math/rand"
)

// RangeExhaustedError reports a request for more unique keys than the range
// [Min, Max] can supply.
type RangeExhaustedError struct {
	Count int
	Min   int
	Max   int
}

func (e *RangeExhaustedError) Error() string {
	return fmt.Sprintf("keyset: cannot draw %d unique keys from [%d, %d] (%d available)",
		e.Count, e.Min, e.Max, e.Max-e.Min+1)
}

// Sampler draws unique integers from [min, max] one at a time. It is not
// safe for concurrent use; every call mutates the shuffle state.
type Sampler struct {
	rng   *rand.Rand
	min   int
	size  int
	drawn int
	swap  map[int]int
}

// NewSampler returns a Sampler over the inclusive range [min, max].
func NewSampler(rng *rand.Rand, min, max int) (*Sampler, error) {
	if max < min {
		return nil, fmt.Errorf("keyset: invalid range [%d, %d]", min, max)
	}
	return &Sampler{
		rng:  rng,
		min:  min,
		size: max - min + 1,
		swap: map[int]int{},
	}, nil
}

// Remaining reports how many unique values the sampler can still produce.
func (s *Sampler) Remaining() int { return s.size - s.drawn }

// Next draws the next unique value. Once the range is exhausted it returns a
// *RangeExhaustedError.
func (s *Sampler) Next() (int, error) {
	if s.drawn >= s.size {
		return 0, &RangeExhaustedError{Count: s.drawn + 1, Min: s.min, Max: s.min + s.size - 1}
	}
	i := s.drawn
	j := i + s.rng.Intn(s.size-i)
	vi, ok := s.swap[i]
	if !ok {
		vi = i
	}
	vj, ok := s.swap[j]
	if !ok {
		vj = j
	}
	s.swap[j] = vi
	s.drawn++
	return s.min + vj, nil
}

// Allocate draws count distinct integers from [min, max] in one call. The
// pigeonhole violation count > max-min+1 is detected before any sampling.
func Allocate(rng *rand.Rand, count, min, max int) ([]int, error) {
	if count < 0 {
		return nil, fmt.Errorf("keyset: negative count %d", count)
	}
	if max < min {
		return nil, fmt.Errorf("keyset: invalid range [%d, %d]", min, max)
	}
	if count > max-min+1 {
		return nil, &RangeExhaustedError{Count: count, Min: min, Max: max}
	}
	s, err := NewSampler(rng, min, max)
	if err != nil {
		return nil, err
	}
	out := make([]int, count)
	for i := range out {
		v, err := s.Next()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

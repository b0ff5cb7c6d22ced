package keyset

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
)

func TestAllocateCountAndRange(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	got, err := Allocate(rng, 50, 1, 1000)
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("got %d keys, want 50", len(got))
	}
	seen := map[int]bool{}
	for _, k := range got {
		if k < 1 || k > 1000 {
			t.Fatalf("key %d outside [1, 1000]", k)
		}
		if seen[k] {
			t.Fatalf("duplicate key %d", k)
		}
		seen[k] = true
	}
}

func TestAllocateFullRangeIsPermutation(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	got, err := Allocate(rng, 10, 5, 14)
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}
	sort.Ints(got)
	for i, k := range got {
		if k != 5+i {
			t.Fatalf("sorted[%d]=%d, want %d", i, k, 5+i)
		}
	}
}

func TestAllocateRangeExhausted(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	_, err := Allocate(rng, 11, 1, 10)
	var re *RangeExhaustedError
	if !errors.As(err, &re) {
		t.Fatalf("got err %v, want *RangeExhaustedError", err)
	}
	if re.Count != 11 || re.Min != 1 || re.Max != 10 {
		t.Fatalf("unexpected error fields: %+v", re)
	}
}

func TestAllocateDeterministicForSeed(t *testing.T) {
	t.Parallel()

	a, err := Allocate(rand.New(rand.NewSource(42)), 20, 1, 100)
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}
	b, err := Allocate(rand.New(rand.NewSource(42)), 20, 1, 100)
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestSamplerExhaustsThenErrors(t *testing.T) {
	t.Parallel()

	s, err := NewSampler(rand.New(rand.NewSource(3)), 1, 3)
	if err != nil {
		t.Fatalf("NewSampler error: %v", err)
	}
	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		v, err := s.Next()
		if err != nil {
			t.Fatalf("Next %d error: %v", i, err)
		}
		seen[v] = true
	}
	if len(seen) != 3 {
		t.Fatalf("drew %d distinct values, want 3", len(seen))
	}
	if s.Remaining() != 0 {
		t.Fatalf("Remaining=%d, want 0", s.Remaining())
	}
	_, err = s.Next()
	var re *RangeExhaustedError
	if !errors.As(err, &re) {
		t.Fatalf("got err %v, want *RangeExhaustedError", err)
	}
}

func TestNewSamplerInvalidRange(t *testing.T) {
	t.Parallel()

	if _, err := NewSampler(rand.New(rand.NewSource(1)), 10, 1); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

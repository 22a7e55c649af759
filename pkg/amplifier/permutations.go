package amplifier

import (
	"iter"
	"math"
	"math/bits"
	"slices"
)

// Permutations yields every ordering of values, in lexicographic order of
// positions in values. Each yielded slice is a fresh copy owned by the caller.
// The sequence can be ranged over any number of times.
func Permutations(values []Word) iter.Seq[[]Word] {
	values = slices.Clone(values)
	return func(yield func([]Word) bool) {
		idx := make([]int, len(values))
		for i := range idx {
			idx[i] = i
		}
		for {
			perm := make([]Word, len(idx))
			for i, j := range idx {
				perm[i] = values[j]
			}
			if !yield(perm) {
				return
			}
			if !nextPermutation(idx) {
				return
			}
		}
	}
}

// nextPermutation advances idx to the next lexicographic ordering in place.
// It returns false when idx was already the last one.
func nextPermutation(idx []int) bool {
	i := len(idx) - 2
	for i >= 0 && idx[i] >= idx[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(idx) - 1
	for idx[j] <= idx[i] {
		j--
	}
	idx[i], idx[j] = idx[j], idx[i]
	slices.Reverse(idx[i+1:])
	return true
}

// Count returns n!, the number of permutations of n distinct values. It
// saturates at math.MaxUint64 once n! no longer fits (n > 20).
func Count(n int) uint64 {
	c := uint64(1)
	for i := 2; i <= n; i++ {
		hi, lo := bits.Mul64(c, uint64(i))
		if hi != 0 {
			return math.MaxUint64
		}
		c = lo
	}
	return c
}

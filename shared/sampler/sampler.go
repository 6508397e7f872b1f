package sampler

import "math/rand/v2"

const (
	// DefaultSampleSize is the number of papers handed to the summarizer per run
	DefaultSampleSize = 3850
	// DefaultSeed keeps reruns over the same corpus snapshot reproducible
	DefaultSeed uint64 = 42
)

// Sample draws size items uniformly without replacement using a PRNG seeded
// with seed. When len(items) <= size every item is returned in input order.
// The input slice is never modified.
func Sample[T any](items []T, size int, seed uint64) []T {
	n := len(items)
	if size >= n {
		out := make([]T, n)
		copy(out, items)
		return out
	}
	if size <= 0 {
		return []T{}
	}

	rng := rand.New(rand.NewPCG(seed, seed))

	// partial Fisher-Yates over indices
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < size; i++ {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	out := make([]T, size)
	for i := 0; i < size; i++ {
		out[i] = items[idx[i]]
	}
	return out
}

// Outcome describes what a Sample call did, for reporting
type Outcome struct {
	Available int  `json:"available"`
	Requested int  `json:"requested"`
	Drawn     int  `json:"drawn"`
	UsedAll   bool `json:"used_all"`
}

// Describe reports the outcome of sampling size items out of available
func Describe(available, size int) Outcome {
	drawn := size
	if available < size {
		drawn = available
	}
	if drawn < 0 {
		drawn = 0
	}
	return Outcome{
		Available: available,
		Requested: size,
		Drawn:     drawn,
		UsedAll:   drawn == available,
	}
}

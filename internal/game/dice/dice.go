// Package dice provides the randomness abstraction used by combat resolution.
package dice

// Source is the randomness provider for fight pairing, evasion rolls, damage
// variance and roster shuffles.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0.0, 1.0).
	Float64() float64
	// Shuffle pseudo-randomizes the order of n elements using swap.
	//
	// Precondition: n >= 0.
	Shuffle(n int, swap func(i, j int))
}

// Between returns a uniform float in [low, high).
//
// Precondition: low <= high.
func Between(src Source, low, high float64) float64 {
	return low + src.Float64()*(high-low)
}

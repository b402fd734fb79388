package dice

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	mrand "math/rand"
	"sync"
)

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in their range.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// Float64 returns a cryptographically secure float in [0.0, 1.0) built from
// 53 random bits.
func (c *cryptoSource) Float64() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}

// Shuffle performs a Fisher-Yates shuffle driven by Intn.
func (c *cryptoSource) Shuffle(n int, swap func(i, j int)) {
	if n < 0 {
		panic("dice: Shuffle called with n < 0")
	}
	for i := n - 1; i > 0; i-- {
		swap(i, c.Intn(i+1))
	}
}

// seededSource is a reproducible Source over math/rand guarded by a mutex.
type seededSource struct {
	mu  sync.Mutex
	rnd *mrand.Rand
}

// NewSeededSource returns a reproducible Source. Two sources built from the
// same seed produce the same sequence of values for the same call sequence.
func NewSeededSource(seed int64) Source {
	return &seededSource{rnd: mrand.New(mrand.NewSource(seed))}
}

func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

func (s *seededSource) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(n, swap)
}

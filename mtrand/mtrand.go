// Package mtrand implements the 32-bit Mersenne Twister (MT19937) with the
// seeding and range reduction used by PHP's mt_srand / mt_rand (PHP 7.1+).
//
// The generator exists to reproduce legacy output bit for bit. It is not a
// cryptographic source and must never be used to generate secrets.
package mtrand

import "math"

const (
	stateSize  = 624
	shiftSize  = 397
	matrixA    = 0x9908b0df
	upperMask  = 0x80000000
	lowerMask  = 0x7fffffff
	initFactor = 1812433253
)

// Source is a seeded MT19937 generator.
//
// A Source is not safe for concurrent use. Create one per computation so that
// the sequence a caller observes depends only on the seed.
type Source struct {
	state [stateSize]uint32
	index int
}

// New returns a Source seeded with seed.
func New(seed uint32) *Source {
	s := &Source{}
	s.Seed(seed)
	return s
}

// Seed resets the generator using the reference init_genrand routine.
func (s *Source) Seed(seed uint32) {
	s.state[0] = seed
	for i := 1; i < stateSize; i++ {
		prev := s.state[i-1]
		s.state[i] = initFactor*(prev^(prev>>30)) + uint32(i)
	}
	s.index = stateSize
}

// Uint32 returns the next tempered 32-bit output.
func (s *Source) Uint32() uint32 {
	if s.index >= stateSize {
		s.twist()
	}
	y := s.state[s.index]
	s.index++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

// Range returns a uniformly distributed integer in [lo, hi].
//
// Reduction matches PHP's mt_rand(lo, hi): a full 32-bit span is returned as
// is, power-of-two spans are masked, and every other span uses modulo with
// rejection of the biased tail. The number of generator outputs consumed
// therefore depends on the span, which matters to callers replaying a
// sequence.
//
// Range panics if hi < lo.
func (s *Source) Range(lo, hi uint32) uint32 {
	if hi < lo {
		panic("mtrand: invalid argument to Range")
	}
	span := hi - lo
	result := s.Uint32()
	if span == math.MaxUint32 {
		return lo + result
	}

	span++
	if span&(span-1) == 0 {
		return lo + result&(span-1)
	}

	limit := math.MaxUint32 - (math.MaxUint32 % span) - 1
	for result > limit {
		result = s.Uint32()
	}
	return lo + result%span
}

// Intn returns a uniformly distributed integer in [0, n).
// It panics if n <= 0 or n does not fit in 32 bits.
func (s *Source) Intn(n int) int {
	if n <= 0 || uint64(n) > math.MaxUint32+1 {
		panic("mtrand: invalid argument to Intn")
	}
	return int(s.Range(0, uint32(n-1)))
}

// twist regenerates the whole state block in place.
func (s *Source) twist() {
	for i := 0; i < stateSize; i++ {
		y := (s.state[i] & upperMask) | (s.state[(i+1)%stateSize] & lowerMask)
		next := s.state[(i+shiftSize)%stateSize] ^ (y >> 1)
		if y&1 != 0 {
			next ^= matrixA
		}
		s.state[i] = next
	}
	s.index = 0
}

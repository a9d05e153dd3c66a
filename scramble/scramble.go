// Package scramble implements Spaark's seeded byte permutation.
//
// Bytes of the input are dropped into a slot array at positions drawn from a
// freshly seeded MT19937 generator, retrying whenever a slot is taken. The
// retries consume generator output, so only an identical generator and range
// reduction (see package mtrand) reproduces legacy results.
//
// The construction adds no cryptographic strength. It is kept so that hashes
// produced by the PHP framework remain verifiable.
package scramble

import "github.com/hasbyte1/go-spaark-utils/mtrand"

// Alphabet supplies the filler characters for padded output.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Seed derives the generator seed from the credential length:
// ((len * 2) mod 11) + 5. Only eleven seeds are possible.
func Seed(credential []byte) uint32 {
	return uint32((len(credential)<<1)%11) + 5
}

// Permute rearranges input using a generator seeded with seed. The result has
// the same length and the same multiset of bytes as input.
func Permute(input []byte, seed uint32) []byte {
	return PermutePadded(input, seed, 0)
}

// PermutePadded is Permute with the output widened to padLength slots. Slots
// left empty after placing every input byte are filled in increasing index
// order with characters drawn from [Alphabet].
//
// padLength <= 0 disables padding. A padLength shorter than input is a caller
// error; it is treated as len(input).
func PermutePadded(input []byte, seed uint32, padLength int) []byte {
	outLen := len(input)
	if padLength > outLen {
		outLen = padLength
	}
	if outLen == 0 {
		return []byte{}
	}

	src := mtrand.New(seed)
	out := make([]byte, outLen)
	taken := make([]bool, outLen)

	for _, b := range input {
		pos := src.Intn(outLen)
		for taken[pos] {
			pos = src.Intn(outLen)
		}
		taken[pos] = true
		out[pos] = b
	}

	if padLength > 0 {
		for i := range out {
			if !taken[i] {
				out[i] = Alphabet[src.Intn(len(Alphabet))]
			}
		}
	}
	return out
}

// Harvest draws n distinct positions from scrambled with the generator
// sequence Permute uses for seed and returns the bytes found there, in draw
// order. Harvest(Permute(x, seed), len(x), seed) returns x, and the same holds
// for padded output.
//
// n is clamped to len(scrambled).
//
// Deprecated: kept for reading values stored by the scramble-and-harvest
// scheme; new code has no use for it.
func Harvest(scrambled []byte, n int, seed uint32) []byte {
	if n > len(scrambled) {
		n = len(scrambled)
	}
	if n <= 0 {
		return []byte{}
	}

	src := mtrand.New(seed)
	out := make([]byte, 0, n)
	used := make([]bool, len(scrambled))

	for i := 0; i < n; i++ {
		pos := src.Intn(len(scrambled))
		for used[pos] {
			pos = src.Intn(len(scrambled))
		}
		used[pos] = true
		out = append(out, scrambled[pos])
	}
	return out
}

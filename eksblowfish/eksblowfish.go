// Package eksblowfish computes OpenBSD bcrypt ($2a$) hashes with a
// caller-supplied salt.
//
// golang.org/x/crypto/bcrypt always draws a fresh random salt, which makes it
// unusable for schemes that re-derive a stored hash from its own salt. This
// package runs the same expensive key schedule on top of
// golang.org/x/crypto/blowfish and produces output that
// [bcrypt.CompareHashAndPassword] accepts.
package eksblowfish

import (
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/blowfish"
)

const (
	// Prefix identifies the bcrypt variant produced by [Crypt].
	Prefix = "$2a$"

	// SaltLen is the length of an encoded bcrypt salt.
	SaltLen = 22

	// HashLen is the length of a complete encoded hash.
	HashLen = 60

	// MaxKeyLen is the number of key bytes that influence the result.
	MaxKeyLen = 72

	// alphabet is bcrypt's base64 alphabet. It differs from RFC 4648 in
	// ordering only.
	alphabet = "./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Encoding is the unpadded base64 encoding used for bcrypt salts and digests.
var Encoding = base64.NewEncoding(alphabet).WithPadding(base64.NoPadding)

var magicCipherData = []byte("OrpheanBeholderScryDoubt")

var (
	// ErrInvalidCost is returned for a cost outside [bcrypt.MinCost, bcrypt.MaxCost].
	ErrInvalidCost = errors.New("eksblowfish: invalid cost")

	// ErrInvalidSalt is returned when the salt is not 22 characters of the
	// bcrypt alphabet.
	ErrInvalidSalt = errors.New("eksblowfish: invalid salt")
)

// IsSaltChar reports whether c belongs to the bcrypt base64 alphabet.
func IsSaltChar(c byte) bool {
	switch {
	case c == '.' || c == '/':
		return true
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	default:
		return false
	}
}

// Crypt hashes key with the given cost and 22-character salt and returns the
// 60-character encoded hash "$2a$<cost>$<salt><digest>".
//
// A NUL terminator is appended to key before the key schedule, as C
// implementations do. Bytes past [MaxKeyLen] do not affect the result.
func Crypt(key []byte, cost int, salt string) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidCost, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if len(salt) != SaltLen {
		return "", fmt.Errorf("%w: length %d, want %d", ErrInvalidSalt, len(salt), SaltLen)
	}
	csalt, err := Encoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSalt, err)
	}

	c, err := expensiveSetup(key, uint(cost), csalt)
	if err != nil {
		return "", err
	}

	data := make([]byte, len(magicCipherData))
	copy(data, magicCipherData)
	for i := 0; i < len(data); i += blowfish.BlockSize {
		for j := 0; j < 64; j++ {
			c.Encrypt(data[i:i+blowfish.BlockSize], data[i:i+blowfish.BlockSize])
		}
	}

	// Only 23 of the 24 ciphertext bytes are encoded, as in every C
	// implementation.
	out := make([]byte, 0, HashLen)
	out = fmt.Appendf(out, "%s%02d$", Prefix, cost)
	out = append(out, Encoding.EncodeToString(csalt)...)
	out = append(out, Encoding.EncodeToString(data[:23])...)
	return string(out), nil
}

func expensiveSetup(key []byte, cost uint, salt []byte) (*blowfish.Cipher, error) {
	ckey := append(key[:len(key):len(key)], 0)

	c, err := blowfish.NewSaltedCipher(ckey, salt)
	if err != nil {
		return nil, fmt.Errorf("eksblowfish: key schedule: %w", err)
	}

	rounds := uint64(1) << cost
	for i := uint64(0); i < rounds; i++ {
		blowfish.ExpandKey(ckey, c)
		blowfish.ExpandKey(salt, c)
	}
	return c, nil
}

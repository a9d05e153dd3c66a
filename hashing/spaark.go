package hashing

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hasbyte1/go-spaark-utils/eksblowfish"
	"github.com/hasbyte1/go-spaark-utils/scramble"
)

const (
	// DefaultSpaarkStrength is the bcrypt work factor Spaark applications
	// shipped with.
	DefaultSpaarkStrength = 7

	// SpaarkSaltLen is the number of salt characters stored in a Spaark hash.
	SpaarkSaltLen = 21

	spaarkPrefix = eksblowfish.Prefix

	// spaarkMinLen covers "$2a$", two strength digits, one separator and the
	// salt.
	spaarkMinLen = 7 + SpaarkSaltLen

	// spaarkSaltPad completes the 21 stored salt characters to the 22 bcrypt
	// expects. The last character only carries two bits; they are zero.
	spaarkSaltPad = "."
)

// SpaarkOptions configures a [SpaarkHasher].
type SpaarkOptions struct {
	// AppSalt is the application-wide secret appended to every credential
	// before scrambling. It must match the value the stored hashes were made
	// with.
	AppSalt []byte

	// Strength is the bcrypt work factor for new hashes.
	// Valid range: [bcrypt.MinCost (4), bcrypt.MaxCost (31)].
	// Default: [DefaultSpaarkStrength] (7).
	Strength int
}

// DefaultSpaarkOptions returns SpaarkOptions with [DefaultSpaarkStrength].
func DefaultSpaarkOptions(appSalt []byte) SpaarkOptions {
	return SpaarkOptions{AppSalt: appSalt, Strength: DefaultSpaarkStrength}
}

// SpaarkParams are the encoding parameters carried by a Spaark hash.
type SpaarkParams struct {
	Strength int
	Salt     string
}

// ParseSpaarkHash extracts strength and salt from a stored Spaark hash.
//
// The hash must start with "$2a$" ([ErrUnsupportedHashFormat]) and be at
// least 28 characters long ([ErrInvalidInputLength]). The strength is the
// decimal number at offsets 4-5 and the salt the 21 characters at offsets
// 7-27; anything else yields [ErrInvalidHash].
func ParseSpaarkHash(hash string) (SpaarkParams, error) {
	if !strings.HasPrefix(hash, spaarkPrefix) {
		return SpaarkParams{}, fmt.Errorf("%w: want %q prefix", ErrUnsupportedHashFormat, spaarkPrefix)
	}
	if len(hash) < spaarkMinLen {
		return SpaarkParams{}, fmt.Errorf("%w: %d characters, need at least %d",
			ErrInvalidInputLength, len(hash), spaarkMinLen)
	}

	strength, err := strconv.Atoi(hash[4:6])
	if err != nil {
		return SpaarkParams{}, fmt.Errorf("%w: strength %q is not a number", ErrInvalidHash, hash[4:6])
	}
	if strength < bcrypt.MinCost || strength > bcrypt.MaxCost {
		return SpaarkParams{}, fmt.Errorf("%w: strength %d must be in [%d, %d]",
			ErrInvalidHash, strength, bcrypt.MinCost, bcrypt.MaxCost)
	}

	salt := hash[7:spaarkMinLen]
	for i := 0; i < len(salt); i++ {
		if !eksblowfish.IsSaltChar(salt[i]) {
			return SpaarkParams{}, fmt.Errorf("%w: salt character %q at offset %d",
				ErrInvalidHash, salt[i], 7+i)
		}
	}
	return SpaarkParams{Strength: strength, Salt: salt}, nil
}

// SpaarkHasher reproduces the password hashes of the Spaark PHP framework.
//
// The credential and the application salt are concatenated, scrambled with a
// seed derived from the credential length, and hashed with bcrypt using the
// stored (or a fresh) salt. Verification re-derives the hash with the stored
// salt and strength and compares in constant time.
//
// The scheme is kept so existing hashes stay verifiable. New hashes should use
// [Argon2idHasher]; [Manager.CheckAndRehash] performs the migration.
//
// # Thread safety
//
// SpaarkHasher is immutable after construction and safe for concurrent use.
type SpaarkHasher struct {
	appSalt  []byte
	strength int
}

// NewSpaarkHasher constructs a SpaarkHasher with the provided options.
// Returns [ErrInvalidOption] if Strength is outside [bcrypt.MinCost, bcrypt.MaxCost].
func NewSpaarkHasher(opts SpaarkOptions) (*SpaarkHasher, error) {
	if opts.Strength < bcrypt.MinCost || opts.Strength > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: spaark strength %d must be in [%d, %d]",
			ErrInvalidOption, opts.Strength, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &SpaarkHasher{
		appSalt:  append([]byte(nil), opts.AppSalt...),
		strength: opts.Strength,
	}, nil
}

// Driver returns [DriverSpaark].
func (h *SpaarkHasher) Driver() DriverName { return DriverSpaark }

// Strength returns the configured work factor for new hashes.
func (h *SpaarkHasher) Strength() int { return h.strength }

// Hash derives the encoded hash of credential.
//
// With an empty prior, a fresh salt is generated and the configured strength
// is used. Otherwise strength and salt are taken from prior (see
// [ParseSpaarkHash]), which makes the result deterministic:
// Hash(c, Hash(c, "")) returns its prior unchanged.
func (h *SpaarkHasher) Hash(credential []byte, prior string) (string, error) {
	var params SpaarkParams
	if prior == "" {
		salt, err := freshSpaarkSalt()
		if err != nil {
			return "", err
		}
		params = SpaarkParams{Strength: h.strength, Salt: salt}
	} else {
		p, err := ParseSpaarkHash(prior)
		if err != nil {
			return "", err
		}
		params = p
	}
	return h.derive(credential, params)
}

// Verify reports whether credential matches stored. stored must be a Spaark
// hash; parse failures are returned as errors.
func (h *SpaarkHasher) Verify(credential []byte, stored string) (bool, error) {
	params, err := ParseSpaarkHash(stored)
	if err != nil {
		return false, err
	}
	derived, err := h.derive(credential, params)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(derived), []byte(stored)) == 1, nil
}

// Make hashes password with a fresh salt and the configured strength.
func (h *SpaarkHasher) Make(password string) (string, error) {
	return h.Hash([]byte(password), "")
}

// Check verifies password against a Spaark hash.
func (h *SpaarkHasher) Check(password, hash string) (bool, error) {
	if !h.looksLikeSpaark(hash) {
		return false, fmt.Errorf("%w: %w", ErrAlgorithmMismatch, ErrUnsupportedHashFormat)
	}
	return h.Verify([]byte(password), hash)
}

// NeedsRehash returns true if the strength encoded in hash differs from the
// configured strength.
func (h *SpaarkHasher) NeedsRehash(hash string) (bool, error) {
	if !h.looksLikeSpaark(hash) {
		return false, fmt.Errorf("%w: %w", ErrAlgorithmMismatch, ErrUnsupportedHashFormat)
	}
	p, err := ParseSpaarkHash(hash)
	if err != nil {
		return false, err
	}
	return p.Strength != h.strength, nil
}

// Info extracts strength and salt from a Spaark hash.
//
// Returned [HashInfo].Params:
//   - "cost" → int
//   - "salt" → string
func (h *SpaarkHasher) Info(hash string) (HashInfo, error) {
	if !h.looksLikeSpaark(hash) {
		return HashInfo{}, fmt.Errorf("%w: %w", ErrAlgorithmMismatch, ErrUnsupportedHashFormat)
	}
	p, err := ParseSpaarkHash(hash)
	if err != nil {
		return HashInfo{}, err
	}
	return HashInfo{
		Driver: DriverSpaark,
		Params: map[string]any{"cost": p.Strength, "salt": p.Salt},
	}, nil
}

func (h *SpaarkHasher) derive(credential []byte, p SpaarkParams) (string, error) {
	mixed := make([]byte, 0, len(credential)+len(h.appSalt))
	mixed = append(mixed, credential...)
	mixed = append(mixed, h.appSalt...)
	mixed = scramble.Permute(mixed, scramble.Seed(credential))

	hash, err := eksblowfish.Crypt(mixed, p.Strength, p.Salt+spaarkSaltPad)
	if err != nil {
		return "", fmt.Errorf("hashing: spaark: %w", err)
	}
	return hash, nil
}

func (h *SpaarkHasher) looksLikeSpaark(hash string) bool {
	d, ok := DetectDriver(hash)
	return ok && d == DriverSpaark
}

// freshSpaarkSalt returns the first 21 hex digits of the SHA-1 of a random
// UUID. Hex digits are a subset of the bcrypt alphabet.
func freshSpaarkSalt() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("hashing: spaark: failed to generate salt: %w", err)
	}
	sum := sha1.Sum([]byte(id.String()))
	return hex.EncodeToString(sum[:])[:SpaarkSaltLen], nil
}

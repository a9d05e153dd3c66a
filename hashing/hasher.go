package hashing

import "strings"

// DriverName identifies a hashing algorithm driver.
type DriverName string

const (
	// DriverSpaark selects the legacy Spaark scheme: seeded scramble of the
	// credential and application salt, then bcrypt ($2a$).
	DriverSpaark DriverName = "spaark"
	// DriverArgon2i selects the Argon2i driver.
	DriverArgon2i DriverName = "argon2i"
	// DriverArgon2id selects the Argon2id driver (recommended for new hashes).
	DriverArgon2id DriverName = "argon2id"
)

// Drivers lists the built-in driver names.
func Drivers() []DriverName {
	return []DriverName{DriverSpaark, DriverArgon2i, DriverArgon2id}
}

// Hasher is the core interface satisfied by all password-hashing drivers.
//
// All implementations must be safe for concurrent use by multiple goroutines.
type Hasher interface {
	// Make hashes a plaintext password and returns the encoded hash string.
	// A fresh salt is generated for every call, so two calls with the same
	// password will produce different outputs.
	Make(password string) (string, error)

	// Check verifies that password matches the previously encoded hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or
	// (false, err) if the hash is structurally invalid.
	//
	// Comparison is performed in constant time.
	Check(password, hash string) (bool, error)

	// NeedsRehash returns true when the hash was produced with parameters
	// different from the hasher's current configuration.
	NeedsRehash(hash string) (bool, error)

	// Info extracts metadata from an encoded hash string without verifying it.
	Info(hash string) (HashInfo, error)

	// Driver returns the DriverName implemented by this hasher.
	Driver() DriverName
}

// HashInfo carries metadata parsed from an encoded hash string.
type HashInfo struct {
	// Driver is the hashing algorithm that produced the hash.
	Driver DriverName

	// Params holds algorithm-specific parameters extracted from the hash string.
	//
	// For spaark:
	//   "cost" → int    (bcrypt work factor, the Spaark "strength")
	//   "salt" → string (21-character salt)
	//
	// For Argon2i and Argon2id:
	//   "version" → int   (Argon2 version number, typically 19)
	//   "memory"  → uint32 (KiB)
	//   "time"    → uint32 (iterations)
	//   "threads" → uint8  (degree of parallelism)
	//   "key_len" → uint32 (output key length in bytes)
	Params map[string]any
}

// DetectDriver inspects a hash string and returns the [DriverName] that
// produced it. It looks at the prefix only and does not verify the hash.
//
// Every "$2a$" hash is attributed to [DriverSpaark]: stored hashes of that
// shape come from the Spaark framework, which never stored plain bcrypt.
//
// The second return value is false when the hash format is not recognised.
func DetectDriver(hash string) (DriverName, bool) {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return DriverArgon2id, true
	case strings.HasPrefix(hash, "$argon2i$"):
		return DriverArgon2i, true
	case strings.HasPrefix(hash, spaarkPrefix):
		return DriverSpaark, true
	default:
		return "", false
	}
}

package hashing

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// DefaultArgon2Memory is the default memory cost in KiB (64 MiB).
	DefaultArgon2Memory uint32 = 64 * 1024

	// DefaultArgon2Time is the default number of iterations.
	DefaultArgon2Time uint32 = 3

	// DefaultArgon2Threads is the default degree of parallelism.
	DefaultArgon2Threads uint8 = 2

	// DefaultArgon2KeyLen is the default output key length in bytes.
	DefaultArgon2KeyLen uint32 = 32

	// DefaultArgon2SaltLen is the default random salt length in bytes.
	DefaultArgon2SaltLen uint32 = 16

	argon2Version = argon2.Version // 0x13 = 19
)

// Argon2Options configures an [Argon2iHasher] or [Argon2idHasher].
//
// Cost parameters are encoded into the output hash string (PHC format), so
// changing them only affects newly produced hashes. Pepper is not encoded and
// must stay the same for stored hashes to verify.
type Argon2Options struct {
	// Memory is the memory cost in KiB.
	// Minimum: 8 * Threads.  Default: [DefaultArgon2Memory] (64 MiB).
	Memory uint32

	// Time is the number of passes over memory (iterations).
	// Minimum: 1.  Default: [DefaultArgon2Time] (3).
	Time uint32

	// Threads is the degree of parallelism.
	// Minimum: 1.  Default: [DefaultArgon2Threads] (2).
	Threads uint8

	// KeyLen is the length of the derived key in bytes.
	// Default: [DefaultArgon2KeyLen] (32).
	KeyLen uint32

	// SaltLen is the length of the random salt in bytes.
	// Minimum: 8.  Default: [DefaultArgon2SaltLen] (16).
	SaltLen uint32

	// Pepper is an application secret. When set, the password is replaced by
	// HMAC-SHA256(Pepper, password) before key derivation, so a leaked hash
	// table is useless without the pepper. Empty disables peppering.
	Pepper []byte
}

// DefaultArgon2Options returns Argon2Options with the recommended cost
// parameters and no pepper.
func DefaultArgon2Options() Argon2Options {
	return Argon2Options{
		Memory:  DefaultArgon2Memory,
		Time:    DefaultArgon2Time,
		Threads: DefaultArgon2Threads,
		KeyLen:  DefaultArgon2KeyLen,
		SaltLen: DefaultArgon2SaltLen,
	}
}

func validateArgon2Options(opts Argon2Options) error {
	if opts.Time < 1 {
		return fmt.Errorf("%w: argon2 time must be ≥ 1, got %d", ErrInvalidOption, opts.Time)
	}
	if opts.Threads < 1 {
		return fmt.Errorf("%w: argon2 threads must be ≥ 1, got %d", ErrInvalidOption, opts.Threads)
	}
	if opts.Memory < 8*uint32(opts.Threads) {
		return fmt.Errorf("%w: argon2 memory (%d KiB) must be ≥ 8×threads (%d KiB)",
			ErrInvalidOption, opts.Memory, 8*uint32(opts.Threads))
	}
	if opts.KeyLen < 4 {
		return fmt.Errorf("%w: argon2 key_len must be ≥ 4, got %d", ErrInvalidOption, opts.KeyLen)
	}
	if opts.SaltLen < 8 {
		return fmt.Errorf("%w: argon2 salt_len must be ≥ 8, got %d", ErrInvalidOption, opts.SaltLen)
	}
	return nil
}

// argon2KDF is argon2.Key or argon2.IDKey.
type argon2KDF func(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) []byte

// argon2Hasher is the shared implementation behind both exported variants.
type argon2Hasher struct {
	variant DriverName
	kdf     argon2KDF
	opts    Argon2Options
}

func newArgon2Hasher(variant DriverName, kdf argon2KDF, opts Argon2Options) (argon2Hasher, error) {
	if err := validateArgon2Options(opts); err != nil {
		return argon2Hasher{}, err
	}
	opts.Pepper = append([]byte(nil), opts.Pepper...)
	return argon2Hasher{variant: variant, kdf: kdf, opts: opts}, nil
}

func (h argon2Hasher) make(password string) (string, error) {
	salt, err := randomSalt(h.opts.SaltLen)
	if err != nil {
		return "", err
	}
	key := h.kdf(h.secret(password), salt, h.opts.Time, h.opts.Memory, h.opts.Threads, h.opts.KeyLen)
	return encodePHC(h.variant, argon2Version, h.opts.Memory, h.opts.Time, h.opts.Threads, salt, key), nil
}

// check reads memory, time and threads from the hash itself, so verification
// keeps working after the configured costs change.
func (h argon2Hasher) check(password, hash string) (bool, error) {
	p, err := h.decode(hash)
	if err != nil {
		return false, err
	}
	computed := h.kdf(h.secret(password), p.salt, p.time, p.memory, p.threads, p.keyLen)
	return subtle.ConstantTimeCompare(computed, p.hash) == 1, nil
}

func (h argon2Hasher) needsRehash(hash string) (bool, error) {
	p, err := h.decode(hash)
	if err != nil {
		return false, err
	}
	return p.memory != h.opts.Memory ||
		p.time != h.opts.Time ||
		p.threads != h.opts.Threads ||
		p.keyLen != h.opts.KeyLen, nil
}

func (h argon2Hasher) info(hash string) (HashInfo, error) {
	p, err := h.decode(hash)
	if err != nil {
		return HashInfo{}, err
	}
	return HashInfo{
		Driver: p.variant,
		Params: map[string]any{
			"version": int(p.version),
			"memory":  p.memory,
			"time":    p.time,
			"threads": p.threads,
			"key_len": p.keyLen,
		},
	}, nil
}

func (h argon2Hasher) decode(hash string) (*argon2Params, error) {
	p, err := decodePHC(hash)
	if err != nil {
		return nil, err
	}
	if p.variant != h.variant {
		return nil, fmt.Errorf("%w: hash is %s, not %s", ErrAlgorithmMismatch, p.variant, h.variant)
	}
	return p, nil
}

func (h argon2Hasher) secret(password string) []byte {
	return applyPepper(h.opts.Pepper, password)
}

// applyPepper keys HMAC-SHA256 with pepper over password. The pepper is key
// material, not concatenated input, so its length does not eat into the
// password.
func applyPepper(pepper []byte, password string) []byte {
	if len(pepper) == 0 {
		return []byte(password)
	}
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

// Argon2iHasher hashes passwords using Argon2i (data-independent memory
// access). Prefer [Argon2idHasher] for new systems.
//
// Output format: $argon2i$v=19$m=…,t=…,p=…$<salt>$<hash>.
//
// Argon2iHasher is immutable after construction and safe for concurrent use.
type Argon2iHasher struct {
	argon2Hasher
}

// NewArgon2iHasher constructs an Argon2iHasher with the given options.
func NewArgon2iHasher(opts Argon2Options) (*Argon2iHasher, error) {
	h, err := newArgon2Hasher(DriverArgon2i, argon2.Key, opts)
	if err != nil {
		return nil, err
	}
	return &Argon2iHasher{h}, nil
}

// Driver returns [DriverArgon2i].
func (h *Argon2iHasher) Driver() DriverName { return DriverArgon2i }

// Options returns the current Argon2 parameter set.
func (h *Argon2iHasher) Options() Argon2Options { return h.opts }

// Make hashes password with Argon2i and a fresh random salt.
func (h *Argon2iHasher) Make(password string) (string, error) { return h.make(password) }

// Check verifies that password matches the Argon2i PHC hash.
func (h *Argon2iHasher) Check(password, hash string) (bool, error) { return h.check(password, hash) }

// NeedsRehash returns true if any cost parameter stored in hash differs from
// the hasher's current configuration.
func (h *Argon2iHasher) NeedsRehash(hash string) (bool, error) { return h.needsRehash(hash) }

// Info parses the PHC string and returns the encoded parameters.
func (h *Argon2iHasher) Info(hash string) (HashInfo, error) { return h.info(hash) }

// Argon2idHasher hashes passwords using Argon2id, the variant RFC 9106
// recommends for password storage. It is the default driver of
// [NewDefaultManager] and the migration target for Spaark hashes.
//
// Output format: $argon2id$v=19$m=…,t=…,p=…$<salt>$<hash>.
//
// Argon2idHasher is immutable after construction and safe for concurrent use.
type Argon2idHasher struct {
	argon2Hasher
}

// NewArgon2idHasher constructs an Argon2idHasher with the given options.
func NewArgon2idHasher(opts Argon2Options) (*Argon2idHasher, error) {
	h, err := newArgon2Hasher(DriverArgon2id, argon2.IDKey, opts)
	if err != nil {
		return nil, err
	}
	return &Argon2idHasher{h}, nil
}

// Driver returns [DriverArgon2id].
func (h *Argon2idHasher) Driver() DriverName { return DriverArgon2id }

// Options returns the current Argon2 parameter set.
func (h *Argon2idHasher) Options() Argon2Options { return h.opts }

// Make hashes password with Argon2id and a fresh random salt.
func (h *Argon2idHasher) Make(password string) (string, error) { return h.make(password) }

// Check verifies that password matches the Argon2id PHC hash.
func (h *Argon2idHasher) Check(password, hash string) (bool, error) { return h.check(password, hash) }

// NeedsRehash returns true if any cost parameter stored in hash differs from
// the hasher's current configuration.
func (h *Argon2idHasher) NeedsRehash(hash string) (bool, error) { return h.needsRehash(hash) }

// Info parses the PHC string and returns the encoded parameters.
func (h *Argon2idHasher) Info(hash string) (HashInfo, error) { return h.info(hash) }

// ──────────────────────────────────────────────────────────────────────────────
// PHC string format helpers
// ──────────────────────────────────────────────────────────────────────────────

type argon2Params struct {
	variant DriverName
	version uint32
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
	salt    []byte
	hash    []byte
}

// encodePHC serialises an Argon2 hash in PHC String Format:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
//
// Base64 is the standard alphabet without padding.
func encodePHC(variant DriverName, version, memory, time uint32, threads uint8, salt, hash []byte) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		string(variant),
		version,
		memory,
		time,
		threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
}

func decodePHC(encoded string) (*argon2Params, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("%w: expected 5-segment PHC string, got %d segments",
			ErrInvalidHash, len(parts)-1)
	}

	var variant DriverName
	switch parts[1] {
	case string(DriverArgon2i):
		variant = DriverArgon2i
	case string(DriverArgon2id):
		variant = DriverArgon2id
	default:
		return nil, fmt.Errorf("%w: unknown argon2 variant %q", ErrInvalidHash, parts[1])
	}

	version, err := parseKV(parts[2], "v")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if version != argon2Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrInvalidHash, version)
	}

	kvs, err := parseParams(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	memory, ok1 := kvs["m"]
	time, ok2 := kvs["t"]
	threads, ok3 := kvs["p"]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("%w: missing m/t/p in parameter segment %q", ErrInvalidHash, parts[3])
	}
	if memory > 1<<32-1 || time > 1<<32-1 || threads < 1 || threads > 255 {
		return nil, fmt.Errorf("%w: parameter out of range in %q", ErrInvalidHash, parts[3])
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid salt base64: %v", ErrInvalidHash, err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hash base64: %v", ErrInvalidHash, err)
	}
	if len(hash) == 0 {
		return nil, fmt.Errorf("%w: empty hash segment", ErrInvalidHash)
	}

	return &argon2Params{
		variant: variant,
		version: uint32(version),
		memory:  uint32(memory),
		time:    uint32(time),
		threads: uint8(threads),
		keyLen:  uint32(len(hash)),
		salt:    salt,
		hash:    hash,
	}, nil
}

// parseKV parses a "key=value" string and returns the uint64 value.
func parseKV(s, key string) (uint64, error) {
	prefix := key + "="
	if !strings.HasPrefix(s, prefix) {
		return 0, fmt.Errorf("expected %q prefix in %q", prefix, s)
	}
	return strconv.ParseUint(s[len(prefix):], 10, 64)
}

// parseParams splits "m=65536,t=3,p=2" into a map.
func parseParams(s string) (map[string]uint64, error) {
	out := make(map[string]uint64)
	for _, kv := range strings.Split(s, ",") {
		eq := strings.IndexByte(kv, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("malformed param %q", kv)
		}
		v, err := strconv.ParseUint(kv[eq+1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric value in %q: %v", kv, err)
		}
		out[kv[:eq]] = v
	}
	return out, nil
}

func randomSalt(n uint32) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("hashing: argon2: failed to generate salt: %w", err)
	}
	return b, nil
}

package hashing_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/hasbyte1/go-spaark-utils/hashing"
)

// fastArgon2Opts returns minimal Argon2 parameters for unit tests.
// Too weak for production use.
func fastArgon2Opts() hashing.Argon2Options {
	return hashing.Argon2Options{
		Memory:  8 * 2, // 8 × Threads minimum
		Time:    1,
		Threads: 2,
		KeyLen:  16,
		SaltLen: 8,
	}
}

// argon2Variant lets the same tests run against both Argon2 drivers.
type argon2Variant struct {
	driver hashing.DriverName
	other  hashing.DriverName
	build  func(hashing.Argon2Options) (hashing.Hasher, error)
}

func argon2Variants() []argon2Variant {
	return []argon2Variant{
		{
			driver: hashing.DriverArgon2i,
			other:  hashing.DriverArgon2id,
			build: func(o hashing.Argon2Options) (hashing.Hasher, error) {
				h, err := hashing.NewArgon2iHasher(o)
				if err != nil {
					return nil, err
				}
				return h, nil
			},
		},
		{
			driver: hashing.DriverArgon2id,
			other:  hashing.DriverArgon2i,
			build: func(o hashing.Argon2Options) (hashing.Hasher, error) {
				h, err := hashing.NewArgon2idHasher(o)
				if err != nil {
					return nil, err
				}
				return h, nil
			},
		},
	}
}

func (v argon2Variant) mustBuild(t *testing.T, opts hashing.Argon2Options) hashing.Hasher {
	t.Helper()
	h, err := v.build(opts)
	if err != nil {
		t.Fatalf("new %s hasher: %v", v.driver, err)
	}
	return h
}

func newTestArgon2idHasher(t *testing.T) *hashing.Argon2idHasher {
	t.Helper()
	h, err := hashing.NewArgon2idHasher(fastArgon2Opts())
	if err != nil {
		t.Fatalf("NewArgon2idHasher: %v", err)
	}
	return h
}

// ──────────────────────────────────────────────────────────────────────────────
// Constructor validation
// ──────────────────────────────────────────────────────────────────────────────

func TestArgon2_InvalidOptions(t *testing.T) {
	cases := []struct {
		name string
		opts hashing.Argon2Options
	}{
		{"time=0", hashing.Argon2Options{Memory: 64, Time: 0, Threads: 1, KeyLen: 16, SaltLen: 8}},
		{"threads=0", hashing.Argon2Options{Memory: 64, Time: 1, Threads: 0, KeyLen: 16, SaltLen: 8}},
		{"memory too low", hashing.Argon2Options{Memory: 1, Time: 1, Threads: 2, KeyLen: 16, SaltLen: 8}},
		{"key_len<4", hashing.Argon2Options{Memory: 64, Time: 1, Threads: 1, KeyLen: 3, SaltLen: 8}},
		{"salt_len<8", hashing.Argon2Options{Memory: 64, Time: 1, Threads: 1, KeyLen: 16, SaltLen: 7}},
	}
	for _, v := range argon2Variants() {
		for _, tc := range cases {
			t.Run(string(v.driver)+"/"+tc.name, func(t *testing.T) {
				_, err := v.build(tc.opts)
				if !errors.Is(err, hashing.ErrInvalidOption) {
					t.Errorf("expected ErrInvalidOption, got %v", err)
				}
			})
		}
	}
}

func TestDefaultArgon2Options(t *testing.T) {
	opts := hashing.DefaultArgon2Options()
	want := hashing.Argon2Options{
		Memory:  hashing.DefaultArgon2Memory,
		Time:    hashing.DefaultArgon2Time,
		Threads: hashing.DefaultArgon2Threads,
		KeyLen:  hashing.DefaultArgon2KeyLen,
		SaltLen: hashing.DefaultArgon2SaltLen,
	}
	if opts.Memory != want.Memory || opts.Time != want.Time || opts.Threads != want.Threads ||
		opts.KeyLen != want.KeyLen || opts.SaltLen != want.SaltLen {
		t.Errorf("DefaultArgon2Options() = %+v, want %+v", opts, want)
	}
	if len(opts.Pepper) != 0 {
		t.Error("default options must not carry a pepper")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Make / Check / NeedsRehash / Info (both variants)
// ──────────────────────────────────────────────────────────────────────────────

func TestArgon2_MakeAndCheck(t *testing.T) {
	for _, v := range argon2Variants() {
		t.Run(string(v.driver), func(t *testing.T) {
			h := v.mustBuild(t, fastArgon2Opts())

			hash, err := h.Make("secure-pass")
			if err != nil {
				t.Fatal(err)
			}
			if !strings.HasPrefix(hash, "$"+string(v.driver)+"$v=19$") {
				t.Errorf("unexpected PHC prefix: %q", hash)
			}
			if again, _ := h.Make("secure-pass"); again == hash {
				t.Error("two Make calls must produce different hashes")
			}

			ok, err := h.Check("secure-pass", hash)
			if err != nil || !ok {
				t.Fatalf("Check correct password: ok=%v err=%v", ok, err)
			}
			ok, err = h.Check("incorrect", hash)
			if err != nil || ok {
				t.Fatalf("Check wrong password: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestArgon2_EmptyPassword(t *testing.T) {
	for _, v := range argon2Variants() {
		h := v.mustBuild(t, fastArgon2Opts())
		hash, _ := h.Make("")
		if ok, err := h.Check("", hash); err != nil || !ok {
			t.Errorf("%s: empty password round-trip: ok=%v err=%v", v.driver, ok, err)
		}
	}
}

func TestArgon2_WrongVariant(t *testing.T) {
	for _, v := range argon2Variants() {
		h := v.mustBuild(t, fastArgon2Opts())
		other := argon2Variant{driver: v.other}
		for _, cand := range argon2Variants() {
			if cand.driver == v.other {
				other = cand
			}
		}
		hash, _ := other.mustBuild(t, fastArgon2Opts()).Make("pw")

		if _, err := h.Check("pw", hash); !errors.Is(err, hashing.ErrAlgorithmMismatch) {
			t.Errorf("%s Check: expected ErrAlgorithmMismatch, got %v", v.driver, err)
		}
		if _, err := h.NeedsRehash(hash); !errors.Is(err, hashing.ErrAlgorithmMismatch) {
			t.Errorf("%s NeedsRehash: expected ErrAlgorithmMismatch, got %v", v.driver, err)
		}
		if _, err := h.Info(hash); !errors.Is(err, hashing.ErrAlgorithmMismatch) {
			t.Errorf("%s Info: expected ErrAlgorithmMismatch, got %v", v.driver, err)
		}
	}
}

func TestArgon2_InvalidHash(t *testing.T) {
	bad := []string{
		"not-a-hash",
		"$argon2id$v=19$m=16,t=1,p=2$c2FsdHNhbHQ",
		"$argon2id$v=18$m=16,t=1,p=2$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=16,t=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=16,t=1,p=0$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=16,t=1,p=2$!!$aGFzaGhhc2g",
		"$argon2id$v=19$m=16,t=1,p=2$c2FsdHNhbHQ$",
		"$scrypt$v=19$m=16,t=1,p=2$c2FsdHNhbHQ$aGFzaGhhc2g",
	}
	h := newTestArgon2idHasher(t)
	for _, hash := range bad {
		if _, err := h.Check("pw", hash); !errors.Is(err, hashing.ErrInvalidHash) {
			t.Errorf("Check(%q): expected ErrInvalidHash, got %v", hash, err)
		}
	}
}

func TestArgon2_NeedsRehash(t *testing.T) {
	mutations := map[string]func(*hashing.Argon2Options){
		"memory":  func(o *hashing.Argon2Options) { o.Memory *= 2 },
		"time":    func(o *hashing.Argon2Options) { o.Time++ },
		"threads": func(o *hashing.Argon2Options) { o.Threads = 1 },
		"key_len": func(o *hashing.Argon2Options) { o.KeyLen = 32 },
	}
	for _, v := range argon2Variants() {
		base := v.mustBuild(t, fastArgon2Opts())
		hash, _ := base.Make("pw")

		if needs, err := base.NeedsRehash(hash); err != nil || needs {
			t.Errorf("%s same params: needs=%v err=%v", v.driver, needs, err)
		}
		for name, mutate := range mutations {
			opts := fastArgon2Opts()
			mutate(&opts)
			h := v.mustBuild(t, opts)
			if needs, err := h.NeedsRehash(hash); err != nil || !needs {
				t.Errorf("%s %s changed: needs=%v err=%v", v.driver, name, needs, err)
			}
		}
	}
}

func TestArgon2_Info(t *testing.T) {
	for _, v := range argon2Variants() {
		h := v.mustBuild(t, fastArgon2Opts())
		hash, _ := h.Make("pw")
		info, err := h.Info(hash)
		if err != nil {
			t.Fatalf("%s Info: %v", v.driver, err)
		}
		if info.Driver != v.driver {
			t.Errorf("Driver = %q, want %q", info.Driver, v.driver)
		}
		opts := fastArgon2Opts()
		if got := info.Params["memory"].(uint32); got != opts.Memory {
			t.Errorf("memory = %d, want %d", got, opts.Memory)
		}
		if got := info.Params["threads"].(uint8); got != opts.Threads {
			t.Errorf("threads = %d, want %d", got, opts.Threads)
		}
		if got := info.Params["version"].(int); got != 19 {
			t.Errorf("version = %d, want 19", got)
		}
		if h.Driver() != v.driver {
			t.Errorf("Driver() = %q, want %q", h.Driver(), v.driver)
		}
	}
}

// A hash made under old costs still verifies after the costs are raised.
func TestArgon2id_PHCRoundTrip_DifferentOptions(t *testing.T) {
	optsB := fastArgon2Opts()
	optsB.Memory *= 4
	optsB.Time = 2

	hA := newTestArgon2idHasher(t)
	hB, _ := hashing.NewArgon2idHasher(optsB)

	hash, _ := hA.Make("hello")
	ok, err := hB.Check("hello", hash)
	if err != nil || !ok {
		t.Fatalf("cross-option Check failed: ok=%v err=%v", ok, err)
	}
	needs, err := hB.NeedsRehash(hash)
	if err != nil || !needs {
		t.Fatalf("NeedsRehash after option upgrade: needs=%v err=%v", needs, err)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Pepper
// ──────────────────────────────────────────────────────────────────────────────

func TestArgon2_Pepper_RoundTrip(t *testing.T) {
	opts := fastArgon2Opts()
	opts.Pepper = []byte("1Ltkp0+30sdg!f4L={p")
	for _, v := range argon2Variants() {
		h := v.mustBuild(t, opts)
		hash, _ := h.Make("hunter2")
		if ok, err := h.Check("hunter2", hash); err != nil || !ok {
			t.Errorf("%s peppered round-trip: ok=%v err=%v", v.driver, ok, err)
		}
	}
}

func TestArgon2_Pepper_RequiredToVerify(t *testing.T) {
	peppered := fastArgon2Opts()
	peppered.Pepper = []byte("pepper-one")
	rotated := fastArgon2Opts()
	rotated.Pepper = []byte("pepper-two")

	for _, v := range argon2Variants() {
		hash, _ := v.mustBuild(t, peppered).Make("hunter2")

		if ok, _ := v.mustBuild(t, fastArgon2Opts()).Check("hunter2", hash); ok {
			t.Errorf("%s: unpeppered hasher verified a peppered hash", v.driver)
		}
		if ok, _ := v.mustBuild(t, rotated).Check("hunter2", hash); ok {
			t.Errorf("%s: wrong pepper verified the hash", v.driver)
		}
	}
}

func TestArgon2_Pepper_IsCopied(t *testing.T) {
	pepper := []byte("mutable")
	opts := fastArgon2Opts()
	opts.Pepper = pepper
	h, _ := hashing.NewArgon2idHasher(opts)
	hash, _ := h.Make("pw")

	pepper[0] = 'X'
	if ok, _ := h.Check("pw", hash); !ok {
		t.Error("hasher must not alias the caller's pepper slice")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// DetectDriver
// ──────────────────────────────────────────────────────────────────────────────

func TestDetectDriver(t *testing.T) {
	spaarkH := newTestSpaarkHasher(t)
	hashS, _ := spaarkH.Make("pw")

	tests := []struct {
		hash string
		want hashing.DriverName
	}{
		{hashS, hashing.DriverSpaark},
		{"$argon2i$v=19$m=16,t=1,p=2$c2FsdA$aGFzaA", hashing.DriverArgon2i},
		{"$argon2id$v=19$m=16,t=1,p=2$c2FsdA$aGFzaA", hashing.DriverArgon2id},
	}
	for _, v := range argon2Variants() {
		h, _ := v.mustBuild(t, fastArgon2Opts()).Make("pw")
		tests = append(tests, struct {
			hash string
			want hashing.DriverName
		}{h, v.driver})
	}
	for _, tt := range tests {
		got, ok := hashing.DetectDriver(tt.hash)
		if !ok || got != tt.want {
			t.Errorf("DetectDriver(%q...) = (%q, %v), want (%q, true)", tt.hash[:10], got, ok, tt.want)
		}
	}
}

func TestDetectDriver_Unknown(t *testing.T) {
	for _, hash := range []string{"some-random-string", "", "$2b$10$abc", "$2y$10$abc", "$1$badprefix"} {
		if _, ok := hashing.DetectDriver(hash); ok {
			t.Errorf("DetectDriver(%q): expected ok=false", hash)
		}
	}
}

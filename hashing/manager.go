package hashing

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Manager is a thread-safe driver registry and dispatcher for password hashing.
//
// Register one or more named [Hasher] implementations, nominate a default
// driver, and then call [Manager.Make] / [Manager.Check] / [Manager.NeedsRehash]
// through the Manager for all day-to-day hashing operations. Applications
// moving off Spaark register [DriverSpaark] next to a modern default and call
// [Manager.CheckAndRehash] on login.
//
// # Thread safety
//
// All Manager methods are safe for concurrent use by multiple goroutines.
// A [sync.RWMutex] serialises writes (RegisterDriver, SetDefaultDriver) while
// allowing concurrent reads (Make, Check, etc.).
type Manager struct {
	mu      sync.RWMutex
	drivers map[DriverName]Hasher
	def     DriverName
	logger  *zap.Logger
}

// ManagerOption customises a Manager at construction time.
type ManagerOption func(*Manager)

// WithLogger sets the logger used for rehash and verification events.
// Passwords, peppers and hashes are never logged. A nil logger is ignored.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates an empty Manager with the given default driver name.
// Drivers must be registered with [Manager.RegisterDriver] before any
// hashing operation is invoked through the Manager.
func NewManager(defaultDriver DriverName, opts ...ManagerOption) *Manager {
	m := &Manager{
		drivers: make(map[DriverName]Hasher),
		def:     defaultDriver,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewDefaultManager creates a Manager with all built-in drivers registered.
// pepper serves both as the Spaark application salt and as the Argon2 pepper.
// The default driver is [DriverArgon2id], so Spaark hashes are verified but
// never produced.
//
//	m, err := hashing.NewDefaultManager([]byte(appSalt))
//	ok, upgraded, err := m.CheckAndRehash(password, stored)
func NewDefaultManager(pepper []byte, opts ...ManagerOption) (*Manager, error) {
	spaarkH, err := NewSpaarkHasher(DefaultSpaarkOptions(pepper))
	if err != nil {
		return nil, fmt.Errorf("hashing: failed to create default spaark hasher: %w", err)
	}
	a2opts := DefaultArgon2Options()
	a2opts.Pepper = pepper
	argon2iH, err := NewArgon2iHasher(a2opts)
	if err != nil {
		return nil, fmt.Errorf("hashing: failed to create default argon2i hasher: %w", err)
	}
	argon2idH, err := NewArgon2idHasher(a2opts)
	if err != nil {
		return nil, fmt.Errorf("hashing: failed to create default argon2id hasher: %w", err)
	}

	m := NewManager(DriverArgon2id, opts...)
	_ = m.RegisterDriver(DriverSpaark, spaarkH)
	_ = m.RegisterDriver(DriverArgon2i, argon2iH)
	_ = m.RegisterDriver(DriverArgon2id, argon2idH)
	return m, nil
}

// RegisterDriver adds or replaces a named hasher in the Manager.
func (m *Manager) RegisterDriver(name DriverName, h Hasher) error {
	if name == "" {
		return ErrEmptyDriverName
	}
	if h == nil {
		return ErrNilHasher
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[name] = h
	return nil
}

// Driver returns the [Hasher] registered under name, or [ErrDriverNotFound]
// if no such driver has been registered.
func (m *Manager) Driver(name DriverName) (Hasher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.drivers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDriverNotFound, name)
	}
	return h, nil
}

// SetDefaultDriver changes the driver used by [Manager.Make], [Manager.Check],
// and [Manager.NeedsRehash].  The named driver must already be registered.
func (m *Manager) SetDefaultDriver(name DriverName) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[name]; !ok {
		return fmt.Errorf("%w: %q is not registered; call RegisterDriver first",
			ErrDriverNotFound, name)
	}
	m.def = name
	return nil
}

// DefaultDriver returns the name of the currently configured default driver.
func (m *Manager) DefaultDriver() DriverName {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.def
}

// HasDriver reports whether a driver with the given name is registered.
func (m *Manager) HasDriver(name DriverName) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.drivers[name]
	return ok
}

// Make hashes password using the default driver.
func (m *Manager) Make(password string) (string, error) {
	h, err := m.resolveDefault()
	if err != nil {
		return "", err
	}
	return h.Make(password)
}

// Check verifies password against hash using the default driver.
//
// To verify a hash that was produced by a specific (non-default) driver, use
// [Manager.Driver] or [Manager.CheckWithDetect].
func (m *Manager) Check(password, hash string) (bool, error) {
	h, err := m.resolveDefault()
	if err != nil {
		return false, err
	}
	return h.Check(password, hash)
}

// CheckWithDetect verifies password against hash by automatically detecting
// which driver produced the hash.
//
// Returns [ErrDriverNotFound] if the detected driver is not registered.
// Returns [ErrInvalidHash] if the hash format is unrecognised.
func (m *Manager) CheckWithDetect(password, hash string) (bool, error) {
	h, err := m.resolveByHash(hash)
	if err != nil {
		return false, err
	}
	return h.Check(password, hash)
}

// CheckAndRehash verifies password against hash with the driver that produced
// it and, on a match, reports a replacement hash when [Manager.NeedsRehash]
// says the stored one is outdated. upgraded is empty when no rehash is due.
//
// A failed rehash does not fail the check: it is logged and upgraded stays
// empty, so the caller simply retries on the next login.
func (m *Manager) CheckAndRehash(password, hash string) (ok bool, upgraded string, err error) {
	h, err := m.resolveByHash(hash)
	if err != nil {
		return false, "", err
	}
	ok, err = h.Check(password, hash)
	if err != nil || !ok {
		return false, "", err
	}

	needs, err := m.NeedsRehash(hash)
	if err != nil {
		m.logger.Warn("hashing: rehash check failed",
			zap.String("driver", string(h.Driver())), zap.Error(err))
		return true, "", nil
	}
	if !needs {
		return true, "", nil
	}

	upgraded, err = m.Make(password)
	if err != nil {
		m.logger.Warn("hashing: rehash failed",
			zap.String("driver", string(h.Driver())), zap.Error(err))
		return true, "", nil
	}
	m.logger.Info("hashing: hash upgraded",
		zap.String("from", string(h.Driver())),
		zap.String("to", string(m.DefaultDriver())))
	return true, upgraded, nil
}

// NeedsRehash reports whether hash should be re-hashed.
//
// It returns true when:
//  1. The hash was produced by a different driver than the current default, OR
//  2. The hash was produced by the current default driver but with different
//     parameters (e.g., another Spaark strength or Argon2 memory cost).
func (m *Manager) NeedsRehash(hash string) (bool, error) {
	detected, ok := DetectDriver(hash)
	if !ok {
		return false, ErrInvalidHash
	}

	m.mu.RLock()
	def := m.def
	m.mu.RUnlock()

	if detected != def {
		return true, nil
	}

	h, err := m.Driver(detected)
	if err != nil {
		return false, err
	}
	return h.NeedsRehash(hash)
}

// Info extracts metadata from hash using the default driver.
func (m *Manager) Info(hash string) (HashInfo, error) {
	h, err := m.resolveDefault()
	if err != nil {
		return HashInfo{}, err
	}
	return h.Info(hash)
}

// InfoWithDetect extracts metadata from hash by automatically detecting
// which driver produced it.
func (m *Manager) InfoWithDetect(hash string) (HashInfo, error) {
	h, err := m.resolveByHash(hash)
	if err != nil {
		return HashInfo{}, err
	}
	return h.Info(hash)
}

func (m *Manager) resolveDefault() (Hasher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.drivers[m.def]
	if !ok {
		return nil, fmt.Errorf("%w: default driver %q has not been registered",
			ErrDriverNotFound, m.def)
	}
	return h, nil
}

func (m *Manager) resolveByHash(hash string) (Hasher, error) {
	name, ok := DetectDriver(hash)
	if !ok {
		return nil, ErrInvalidHash
	}
	return m.Driver(name)
}

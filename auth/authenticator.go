// Package auth turns password verification results into authentication
// errors and keeps unknown-user and wrong-password attempts equally
// expensive.
//
// Looking users up is left to the caller:
//
//	user, found := repo.FindByLogin(login)
//	if !found {
//	    return a.Missing(password) // ErrNoSuchUser
//	}
//	res, err := a.Attempt(password, user.PasswordHash)
//	if err != nil {
//	    return err // ErrWrongPassword or a hash error
//	}
//	if res.Rehashed() {
//	    repo.UpdatePasswordHash(user.ID, res.Upgraded)
//	}
package auth

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// dummyPassword is hashed once to give Missing a realistic hash to verify.
const dummyPassword = "spaark-utils/auth: unknown user"

// Verifier is the subset of *hashing.Manager the Authenticator needs.
type Verifier interface {
	Make(password string) (string, error)
	CheckAndRehash(password, hash string) (ok bool, upgraded string, err error)
}

// Result describes a successful attempt.
type Result struct {
	// Upgraded is a replacement hash to persist, or empty.
	Upgraded string
}

// Rehashed reports whether the stored hash should be replaced by Upgraded.
func (r Result) Rehashed() bool { return r.Upgraded != "" }

// Option customises an Authenticator.
type Option func(*Authenticator)

// WithLogger sets the logger for failed attempts. Only the failure kind is
// logged.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithDummyHash sets the hash Missing verifies against. By default one is
// made lazily with the verifier's default driver.
func WithDummyHash(hash string) Option {
	return func(a *Authenticator) {
		a.dummy = hash
	}
}

// Authenticator checks passwords against stored hashes.
// It is safe for concurrent use.
type Authenticator struct {
	verifier Verifier
	logger   *zap.Logger

	once     sync.Once
	dummy    string
	dummyErr error
}

// NewAuthenticator returns an Authenticator over v, typically a
// *hashing.Manager.
func NewAuthenticator(v Verifier, opts ...Option) *Authenticator {
	a := &Authenticator{verifier: v, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Attempt verifies password against storedHash.
//
// A mismatch returns [ErrWrongPassword]. A malformed or unsupported hash
// returns the hashing error, which does not match [ErrAuthenticationFailed].
func (a *Authenticator) Attempt(password, storedHash string) (Result, error) {
	ok, upgraded, err := a.verifier.CheckAndRehash(password, storedHash)
	if err != nil {
		a.logger.Error("auth: stored hash rejected", zap.Error(err))
		return Result{}, fmt.Errorf("auth: verify stored hash: %w", err)
	}
	if !ok {
		a.logger.Debug("auth: attempt failed", zap.String("reason", "wrong_password"))
		return Result{}, ErrWrongPassword
	}
	return Result{Upgraded: upgraded}, nil
}

// Missing spends one verification on a dummy hash and returns
// [ErrNoSuchUser]. Call it when the account lookup finds nothing.
func (a *Authenticator) Missing(password string) error {
	if dummy, err := a.dummyHash(); err == nil {
		_, _, _ = a.verifier.CheckAndRehash(password, dummy)
	} else {
		a.logger.Warn("auth: dummy hash unavailable", zap.Error(err))
	}
	a.logger.Debug("auth: attempt failed", zap.String("reason", "no_such_user"))
	return ErrNoSuchUser
}

func (a *Authenticator) dummyHash() (string, error) {
	a.once.Do(func() {
		if a.dummy != "" {
			return
		}
		a.dummy, a.dummyErr = a.verifier.Make(dummyPassword)
	})
	return a.dummy, a.dummyErr
}

package auth

import (
	"errors"
	"fmt"
)

// ErrAuthenticationFailed is matched by every credential failure. Callers
// that must not reveal whether an account exists should test for this error
// only.
var ErrAuthenticationFailed = errors.New("auth: authentication failed")

var (
	// ErrNoSuchUser reports that no account matched the identifier.
	ErrNoSuchUser = fmt.Errorf("%w: no such user", ErrAuthenticationFailed)

	// ErrWrongPassword reports that the account exists but the password did
	// not match.
	ErrWrongPassword = fmt.Errorf("%w: wrong password", ErrAuthenticationFailed)
)

// Package auth holds the credential primitives: password hashing and
// time-limited signed tokens.
package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
var ErrPasswordTooLong = errors.New("auth: password exceeds 72 bytes")

// HashPassword returns a bcrypt hash of the plain-text password.
func HashPassword(plain string) (string, error) {
	if len(plain) > 72 {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword compares a bcrypt hash against the plain-text candidate.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

// dummyHash is compared against when no user matches the login.
func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("farmlink:no-such-user"), bcrypt.DefaultCost)
	})
	return dummy
}

// CheckNoUser spends one bcrypt comparison on plain and reports false, so
// a login for an unknown email takes as long as a wrong password.
func CheckNoUser(plain string) bool {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(plain))
	return false
}

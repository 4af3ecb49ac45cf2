package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordTooLong = errors.New("password must be 72 bytes or less")

const (
	BcryptCost = 12

	// MaxPasswordBytes is bcrypt's input ceiling. Longer inputs are rejected
	// rather than truncated: two long passwords sharing a 72-byte prefix must
	// never hash identically.
	MaxPasswordBytes = 72
)

// PasswordHasher wraps bcrypt hashing and verification.
type PasswordHasher struct {
	cost      int
	dummyHash string
}

func NewPasswordHasher() *PasswordHasher {
	h := &PasswordHasher{cost: BcryptCost}
	// Verified against when the login email is unknown, so unknown-user and
	// wrong-password take comparable time.
	dummy, err := bcrypt.GenerateFromPassword([]byte("elice-dummy-password"), BcryptCost)
	if err == nil {
		h.dummyHash = string(dummy)
	}
	return h
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. A malformed hash is a
// verification failure, never a fatal error.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// VerifyDummy burns a bcrypt comparison without revealing anything.
func (h *PasswordHasher) VerifyDummy(password string) {
	h.Verify(password, h.dummyHash)
}

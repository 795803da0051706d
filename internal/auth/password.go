// Package auth provides password credentials, session tokens and the
// administrator login check.
package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher stores passwords as bcrypt hashes
type BcryptHasher struct {
	cost int
}

// NewHasher creates a hasher with the given bcrypt cost; out-of-range costs fall
// back to bcrypt.DefaultCost.
func NewHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash of password
func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches the stored hash
func (h *BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// constantTimeEqual compares two secrets without leaking their common prefix length
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Package credentials implements password hashing (component C) and the
// cache-backed password reset flow (component F).
package credentials

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor; the spec requires at least 12.
const DefaultCost = 12

// Hasher hashes and verifies passwords.
type Hasher struct {
	cost int
}

// NewHasher builds a bcrypt hasher at the given cost, clamping anything
// below DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < DefaultCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash produces a bcrypt digest of password.
func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches the stored hash.
func (h *Hasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsRehash reports whether an existing hash was produced at a lower
// cost than the hasher currently targets, so callers can upgrade it
// transparently on next successful login.
func (h *Hasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < h.cost
}

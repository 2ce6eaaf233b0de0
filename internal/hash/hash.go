// Package hash provides one-way password hashing. Parameters are fixed
// process-wide; plaintext is never recoverable.
package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is the credential hashing contract used by the auth service.
type Hasher interface {
	// Hash returns a salted one-way digest of the plaintext.
	Hash(password string) (string, error)

	// Verify reports whether the plaintext matches the digest. Any
	// malformed digest verifies as false.
	Verify(password, digest string) bool
}

// BcryptHasher implements Hasher with bcrypt at the default cost.
type BcryptHasher struct {
	cost int
}

var _ Hasher = (*BcryptHasher)(nil)

// NewBcryptHasher creates a hasher at bcrypt.DefaultCost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// Hash returns the bcrypt digest of the password, salt included.
func (h *BcryptHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(digest), nil
}

// Verify compares the password against the stored digest in constant time.
func (h *BcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

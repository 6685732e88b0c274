package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMalformedHash is returned by Compare when the stored hash is not a usable bcrypt hash.
var ErrMalformedHash = errors.New("malformed password hash")

// Hasher is the password codec. Hashes are bcrypt with a random salt per call, so hashing the
// same password twice yields different strings. Plaintext never leaves the call.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher at cost, clamped to bcrypt's range. A non-positive cost selects
// bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the bcrypt work factor used by Hash.
func (h *Hasher) Cost() int { return h.cost }

// Hash returns the bcrypt hash of password. Passwords over 72 bytes fail with
// bcrypt.ErrPasswordTooLong.
func (h *Hasher) Hash(password []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(password, h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare checks password against hash. It returns nil on a match,
// bcrypt.ErrMismatchedHashAndPassword on a wrong password and ErrMalformedHash when hash cannot
// be compared at all.
func (h *Hasher) Compare(hash string, password []byte) error {
	if hash == "" {
		return ErrMalformedHash
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), password)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

// Verify reports whether password matches hash. The comparison is constant time; a malformed
// or empty hash is a mismatch, never an error.
func (h *Hasher) Verify(hash string, password []byte) bool {
	return h.Compare(hash, password) == nil
}

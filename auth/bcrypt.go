package auth

import (
	"sync"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes and verifies passwords using bcrypt. The salt is
// embedded in the digest and comparison runs in constant time.
type BcryptHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     string
}

var _ PasswordAuthenticator = (*BcryptHasher)(nil)

// NewBcryptHasher returns a hasher using the given cost. Costs outside the
// bcrypt range fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the configured work factor
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// HashPassword will generate a password hash
func (h *BcryptHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	d, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}
	return string(d), nil
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func (h *BcryptHasher) ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return errors.Wrap(err, errors.CategoryInternal, "malformed password hash")
	}
	return nil
}

// VerifyPassword reports whether password matches hash. A mismatch is not an
// error; a digest that is not a bcrypt hash is.
func (h *BcryptHasher) VerifyPassword(password, hash string) (bool, error) {
	err := h.ComparePasswordAndHash(password, hash)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// burn runs a comparison against a throwaway digest so that a login for an
// unknown account costs about the same as one with a wrong password.
func (h *BcryptHasher) burn(password string) {
	h.dummyOnce.Do(func() {
		d, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), h.cost)
		if err == nil {
			h.dummy = string(d)
		}
	})
	if h.dummy == "" {
		return
	}
	_ = bcrypt.CompareHashAndPassword([]byte(h.dummy), []byte(password))
}

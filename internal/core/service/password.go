package service

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/comanda/account-service/internal/core/domain"
)

// passwordHasher wraps bcrypt, which salts every hash and compares in
// constant time.
type passwordHasher struct {
	cost int
	// decoy is compared against when there is no stored hash, so a lookup
	// miss costs about as much as a wrong password.
	decoy []byte
}

func newPasswordHasher(cost int) *passwordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	decoy, err := bcrypt.GenerateFromPassword([]byte("comanda-decoy-password"), cost)
	if err != nil {
		decoy = nil
	}
	return &passwordHasher{cost: cost, decoy: decoy}
}

func (h *passwordHasher) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password longer than 72 bytes", domain.ErrInvalidInput)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *passwordHasher) matches(hash, password string) bool {
	if hash == "" {
		h.burn(password)
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *passwordHasher) burn(password string) {
	if h.decoy != nil {
		_ = bcrypt.CompareHashAndPassword(h.decoy, []byte(password))
	}
}
